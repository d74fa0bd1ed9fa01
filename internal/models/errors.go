package models

import (
	"errors"
)

var (
	ErrNoRecord        = errors.New("models: no matching record found")
	ErrInvalidCategory = errors.New("models: invalid category")
	ErrInvalidRegion   = errors.New("models: invalid region")
	ErrInvalidPhone    = errors.New("models: invalid phone number")
	ErrEmptyProblem    = errors.New("models: empty problem description")
)
