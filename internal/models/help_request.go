package models

import (
	"time"
)

type HelpRequest struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Problem    string    `json:"problem"`
	Phone      string    `json:"phone"`
	Category   Category  `json:"category"`
	Region     Region    `json:"region"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Rating     int       `json:"rating"`
	Active     bool      `json:"active"`
	ReservedBy *int64    `json:"reserved_by"`
}

// Open reports whether the request is visible in the public feed.
func (r HelpRequest) Open() bool {
	return r.Active && r.ReservedBy == nil
}

// ReservedByUser reports whether userID currently holds the reservation.
func (r HelpRequest) ReservedByUser(userID int64) bool {
	return r.ReservedBy != nil && *r.ReservedBy == userID
}

// RequestFilter narrows the public feed. Zero fields mean "any".
type RequestFilter struct {
	Category Category
	Region   Region
}

func (f RequestFilter) Match(r HelpRequest) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Region != "" && r.Region != f.Region {
		return false
	}
	return true
}

// AuthoredRequest is a request as seen by its author, with the number of
// volunteers currently holding it.
type AuthoredRequest struct {
	Request       HelpRequest `json:"request"`
	ResponseCount int         `json:"response_count"`
}
