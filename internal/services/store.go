package services

import (
	"context"

	"dobroBack/internal/models"
)

// RequestStore is the durable collection of help requests and responses.
// Conflicts and ownership mismatches are reported as false, never as errors.
type RequestStore interface {
	Create(ctx context.Context, req models.HelpRequest) (models.HelpRequest, error)
	FindByID(ctx context.Context, id int64) (*models.HelpRequest, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]models.HelpRequest, error)
	Delete(ctx context.Context, id, authorID int64) (bool, error)
	ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error)
	Reserve(ctx context.Context, requestID, responderID int64) (bool, error)
	Cancel(ctx context.Context, requestID, responderID int64) (bool, error)
	ListResponsesByUser(ctx context.Context, userID int64) ([]models.Response, error)
	ListResponsesByRequest(ctx context.Context, requestID int64) ([]models.Response, error)
	HasActiveResponse(ctx context.Context, userID, requestID int64) (bool, error)
	HasAcceptedAgreement(ctx context.Context, userID int64) (bool, error)
	AcceptAgreement(ctx context.Context, userID int64) error
}

// Logger provides minimal logging for services.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
