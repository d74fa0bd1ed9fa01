package models

import (
	"time"
)

// Response records one user reserving one request. Cancelled responses keep
// Active=false and are never removed.
type Response struct {
	ID          int64     `json:"id"`
	ResponderID int64     `json:"responder_id"`
	RequestID   int64     `json:"request_id"`
	CreatedAt   time.Time `json:"created_at"`
	Active      bool      `json:"active"`
}

// ResponseView pairs a response with the request it points at. Request is nil
// when the author has deleted the request since.
type ResponseView struct {
	Response Response     `json:"response"`
	Request  *HelpRequest `json:"request"`
}
