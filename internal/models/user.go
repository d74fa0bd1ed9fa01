package models

// Identity is carried by every inbound event.
type Identity struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type Profile struct {
	UserID         int64 `json:"user_id"`
	RequestsCount  int   `json:"requests_count"`
	ResponsesCount int   `json:"responses_count"`
}
