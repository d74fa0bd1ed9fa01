// Package session keeps short-lived per-user dialog state: the request being
// composed and the cursors of the paginated views.
package session

import (
	"context"

	"dobroBack/internal/models"
)

type Step string

const (
	StepAwaitingProblem Step = "awaiting_problem"
	StepAwaitingAddress Step = "awaiting_address"
	StepAwaitingPhone   Step = "awaiting_phone"
)

// Conversation is the state of an unfinished request creation flow.
type Conversation struct {
	Step     Step            `json:"step"`
	Category models.Category `json:"category"`
	Region   models.Region   `json:"region"`
	Problem  string          `json:"problem,omitempty"`
	Address  string          `json:"address,omitempty"`
}

// BrowseCursor points into the filtered public feed. Empty filters mean "any".
type BrowseCursor struct {
	Index    int             `json:"index"`
	Category models.Category `json:"category,omitempty"`
	Region   models.Region   `json:"region,omitempty"`
}

// Registry stores the three independent per-user entries. Writes for one user
// are last-write-wins.
type Registry interface {
	GetConversation(ctx context.Context, userID int64) (*Conversation, error)
	SetConversation(ctx context.Context, userID int64, conv Conversation) error
	// TakeConversation atomically removes and returns the flow in progress.
	// Of several concurrent callers only one receives it; the rest get nil.
	TakeConversation(ctx context.Context, userID int64) (*Conversation, error)
	GetBrowseCursor(ctx context.Context, userID int64) (BrowseCursor, bool, error)
	SetBrowseCursor(ctx context.Context, userID int64, cur BrowseCursor) error
	GetMyCursor(ctx context.Context, userID int64) (int, bool, error)
	SetMyCursor(ctx context.Context, userID int64, index int) error
	ClearAll(ctx context.Context, userID int64) error
}

// Clamp keeps index inside [0, n). It returns 0 for an empty list.
func Clamp(index, n int) int {
	if n <= 0 || index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}
