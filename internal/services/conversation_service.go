package services

import (
	"context"
	"fmt"
	"strings"

	"dobroBack/internal/models"
	"dobroBack/internal/session"
)

type OutcomeKind int

const (
	// OutcomeIdle means no creation flow is in progress; the text is ignored.
	OutcomeIdle OutcomeKind = iota
	OutcomeAdvanced
	OutcomeRePrompt
	OutcomeCreated
)

// Outcome describes what a submitted text did to the user's flow.
type Outcome struct {
	Kind OutcomeKind
	// Step is the step the user is in after the submission.
	Step session.Step
	// Reason is set for OutcomeRePrompt.
	Reason error
	// Request is set for OutcomeCreated.
	Request *models.HelpRequest
}

// ConversationService drives the problem -> address -> phone dialog that ends
// in a new help request.
type ConversationService struct {
	Store    RequestStore
	Sessions session.Registry
	Logger   Logger
}

func NewConversationService(store RequestStore, sessions session.Registry, logger Logger) *ConversationService {
	return &ConversationService{Store: store, Sessions: sessions, Logger: logger}
}

// Begin starts a flow with category and region already chosen.
func (s *ConversationService) Begin(ctx context.Context, userID int64, category models.Category, region models.Region) error {
	if !category.Valid() {
		return models.ErrInvalidCategory
	}
	if !region.Valid() {
		return models.ErrInvalidRegion
	}
	return s.Sessions.SetConversation(ctx, userID, session.Conversation{
		Step:     session.StepAwaitingProblem,
		Category: category,
		Region:   region,
	})
}

// SubmitText feeds one free-text message into the user's flow.
func (s *ConversationService) SubmitText(ctx context.Context, user models.Identity, text string) (Outcome, error) {
	conv, err := s.Sessions.GetConversation(ctx, user.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return Outcome{Kind: OutcomeIdle}, nil
	}
	text = strings.TrimSpace(text)

	switch conv.Step {
	case session.StepAwaitingProblem:
		if text == "" {
			return Outcome{Kind: OutcomeRePrompt, Step: conv.Step, Reason: models.ErrEmptyProblem}, nil
		}
		conv.Problem = text
		return s.advance(ctx, user.UserID, *conv, session.StepAwaitingAddress)

	case session.StepAwaitingAddress:
		conv.Address = text
		return s.advance(ctx, user.UserID, *conv, session.StepAwaitingPhone)

	case session.StepAwaitingPhone:
		if !ValidatePhone(text) {
			return Outcome{Kind: OutcomeRePrompt, Step: conv.Step, Reason: models.ErrInvalidPhone}, nil
		}
		// A concurrent message may have finished the flow already.
		taken, err := s.Sessions.TakeConversation(ctx, user.UserID)
		if err != nil {
			return Outcome{}, fmt.Errorf("take conversation: %w", err)
		}
		if taken == nil || taken.Step != session.StepAwaitingPhone {
			return Outcome{Kind: OutcomeIdle}, nil
		}
		created, err := s.Store.Create(ctx, models.HelpRequest{
			AuthorID:   user.UserID,
			AuthorName: user.DisplayName,
			Problem:    taken.Problem,
			Phone:      NormalizePhone(text),
			Category:   taken.Category,
			Region:     taken.Region,
			Address:    taken.Address,
		})
		if err != nil {
			if restoreErr := s.Sessions.SetConversation(ctx, user.UserID, *taken); restoreErr != nil {
				return Outcome{}, fmt.Errorf("create request: %w (restore conversation: %v)", err, restoreErr)
			}
			return Outcome{}, fmt.Errorf("create request: %w", err)
		}
		if err := s.Sessions.ClearAll(ctx, user.UserID); err != nil {
			return Outcome{}, fmt.Errorf("clear session: %w", err)
		}
		if s.Logger != nil {
			s.Logger.Infof("request %d created by user %d", created.ID, user.UserID)
		}
		return Outcome{Kind: OutcomeCreated, Request: &created}, nil
	}

	// unknown step, e.g. written by an older version
	if err := s.Sessions.ClearAll(ctx, user.UserID); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeIdle}, nil
}

func (s *ConversationService) advance(ctx context.Context, userID int64, conv session.Conversation, next session.Step) (Outcome, error) {
	conv.Step = next
	if err := s.Sessions.SetConversation(ctx, userID, conv); err != nil {
		return Outcome{}, fmt.Errorf("save conversation: %w", err)
	}
	return Outcome{Kind: OutcomeAdvanced, Step: next}, nil
}

// Current returns the flow in progress, or nil when the user is idle.
func (s *ConversationService) Current(ctx context.Context, userID int64) (*session.Conversation, error) {
	return s.Sessions.GetConversation(ctx, userID)
}

// Reset abandons any flow and clears the user's cursors.
func (s *ConversationService) Reset(ctx context.Context, userID int64) error {
	return s.Sessions.ClearAll(ctx, userID)
}
