package services

import (
	"context"
	"fmt"

	"golang.org/x/exp/slices"

	"dobroBack/internal/models"
)

// NoticeFunc renders the message sent to an author when someone reserves their
// request. responderPhone is empty when the responder never left a phone.
type NoticeFunc func(req models.HelpRequest, responder models.Identity, responderPhone string) string

// MatchingService implements browsing, reservation and the per-user views
// over a RequestStore.
type MatchingService struct {
	Store    RequestStore
	Notifier Notifier
	Logger   Logger
	Notice   NoticeFunc
}

func NewMatchingService(store RequestStore, notifier Notifier, logger Logger) *MatchingService {
	return &MatchingService{Store: store, Notifier: notifier, Logger: logger}
}

func (s *MatchingService) logger() Logger {
	if s.Logger == nil {
		return nopLogger{}
	}
	return s.Logger
}

// FilterFrom builds a filter from raw values; unknown values mean "any".
func FilterFrom(category, region string) models.RequestFilter {
	var f models.RequestFilter
	if c := models.Category(category); c.Valid() {
		f.Category = c
	}
	if r := models.Region(region); r.Valid() {
		f.Region = r
	}
	return f
}

// SortForFeed orders requests by rating descending, then oldest first.
func SortForFeed(requests []models.HelpRequest) {
	slices.SortStableFunc(requests, func(a, b models.HelpRequest) int {
		switch {
		case a.Rating != b.Rating:
			if a.Rating > b.Rating {
				return -1
			}
			return 1
		case !a.CreatedAt.Equal(b.CreatedAt):
			if a.CreatedAt.Before(b.CreatedAt) {
				return -1
			}
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Browse returns open requests matching the filter in feed order.
func (s *MatchingService) Browse(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	if !filter.Category.Valid() {
		filter.Category = ""
	}
	if !filter.Region.Valid() {
		filter.Region = ""
	}
	requests, err := s.Store.ListOpen(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("browse requests: %w", err)
	}
	SortForFeed(requests)
	return requests, nil
}

func (s *MatchingService) Request(ctx context.Context, id int64) (*models.HelpRequest, error) {
	return s.Store.FindByID(ctx, id)
}

// Reserve claims a request for responder. It returns false when the request is
// missing or already taken. The author is notified on success; a failed
// notification is logged and does not undo the reservation.
func (s *MatchingService) Reserve(ctx context.Context, requestID int64, responder models.Identity) (bool, error) {
	req, err := s.Store.FindByID(ctx, requestID)
	if err != nil {
		return false, fmt.Errorf("find request %d: %w", requestID, err)
	}
	if req == nil {
		return false, nil
	}
	ok, err := s.Store.Reserve(ctx, requestID, responder.UserID)
	if err != nil {
		return false, fmt.Errorf("reserve request %d: %w", requestID, err)
	}
	if !ok {
		return false, nil
	}
	s.logger().Infof("request %d reserved by user %d", requestID, responder.UserID)
	s.notifyAuthor(ctx, *req, responder)
	return true, nil
}

func (s *MatchingService) notifyAuthor(ctx context.Context, req models.HelpRequest, responder models.Identity) {
	if s.Notifier == nil {
		return
	}
	phone := ""
	own, err := s.Store.ListByAuthor(ctx, responder.UserID)
	if err != nil {
		s.logger().Errorf("lookup phone of user %d: %v", responder.UserID, err)
	} else if len(own) > 0 {
		// oldest request of the responder; the list is newest first
		phone = own[len(own)-1].Phone
	}

	text := defaultNotice(req, responder, phone)
	if s.Notice != nil {
		text = s.Notice(req, responder, phone)
	}
	if err := s.Notifier.NotifyUser(ctx, req.AuthorID, text); err != nil {
		s.logger().Errorf("notify author %d about request %d: %v", req.AuthorID, req.ID, err)
	}
}

func defaultNotice(req models.HelpRequest, responder models.Identity, phone string) string {
	if phone == "" {
		return fmt.Sprintf("%s responded to your request: %s", responder.DisplayName, req.Problem)
	}
	return fmt.Sprintf("%s (%s) responded to your request: %s", responder.DisplayName, phone, req.Problem)
}

// Cancel releases a reservation held by responderID.
func (s *MatchingService) Cancel(ctx context.Context, requestID, responderID int64) (bool, error) {
	ok, err := s.Store.Cancel(ctx, requestID, responderID)
	if err != nil {
		return false, fmt.Errorf("cancel request %d: %w", requestID, err)
	}
	if ok {
		s.logger().Infof("request %d released by user %d", requestID, responderID)
	}
	return ok, nil
}

func (s *MatchingService) HasResponded(ctx context.Context, userID, requestID int64) (bool, error) {
	return s.Store.HasActiveResponse(ctx, userID, requestID)
}

func (s *MatchingService) Delete(ctx context.Context, requestID, authorID int64) (bool, error) {
	ok, err := s.Store.Delete(ctx, requestID, authorID)
	if err != nil {
		return false, fmt.Errorf("delete request %d: %w", requestID, err)
	}
	return ok, nil
}

// MyRequests lists requests by the author, newest first, with active response counts.
func (s *MatchingService) MyRequests(ctx context.Context, authorID int64) ([]models.AuthoredRequest, error) {
	requests, err := s.Store.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list requests of %d: %w", authorID, err)
	}
	out := make([]models.AuthoredRequest, 0, len(requests))
	for _, req := range requests {
		responses, err := s.Store.ListResponsesByRequest(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("list responses of %d: %w", req.ID, err)
		}
		out = append(out, models.AuthoredRequest{Request: req, ResponseCount: len(responses)})
	}
	return out, nil
}

// MyResponses lists the user's active responses. A view with a nil Request
// points at a request its author has since deleted.
func (s *MatchingService) MyResponses(ctx context.Context, userID int64) ([]models.ResponseView, error) {
	responses, err := s.Store.ListResponsesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list responses of user %d: %w", userID, err)
	}
	out := make([]models.ResponseView, 0, len(responses))
	for _, resp := range responses {
		req, err := s.Store.FindByID(ctx, resp.RequestID)
		if err != nil {
			return nil, fmt.Errorf("find request %d: %w", resp.RequestID, err)
		}
		out = append(out, models.ResponseView{Response: resp, Request: req})
	}
	return out, nil
}

func (s *MatchingService) ResponsesToRequest(ctx context.Context, requestID int64) ([]models.Response, error) {
	return s.Store.ListResponsesByRequest(ctx, requestID)
}

func (s *MatchingService) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	requests, err := s.Store.ListByAuthor(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	responses, err := s.Store.ListResponsesByUser(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return models.Profile{UserID: userID, RequestsCount: len(requests), ResponsesCount: len(responses)}, nil
}

func (s *MatchingService) HasAccepted(ctx context.Context, userID int64) (bool, error) {
	return s.Store.HasAcceptedAgreement(ctx, userID)
}

func (s *MatchingService) AcceptAgreement(ctx context.Context, userID int64) error {
	if err := s.Store.AcceptAgreement(ctx, userID); err != nil {
		return fmt.Errorf("accept agreement for %d: %w", userID, err)
	}
	return nil
}
