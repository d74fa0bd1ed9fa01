package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"dobroBack/internal/models"
)

// SnapshotRepository implements the request store on top of a Persister. Every
// mutation is a load-modify-save cycle under one lock; a failed save leaves the
// persisted snapshot untouched.
type SnapshotRepository struct {
	Persister Persister
	Now       func() time.Time

	mu     sync.RWMutex
	lastID int64
}

func NewSnapshotRepository(p Persister) *SnapshotRepository {
	return &SnapshotRepository{Persister: p}
}

func (r *SnapshotRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *SnapshotRepository) read(ctx context.Context) (models.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Persister.Load(ctx)
}

// update runs fn against a private copy of the snapshot and saves it when fn
// reports a change.
func (r *SnapshotRepository) update(ctx context.Context, fn func(snap *models.Snapshot) (bool, error)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.Persister.Load(ctx)
	if err != nil {
		return false, err
	}
	working := snap.Clone()
	changed, err := fn(&working)
	if err != nil || !changed {
		return false, err
	}
	if err := r.Persister.Save(ctx, working); err != nil {
		return false, err
	}
	return true, nil
}

// nextID derives an id from the clock and keeps it strictly above every id seen.
// Must be called with mu held.
func (r *SnapshotRepository) nextID(snap *models.Snapshot, at time.Time) int64 {
	id := at.UnixMilli()
	floor := r.lastID
	for _, req := range snap.Requests {
		if req.ID > floor {
			floor = req.ID
		}
	}
	for _, resp := range snap.Responses {
		if resp.ID > floor {
			floor = resp.ID
		}
	}
	if id <= floor {
		id = floor + 1
	}
	r.lastID = id
	return id
}

func (r *SnapshotRepository) Create(ctx context.Context, req models.HelpRequest) (models.HelpRequest, error) {
	var created models.HelpRequest
	_, err := r.update(ctx, func(snap *models.Snapshot) (bool, error) {
		now := r.now()
		created = req
		created.ID = r.nextID(snap, now)
		created.CreatedAt = now
		created.Rating = 0
		created.Active = true
		created.ReservedBy = nil
		snap.Requests = append(snap.Requests, created)
		return true, nil
	})
	if err != nil {
		return models.HelpRequest{}, err
	}
	return created, nil
}

func (r *SnapshotRepository) FindByID(ctx context.Context, id int64) (*models.HelpRequest, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	for _, req := range snap.Requests {
		if req.ID == id {
			found := req
			return &found, nil
		}
	}
	return nil, nil
}

func (r *SnapshotRepository) ListByAuthor(ctx context.Context, authorID int64) ([]models.HelpRequest, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.HelpRequest
	for _, req := range snap.Requests {
		if req.AuthorID == authorID {
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, id, authorID int64) (bool, error) {
	return r.update(ctx, func(snap *models.Snapshot) (bool, error) {
		kept := snap.Requests[:0]
		removed := false
		for _, req := range snap.Requests {
			if req.ID == id && req.AuthorID == authorID {
				removed = true
				continue
			}
			kept = append(kept, req)
		}
		snap.Requests = kept
		return removed, nil
	})
}

func (r *SnapshotRepository) ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.HelpRequest
	for _, req := range snap.Requests {
		if req.Open() && filter.Match(req) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *SnapshotRepository) Reserve(ctx context.Context, requestID, responderID int64) (bool, error) {
	return r.update(ctx, func(snap *models.Snapshot) (bool, error) {
		idx := indexOfRequest(snap.Requests, requestID)
		if idx < 0 || !snap.Requests[idx].Open() {
			return false, nil
		}
		now := r.now()
		reservedBy := responderID
		snap.Requests[idx].ReservedBy = &reservedBy
		snap.Responses = append(snap.Responses, models.Response{
			ID:          r.nextID(snap, now),
			ResponderID: responderID,
			RequestID:   requestID,
			CreatedAt:   now,
			Active:      true,
		})
		return true, nil
	})
}

func (r *SnapshotRepository) Cancel(ctx context.Context, requestID, responderID int64) (bool, error) {
	return r.update(ctx, func(snap *models.Snapshot) (bool, error) {
		idx := indexOfRequest(snap.Requests, requestID)
		if idx < 0 || !snap.Requests[idx].ReservedByUser(responderID) {
			return false, nil
		}
		snap.Requests[idx].ReservedBy = nil
		for i := range snap.Responses {
			resp := &snap.Responses[i]
			if resp.Active && resp.RequestID == requestID && resp.ResponderID == responderID {
				resp.Active = false
			}
		}
		return true, nil
	})
}

func (r *SnapshotRepository) ListResponsesByUser(ctx context.Context, userID int64) ([]models.Response, error) {
	return r.listResponses(ctx, func(resp models.Response) bool { return resp.ResponderID == userID })
}

func (r *SnapshotRepository) ListResponsesByRequest(ctx context.Context, requestID int64) ([]models.Response, error) {
	return r.listResponses(ctx, func(resp models.Response) bool { return resp.RequestID == requestID })
}

func (r *SnapshotRepository) listResponses(ctx context.Context, match func(models.Response) bool) ([]models.Response, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Response
	for _, resp := range snap.Responses {
		if resp.Active && match(resp) {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r *SnapshotRepository) HasActiveResponse(ctx context.Context, userID, requestID int64) (bool, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return false, err
	}
	for _, resp := range snap.Responses {
		if resp.Active && resp.ResponderID == userID && resp.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SnapshotRepository) HasAcceptedAgreement(ctx context.Context, userID int64) (bool, error) {
	snap, err := r.read(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range snap.AcceptedUsers {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SnapshotRepository) AcceptAgreement(ctx context.Context, userID int64) error {
	_, err := r.update(ctx, func(snap *models.Snapshot) (bool, error) {
		for _, id := range snap.AcceptedUsers {
			if id == userID {
				return false, nil
			}
		}
		snap.AcceptedUsers = append(snap.AcceptedUsers, userID)
		return true, nil
	})
	return err
}

func indexOfRequest(requests []models.HelpRequest, id int64) int {
	for i := range requests {
		if requests[i].ID == id {
			return i
		}
	}
	return -1
}
