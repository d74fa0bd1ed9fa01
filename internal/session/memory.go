package session

import (
	"context"
	"sync"
	"time"
)

const shardCount = 32

type entry struct {
	conv    *Conversation
	browse  *BrowseCursor
	my      *int
	touched time.Time
}

type shard struct {
	mu    sync.Mutex
	users map[int64]*entry
}

// MemoryRegistry is an in-process Registry. Users are spread over shards so
// unrelated users never contend on one lock. Entries idle longer than TTL are
// dropped lazily and by Sweep; a zero TTL keeps them forever. The zero value
// is ready to use.
type MemoryRegistry struct {
	TTL time.Duration
	Now func() time.Time

	shards [shardCount]shard
}

func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	r := &MemoryRegistry{TTL: ttl}
	for i := range r.shards {
		r.shards[i].users = make(map[int64]*entry)
	}
	return r
}

func (r *MemoryRegistry) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *MemoryRegistry) shardFor(userID int64) *shard {
	idx := userID % shardCount
	if idx < 0 {
		idx = -idx
	}
	return &r.shards[idx]
}

func (r *MemoryRegistry) expired(e *entry, now time.Time) bool {
	return r.TTL > 0 && now.Sub(e.touched) > r.TTL
}

// with runs fn on the user's entry under the shard lock. When create is false
// and there is no live entry, fn receives nil.
func (r *MemoryRegistry) with(userID int64, create bool, fn func(e *entry)) {
	s := r.shardFor(userID)
	now := r.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.users[userID]
	if ok && r.expired(e, now) {
		delete(s.users, userID)
		e, ok = nil, false
	}
	if !ok && create {
		if s.users == nil {
			s.users = make(map[int64]*entry)
		}
		e = &entry{}
		s.users[userID] = e
	}
	if e != nil && create {
		e.touched = now
	}
	fn(e)
}

func (r *MemoryRegistry) GetConversation(_ context.Context, userID int64) (*Conversation, error) {
	var out *Conversation
	r.with(userID, false, func(e *entry) {
		if e != nil && e.conv != nil {
			conv := *e.conv
			out = &conv
		}
	})
	return out, nil
}

func (r *MemoryRegistry) SetConversation(_ context.Context, userID int64, conv Conversation) error {
	r.with(userID, true, func(e *entry) { e.conv = &conv })
	return nil
}

func (r *MemoryRegistry) TakeConversation(_ context.Context, userID int64) (*Conversation, error) {
	var out *Conversation
	r.with(userID, false, func(e *entry) {
		if e != nil && e.conv != nil {
			out = e.conv
			e.conv = nil
		}
	})
	return out, nil
}

func (r *MemoryRegistry) GetBrowseCursor(_ context.Context, userID int64) (BrowseCursor, bool, error) {
	var (
		out   BrowseCursor
		found bool
	)
	r.with(userID, false, func(e *entry) {
		if e != nil && e.browse != nil {
			out, found = *e.browse, true
		}
	})
	return out, found, nil
}

func (r *MemoryRegistry) SetBrowseCursor(_ context.Context, userID int64, cur BrowseCursor) error {
	r.with(userID, true, func(e *entry) { e.browse = &cur })
	return nil
}

func (r *MemoryRegistry) GetMyCursor(_ context.Context, userID int64) (int, bool, error) {
	var (
		out   int
		found bool
	)
	r.with(userID, false, func(e *entry) {
		if e != nil && e.my != nil {
			out, found = *e.my, true
		}
	})
	return out, found, nil
}

func (r *MemoryRegistry) SetMyCursor(_ context.Context, userID int64, index int) error {
	r.with(userID, true, func(e *entry) { e.my = &index })
	return nil
}

func (r *MemoryRegistry) ClearAll(_ context.Context, userID int64) error {
	s := r.shardFor(userID)
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
	return nil
}

// Sweep drops every entry idle longer than TTL and returns how many were removed.
func (r *MemoryRegistry) Sweep(now time.Time) int {
	if r.TTL <= 0 {
		return 0
	}
	removed := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for id, e := range s.users {
			if r.expired(e, now) {
				delete(s.users, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len reports the number of tracked users.
func (r *MemoryRegistry) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		n += len(s.users)
		s.mu.Unlock()
	}
	return n
}
