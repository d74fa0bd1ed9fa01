package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"dobroBack/internal/models"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		index, n, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{-1, 3, 0},
		{1, 3, 1},
		{3, 3, 2},
		{10, 3, 2},
	}
	for _, c := range cases {
		if got := Clamp(c.index, c.n); got != c.want {
			t.Fatalf("Clamp(%d, %d) = %d, want %d", c.index, c.n, got, c.want)
		}
	}
}

func TestMemoryRegistryEntriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(0)

	conv, _ := r.GetConversation(ctx, 1)
	if conv != nil {
		t.Fatalf("expected idle user, got %+v", conv)
	}

	_ = r.SetConversation(ctx, 1, Conversation{Step: StepAwaitingProblem, Category: models.CategoryElderly, Region: models.RegionVAO})
	_ = r.SetBrowseCursor(ctx, 1, BrowseCursor{Index: 2, Category: models.CategoryElderly})
	_ = r.SetMyCursor(ctx, 2, 4)

	conv, _ = r.GetConversation(ctx, 1)
	if conv == nil || conv.Step != StepAwaitingProblem || conv.Region != models.RegionVAO {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
	cur, ok, _ := r.GetBrowseCursor(ctx, 1)
	if !ok || cur.Index != 2 {
		t.Fatalf("unexpected browse cursor: %+v %v", cur, ok)
	}
	if _, ok, _ := r.GetMyCursor(ctx, 1); ok {
		t.Fatal("user 1 has no my-cursor")
	}
	if idx, ok, _ := r.GetMyCursor(ctx, 2); !ok || idx != 4 {
		t.Fatalf("unexpected my cursor: %d %v", idx, ok)
	}

	// returned conversation is a copy
	conv.Problem = "changed"
	again, _ := r.GetConversation(ctx, 1)
	if again.Problem != "" {
		t.Fatal("registry state leaked through returned pointer")
	}
}

func TestMemoryRegistryClearAll(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(0)
	_ = r.SetConversation(ctx, 1, Conversation{Step: StepAwaitingPhone})
	_ = r.SetBrowseCursor(ctx, 1, BrowseCursor{Index: 1})
	_ = r.SetMyCursor(ctx, 1, 1)
	_ = r.SetMyCursor(ctx, 2, 1)

	_ = r.ClearAll(ctx, 1)

	if conv, _ := r.GetConversation(ctx, 1); conv != nil {
		t.Fatal("conversation should be cleared")
	}
	if _, ok, _ := r.GetBrowseCursor(ctx, 1); ok {
		t.Fatal("browse cursor should be cleared")
	}
	if _, ok, _ := r.GetMyCursor(ctx, 1); ok {
		t.Fatal("my cursor should be cleared")
	}
	if _, ok, _ := r.GetMyCursor(ctx, 2); !ok {
		t.Fatal("other users must be untouched")
	}
}

func TestMemoryRegistryTTLAndSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewMemoryRegistry(10 * time.Minute)
	r.Now = func() time.Time { return now }

	_ = r.SetMyCursor(ctx, 1, 3)
	_ = r.SetMyCursor(ctx, 2, 3)

	now = now.Add(5 * time.Minute)
	_ = r.SetMyCursor(ctx, 2, 4)

	now = now.Add(6 * time.Minute)
	if _, ok, _ := r.GetMyCursor(ctx, 1); ok {
		t.Fatal("expired entry must not be returned")
	}
	if removed := r.Sweep(now); removed != 0 {
		t.Fatalf("user 1 already dropped lazily, user 2 still fresh; removed %d", removed)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live user, got %d", r.Len())
	}
	if removed := r.Sweep(now.Add(time.Hour)); removed != 1 {
		t.Fatalf("expected one swept entry, got %d", removed)
	}
}

func TestMemoryRegistryConcurrentUsers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(0)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.SetMyCursor(ctx, user, j)
				_, _, _ = r.GetMyCursor(ctx, user)
			}
		}(int64(i))
	}
	wg.Wait()

	for i := 0; i < 64; i++ {
		if idx, ok, _ := r.GetMyCursor(ctx, int64(i)); !ok || idx != 49 {
			t.Fatalf("user %d: got %d %v", i, idx, ok)
		}
	}
}

func TestMemoryRegistryZeroValue(t *testing.T) {
	ctx := context.Background()
	var r MemoryRegistry

	if _, ok, _ := r.GetMyCursor(ctx, 1); ok {
		t.Fatal("empty registry must have no cursor")
	}
	if err := r.SetMyCursor(ctx, 1, 3); err != nil {
		t.Fatalf("SetMyCursor: %v", err)
	}
	if idx, ok, _ := r.GetMyCursor(ctx, 1); !ok || idx != 3 {
		t.Fatalf("got %d %v", idx, ok)
	}
	if err := r.ClearAll(ctx, 1); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if n := r.Sweep(time.Now()); n != 0 {
		t.Fatalf("zero TTL sweeps nothing, removed %d", n)
	}
}

func TestMemoryRegistryTakeConversationOnce(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry(0)
	conv := Conversation{Step: StepAwaitingPhone, Category: models.CategoryNature, Region: models.RegionSZAO, Problem: "plant trees"}
	if err := r.SetConversation(ctx, 4, conv); err != nil {
		t.Fatalf("SetConversation: %v", err)
	}
	if err := r.SetMyCursor(ctx, 4, 1); err != nil {
		t.Fatalf("SetMyCursor: %v", err)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken []Conversation
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.TakeConversation(ctx, 4)
			if err != nil || got == nil {
				return
			}
			mu.Lock()
			taken = append(taken, *got)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(taken) != 1 || taken[0] != conv {
		t.Fatalf("expected exactly one taker with %+v, got %+v", conv, taken)
	}
	if got, _ := r.GetConversation(ctx, 4); got != nil {
		t.Fatalf("conversation must be gone, got %+v", got)
	}
	if idx, ok, _ := r.GetMyCursor(ctx, 4); !ok || idx != 1 {
		t.Fatal("taking the conversation must keep the cursors")
	}
}
