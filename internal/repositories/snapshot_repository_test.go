package repositories

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dobroBack/internal/models"
)

func newTestSnapshotRepo() (*SnapshotRepository, *MemoryPersister) {
	p := &MemoryPersister{}
	repo := NewSnapshotRepository(p)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var tick int64
	repo.Now = func() time.Time {
		n := atomic.AddInt64(&tick, 1)
		return base.Add(time.Duration(n) * time.Second)
	}
	return repo, p
}

func sampleRequest(author int64) models.HelpRequest {
	return models.HelpRequest{
		AuthorID:   author,
		AuthorName: "Anna",
		Problem:    "need groceries delivered",
		Phone:      "+7 (999) 123-45-67",
		Category:   models.CategoryChildren,
		Region:     models.RegionCAO,
	}
}

func TestSnapshotCreateAssignsFields(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestSnapshotRepo()

	req := sampleRequest(1)
	req.Rating = 7
	created, err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || !created.Active || created.ReservedBy != nil || created.Rating != 0 {
		t.Fatalf("unexpected defaults: %+v", created)
	}

	again, err := repo.Create(ctx, sampleRequest(1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if again.ID <= created.ID {
		t.Fatalf("expected increasing ids, got %d after %d", again.ID, created.ID)
	}

	found, err := repo.FindByID(ctx, created.ID)
	if err != nil || found == nil {
		t.Fatalf("FindByID: %v %v", found, err)
	}
	missing, err := repo.FindByID(ctx, 42)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing id, got %v %v", missing, err)
	}
}

func TestSnapshotIDsStayUniqueWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepository(&MemoryPersister{})
	frozen := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return frozen }

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		req, err := repo.Create(ctx, sampleRequest(1))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[req.ID] {
			t.Fatalf("duplicate id %d", req.ID)
		}
		seen[req.ID] = true
	}
}

func TestSnapshotListByAuthorNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestSnapshotRepo()

	first, _ := repo.Create(ctx, sampleRequest(1))
	_, _ = repo.Create(ctx, sampleRequest(2))
	second, _ := repo.Create(ctx, sampleRequest(1))

	list, err := repo.ListByAuthor(ctx, 1)
	if err != nil {
		t.Fatalf("ListByAuthor: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestSnapshotListOpenSkipsInactive(t *testing.T) {
	ctx := context.Background()
	repo, p := newTestSnapshotRepo()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	closed := sampleRequest(1)
	closed.ID, closed.CreatedAt, closed.Active, closed.Rating = 1, t0, false, 10
	open := sampleRequest(1)
	open.ID, open.CreatedAt, open.Active = 2, t0.Add(time.Minute), true
	if err := p.Save(ctx, models.Snapshot{Requests: []models.HelpRequest{closed, open}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.ListOpen(ctx, models.RequestFilter{Category: models.CategoryChildren})
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only the active request, got %+v", got)
	}
	if ok, _ := repo.Reserve(ctx, 1, 7); ok {
		t.Fatal("inactive request must not be reservable")
	}
}

func TestSnapshotReserveAndCancel(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestSnapshotRepo()
	req, _ := repo.Create(ctx, sampleRequest(1))

	ok, err := repo.Reserve(ctx, req.ID, 2)
	if err != nil || !ok {
		t.Fatalf("Reserve: %v %v", ok, err)
	}
	ok, err = repo.Reserve(ctx, req.ID, 3)
	if err != nil || ok {
		t.Fatalf("second reserve should fail, got %v %v", ok, err)
	}
	ok, _ = repo.Reserve(ctx, req.ID, 2)
	if ok {
		t.Fatal("repeat reserve by same user should fail")
	}

	open, _ := repo.ListOpen(ctx, models.RequestFilter{})
	if len(open) != 0 {
		t.Fatalf("reserved request must not be open: %+v", open)
	}
	responses, _ := repo.ListResponsesByRequest(ctx, req.ID)
	if len(responses) != 1 || responses[0].ResponderID != 2 {
		t.Fatalf("expected one response by 2, got %+v", responses)
	}

	ok, _ = repo.Cancel(ctx, req.ID, 3)
	if ok {
		t.Fatal("cancel by non-holder should fail")
	}
	ok, err = repo.Cancel(ctx, req.ID, 2)
	if err != nil || !ok {
		t.Fatalf("Cancel: %v %v", ok, err)
	}
	has, _ := repo.HasActiveResponse(ctx, 2, req.ID)
	if has {
		t.Fatal("response should be inactive after cancel")
	}
	open, _ = repo.ListOpen(ctx, models.RequestFilter{Category: models.CategoryChildren})
	if len(open) != 1 || open[0].ReservedBy != nil {
		t.Fatalf("request should be open again: %+v", open)
	}
}

func TestSnapshotConcurrentReserveSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestSnapshotRepo()
	req, _ := repo.Create(ctx, sampleRequest(1))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			ok, err := repo.Reserve(ctx, req.ID, user)
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	responses, _ := repo.ListResponsesByRequest(ctx, req.ID)
	if len(responses) != 1 {
		t.Fatalf("expected one active response, got %d", len(responses))
	}
}

func TestSnapshotDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	repo, p := newTestSnapshotRepo()
	req, _ := repo.Create(ctx, sampleRequest(1))
	if _, err := repo.Reserve(ctx, req.ID, 2); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	saves := p.Saves()

	ok, err := repo.Delete(ctx, req.ID, 2)
	if err != nil || ok {
		t.Fatalf("non-owner delete should be a no-op, got %v %v", ok, err)
	}
	if p.Saves() != saves {
		t.Fatal("no-op delete must not persist")
	}

	ok, err = repo.Delete(ctx, req.ID, 1)
	if err != nil || !ok {
		t.Fatalf("Delete: %v %v", ok, err)
	}
	list, _ := repo.ListByAuthor(ctx, 1)
	if len(list) != 0 {
		t.Fatalf("expected no requests, got %+v", list)
	}
	responses, _ := repo.ListResponsesByUser(ctx, 2)
	if len(responses) != 1 || responses[0].RequestID != req.ID {
		t.Fatalf("response must survive request deletion: %+v", responses)
	}
}

func TestSnapshotFailedSaveLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	repo, p := newTestSnapshotRepo()
	req, _ := repo.Create(ctx, sampleRequest(1))

	p.SaveErr = errors.New("disk full")
	ok, err := repo.Reserve(ctx, req.ID, 2)
	if err == nil || ok {
		t.Fatalf("expected save error, got %v %v", ok, err)
	}
	p.SaveErr = nil

	found, _ := repo.FindByID(ctx, req.ID)
	if found == nil || found.ReservedBy != nil {
		t.Fatalf("request must stay open after failed save: %+v", found)
	}
	has, _ := repo.HasActiveResponse(ctx, 2, req.ID)
	if has {
		t.Fatal("no response should be recorded after failed save")
	}
}

func TestSnapshotAgreementIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, p := newTestSnapshotRepo()

	if err := repo.AcceptAgreement(ctx, 5); err != nil {
		t.Fatalf("AcceptAgreement: %v", err)
	}
	if err := repo.AcceptAgreement(ctx, 5); err != nil {
		t.Fatalf("AcceptAgreement: %v", err)
	}
	ok, _ := repo.HasAcceptedAgreement(ctx, 5)
	if !ok {
		t.Fatal("expected agreement accepted")
	}
	snap, _ := p.Load(ctx)
	if len(snap.AcceptedUsers) != 1 {
		t.Fatalf("expected single entry, got %v", snap.AcceptedUsers)
	}
}
