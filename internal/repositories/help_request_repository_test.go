package repositories

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"dobroBack/internal/models"
)

func newSQLiteRepo(t *testing.T) (*HelpRequestRepository, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, CreateSchema(context.Background(), db, DialectSQLite))

	repo := NewHelpRequestRepository(db, DialectSQLite)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var tick int64
	repo.Now = func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&tick, 1)) * time.Minute)
	}
	return repo, db
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", rebind(DialectPostgres, "SELECT 1 WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1 WHERE a = ?", rebind(DialectMySQL, "SELECT 1 WHERE a = ?"))
}

func TestCreateSchemaUnknownDialect(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	assert.Error(t, CreateSchema(context.Background(), db, "oracle"))
}

func TestSQLCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	created, err := repo.Create(ctx, sampleRequest(1))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Active)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.Problem, found.Problem)
	assert.Equal(t, models.CategoryChildren, found.Category)
	assert.Equal(t, models.RegionCAO, found.Region)
	assert.True(t, found.CreatedAt.Equal(created.CreatedAt))
	assert.Nil(t, found.ReservedBy)

	missing, err := repo.FindByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLListByAuthorNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	first, err := repo.Create(ctx, sampleRequest(1))
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleRequest(2))
	require.NoError(t, err)
	second, err := repo.Create(ctx, sampleRequest(1))
	require.NoError(t, err)

	list, err := repo.ListByAuthor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestSQLListOpenFilters(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	a, _ := repo.Create(ctx, sampleRequest(1))
	other := sampleRequest(1)
	other.Region = models.RegionSAO
	b, _ := repo.Create(ctx, other)

	all, err := repo.ListOpen(ctx, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID, "oldest first at equal rating")

	cao, err := repo.ListOpen(ctx, models.RequestFilter{Category: models.CategoryChildren, Region: models.RegionCAO})
	require.NoError(t, err)
	require.Len(t, cao, 1)
	assert.Equal(t, a.ID, cao[0].ID)

	ok, err := repo.Reserve(ctx, b.ID, 5)
	require.NoError(t, err)
	require.True(t, ok)
	all, err = repo.ListOpen(ctx, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
}

func TestSQLListOpenSkipsInactive(t *testing.T) {
	ctx := context.Background()
	repo, db := newSQLiteRepo(t)

	open, err := repo.Create(ctx, sampleRequest(1))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO help_requests
    (author_id, author_name, problem, phone, category, region, address, created_at, rating, active, reserved_by)
    VALUES (1, 'Anna', 'closed', '+7 (999) 123-45-67', 'children', 'CAO', '', 0, 10, 0, NULL)`)
	require.NoError(t, err)

	for _, filter := range []models.RequestFilter{{}, {Category: models.CategoryChildren, Region: models.RegionCAO}} {
		got, err := repo.ListOpen(ctx, filter)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, open.ID, got[0].ID)
	}

	mine, err := repo.ListByAuthor(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2, "author still sees inactive requests")
}

func TestSQLReserveCancelLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)
	req, _ := repo.Create(ctx, sampleRequest(1))

	ok, err := repo.Reserve(ctx, req.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, req.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	found, _ := repo.FindByID(ctx, req.ID)
	require.NotNil(t, found.ReservedBy)
	assert.Equal(t, int64(2), *found.ReservedBy)

	has, err := repo.HasActiveResponse(ctx, 2, req.ID)
	require.NoError(t, err)
	assert.True(t, has)

	ok, err = repo.Cancel(ctx, req.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Cancel(ctx, req.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	has, _ = repo.HasActiveResponse(ctx, 2, req.ID)
	assert.False(t, has)
	responses, err := repo.ListResponsesByUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, responses)

	ok, err = repo.Reserve(ctx, req.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok, "cancelled request must be reservable again")
}

func TestSQLConcurrentReserveSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)
	req, _ := repo.Create(ctx, sampleRequest(1))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			ok, err := repo.Reserve(ctx, req.ID, user)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}(int64(10 + i))
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	responses, err := repo.ListResponsesByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestSQLDeleteKeepsResponses(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)
	req, _ := repo.Create(ctx, sampleRequest(1))
	_, err := repo.Reserve(ctx, req.ID, 2)
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, req.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, req.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	responses, err := repo.ListResponsesByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, req.ID, responses[0].RequestID)
}

func TestSQLAgreementAndTokens(t *testing.T) {
	ctx := context.Background()
	repo, db := newSQLiteRepo(t)

	accepted, err := repo.HasAcceptedAgreement(ctx, 7)
	require.NoError(t, err)
	assert.False(t, accepted)
	require.NoError(t, repo.AcceptAgreement(ctx, 7))
	require.NoError(t, repo.AcceptAgreement(ctx, 7))
	accepted, err = repo.HasAcceptedAgreement(ctx, 7)
	require.NoError(t, err)
	assert.True(t, accepted)

	tokens := NewFCMTokenRepository(db, DialectSQLite)
	require.NoError(t, tokens.Upsert(ctx, 7, "tok-a"))
	require.NoError(t, tokens.Upsert(ctx, 7, "tok-b"))
	require.NoError(t, tokens.Upsert(ctx, 8, "tok-b"))

	got, err := tokens.TokensByUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a"}, got)

	require.NoError(t, tokens.Delete(ctx, "tok-b"))
	got, err = tokens.TokensByUser(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, got)
}
