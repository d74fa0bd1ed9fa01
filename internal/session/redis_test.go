package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dobroBack/internal/models"
)

func newRedisRegistry(t *testing.T, ttl time.Duration) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRegistry(client, ttl), mr
}

func TestRedisRegistryRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRegistry(t, 0)

	conv, err := r.GetConversation(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, conv)

	require.NoError(t, r.SetConversation(ctx, 7, Conversation{
		Step: StepAwaitingAddress, Category: models.CategoryAnimals, Region: models.RegionZAO, Problem: "feed the cat",
	}))
	conv, err = r.GetConversation(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, StepAwaitingAddress, conv.Step)
	assert.Equal(t, "feed the cat", conv.Problem)

	require.NoError(t, r.SetBrowseCursor(ctx, 7, BrowseCursor{Index: 3, Region: models.RegionZAO}))
	cur, ok, err := r.GetBrowseCursor(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, BrowseCursor{Index: 3, Region: models.RegionZAO}, cur)

	require.NoError(t, r.SetMyCursor(ctx, 7, 2))
	idx, ok, err := r.GetMyCursor(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	assert.True(t, mr.Exists("session:7:conversation"))
	require.NoError(t, r.ClearAll(ctx, 7))
	assert.False(t, mr.Exists("session:7:conversation"))
	assert.False(t, mr.Exists("session:7:browse"))
	assert.False(t, mr.Exists("session:7:my"))
}

func TestRedisRegistryTTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedisRegistry(t, time.Minute)

	require.NoError(t, r.SetMyCursor(ctx, 1, 5))
	mr.FastForward(2 * time.Minute)

	_, ok, err := r.GetMyCursor(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRegistryTakeConversation(t *testing.T) {
	ctx := context.Background()
	r, _ := newRedisRegistry(t, time.Hour)

	got, err := r.TakeConversation(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, got)

	conv := Conversation{Step: StepAwaitingPhone, Category: models.CategoryElderly, Region: models.RegionVAO, Problem: "buy bread", Address: "Mira 3"}
	require.NoError(t, r.SetConversation(ctx, 8, conv))

	got, err = r.TakeConversation(ctx, 8)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conv, *got)

	got, err = r.TakeConversation(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, got, "second take sees nothing")
}
