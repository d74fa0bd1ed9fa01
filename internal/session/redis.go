package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry keeps sessions in redis so several bot processes can share
// them. Each entry has its own key and TTL.
type RedisRegistry struct {
	Client redis.Cmdable
	TTL    time.Duration
}

func NewRedisRegistry(client redis.Cmdable, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{Client: client, TTL: ttl}
}

func conversationKey(userID int64) string { return fmt.Sprintf("session:%d:conversation", userID) }
func browseKey(userID int64) string       { return fmt.Sprintf("session:%d:browse", userID) }
func myKey(userID int64) string           { return fmt.Sprintf("session:%d:my", userID) }

func (r *RedisRegistry) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisRegistry) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, key, data, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisRegistry) GetConversation(ctx context.Context, userID int64) (*Conversation, error) {
	var conv Conversation
	found, err := r.getJSON(ctx, conversationKey(userID), &conv)
	if err != nil || !found {
		return nil, err
	}
	return &conv, nil
}

func (r *RedisRegistry) SetConversation(ctx context.Context, userID int64, conv Conversation) error {
	return r.setJSON(ctx, conversationKey(userID), conv)
}

// TakeConversation relies on GETDEL, so only one caller sees the value.
func (r *RedisRegistry) TakeConversation(ctx context.Context, userID int64) (*Conversation, error) {
	key := conversationKey(userID)
	data, err := r.Client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel %s: %w", key, err)
	}
	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &conv, nil
}

func (r *RedisRegistry) GetBrowseCursor(ctx context.Context, userID int64) (BrowseCursor, bool, error) {
	var cur BrowseCursor
	found, err := r.getJSON(ctx, browseKey(userID), &cur)
	return cur, found, err
}

func (r *RedisRegistry) SetBrowseCursor(ctx context.Context, userID int64, cur BrowseCursor) error {
	return r.setJSON(ctx, browseKey(userID), cur)
}

func (r *RedisRegistry) GetMyCursor(ctx context.Context, userID int64) (int, bool, error) {
	raw, err := r.Client.Get(ctx, myKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", myKey(userID), err)
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse my cursor: %w", err)
	}
	return index, true, nil
}

func (r *RedisRegistry) SetMyCursor(ctx context.Context, userID int64, index int) error {
	if err := r.Client.Set(ctx, myKey(userID), index, r.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", myKey(userID), err)
	}
	return nil
}

func (r *RedisRegistry) ClearAll(ctx context.Context, userID int64) error {
	return r.Client.Del(ctx, conversationKey(userID), browseKey(userID), myKey(userID)).Err()
}
