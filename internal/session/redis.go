package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions in Redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at url and verifies the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func sessionKey(id string) string       { return "dusession:" + id }
func activeKey(ownerID string) string   { return "dusession:active:" + ownerID }

func (r *RedisStore) Save(ctx context.Context, session *Session) error {
	data, err := sonic.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := sonic.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	// keep the record alive while the conversation is in use
	r.client.Expire(ctx, sessionKey(id), r.ttl)
	return &session, nil
}

func (r *RedisStore) ActiveID(ctx context.Context, ownerID string) (string, error) {
	id, err := r.client.Get(ctx, activeKey(ownerID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to load active session pointer: %w", err)
	}
	return id, nil
}

func (r *RedisStore) SetActiveID(ctx context.Context, ownerID, sessionID string) error {
	if err := r.client.Set(ctx, activeKey(ownerID), sessionID, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set active session pointer: %w", err)
	}
	return nil
}

func (r *RedisStore) ClearActiveID(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, activeKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to clear active session pointer: %w", err)
	}
	return nil
}

// Ping tests the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
