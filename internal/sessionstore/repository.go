package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

// Record is the server side half of a session. It is never sent to the browser.
type Record struct {
	AccessToken string `json:"access_token,omitempty"`
}

// Repository stores session records by id with an absolute time to live.
type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	Set(ctx context.Context, id string, rec *Record, ttl time.Duration) error
	Expire(ctx context.Context, id string) error
}

type RedisRepository struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisRepository(rdb redis.Cmdable) *RedisRepository {
	return &RedisRepository{
		rdb:    rdb,
		prefix: "session:",
	}
}

func (r *RedisRepository) key(id string) string {
	return r.prefix + id
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*Record, error) {
	b, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not load session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("could not unmarshal session: %w", err)
	}

	return &rec, nil
}

func (r *RedisRepository) Set(ctx context.Context, id string, rec *Record, ttl time.Duration) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err := r.rdb.Set(ctx, r.key(id), b, ttl).Err(); err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}

	return nil
}

func (r *RedisRepository) Expire(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("could not expire session: %w", err)
	}

	return nil
}
