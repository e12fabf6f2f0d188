package poolcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps pools as JSON values under plan:{id} with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the server at url and verifies it answers.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func planKey(planID string) string {
	return fmt.Sprintf("plan:%s", planID)
}

func (r *RedisStore) Put(ctx context.Context, pool Pool) error {
	if pool.PlanID == "" {
		return errors.New("poolcache: plan id is required")
	}

	data, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}
	if err := r.client.Set(ctx, planKey(pool.PlanID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store pool %s: %w", pool.PlanID, err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, planID string) (Pool, error) {
	data, err := r.client.Get(ctx, planKey(planID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pool{}, ErrPlanNotFound
	}
	if err != nil {
		return Pool{}, fmt.Errorf("load pool %s: %w", planID, err)
	}

	var pool Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		return Pool{}, fmt.Errorf("unmarshal pool %s: %w", planID, err)
	}
	return pool, nil
}

// Ping reports whether Redis is reachable; used by health probes.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
