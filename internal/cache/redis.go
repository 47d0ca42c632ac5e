// Package cache provides a Redis-backed store for serialized recommendation
// rankings.
//
// Entries are namespaced by a generation counter kept under "<prefix>:gen".
// Invalidate bumps the counter, which orphans every earlier entry at once;
// orphaned keys age out with their TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis implements services.RankCache on a go-redis client.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client. prefix defaults to "rank".
func NewRedis(rdb redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "rank"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *Redis) genKey() string { return r.prefix + ":gen" }

func (r *Redis) generation(ctx context.Context) (int64, error) {
	v, err := r.rdb.Get(ctx, r.genKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (r *Redis) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", r.prefix, gen, key)
}

// Get returns the entry for key in the current generation together with that
// generation. Callers that fill a miss pass gen back to Set.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, int64, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := r.rdb.Get(ctx, r.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	return raw, gen, true, nil
}

// Set stores val under key in generation gen. An Invalidate since gen was
// observed leaves the entry unreachable.
func (r *Redis) Set(ctx context.Context, gen int64, key string, val []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.entryKey(gen, key), val, ttl).Err()
}

// Invalidate starts a new generation.
func (r *Redis) Invalidate(ctx context.Context) error {
	return r.rdb.Incr(ctx, r.genKey()).Err()
}
