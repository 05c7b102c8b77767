package store

import (
	"context"
	_ "embed"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
)

//go:embed throttle_max.lua
var throttleMaxScript string

const (
	DefaultRedisPrefix = "aoc-fetch"
	redisOpTimeout     = 5 * time.Second
)

// RedisStore shares cache and throttle state between hosts through Redis.
// Entries live in the hash <prefix>:inputs and the throttle timestamp in the
// string key <prefix>:throttle.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	scriptSHA string
}

// NewRedisStore pings the server and loads the throttle script. The caller
// keeps ownership of client.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, backendError(err)
	}

	sha, err := client.ScriptLoad(ctx, throttleMaxScript).Result()
	if err != nil {
		return nil, backendError(err)
	}

	return &RedisStore{
		client:    client,
		prefix:    prefix,
		scriptSHA: sha,
	}, nil
}

func (s *RedisStore) inputsKey() string   { return s.prefix + ":inputs" }
func (s *RedisStore) throttleKey() string { return s.prefix + ":throttle" }

func (s *RedisStore) LoadCache() CacheSnapshot {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := s.client.HGetAll(ctx, s.inputsKey()).Result()
	if err != nil || len(raw) == 0 {
		return nil
	}

	snapshot := make(CacheSnapshot, len(raw))
	for field, body := range raw {
		key, err := puzzle.ParseKey(field)
		if err != nil {
			continue
		}
		snapshot[key] = body
	}
	return snapshot
}

func (s *RedisStore) SaveCache(snapshot CacheSnapshot) error {
	if len(snapshot) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	values := make(map[string]any, len(snapshot))
	for key, body := range snapshot {
		values[key.String()] = body
	}
	if err := s.client.HSet(ctx, s.inputsKey(), values).Err(); err != nil {
		return backendError(err)
	}
	return nil
}

func (s *RedisStore) LoadThrottle() (time.Time, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := s.client.Get(ctx, s.throttleKey()).Result()
	if err != nil {
		return time.Time{}, false
	}
	return timeutil.ParseUnixSeconds(raw)
}

// SaveThrottle stores t unless a later timestamp is already recorded.
func (s *RedisStore) SaveThrottle(t time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	value := timeutil.FormatUnixSeconds(t)
	err := s.client.EvalSha(ctx, s.scriptSHA, []string{s.throttleKey()}, value).Err()
	if err != nil {
		return backendError(err)
	}
	return nil
}

func backendError(err error) *StoreError {
	return &StoreError{
		Message:   err.Error(),
		Retryable: true,
		Cause:     ErrCauseBackend,
	}
}
