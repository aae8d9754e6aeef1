// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civbuilder/civdraft/internal/models"
)

// RedisStore persists drafts as JSON values under civdraft:draft:<id>.
// An optional TTL handles retention: abandoned drafts age out on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects using environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - DRAFT_TTL_HOURS (optional, 0 disables expiry)
func NewRedisStore(ctx context.Context) (*RedisStore, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &RedisStore{
		client: client,
		ttl:    time.Duration(getEnvInt("DRAFT_TTL_HOURS", 0)) * time.Hour,
	}, nil
}

func redisKey(id string) string { return "civdraft:draft:" + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Draft, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		return nil, ErrNotFound
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		log.Printf("RedisStore: draft %s is corrupt, treating as missing: %v", id, err)
		return nil, ErrNotFound
	}
	if !wellFormed(&d) {
		log.Printf("RedisStore: draft %s violates structural invariants, treating as missing.", id)
		return nil, ErrNotFound
	}
	models.NormalizeDraft(&d)
	return &d, nil
}

func (s *RedisStore) Put(ctx context.Context, draft *models.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draft.ID, err)
	}
	if err := s.client.Set(ctx, redisKey(draft.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft %s: %w", draft.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKey(id)).Err()
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
