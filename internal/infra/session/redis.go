package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"digestly/internal/domain/entity"
	"digestly/internal/usecase/digest"
)

// KeyPrefix namespaces session keys in redis.
const KeyPrefix = "digest:session:"

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore keeps session contexts in redis so they survive restarts and are
// shared between replicas. Each context is a JSON document under
// digest:session:<caller>.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

var _ digest.SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a store. A zero ttl keeps contexts until overwritten.
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Connect opens a redis client and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Put stores src for callerID, replacing any previous context.
func (s *RedisStore) Put(ctx context.Context, callerID string, src entity.SourceText) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal session context: %w", err)
	}
	if err := s.client.Set(ctx, KeyPrefix+callerID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session context: %w", err)
	}
	return nil
}

// Get returns the context of callerID, or false when none is stored.
func (s *RedisStore) Get(ctx context.Context, callerID string) (entity.SourceText, bool, error) {
	data, err := s.client.Get(ctx, KeyPrefix+callerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.SourceText{}, false, nil
	}
	if err != nil {
		return entity.SourceText{}, false, fmt.Errorf("load session context: %w", err)
	}

	var src entity.SourceText
	if err := json.Unmarshal(data, &src); err != nil {
		return entity.SourceText{}, false, fmt.Errorf("decode session context: %w", err)
	}
	return src, true, nil
}

// Delete removes the context of callerID.
func (s *RedisStore) Delete(ctx context.Context, callerID string) error {
	if err := s.client.Del(ctx, KeyPrefix+callerID).Err(); err != nil {
		return fmt.Errorf("delete session context: %w", err)
	}
	return nil
}

// Ping checks that redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
