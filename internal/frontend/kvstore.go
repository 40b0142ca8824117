package frontend

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Operator identity lives under a fixed namespace of two string keys.
const (
	OperatorNameKey = "dncl:operator:name"
	OperatorDateKey = "dncl:operator:date"
)

// KeyValueStore persists operator identity across client sessions.
// A missing key reads as the empty string, not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type RedisKeyValueStore struct {
	client *redis.Client
}

func NewRedisKeyValueStore(address, password string, db int) *RedisKeyValueStore {
	return &RedisKeyValueStore{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisKeyValueStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisKeyValueStore) Close() error {
	return s.client.Close()
}

// MemoryKeyValueStore is the fallback when no store address is configured;
// identity then lasts only for the process lifetime.
type MemoryKeyValueStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKeyValueStore() *MemoryKeyValueStore {
	return &MemoryKeyValueStore{values: map[string]string{}}
}

func (s *MemoryKeyValueStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key], nil
}

func (s *MemoryKeyValueStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
