package jobs

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

// 持久化存储键，各自独立按龄裁剪
const (
	KeyWritingPending   = "groundstandard:writing_pending"
	KeyRewritingPending = "groundstandard:rewriting_pending"
	KeyOptimisticRows   = "groundstandard:optimistic_rows"
	KeyRowTags          = "groundstandard:row_tags"
)

// Store 会话状态的持久化接口
// 对应浏览器端的 local storage：尽力而为，可重建，不是事实来源
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// RedisStore 基于 redis 的持久化实现
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

// MemoryStore 进程内实现，测试和无 redis 环境用
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}
