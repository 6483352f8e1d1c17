package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/groupvial/internal/cache"
)

// Store 购物车临时存储
type Store interface {
	// Load 读取购物车，不存在返回 nil, nil
	Load(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}

// NewStore Redis 可用时使用 Redis，否则退回进程内存储
func NewStore(ttl time.Duration) Store {
	if cache.Enabled() {
		return NewRedisStore(ttl)
	}
	return NewMemoryStore(ttl)
}

// RedisStore 基于 Redis 的购物车存储，键随每次写入续期
type RedisStore struct {
	ttl time.Duration
}

// NewRedisStore 创建 Redis 购物车存储
func NewRedisStore(ttl time.Duration) *RedisStore {
	return &RedisStore{ttl: ttl}
}

// Load 读取购物车
func (s *RedisStore) Load(ctx context.Context, id string) (*Cart, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var c Cart
	hit, err := cache.GetCart(ctx, id, &c)
	if err != nil || !hit {
		return nil, err
	}
	return &c, nil
}

// Save 保存购物车
func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	if c == nil {
		return nil
	}
	return cache.SetCart(ctx, c.ID, c, s.ttl)
}

// Delete 删除购物车
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return cache.DelCart(ctx, id)
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore 进程内购物车存储（单实例或测试使用）
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryStore 创建进程内购物车存储
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

// Load 读取购物车，过期条目按不存在处理
func (s *MemoryStore) Load(_ context.Context, id string) (*Cart, error) {
	s.mu.Lock()
	entry, ok := s.items[id]
	if ok && s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.items, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var c Cart
	if err := c.UnmarshalJSON(entry.payload); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save 保存购物车
func (s *MemoryStore) Save(_ context.Context, c *Cart) error {
	if c == nil {
		return nil
	}
	payload, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.ID] = memoryEntry{payload: payload, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Delete 删除购物车
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
