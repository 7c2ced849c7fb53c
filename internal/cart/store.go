package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/infra"
)

// Store - порт персистентности корзины.
type Store interface {
	Load(ctx context.Context, cartID string) (domain.Cart, error)
	Save(ctx context.Context, c domain.Cart) error
	Delete(ctx context.Context, cartID string) error
}

// RedisStore хранит корзину JSON-значением с TTL, каждое сохранение продлевает жизнь сессии.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, cartID string) (domain.Cart, error) {
	data, err := s.rdb.Get(ctx, infra.CartKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis: load cart %s: %w", cartID, err)
	}

	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Cart{}, fmt.Errorf("redis: decode cart %s: %w", cartID, err)
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, c domain.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redis: encode cart %s: %w", c.ID, err)
	}
	if err := s.rdb.Set(ctx, infra.CartKey(c.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save cart %s: %w", c.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.rdb.Del(ctx, infra.CartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis: delete cart %s: %w", cartID, err)
	}
	return nil
}

// MemoryStore - хранилище для тестов и локального запуска без Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]domain.Cart)}
}

func (s *MemoryStore) Load(_ context.Context, cartID string) (domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[cartID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, c domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}
