package policy

import (
	"context"
	"sort"
	"sync"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/infra"
	"go.uber.org/zap"
)

type PolicyRepository interface {
	GetAllPolicies(ctx context.Context) ([]domain.Policy, error)
}

// Cache - in-memory копия всех политик, сгруппированная по ресторанам.
// Горячий путь читает только RAM, Postgres используется лишь в Refresh.
type Cache struct {
	mu           sync.RWMutex
	byRestaurant map[string][]domain.Policy
	byID         map[string]domain.Policy

	repo   PolicyRepository
	logger *zap.Logger
}

func NewCache(repo PolicyRepository, logger *zap.Logger) *Cache {
	return &Cache{
		byRestaurant: make(map[string][]domain.Policy),
		byID:         make(map[string]domain.Policy),
		repo:         repo,
		logger:       logger.Named("policy-cache"),
	}
}

// Refresh выполняет «холодную загрузку» всех политик из PostgreSQL и атомарно подменяет кэш.
func (c *Cache) Refresh(ctx context.Context) error {
	policies, err := c.repo.GetAllPolicies(ctx)
	if err != nil {
		return err
	}

	byRestaurant := make(map[string][]domain.Policy)
	byID := make(map[string]domain.Policy, len(policies))
	for _, p := range policies {
		byID[p.ID] = p
		byRestaurant[p.RestaurantID] = append(byRestaurant[p.RestaurantID], p)
	}
	// Порядок применения стабилен: сначала старые политики
	for _, list := range byRestaurant {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
	}

	c.mu.Lock()
	c.byRestaurant = byRestaurant
	c.byID = byID
	c.mu.Unlock()

	c.logger.Info("policy cache refreshed", zap.Int("count", len(byID)))
	return nil
}

// ForRestaurant возвращает активные политики ресторана. Слайс - копия.
func (c *Cache) ForRestaurant(restaurantID string) []domain.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Policy, 0, len(c.byRestaurant[restaurantID]))
	for _, p := range c.byRestaurant[restaurantID] {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) Get(policyID string) (domain.Policy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[policyID]
	return p, ok
}

// StartListener перечитывает кэш по сигналу из Console API. Блокируется до отмены ctx.
func (c *Cache) StartListener(ctx context.Context, rdb infra.Subscriber) {
	refresh := func() error { return c.Refresh(ctx) }
	infra.ListenResilient(ctx, rdb, c.logger, infra.RedisChanPolicyUpdate, refresh,
		func(payload string) {
			c.logger.Debug("policy update signal", zap.String("payload", payload))
			if err := refresh(); err != nil {
				c.logger.Error("policy cache refresh failed", zap.Error(err))
			}
		})
}
