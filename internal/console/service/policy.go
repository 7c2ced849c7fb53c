package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/infra"
)

// PolicyRepository описывает требования сервиса к хранилищу политик
type PolicyRepository interface {
	GetPolicyByID(ctx context.Context, id string) (domain.Policy, error)
	ListPolicies(ctx context.Context, restaurantID string) ([]domain.Policy, error)
	CreatePolicy(ctx context.Context, p *domain.Policy) error
	UpdatePolicy(ctx context.Context, p *domain.Policy) error
	DeletePolicy(ctx context.Context, id string) error
	SetPolicyPaused(ctx context.Context, id string, paused bool) error
}

// Signaler - часть redis.Client, через которую консоль оповещает инстансы сервиса заказов.
type Signaler interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
}

// ExpressionValidator компилирует CEL-условия до сохранения.
type ExpressionValidator interface {
	ValidateExpression(expr string) error
}

type PolicyService struct {
	repo   PolicyRepository
	rdb    Signaler
	exprs  ExpressionValidator
	logger *zap.Logger
}

func NewPolicyService(repo PolicyRepository, rdb Signaler, exprs ExpressionValidator, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		repo:   repo,
		rdb:    rdb,
		exprs:  exprs,
		logger: logger.Named("policy-service"),
	}
}

func (s *PolicyService) GetByID(ctx context.Context, id string) (domain.Policy, error) {
	p, err := s.repo.GetPolicyByID(ctx, id)
	if err != nil {
		return domain.Policy{}, err
	}
	if !canAccess(ctx, p.RestaurantID) {
		return domain.Policy{}, domain.ErrPolicyNotFound
	}
	return p, nil
}

// List возвращает политики ресторана. Оператор ресторана всегда видит только свой.
func (s *PolicyService) List(ctx context.Context, restaurantID string) ([]domain.Policy, error) {
	if scoped := scopedRestaurant(ctx); scoped != "" {
		if restaurantID != "" && restaurantID != scoped {
			return nil, ErrForbidden
		}
		restaurantID = scoped
	}
	return s.repo.ListPolicies(ctx, restaurantID)
}

// Create проверяет определение, сохраняет политику и уведомляет сервис заказов
func (s *PolicyService) Create(ctx context.Context, p *domain.Policy) error {
	if !canAccess(ctx, p.RestaurantID) {
		return ErrForbidden
	}
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.repo.CreatePolicy(ctx, p); err != nil {
		return err
	}
	return s.notifyUpdate(ctx, p.ID)
}

// Update заменяет политику. Ресторан можно не передавать, тогда сохраняется текущий;
// перенос в чужой ресторан запрещен.
func (s *PolicyService) Update(ctx context.Context, p *domain.Policy) error {
	stored, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.RestaurantID == "" {
		p.RestaurantID = stored.RestaurantID
	}
	if !canAccess(ctx, p.RestaurantID) {
		return ErrForbidden
	}
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.repo.UpdatePolicy(ctx, p); err != nil {
		return err
	}
	return s.notifyUpdate(ctx, p.ID)
}

func (s *PolicyService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeletePolicy(ctx, id); err != nil {
		return err
	}
	// Удаленная политика не должна остаться в сете пауз
	if err := s.rdb.SRem(ctx, infra.RedisKeyPausedPolicies, id).Err(); err != nil {
		s.logger.Warn("failed to clean paused set", zap.String("policy_id", id), zap.Error(err))
	}
	return s.notifyUpdate(ctx, id)
}

// Pause мгновенно выключает политику на всех инстансах: флаг в Postgres, сет в Redis и сигнал.
func (s *PolicyService) Pause(ctx context.Context, id string) error {
	return s.setPaused(ctx, id, true)
}

func (s *PolicyService) Resume(ctx context.Context, id string) error {
	return s.setPaused(ctx, id, false)
}

func (s *PolicyService) setPaused(ctx context.Context, id string, paused bool) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetPolicyPaused(ctx, id, paused); err != nil {
		return err
	}

	var err error
	if paused {
		err = s.rdb.SAdd(ctx, infra.RedisKeyPausedPolicies, id).Err()
	} else {
		err = s.rdb.SRem(ctx, infra.RedisKeyPausedPolicies, id).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to update paused set: %w", err)
	}

	if err := s.rdb.Publish(ctx, infra.RedisChanPause, infra.PauseSignal(id, paused)).Err(); err != nil {
		return fmt.Errorf("failed to publish pause signal: %w", err)
	}
	s.logger.Info("policy pause changed", zap.String("policy_id", id), zap.Bool("paused", paused))
	return nil
}

func (s *PolicyService) validate(p *domain.Policy) error {
	if p.RestaurantID == "" {
		return fmt.Errorf("%w: restaurant_id is required", domain.ErrInvalidPolicy)
	}
	if err := p.Definition.Validate(); err != nil {
		return err
	}
	if s.exprs == nil {
		return nil
	}
	for _, c := range p.Definition.Conditions {
		if c.Type != domain.ConditionExpression {
			continue
		}
		if err := s.exprs.ValidateExpression(c.Expression); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidPolicy, err)
		}
	}
	return nil
}

// notifyUpdate отправляет широковещательный сигнал: все инстансы перечитают кэш политик.
func (s *PolicyService) notifyUpdate(ctx context.Context, policyID string) error {
	return s.rdb.Publish(ctx, infra.RedisChanPolicyUpdate, policyID).Err()
}
