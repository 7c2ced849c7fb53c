package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/infra"
)

type PauseProvider interface {
	GetPausedPolicies(ctx context.Context) ([]string, error)
}

// PauseManager - мгновенная остановка отдельных политик (kill switch).
// L1 - RAM-мапа, L2 - Redis set, источник правды - флаг paused в Postgres.
type PauseManager struct {
	mu     sync.RWMutex
	paused map[string]struct{}

	repo   PauseProvider
	rdb    *redis.Client
	logger *zap.Logger
}

func NewPauseManager(rdb *redis.Client, repo PauseProvider, logger *zap.Logger) *PauseManager {
	return &PauseManager{
		paused: make(map[string]struct{}),
		repo:   repo,
		rdb:    rdb,
		logger: logger.Named("pause"),
	}
}

// Init загружает текущее состояние пауз при старте сервиса и при переподключении к Redis.
func (m *PauseManager) Init(ctx context.Context) error {
	ids, err := m.repo.GetPausedPolicies(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch paused policies from DB: %w", err)
	}

	return WarmupState(ctx, m.rdb, m.logger, ids, infra.RedisKeyPausedPolicies, infra.GetWarmupLockKey("paused"), m.replace)
}

// StartListener подписывается на сигналы паузы в реальном времени. Блокируется до отмены ctx.
func (m *PauseManager) StartListener(ctx context.Context) {
	infra.ListenResilient(ctx, m.rdb, m.logger, infra.RedisChanPause,
		func() error { return m.Init(ctx) },
		m.applySignal,
	)
}

// applySignal разбирает сигнал формата "policy_id:on|off".
func (m *PauseManager) applySignal(payload string) {
	idx := strings.LastIndex(payload, ":")
	if idx <= 0 {
		m.logger.Error("invalid signal format", zap.String("payload", payload))
		return
	}
	policyID, state := payload[:idx], payload[idx+1:]

	m.mu.Lock()
	defer m.mu.Unlock()
	switch state {
	case "on", "true":
		m.paused[policyID] = struct{}{}
		m.logger.Info("policy paused", zap.String("policy_id", policyID))
	case "off", "false":
		delete(m.paused, policyID)
		m.logger.Info("policy resumed", zap.String("policy_id", policyID))
	default:
		m.logger.Error("invalid signal state", zap.String("payload", payload))
	}
}

func (m *PauseManager) replace(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	m.mu.Lock()
	m.paused = next
	m.mu.Unlock()
}

// IsPaused - максимально быстрый метод для проверки в Hot Path
func (m *PauseManager) IsPaused(policyID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.paused[policyID]
	return ok
}
