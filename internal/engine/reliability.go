package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/loyalty-ordering/internal/cart"
	"github.com/xela07ax/loyalty-ordering/internal/connectors"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

// ReliabilitySettings - параметры защиты вызовов к сервису заказов.
type ReliabilitySettings struct {
	Name          string
	RateLimit     float64
	Burst         int
	Attempts      uint
	CallTimeout   time.Duration
	CBMaxRequests uint32
	CBInterval    time.Duration
	CBTimeout     time.Duration
	CBMaxFailures uint32
}

func DefaultReliabilitySettings() ReliabilitySettings {
	return ReliabilitySettings{
		Name:          "order-verifier",
		RateLimit:     100,
		Burst:         20,
		Attempts:      3,
		CallTimeout:   10 * time.Second,
		CBMaxRequests: 3,
		CBInterval:    5 * time.Second,
		CBTimeout:     30 * time.Second,
		CBMaxFailures: 5,
	}
}

// ReliabilityWrapper оборачивает cart.Verifier: rate limit, circuit breaker и retry
// с учетом Retry-After от сервиса.
type ReliabilityWrapper struct {
	next    cart.Verifier
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cfg     ReliabilitySettings
	logger  *zap.Logger
}

func NewReliabilityWrapper(next cart.Verifier, cfg ReliabilitySettings, metrics *Metrics, logger *zap.Logger) *ReliabilityWrapper {
	logger = logger.Named("reliability")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.CBMaxFailures
		},
		// Отказ сервиса в заказе (4xx) - нормальный ответ, он не должен размыкать цепь
		IsSuccessful: func(err error) bool {
			return err == nil || connectors.IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if metrics != nil {
				state := 0.0
				if to == gobreaker.StateOpen {
					state = 1
				}
				metrics.CircuitBreakerState.WithLabelValues(name).Set(state)
			}
		},
	})

	return &ReliabilityWrapper{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		cfg:     cfg,
		logger:  logger,
	}
}

func (w *ReliabilityWrapper) VerifyOrder(ctx context.Context, req domain.VerifyOrderRequest) (domain.VerifiedOrder, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: rate limit exceeded: %w", connectors.ErrVerifierUnavailable, err)
	}

	// 2. Circuit Breaker
	cbResult, err := w.cb.Execute(func() (interface{}, error) {
		var order domain.VerifiedOrder

		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.cfg.Attempts),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				return !connectors.IsPermanent(err)
			}),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				var tErr *connectors.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
			defer cancel()

			var callErr error
			order, callErr = w.next.VerifyOrder(tCtx, req)
			return callErr
		})

		return order, retryErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		// Цепь разомкнута, сервис заказов не вызывался
		return domain.VerifiedOrder{}, fmt.Errorf("%w: %w", connectors.ErrVerifierUnavailable, err)
	}
	if err != nil {
		return domain.VerifiedOrder{}, err
	}

	return cbResult.(domain.VerifiedOrder), nil
}

// State - текущее состояние предохранителя (для health-эндпоинта).
func (w *ReliabilityWrapper) State() gobreaker.State {
	return w.cb.State()
}
