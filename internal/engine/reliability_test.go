package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/connectors"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

type scriptedVerifier struct {
	errs  []error
	calls int
}

func (s *scriptedVerifier) VerifyOrder(context.Context, domain.VerifyOrderRequest) (domain.VerifiedOrder, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return domain.VerifiedOrder{}, err
		}
	}
	return domain.VerifiedOrder{OrderID: "ok"}, nil
}

func throttled() error {
	return &connectors.ThrottleError{RetryAfter: time.Millisecond, Cause: errors.New("429")}
}

func testSettings() ReliabilitySettings {
	cfg := DefaultReliabilitySettings()
	cfg.CBMaxFailures = 1
	return cfg
}

func TestReliabilityWrapper_RetriesThrottled(t *testing.T) {
	next := &scriptedVerifier{errs: []error{throttled(), throttled()}}
	w := NewReliabilityWrapper(next, DefaultReliabilitySettings(), NewMetrics(nil), zap.NewNop())

	order, err := w.VerifyOrder(context.Background(), domain.VerifyOrderRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.OrderID != "ok" || next.calls != 3 {
		t.Errorf("order = %+v, calls = %d", order, next.calls)
	}
}

func TestReliabilityWrapper_PermanentErrorNotRetried(t *testing.T) {
	next := &scriptedVerifier{errs: []error{&connectors.RejectedError{StatusCode: 422, Message: "bad cart"}}}
	w := NewReliabilityWrapper(next, testSettings(), NewMetrics(nil), zap.NewNop())

	for i := 0; i < 3; i++ {
		next.errs = []error{&connectors.RejectedError{StatusCode: 422}}
		_, err := w.VerifyOrder(context.Background(), domain.VerifyOrderRequest{})
		if !connectors.IsPermanent(err) {
			t.Fatalf("expected permanent error, got %v", err)
		}
	}
	if next.calls != 3 {
		t.Errorf("calls = %d, want 3 (no retries)", next.calls)
	}
	if w.State() != gobreaker.StateClosed {
		t.Errorf("rejections must not open the breaker, state = %v", w.State())
	}
}

func TestReliabilityWrapper_OpensBreaker(t *testing.T) {
	next := &scriptedVerifier{}
	w := NewReliabilityWrapper(next, testSettings(), NewMetrics(nil), zap.NewNop())

	for i := 0; i < 2; i++ {
		next.errs = []error{throttled(), throttled(), throttled()}
		if _, err := w.VerifyOrder(context.Background(), domain.VerifyOrderRequest{}); err == nil {
			t.Fatal("expected error")
		}
	}

	if w.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", w.State())
	}
	calls := next.calls
	if _, err := w.VerifyOrder(context.Background(), domain.VerifyOrderRequest{}); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	} else if !errors.Is(err, connectors.ErrVerifierUnavailable) {
		t.Errorf("open breaker must report ErrVerifierUnavailable, got %v", err)
	}
	if next.calls != calls {
		t.Error("open breaker must not call the verifier")
	}
}

func TestReliabilityWrapper_LimiterCancelled(t *testing.T) {
	next := &scriptedVerifier{}
	cfg := DefaultReliabilitySettings()
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	w := NewReliabilityWrapper(next, cfg, NewMetrics(nil), zap.NewNop())

	if _, err := w.VerifyOrder(context.Background(), domain.VerifyOrderRequest{}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := w.VerifyOrder(ctx, domain.VerifyOrderRequest{}); !errors.Is(err, connectors.ErrVerifierUnavailable) {
		t.Errorf("limiter rejection must report ErrVerifierUnavailable, got %v", err)
	}
	if next.calls != 1 {
		t.Errorf("calls = %d, want 1", next.calls)
	}
}
