package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/loyalty-ordering/internal/audit"
)

// AuditLogProvider - чтение журнала сделок.
type AuditLogProvider interface {
	FetchLogs(ctx context.Context, f audit.Filter) ([]audit.DealEvent, error)
	GetDealStats(ctx context.Context, restaurantID string, since time.Time) (*audit.Stats, error)
}

type AuditService struct {
	repo AuditLogProvider
	now  func() time.Time
}

func NewAuditService(repo AuditLogProvider) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

func (s *AuditService) FetchLogs(ctx context.Context, f audit.Filter) ([]audit.DealEvent, error) {
	if scoped := scopedRestaurant(ctx); scoped != "" {
		if f.RestaurantID != "" && f.RestaurantID != scoped {
			return nil, ErrForbidden
		}
		f.RestaurantID = scoped
	}
	logs, err := s.repo.FetchLogs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to fetch logs: %w", err)
	}
	return logs, nil
}

// Stats - сводка журнала за последнее окно.
func (s *AuditService) Stats(ctx context.Context, restaurantID string, window time.Duration) (*audit.Stats, error) {
	if scoped := scopedRestaurant(ctx); scoped != "" {
		if restaurantID != "" && restaurantID != scoped {
			return nil, ErrForbidden
		}
		restaurantID = scoped
	}
	if window <= 0 {
		window = time.Hour
	}
	stats, err := s.repo.GetDealStats(ctx, restaurantID, s.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("audit_service: failed to build stats: %w", err)
	}
	return stats, nil
}
