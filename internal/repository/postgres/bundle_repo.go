package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

func (r *LoyaltyRepo) GetBundles(ctx context.Context, restaurantID string) ([]domain.Bundle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, restaurant_id, name, price, monthly_credit, policy_ids
		FROM bundles
		WHERE restaurant_id = $1
		ORDER BY price`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []domain.Bundle
	for rows.Next() {
		var b domain.Bundle
		if err := rows.Scan(&b.ID, &b.RestaurantID, &b.Name, &b.Price, &b.MonthlyCredit, &b.PolicyIDs); err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

func (r *LoyaltyRepo) GetSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, bundle_id, status, current_period_end
		FROM bundle_subscriptions
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var (
			s      domain.Subscription
			status string
		)
		if err := rows.Scan(&s.UserID, &s.BundleID, &status, &s.CurrentPeriodEnd); err != nil {
			return nil, err
		}
		s.Status = domain.SubscriptionStatus(status)
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *LoyaltyRepo) GetPass(ctx context.Context, id string) (domain.Pass, error) {
	var (
		p         domain.Pass
		item      []byte
		expiresAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, item, remaining, expires_at FROM passes WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &item, &p.Remaining, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Pass{}, domain.ErrPassNotFound
		}
		return domain.Pass{}, err
	}
	if err := json.Unmarshal(item, &p.Item); err != nil {
		return domain.Pass{}, fmt.Errorf("postgres: pass %s has malformed item: %w", id, err)
	}
	if expiresAt != nil {
		p.ExpiresAt = *expiresAt
	}
	return p, nil
}

// RedeemPass атомарно списывает одно погашение. Гонка двух погашений последнего остатка
// разрешается базой: проигравший получает ErrPassExhausted.
func (r *LoyaltyRepo) RedeemPass(ctx context.Context, id string) (int, error) {
	var remaining int
	err := r.pool.QueryRow(ctx, `
		UPDATE passes SET remaining = remaining - 1
		WHERE id = $1 AND remaining > 0
		RETURNING remaining`, id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrPassExhausted
		}
		return 0, fmt.Errorf("postgres: failed to redeem pass: %w", err)
	}
	return remaining, nil
}
