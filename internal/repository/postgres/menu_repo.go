package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

// GetRestaurant загружает ресторан вместе с деревом меню (JSONB).
func (r *LoyaltyRepo) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, error) {
	var (
		rest domain.Restaurant
		menu []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT id, name, menu, updated_at FROM restaurants WHERE id = $1`, id).
		Scan(&rest.ID, &rest.Name, &menu, &rest.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Restaurant{}, domain.ErrRestaurantNotFound
		}
		return domain.Restaurant{}, err
	}

	if len(menu) > 0 {
		rest.Menu = &domain.MenuNode{}
		if err := json.Unmarshal(menu, rest.Menu); err != nil {
			return domain.Restaurant{}, fmt.Errorf("postgres: restaurant %s has malformed menu: %w", id, err)
		}
	}
	return rest, nil
}
