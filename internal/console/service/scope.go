package service

import (
	"context"

	"github.com/xela07ax/loyalty-ordering/internal/infra/auth"
)

// Без claims в контексте (внутренние вызовы, тесты) ограничений нет.
func canAccess(ctx context.Context, restaurantID string) bool {
	if _, ok := auth.ClaimsFromContext(ctx); !ok {
		return true
	}
	return auth.CanAccessRestaurant(ctx, restaurantID)
}

func scopedRestaurant(ctx context.Context) string {
	if c, ok := auth.ClaimsFromContext(ctx); ok {
		return c.RestaurantID
	}
	return ""
}
