package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/audit"
	"github.com/xela07ax/loyalty-ordering/internal/cart"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

// CreateCart открывает новую сессию корзины.
func (o *OrderingCore) CreateCart(ctx context.Context, restaurantID, userID string) (domain.Cart, error) {
	restaurant, err := o.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.Cart{}, err
	}
	m, err := cart.New(ctx, restaurant, userID, o.carts, o.verifier)
	if err != nil {
		o.metrics.ErrorTotal.WithLabelValues("storage").Inc()
		return domain.Cart{}, err
	}
	return m.Cart(), nil
}

func (o *OrderingCore) GetCart(ctx context.Context, cartID string) (domain.Cart, error) {
	return o.carts.Load(ctx, cartID)
}

func (o *OrderingCore) AddCartItem(ctx context.Context, cartID string, item domain.Item, quantity int) (domain.Cart, error) {
	m, err := o.openCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	if _, err := m.Add(ctx, item, quantity); err != nil {
		return domain.Cart{}, err
	}
	return m.Cart(), nil
}

func (o *OrderingCore) UpdateCartItem(ctx context.Context, cartID string, itemID, quantity int) (domain.Cart, error) {
	m, err := o.openCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := m.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return domain.Cart{}, err
	}
	return m.Cart(), nil
}

func (o *OrderingCore) RemoveCartItem(ctx context.Context, cartID string, itemID int) (domain.Cart, error) {
	m, err := o.openCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := m.Remove(ctx, itemID); err != nil {
		return domain.Cart{}, err
	}
	return m.Cart(), nil
}

func (o *OrderingCore) ClearCart(ctx context.Context, cartID string) (domain.Cart, error) {
	m, err := o.openCart(ctx, cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := m.Clear(ctx); err != nil {
		return domain.Cart{}, err
	}
	return m.Cart(), nil
}

// VerifyCart отправляет корзину с выбранными политиками в сервис заказов и пишет результат в журнал.
func (o *OrderingCore) VerifyCart(ctx context.Context, cartID string, policyIDs []string) (domain.VerifiedOrder, error) {
	m, err := o.openCart(ctx, cartID)
	if err != nil {
		return domain.VerifiedOrder{}, err
	}

	start := time.Now()
	order, err := m.Verify(ctx, policyIDs)

	c := m.Cart()
	event := audit.DealEvent{
		ID:           uuid.NewString(),
		TraceID:      extractTraceID(ctx),
		RestaurantID: c.RestaurantID,
		CartID:       c.ID,
		UserID:       c.UserID,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		o.metrics.ErrorTotal.WithLabelValues("verifier").Inc()
		o.logger.Warn("order verification failed", zap.String("cart_id", cartID), zap.Error(err))
		event.Status = audit.StatusVerifyFailed
		event.Error = err.Error()
		o.auditor.Log(event)
		return domain.VerifiedOrder{}, err
	}

	event.Status = audit.StatusVerified
	event.Effect = order
	o.auditor.Log(event)
	return order, nil
}

// openCart восстанавливает менеджер корзины вместе с меню ее ресторана.
func (o *OrderingCore) openCart(ctx context.Context, cartID string) (*cart.Manager, error) {
	c, err := o.carts.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	restaurant, err := o.restaurants.GetRestaurant(ctx, c.RestaurantID)
	if err != nil {
		return nil, err
	}
	return cart.Open(ctx, cartID, restaurant, o.carts, o.verifier)
}
