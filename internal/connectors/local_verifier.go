package connectors

import (
	"context"

	"github.com/google/uuid"
	"github.com/xela07ax/loyalty-ordering/internal/checkout"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

// Quoter считает сводку корзины с выбранными политиками. Реализуется ядром заказа.
type Quoter interface {
	Quote(ctx context.Context, restaurantID string, cart domain.Cart, policyIDs []string) (checkout.Summary, error)
}

// LocalVerifier - заглушка сервиса заказов для локального запуска: пересчитывает корзину
// тем же движком, налог не начисляет.
type LocalVerifier struct {
	quoter Quoter
}

func NewLocalVerifier(quoter Quoter) *LocalVerifier {
	return &LocalVerifier{quoter: quoter}
}

func (v *LocalVerifier) VerifyOrder(ctx context.Context, req domain.VerifyOrderRequest) (domain.VerifiedOrder, error) {
	if err := ctx.Err(); err != nil {
		return domain.VerifiedOrder{}, err
	}

	cart := domain.Cart{ID: req.CartID, RestaurantID: req.RestaurantID, UserID: req.UserID, Items: req.Items}
	summary, err := v.quoter.Quote(ctx, req.RestaurantID, cart, req.PolicyIDs)
	if err != nil {
		return domain.VerifiedOrder{}, &RejectedError{StatusCode: 400, Message: err.Error()}
	}

	return domain.VerifiedOrder{
		OrderID:      uuid.NewString(),
		Subtotal:     summary.Subtotal,
		Discount:     summary.Discount(),
		Total:        summary.Total,
		PointsEarned: summary.Points,
		PolicyIDs:    req.PolicyIDs,
	}, nil
}
