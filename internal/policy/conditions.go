package policy

import (
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"go.uber.org/zap"
)

func (e *Engine) check(c domain.Condition, cart domain.Cart, facts cartFacts) bool {
	switch c.Type {
	case domain.ConditionMinimumCartTotal:
		return facts.subtotal >= c.Amount
	case domain.ConditionMinimumQuantity:
		return cart.QuantityMatching(c.Items) >= c.Quantity
	case domain.ConditionExactQuantity:
		// Пустой набор позиций = вся корзина
		return cart.QuantityMatching(c.Items) == c.Quantity
	case domain.ConditionTotalQuantity:
		return facts.itemCount >= c.Quantity
	case domain.ConditionExpression:
		ok, err := e.exprs.eval(c.Expression, facts)
		if err != nil {
			e.logger.Warn("expression condition failed",
				zap.String("expression", c.Expression),
				zap.Error(err))
			return false
		}
		return ok
	default:
		e.logger.Warn("unknown condition type", zap.String("type", string(c.Type)))
		return false
	}
}
