// Package policy содержит движок сделок (квалификация и применение политик) и RAM-кэш политик.
package policy

import (
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/menu"
	"go.uber.org/zap"
)

// Evaluator - контракт движка сделок, на который опирается ядро заказа.
// Результат зависит только от (корзина, политика, меню).
type Evaluator interface {
	Qualifies(cart domain.Cart, def domain.PolicyDefinition, root *domain.MenuNode) bool
	Apply(cart domain.Cart, def domain.PolicyDefinition, root *domain.MenuNode) domain.DealEffectPayload
}

// Engine - реализация Evaluator. Единственное внутреннее состояние - кэш скомпилированных
// CEL-программ, который не влияет на результат.
type Engine struct {
	logger *zap.Logger
	exprs  *exprCache
}

func NewEngine(logger *zap.Logger) (*Engine, error) {
	exprs, err := newExprCache()
	if err != nil {
		return nil, err
	}
	return &Engine{
		logger: logger.Named("policy-engine"),
		exprs:  exprs,
	}, nil
}

// cartFacts - агрегаты корзины, по которым проверяются условия.
type cartFacts struct {
	subtotal      domain.Money
	itemCount     int
	distinctItems int
}

// Qualifies проверяет все условия политики (AND) с коротким замыканием на первом невыполненном.
// Ошибка цены (битый путь в корзине) дисквалифицирует политику, но не прерывает расчет.
func (e *Engine) Qualifies(cart domain.Cart, def domain.PolicyDefinition, root *domain.MenuNode) bool {
	subtotal, err := menu.NewPricer(root).Subtotal(cart.Items)
	if err != nil {
		e.logger.Warn("cart cannot be priced, policy disqualified",
			zap.String("cart_id", cart.ID),
			zap.String("tag", def.Tag),
			zap.Error(err))
		return false
	}

	facts := cartFacts{
		subtotal:      subtotal,
		itemCount:     cart.ItemCount(),
		distinctItems: len(cart.Items),
	}

	for i, c := range def.Conditions {
		if !e.check(c, cart, facts) {
			e.logger.Debug("condition not met",
				zap.String("cart_id", cart.ID),
				zap.String("tag", def.Tag),
				zap.Int("condition", i),
				zap.String("type", string(c.Type)))
			return false
		}
	}
	return true
}

// Apply повторно проверяет квалификацию и строит эффект. Для неподходящей политики
// всегда возвращается пустой эффект, частичных результатов не бывает.
func (e *Engine) Apply(cart domain.Cart, def domain.PolicyDefinition, root *domain.MenuNode) domain.DealEffectPayload {
	effect := domain.NewDealEffectPayload()
	if !e.Qualifies(cart, def, root) {
		return effect
	}

	a := def.Action
	switch {
	case a.Type == domain.ActionAddFreeItem:
		if free, ok := freeItem(a); ok {
			effect.AddedItems = append(effect.AddedItems, free)
		}
	case a.Type.IsPerItem():
		effect.ModifiedItems = distribute(cart, a)
	case a.Type.IsWholeCart():
		effect.WholeCart = &domain.WholeCartModification{
			Modification: a.Type,
			Amount:       a.Amount,
		}
	default:
		e.logger.Warn("unknown action type", zap.String("type", string(a.Type)))
	}
	return effect
}

// ApplyPolicy - Apply для сохраненной политики, эффект помечается ее ID.
func (e *Engine) ApplyPolicy(cart domain.Cart, p domain.Policy, root *domain.MenuNode) domain.DealEffectPayload {
	effect := e.Apply(cart, p.Definition, root)
	effect.PolicyID = p.ID
	return effect
}
