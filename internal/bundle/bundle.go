// Package bundle - утилиты абонементов: владение, доступ к политикам и подсказка покупки.
package bundle

import (
	"time"

	"github.com/xela07ax/loyalty-ordering/internal/checkout"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/policy"
)

// Owns - есть активная подписка на бандл, период которой еще не закончился.
func Owns(subs []domain.Subscription, bundleID string, now time.Time) bool {
	for _, s := range subs {
		if s.BundleID == bundleID && s.Status == domain.SubscriptionActive && now.Before(s.CurrentPeriodEnd) {
			return true
		}
	}
	return false
}

// AccessiblePolicies оставляет открытые политики и политики бандлов, которыми владеет пользователь.
// Политика доступна через бандл, если указана в его BundleID или в списке PolicyIDs бандла.
func AccessiblePolicies(policies []domain.Policy, bundles []domain.Bundle, subs []domain.Subscription, now time.Time) []domain.Policy {
	unlocked := make(map[string]bool)
	for _, b := range bundles {
		if !Owns(subs, b.ID, now) {
			continue
		}
		for _, id := range b.PolicyIDs {
			unlocked[id] = true
		}
	}

	out := make([]domain.Policy, 0, len(policies))
	for _, p := range policies {
		switch {
		case p.BundleID == nil:
			out = append(out, p)
		case Owns(subs, *p.BundleID, now), unlocked[p.ID]:
			out = append(out, p)
		}
	}
	return out
}

// Suggester оценивает, какой из непринадлежащих пользователю бандлов окупился бы на текущей корзине.
type Suggester struct {
	evaluator policy.Evaluator
}

func NewSuggester(evaluator policy.Evaluator) *Suggester {
	return &Suggester{evaluator: evaluator}
}

// Suggest возвращает лучший бандл по экономии. ok=false, если ни один бандл ничего не дает.
// Экономия = скидка сводки заказа + стоимость бесплатных позиций.
func (s *Suggester) Suggest(
	cart domain.Cart,
	root *domain.MenuNode,
	bundles []domain.Bundle,
	policies []domain.Policy,
	subs []domain.Subscription,
	now time.Time,
) (domain.BundleSuggestion, bool, error) {
	var (
		best  domain.BundleSuggestion
		found bool
	)

	for _, b := range bundles {
		if Owns(subs, b.ID, now) {
			continue
		}

		var (
			effects []domain.DealEffectPayload
			applied []string
		)
		for _, p := range policiesOf(b, policies) {
			effect := s.evaluator.Apply(cart, p.Definition, root)
			if effect.IsEmpty() {
				continue
			}
			effect.PolicyID = p.ID
			effects = append(effects, effect)
			applied = append(applied, p.ID)
		}
		if len(effects) == 0 {
			continue
		}

		summary, err := checkout.Summarize(cart, root, effects)
		if err != nil {
			return domain.BundleSuggestion{}, false, err
		}
		savings := summary.Discount() + summary.FreeValue
		if savings <= 0 {
			continue
		}

		if !found || savings > best.Savings {
			best = domain.BundleSuggestion{
				Bundle:        b,
				Savings:       savings,
				NetValue:      savings - b.Price,
				PaysForItself: savings >= b.Price,
				PolicyIDs:     applied,
			}
			found = true
		}
	}
	return best, found, nil
}

func policiesOf(b domain.Bundle, policies []domain.Policy) []domain.Policy {
	ids := make(map[string]bool, len(b.PolicyIDs))
	for _, id := range b.PolicyIDs {
		ids[id] = true
	}

	var out []domain.Policy
	for _, p := range policies {
		if !p.Active || p.Paused {
			continue
		}
		if ids[p.ID] || (p.BundleID != nil && *p.BundleID == b.ID) {
			out = append(out, p)
		}
	}
	return out
}
