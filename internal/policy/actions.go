package policy

import "github.com/xela07ax/loyalty-ordering/internal/domain"

// distribute раздает бюджет MaxEffectedItems по подходящим строкам корзины в порядке корзины.
// Одна строка корзины дает не больше одной записи, строки с нулевым потреблением пропускаются.
func distribute(cart domain.Cart, a domain.Action) []domain.ModifiedCartItem {
	out := []domain.ModifiedCartItem{}

	unlimited := a.MaxEffectedItems == nil
	budget := 0
	if !unlimited {
		budget = *a.MaxEffectedItems
	}

	for _, ci := range cart.Items {
		if !unlimited && budget <= 0 {
			break
		}
		if ci.Quantity <= 0 || !ci.Item.MatchesAny(a.Items) {
			continue
		}

		consumed := ci.Quantity
		if !unlimited {
			consumed = min(ci.Quantity, budget)
			budget -= consumed
		}

		out = append(out, domain.ModifiedCartItem{
			ID:           ci.ID,
			Modification: a.Type,
			Amount:       a.Amount,
			Quantity:     consumed,
		})
	}
	return out
}

// freeItem берет первую целевую позицию действия. Amount трактуется как количество (минимум 1).
func freeItem(a domain.Action) (domain.FreeAddedItem, bool) {
	if len(a.Items) == 0 {
		return domain.FreeAddedItem{}, false
	}
	qty := int(a.Amount)
	if qty < 1 {
		qty = 1
	}
	return domain.FreeAddedItem{Item: a.Items[0], Quantity: qty}, true
}
