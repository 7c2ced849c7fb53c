package domain

import (
	"fmt"
	"time"
)

// CartItem - строка корзины. ID уникален в пределах корзины.
type CartItem struct {
	ID         int   `json:"id"`
	Item       Item  `json:"item"`
	Quantity   int   `json:"quantity"`
	UnitPrice  Money `json:"unit_price"`  // Кэшированная цена, для расчетов всегда берется цена из меню
	PointPrice int64 `json:"point_price"` // Стоимость позиции в баллах
	PointValue int64 `json:"point_value"` // Сколько баллов начисляется за единицу
}

type Cart struct {
	ID           string     `json:"id"`
	RestaurantID string     `json:"restaurant_id"`
	UserID       string     `json:"user_id,omitempty"`
	Items        []CartItem `json:"items"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate проверяет корзину, пришедшую от клиента: количества положительны, ID строк не повторяются.
func (c Cart) Validate() error {
	seen := make(map[int]struct{}, len(c.Items))
	for _, ci := range c.Items {
		if ci.Quantity <= 0 {
			return fmt.Errorf("%w: cart item %d has quantity %d", ErrInvalidQuantity, ci.ID, ci.Quantity)
		}
		if _, dup := seen[ci.ID]; dup {
			return fmt.Errorf("%w: duplicate cart item id %d", ErrInvalidQuantity, ci.ID)
		}
		seen[ci.ID] = struct{}{}
	}
	return nil
}

// ItemCount - суммарное количество единиц товара в корзине.
func (c Cart) ItemCount() int {
	total := 0
	for _, ci := range c.Items {
		total += ci.Quantity
	}
	return total
}

// QuantityMatching суммирует количество позиций, подходящих под набор шаблонов.
func (c Cart) QuantityMatching(patterns []Item) int {
	total := 0
	for _, ci := range c.Items {
		if ci.Item.MatchesAny(patterns) {
			total += ci.Quantity
		}
	}
	return total
}

// FindItem ищет строку корзины по ID.
func (c Cart) FindItem(id int) (CartItem, bool) {
	for _, ci := range c.Items {
		if ci.ID == id {
			return ci, true
		}
	}
	return CartItem{}, false
}

// Clone возвращает глубокую копию корзины, чтобы вызывающий код не мог изменить состояние менеджера.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
