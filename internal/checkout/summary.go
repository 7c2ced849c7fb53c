// Package checkout сводит эффекты сделок к итоговым суммам корзины для отображения.
// Авторитетный пересчет делает внешний сервис заказов.
package checkout

import (
	"math"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/menu"
)

// Line - строка корзины после применения скидок.
type Line struct {
	CartItemID int          `json:"cart_item_id"`
	UnitPrice  domain.Money `json:"unit_price"`
	Quantity   int          `json:"quantity"`
	Gross      domain.Money `json:"gross"`
	Discount   domain.Money `json:"discount"`
	Points     int64        `json:"points"`

	unitPoints int64
}

type Summary struct {
	Lines         []Line                 `json:"lines"`
	FreeItems     []domain.FreeAddedItem `json:"free_items"`
	FreeValue     domain.Money           `json:"free_value"` // Стоимость бесплатных позиций по меню
	Subtotal      domain.Money           `json:"subtotal"`
	ItemDiscount  domain.Money           `json:"item_discount"`
	OrderDiscount domain.Money           `json:"order_discount"`
	Total         domain.Money           `json:"total"`
	Points        int64                  `json:"points"`
}

// Discount - суммарная скидка на корзину без учета бесплатных позиций.
func (s Summary) Discount() domain.Money {
	return s.ItemDiscount + s.OrderDiscount
}

// Summarize применяет эффекты к корзине по ценам меню.
// Скидка строки не превышает ее стоимость, итог не уходит ниже нуля.
// Процентная скидка на заказ считается от остатка после построчных скидок.
func Summarize(cart domain.Cart, root *domain.MenuNode, effects []domain.DealEffectPayload) (Summary, error) {
	pricer := menu.NewPricer(root)
	s := Summary{
		Lines:     make([]Line, 0, len(cart.Items)),
		FreeItems: []domain.FreeAddedItem{},
	}
	index := make(map[int]int, len(cart.Items))

	for _, ci := range cart.Items {
		price, err := pricer.Price(ci.Item)
		if err != nil {
			return Summary{}, err
		}
		pointValue, _, err := pricer.Points(ci.Item)
		if err != nil {
			return Summary{}, err
		}
		index[ci.ID] = len(s.Lines)
		s.Lines = append(s.Lines, Line{
			CartItemID: ci.ID,
			UnitPrice:  price,
			Quantity:   ci.Quantity,
			Gross:      price * domain.Money(ci.Quantity),
			Points:     pointValue * int64(ci.Quantity),
			unitPoints: pointValue,
		})
		s.Subtotal += price * domain.Money(ci.Quantity)
	}

	var wholeCart []domain.WholeCartModification
	for _, effect := range effects {
		for _, m := range effect.ModifiedItems {
			idx, ok := index[m.ID]
			if !ok {
				continue
			}
			applyItem(&s.Lines[idx], m)
		}
		for _, free := range effect.AddedItems {
			s.FreeItems = append(s.FreeItems, free)
			if price, err := pricer.Price(free.Item); err == nil {
				s.FreeValue += price * domain.Money(free.Quantity)
			}
		}
		if effect.WholeCart != nil {
			wholeCart = append(wholeCart, *effect.WholeCart)
		}
	}

	for _, l := range s.Lines {
		s.ItemDiscount += l.Discount
		s.Points += l.Points
	}

	basePoints := s.Points
	remaining := s.Subtotal - s.ItemDiscount
	for _, w := range wholeCart {
		switch w.Modification {
		case domain.ActionFixedOrderDiscount:
			d := min(domain.Money(math.Round(w.Amount)), remaining)
			s.OrderDiscount += max(d, 0)
			remaining -= max(d, 0)
		case domain.ActionOrderPercentDiscount:
			d := domain.Money(math.Round(float64(remaining) * w.Amount / 100))
			d = max(min(d, remaining), 0)
			s.OrderDiscount += d
			remaining -= d
		case domain.ActionOrderPointMultiplier:
			if w.Amount > 1 {
				s.Points += int64(math.Round(float64(basePoints) * (w.Amount - 1)))
			}
		}
	}

	s.Total = max(s.Subtotal-s.ItemDiscount-s.OrderDiscount, 0)
	return s, nil
}

func applyItem(l *Line, m domain.ModifiedCartItem) {
	qty := domain.Money(min(m.Quantity, l.Quantity))
	if qty <= 0 {
		return
	}

	var d domain.Money
	switch m.Modification {
	case domain.ActionPercentDiscount:
		d = domain.Money(math.Round(float64(l.UnitPrice*qty) * m.Amount / 100))
	case domain.ActionFixedDiscount:
		d = min(domain.Money(math.Round(m.Amount)), l.UnitPrice) * qty
	case domain.ActionBlanketPrice:
		// Amount - новая цена единицы
		d = max(l.UnitPrice-domain.Money(math.Round(m.Amount)), 0) * qty
	case domain.ActionPointMultiplier:
		if m.Amount > 1 {
			l.Points += int64(math.Round(float64(l.unitPoints*int64(qty)) * (m.Amount - 1)))
		}
		return
	}

	l.Discount = min(l.Discount+max(d, 0), l.Gross)
}
