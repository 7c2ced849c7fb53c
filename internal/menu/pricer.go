// Package menu реализует типизированный поиск по дереву меню ресторана и расчет цен позиций.
package menu

import (
	"fmt"
	"math"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

// Pricer считает цены по дереву меню одного ресторана. Не хранит состояния кроме самого дерева,
// поэтому безопасен для конкурентного использования.
type Pricer struct {
	root *domain.MenuNode
}

func NewPricer(root *domain.MenuNode) *Pricer {
	return &Pricer{root: root}
}

// Lookup проходит путь по дереву и возвращает лист с ценой.
func (p *Pricer) Lookup(path []string) (*domain.MenuItem, error) {
	if p.root == nil {
		return nil, domain.ErrEmptyMenu
	}
	if len(path) == 0 {
		return nil, domain.ErrEmptyPath
	}

	node := p.root
	for idx, segment := range path {
		if node.Item != nil {
			return nil, fmt.Errorf("%w: %q at segment %d", domain.ErrPathBeyondLeaf, segment, idx)
		}
		child, ok := node.Children[segment]
		if !ok || child == nil {
			return nil, fmt.Errorf("%w: %q at segment %d", domain.ErrMenuNodeNotFound, segment, idx)
		}
		node = child
	}

	if node.Item == nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotPricedLeaf, path)
	}
	return node.Item, nil
}

// Price = round(base * Π multiplier) + Σ option.price
func (p *Pricer) Price(item domain.Item) (domain.Money, error) {
	leaf, err := p.Lookup(item.Path)
	if err != nil {
		return 0, err
	}

	multiplier := 1.0
	var extra domain.Money
	for group, options := range item.Modifiers {
		mg, ok := leaf.ModifierGroups[group]
		if !ok {
			return 0, fmt.Errorf("%w: %q", domain.ErrModifierGroupNotFound, group)
		}
		for _, name := range options {
			opt, ok := mg.Options[name]
			if !ok {
				return 0, fmt.Errorf("%w: %q in group %q", domain.ErrModifierOptionNotFound, name, group)
			}
			if opt.Multiplier != 0 {
				multiplier *= opt.Multiplier
			}
			extra += opt.Price
		}
	}

	return domain.Money(math.Round(float64(leaf.Price)*multiplier)) + extra, nil
}

// Points возвращает баллы, начисляемые за единицу позиции, и ее цену в баллах.
func (p *Pricer) Points(item domain.Item) (value, price int64, err error) {
	leaf, err := p.Lookup(item.Path)
	if err != nil {
		return 0, 0, err
	}
	return leaf.PointValue, leaf.PointPrice, nil
}

// Subtotal суммирует канонические цены строк корзины. Кэшированный UnitPrice игнорируется.
func (p *Pricer) Subtotal(items []domain.CartItem) (domain.Money, error) {
	var total domain.Money
	for _, ci := range items {
		price, err := p.Price(ci.Item)
		if err != nil {
			return 0, fmt.Errorf("cart item %d: %w", ci.ID, err)
		}
		total += price * domain.Money(ci.Quantity)
	}
	return total, nil
}
