package menu

import (
	"errors"
	"testing"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

func testMenu() *domain.MenuNode {
	return &domain.MenuNode{
		Name: "root",
		Children: map[string]*domain.MenuNode{
			"drinks": {
				Name: "drinks",
				Children: map[string]*domain.MenuNode{
					"latte": {
						Name: "latte",
						Item: &domain.MenuItem{
							Name:       "Latte",
							Price:      400,
							PointValue: 4,
							PointPrice: 50,
							ModifierGroups: map[string]domain.ModifierGroup{
								"size": {Options: map[string]domain.ModifierOption{
									"small": {},
									"large": {Multiplier: 1.5},
								}},
								"extras": {Options: map[string]domain.ModifierOption{
									"shot":  {Price: 75},
									"syrup": {Price: 50},
								}},
							},
						},
					},
				},
			},
		},
	}
}

func TestPricer_Price(t *testing.T) {
	p := NewPricer(testMenu())

	tests := []struct {
		name string
		item domain.Item
		want domain.Money
	}{
		{"base", domain.Item{Path: []string{"drinks", "latte"}}, 400},
		{"neutral option", domain.Item{Path: []string{"drinks", "latte"}, Modifiers: map[string][]string{"size": {"small"}}}, 400},
		{"multiplier", domain.Item{Path: []string{"drinks", "latte"}, Modifiers: map[string][]string{"size": {"large"}}}, 600},
		{"multiplier and additive", domain.Item{Path: []string{"drinks", "latte"}, Modifiers: map[string][]string{
			"size":   {"large"},
			"extras": {"shot", "syrup"},
		}}, 725},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Price(tt.item)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Price() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPricer_PriceErrors(t *testing.T) {
	p := NewPricer(testMenu())

	tests := []struct {
		name string
		item domain.Item
		want error
	}{
		{"empty path", domain.Item{}, domain.ErrEmptyPath},
		{"unknown segment", domain.Item{Path: []string{"food"}}, domain.ErrMenuNodeNotFound},
		{"ends on section", domain.Item{Path: []string{"drinks"}}, domain.ErrNotPricedLeaf},
		{"past leaf", domain.Item{Path: []string{"drinks", "latte", "decaf"}}, domain.ErrPathBeyondLeaf},
		{"unknown group", domain.Item{Path: []string{"drinks", "latte"}, Modifiers: map[string][]string{"milk": {"oat"}}}, domain.ErrModifierGroupNotFound},
		{"unknown option", domain.Item{Path: []string{"drinks", "latte"}, Modifiers: map[string][]string{"size": {"huge"}}}, domain.ErrModifierOptionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Price(tt.item)
			if !errors.Is(err, tt.want) {
				t.Errorf("Price() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPricer_EmptyMenu(t *testing.T) {
	_, err := NewPricer(nil).Price(domain.Item{Path: []string{"drinks"}})
	if !errors.Is(err, domain.ErrEmptyMenu) {
		t.Fatalf("expected ErrEmptyMenu, got %v", err)
	}
}

func TestPricer_SubtotalIgnoresCachedPrice(t *testing.T) {
	p := NewPricer(testMenu())
	items := []domain.CartItem{
		{ID: 1, Item: domain.Item{Path: []string{"drinks", "latte"}}, Quantity: 2, UnitPrice: 1},
		{ID: 2, Item: domain.Item{Path: []string{"drinks", "latte"}, Modifiers: map[string][]string{"size": {"large"}}}, Quantity: 1},
	}

	got, err := p.Subtotal(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1400 {
		t.Errorf("Subtotal() = %d, want 1400", got)
	}

	items = append(items, domain.CartItem{ID: 3, Item: domain.Item{Path: []string{"food"}}, Quantity: 1})
	if _, err := p.Subtotal(items); !errors.Is(err, domain.ErrMenuNodeNotFound) {
		t.Errorf("expected ErrMenuNodeNotFound, got %v", err)
	}
}

func TestPricer_Points(t *testing.T) {
	value, price, err := NewPricer(testMenu()).Points(domain.Item{Path: []string{"drinks", "latte"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 4 || price != 50 {
		t.Errorf("Points() = (%d, %d), want (4, 50)", value, price)
	}
}
