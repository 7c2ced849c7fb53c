package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConditionType - вид условия политики. Все условия политики объединяются через AND.
type ConditionType string

const (
	ConditionMinimumQuantity  ConditionType = "minimum_quantity"   // Σ qty подходящих позиций >= Quantity
	ConditionMinimumCartTotal ConditionType = "minimum_cart_total" // subtotal >= Amount
	ConditionExactQuantity    ConditionType = "exact_quantity"     // Σ qty подходящих позиций == Quantity
	ConditionTotalQuantity    ConditionType = "total_quantity"     // общее кол-во единиц >= Quantity
	ConditionExpression       ConditionType = "expression"         // CEL-выражение над фактами корзины
)

type Condition struct {
	Type       ConditionType `json:"type"`
	Items      []Item        `json:"items,omitempty"`
	Quantity   int           `json:"quantity,omitempty"`
	Amount     Money         `json:"amount,omitempty"`
	Expression string        `json:"expression,omitempty"`
}

// UnmarshalJSON принимает устаревший ключ "itemIds" вместо "items".
func (c *Condition) UnmarshalJSON(data []byte) error {
	type plain Condition
	aux := struct {
		*plain
		LegacyItems []Item `json:"itemIds"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(c.Items) == 0 {
		c.Items = aux.LegacyItems
	}
	return nil
}

// ActionType - вид эффекта политики.
type ActionType string

const (
	ActionAddFreeItem          ActionType = "add_free_item"
	ActionPercentDiscount      ActionType = "apply_percent_discount"
	ActionFixedDiscount        ActionType = "apply_fixed_discount"
	ActionPointMultiplier      ActionType = "apply_point_multiplier"
	ActionBlanketPrice         ActionType = "apply_blanket_price"
	ActionFixedOrderDiscount   ActionType = "apply_fixed_order_discount"
	ActionOrderPointMultiplier ActionType = "apply_order_point_multiplier"
	ActionOrderPercentDiscount ActionType = "apply_order_percent_discount"
	legacyActionDiscount       ActionType = "apply_discount"
)

// UnmarshalJSON принимает устаревшее написание "apply_discount" как процентную скидку.
func (t *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ActionType(s)
	if *t == legacyActionDiscount {
		*t = ActionPercentDiscount
	}
	return nil
}

// IsPerItem - действие применяется к отдельным строкам корзины с учетом лимита MaxEffectedItems.
func (t ActionType) IsPerItem() bool {
	switch t {
	case ActionPercentDiscount, ActionFixedDiscount, ActionPointMultiplier, ActionBlanketPrice:
		return true
	}
	return false
}

// IsWholeCart - действие применяется ко всему заказу одной записью.
func (t ActionType) IsWholeCart() bool {
	switch t {
	case ActionFixedOrderDiscount, ActionOrderPointMultiplier, ActionOrderPercentDiscount:
		return true
	}
	return false
}

type Action struct {
	Type   ActionType `json:"type"`
	Amount float64    `json:"amount"` // Проценты, центы или множитель - в зависимости от Type
	Items  []Item     `json:"items,omitempty"`

	// MaxEffectedItems ограничивает количество затронутых единиц. nil - без ограничений.
	MaxEffectedItems *int `json:"max_effected_items,omitempty"`
}

func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action
	aux := struct {
		*plain
		LegacyItems []Item `json:"itemIds"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(a.Items) == 0 {
		a.Items = aux.LegacyItems
	}
	return nil
}

// PolicyDefinition - правило: тег (категория), условия и одно действие.
type PolicyDefinition struct {
	Tag        string      `json:"tag"`
	Conditions []Condition `json:"conditions"`
	Action     Action      `json:"action"`
}

// Validate проверяет словарь условий и действий до сохранения политики.
func (d PolicyDefinition) Validate() error {
	for i, c := range d.Conditions {
		switch c.Type {
		case ConditionMinimumQuantity, ConditionExactQuantity, ConditionTotalQuantity:
			if c.Quantity < 0 {
				return fmt.Errorf("%w: condition %d has negative quantity", ErrInvalidPolicy, i)
			}
		case ConditionMinimumCartTotal:
			if c.Amount < 0 {
				return fmt.Errorf("%w: condition %d has negative amount", ErrInvalidPolicy, i)
			}
		case ConditionExpression:
			if c.Expression == "" {
				return fmt.Errorf("%w: condition %d has empty expression", ErrInvalidPolicy, i)
			}
		default:
			return fmt.Errorf("%w: unknown condition type %q", ErrInvalidPolicy, c.Type)
		}
	}

	a := d.Action
	switch {
	case a.Type == ActionAddFreeItem:
		if len(a.Items) == 0 {
			return fmt.Errorf("%w: add_free_item requires a target item", ErrInvalidPolicy)
		}
	case a.Type.IsPerItem(), a.Type.IsWholeCart():
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidPolicy, a.Type)
	}
	if a.MaxEffectedItems != nil && *a.MaxEffectedItems < 0 {
		return fmt.Errorf("%w: max_effected_items must not be negative", ErrInvalidPolicy)
	}
	return nil
}

// Policy - сохраненная политика ресторана.
type Policy struct {
	ID           string           `json:"id"`
	RestaurantID string           `json:"restaurant_id"`
	Name         string           `json:"name"`
	BundleID     *string          `json:"bundle_id,omitempty"` // Если задан - доступна только владельцам бандла
	Active       bool             `json:"active"`
	Paused       bool             `json:"paused"`
	Definition   PolicyDefinition `json:"definition"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
