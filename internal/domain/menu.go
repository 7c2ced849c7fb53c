package domain

import "time"

// ModifierOption - вариант модификатора. Price прибавляется к цене,
// Multiplier (если задан) умножает базовую цену позиции, например размер "large" = 1.5.
type ModifierOption struct {
	Price      Money   `json:"price"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

type ModifierGroup struct {
	Options map[string]ModifierOption `json:"options"`
}

// MenuItem - лист дерева меню с ценой.
type MenuItem struct {
	Name           string                   `json:"name"`
	Price          Money                    `json:"price"`
	PointValue     int64                    `json:"point_value"`
	PointPrice     int64                    `json:"point_price"`
	ModifierGroups map[string]ModifierGroup `json:"modifier_groups,omitempty"`
}

// MenuNode - узел дерева меню: либо раздел с дочерними узлами, либо лист с Item.
type MenuNode struct {
	Name     string               `json:"name"`
	Children map[string]*MenuNode `json:"children,omitempty"`
	Item     *MenuItem            `json:"item,omitempty"`
}

type Restaurant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Menu      *MenuNode `json:"menu"`
	UpdatedAt time.Time `json:"updated_at"`
}
