package domain

// FreeAddedItem - бесплатная позиция, которую политика добавляет к заказу (корзина не меняется).
type FreeAddedItem struct {
	Item     Item `json:"item"`
	Quantity int  `json:"quantity"`
}

// ModifiedCartItem - модификация конкретной строки корзины.
// Quantity показывает, сколько единиц строки затронуто.
type ModifiedCartItem struct {
	ID           int        `json:"id"`
	Modification ActionType `json:"modification"`
	Amount       float64    `json:"amount"`
	Quantity     int        `json:"quantity"`
}

type WholeCartModification struct {
	Modification ActionType `json:"modification"`
	Amount       float64    `json:"amount"`
}

// DealEffectPayload - результат применения политики к корзине.
type DealEffectPayload struct {
	PolicyID      string                 `json:"policy_id,omitempty"`
	AddedItems    []FreeAddedItem        `json:"added_items"`
	ModifiedItems []ModifiedCartItem     `json:"modified_items"`
	WholeCart     *WholeCartModification `json:"whole_cart,omitempty"`
}

// NewDealEffectPayload возвращает пустой эффект, списки инициализированы, чтобы в JSON был [] вместо null.
func NewDealEffectPayload() DealEffectPayload {
	return DealEffectPayload{
		AddedItems:    []FreeAddedItem{},
		ModifiedItems: []ModifiedCartItem{},
	}
}

func (p DealEffectPayload) IsEmpty() bool {
	return len(p.AddedItems) == 0 && len(p.ModifiedItems) == 0 && p.WholeCart == nil
}
