package domain

import "time"

// Bundle - абонемент (membership): регулярный кредит/баллы и доступ к фиксированному набору политик.
type Bundle struct {
	ID            string   `json:"id"`
	RestaurantID  string   `json:"restaurant_id"`
	Name          string   `json:"name"`
	Price         Money    `json:"price"`          // Стоимость за период
	MonthlyCredit Money    `json:"monthly_credit"` // Кредит, начисляемый каждый период
	PolicyIDs     []string `json:"policy_ids"`
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	UserID           string             `json:"user_id"`
	BundleID         string             `json:"bundle_id"`
	Status           SubscriptionStatus `json:"status"`
	CurrentPeriodEnd time.Time          `json:"current_period_end"`
}

// BundleSuggestion - рекомендация купить бандл под текущую корзину.
type BundleSuggestion struct {
	Bundle        Bundle   `json:"bundle"`
	Savings       Money    `json:"savings"`   // Экономия на текущей корзине
	NetValue      Money    `json:"net_value"` // Savings - Price
	PaysForItself bool     `json:"pays_for_itself"`
	PolicyIDs     []string `json:"policy_ids"` // Политики бандла, которые сработали на корзине
}

// Pass - купленное право на ограниченное число погашений конкретной позиции.
type Pass struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Item      Item      `json:"item"`
	Remaining int       `json:"remaining"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Redeemable проверяет, можно ли погасить пасс для позиции корзины.
func (p Pass) Redeemable(item Item, now time.Time) error {
	if !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt) {
		return ErrPassExpired
	}
	if p.Remaining <= 0 {
		return ErrPassExhausted
	}
	if !item.Matches(p.Item) {
		return ErrPassNotForItem
	}
	return nil
}
