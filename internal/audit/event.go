package audit

import "time"

// Статусы записей журнала сделок
const (
	StatusApplied      = "APPLIED"       // Политика сработала на корзине
	StatusVerified     = "VERIFIED"      // Заказ подтвержден сервисом заказов
	StatusVerifyFailed = "VERIFY_FAILED" // Сервис заказов отказал или недоступен
	StatusRedeemed     = "REDEEMED"      // Погашен пасс
)

type DealEvent struct {
	ID           string `json:"id"`       // UUID события
	TraceID      string `json:"trace_id"` // Сквозной ID запроса
	RestaurantID string `json:"restaurant_id"`
	CartID       string `json:"cart_id,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	PolicyID     string `json:"policy_id,omitempty"`
	PassID       string `json:"pass_id,omitempty"`

	Action string      `json:"action,omitempty"` // Тип действия политики
	Effect interface{} `json:"effect,omitempty"` // Эффект сделки или ответ сервиса заказов

	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Filter - параметры выборки журнала для консоли.
type Filter struct {
	RestaurantID string
	PolicyID     string
	Limit        int
}

// Stats - сводка журнала за окно наблюдения для дашборда консоли.
type Stats struct {
	RestaurantID string        `json:"restaurant_id,omitempty"`
	Since        time.Time     `json:"since"`
	Applied      int64         `json:"applied"`
	Verified     int64         `json:"verified"`
	VerifyFailed int64         `json:"verify_failed"`
	Redeemed     int64         `json:"redeemed"`
	P95Latency   float64       `json:"p95_latency_ms"`
	TopPolicies  []PolicyUsage `json:"top_policies"`
}

type PolicyUsage struct {
	PolicyID string `json:"policy_id"`
	Applied  int64  `json:"applied"`
}
