package domain

// VerifyOrderRequest уходит во внешний сервис заказов для авторитетного пересчета.
type VerifyOrderRequest struct {
	CartID       string     `json:"cart_id"`
	RestaurantID string     `json:"restaurant_id"`
	UserID       string     `json:"user_id,omitempty"`
	Items        []CartItem `json:"items"`
	PolicyIDs    []string   `json:"policy_ids"`
}

// VerifiedOrder - ответ сервиса заказов. Суммы в центах.
type VerifiedOrder struct {
	OrderID      string   `json:"order_id"`
	Subtotal     Money    `json:"subtotal"`
	Discount     Money    `json:"discount"`
	Tax          Money    `json:"tax"`
	Total        Money    `json:"total"`
	PointsEarned int64    `json:"points_earned"`
	PolicyIDs    []string `json:"applied_policy_ids"`
}
