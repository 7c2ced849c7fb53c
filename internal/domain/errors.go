package domain

import "errors"

// Ошибки поиска по дереву меню
var (
	ErrEmptyMenu              = errors.New("menu is empty")
	ErrEmptyPath              = errors.New("item path is empty")
	ErrMenuNodeNotFound       = errors.New("menu node not found")
	ErrNotPricedLeaf          = errors.New("menu path does not end on a priced item")
	ErrPathBeyondLeaf         = errors.New("menu path continues past a priced item")
	ErrModifierGroupNotFound  = errors.New("modifier group not found")
	ErrModifierOptionNotFound = errors.New("modifier option not found")
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrPolicyNotFound     = errors.New("policy not found")
	ErrBundleNotFound     = errors.New("bundle not found")
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidPolicy      = errors.New("invalid policy definition")
)

var (
	ErrPassNotFound   = errors.New("pass not found")
	ErrPassExhausted  = errors.New("pass has no remaining redemptions")
	ErrPassExpired    = errors.New("pass expired")
	ErrPassNotForItem = errors.New("pass does not cover this item")
)
