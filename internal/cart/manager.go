// Package cart - состояние корзины одной сессии с внедряемым хранилищем и удаленной проверкой заказа.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/menu"
)

// Verifier - внешний сервис заказов, который авторитетно пересчитывает корзину.
type Verifier interface {
	VerifyOrder(ctx context.Context, req domain.VerifyOrderRequest) (domain.VerifiedOrder, error)
}

// Manager владеет одной корзиной. Каждая мутация сохраняется через Store.
type Manager struct {
	mu     sync.Mutex
	cart   domain.Cart
	pricer *menu.Pricer

	store    Store
	verifier Verifier
	now      func() time.Time
}

// New создает новую пустую корзину и сразу сохраняет ее.
func New(ctx context.Context, restaurant domain.Restaurant, userID string, store Store, verifier Verifier) (*Manager, error) {
	m := newManager(domain.Cart{
		ID:           uuid.NewString(),
		RestaurantID: restaurant.ID,
		UserID:       userID,
		Items:        []domain.CartItem{},
	}, restaurant.Menu, store, verifier)

	if err := m.persist(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Open восстанавливает корзину из хранилища.
func Open(ctx context.Context, cartID string, restaurant domain.Restaurant, store Store, verifier Verifier) (*Manager, error) {
	c, err := store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.RestaurantID != restaurant.ID {
		return nil, fmt.Errorf("cart %s belongs to restaurant %s: %w", cartID, c.RestaurantID, domain.ErrCartNotFound)
	}
	return newManager(c, restaurant.Menu, store, verifier), nil
}

func newManager(c domain.Cart, root *domain.MenuNode, store Store, verifier Verifier) *Manager {
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &Manager{
		cart:     c,
		pricer:   menu.NewPricer(root),
		store:    store,
		verifier: verifier,
		now:      time.Now,
	}
}

// Cart возвращает копию текущего состояния.
func (m *Manager) Cart() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

// Add добавляет позицию. Одинаковые позиции (путь + модификаторы) сливаются в одну строку.
func (m *Manager) Add(ctx context.Context, item domain.Item, quantity int) (domain.CartItem, error) {
	if quantity <= 0 {
		return domain.CartItem{}, domain.ErrInvalidQuantity
	}
	price, err := m.pricer.Price(item)
	if err != nil {
		return domain.CartItem{}, err
	}
	pointValue, pointPrice, err := m.pricer.Points(item)
	if err != nil {
		return domain.CartItem{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.cart.Items {
		if m.cart.Items[i].Item.Equal(item) {
			m.cart.Items[i].Quantity += quantity
			m.cart.Items[i].UnitPrice = price
			added := m.cart.Items[i]
			return added, m.persistLocked(ctx)
		}
	}

	added := domain.CartItem{
		ID:         m.nextIDLocked(),
		Item:       item,
		Quantity:   quantity,
		UnitPrice:  price,
		PointPrice: pointPrice,
		PointValue: pointValue,
	}
	m.cart.Items = append(m.cart.Items, added)
	return added, m.persistLocked(ctx)
}

// UpdateQuantity меняет количество. Значение <= 0 удаляет строку.
func (m *Manager) UpdateQuantity(ctx context.Context, itemID, quantity int) error {
	if quantity <= 0 {
		return m.Remove(ctx, itemID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.cart.Items {
		if m.cart.Items[i].ID == itemID {
			m.cart.Items[i].Quantity = quantity
			return m.persistLocked(ctx)
		}
	}
	return domain.ErrCartItemNotFound
}

func (m *Manager) Remove(ctx context.Context, itemID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.cart.Items {
		if m.cart.Items[i].ID == itemID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return m.persistLocked(ctx)
		}
	}
	return domain.ErrCartItemNotFound
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart.Items = []domain.CartItem{}
	return m.persistLocked(ctx)
}

// Subtotal считает сумму по ценам меню, а не по кэшированным ценам строк.
func (m *Manager) Subtotal() (domain.Money, error) {
	c := m.Cart()
	return m.pricer.Subtotal(c.Items)
}

// Verify отправляет корзину и выбранные политики во внешний сервис заказов.
func (m *Manager) Verify(ctx context.Context, policyIDs []string) (domain.VerifiedOrder, error) {
	c := m.Cart()
	if policyIDs == nil {
		policyIDs = []string{}
	}
	return m.verifier.VerifyOrder(ctx, domain.VerifyOrderRequest{
		CartID:       c.ID,
		RestaurantID: c.RestaurantID,
		UserID:       c.UserID,
		Items:        c.Items,
		PolicyIDs:    policyIDs,
	})
}

func (m *Manager) nextIDLocked() int {
	maxID := 0
	for _, ci := range m.cart.Items {
		maxID = max(maxID, ci.ID)
	}
	return maxID + 1
}

func (m *Manager) persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked(ctx)
}

func (m *Manager) persistLocked(ctx context.Context) error {
	m.cart.UpdatedAt = m.now()
	return m.store.Save(ctx, m.cart)
}
