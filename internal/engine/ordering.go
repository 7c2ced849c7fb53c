package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/audit"
	"github.com/xela07ax/loyalty-ordering/internal/bundle"
	"github.com/xela07ax/loyalty-ordering/internal/cart"
	"github.com/xela07ax/loyalty-ordering/internal/checkout"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/policy"
)

type RestaurantRepository interface {
	GetRestaurant(ctx context.Context, id string) (domain.Restaurant, error)
}

type BundleRepository interface {
	GetBundles(ctx context.Context, restaurantID string) ([]domain.Bundle, error)
	GetSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
}

type PassRepository interface {
	GetPass(ctx context.Context, id string) (domain.Pass, error)
	// RedeemPass атомарно уменьшает остаток и возвращает новое значение
	RedeemPass(ctx context.Context, id string) (int, error)
}

// PolicySource - RAM-кэш политик (policy.Cache).
type PolicySource interface {
	ForRestaurant(restaurantID string) []domain.Policy
	Get(policyID string) (domain.Policy, bool)
}

type PauseChecker interface {
	IsPaused(policyID string) bool
}

// Evaluation - все сработавшие сделки и итоговая сводка корзины.
type Evaluation struct {
	Effects []domain.DealEffectPayload `json:"effects"`
	Summary checkout.Summary           `json:"summary"`
}

// Deps собирает зависимости ядра заказа.
type Deps struct {
	Restaurants RestaurantRepository
	Policies    PolicySource
	Pauses      PauseChecker
	Bundles     BundleRepository
	Passes      PassRepository
	Evaluator   policy.Evaluator
	Carts       cart.Store
	Verifier    cart.Verifier
	Auditor     audit.Auditor
	Metrics     *Metrics
	Logger      *zap.Logger
}

// OrderingCore - оркестрация запроса: меню, активные политики из RAM, фильтрация пауз и бандлов,
// вычисление сделок, сводка, аудит и метрики.
type OrderingCore struct {
	restaurants RestaurantRepository
	policies    PolicySource
	pauses      PauseChecker
	bundles     BundleRepository
	passes      PassRepository
	evaluator   policy.Evaluator
	suggester   *bundle.Suggester
	carts       cart.Store
	verifier    cart.Verifier
	auditor     audit.Auditor
	metrics     *Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewOrderingCore(d Deps) *OrderingCore {
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}
	return &OrderingCore{
		restaurants: d.Restaurants,
		policies:    d.Policies,
		pauses:      d.Pauses,
		bundles:     d.Bundles,
		passes:      d.Passes,
		evaluator:   d.Evaluator,
		suggester:   bundle.NewSuggester(d.Evaluator),
		carts:       d.Carts,
		verifier:    d.Verifier,
		auditor:     d.Auditor,
		metrics:     d.Metrics,
		logger:      d.Logger.Named("ordering"),
		now:         time.Now,
	}
}

// SetVerifier подключает сервис заказов после создания ядра (локальный верификатор сам зависит от ядра).
func (o *OrderingCore) SetVerifier(v cart.Verifier) {
	o.verifier = v
}

// EvaluateCart применяет к корзине все доступные пользователю активные политики ресторана.
func (o *OrderingCore) EvaluateCart(ctx context.Context, restaurantID, userID string, c domain.Cart) (Evaluation, error) {
	if err := c.Validate(); err != nil {
		return Evaluation{}, err
	}
	restaurant, err := o.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return Evaluation{}, err
	}
	c.RestaurantID = restaurantID
	if userID != "" {
		c.UserID = userID
	}

	candidates, err := o.accessiblePolicies(ctx, restaurantID, c.UserID)
	if err != nil {
		return Evaluation{}, err
	}

	traceID := extractTraceID(ctx)
	effects := make([]domain.DealEffectPayload, 0, len(candidates))
	for _, p := range candidates {
		effect := o.evaluator.Apply(c, p.Definition, restaurant.Menu)
		if effect.IsEmpty() {
			o.metrics.Evaluations.WithLabelValues(restaurantID, "skipped").Inc()
			continue
		}
		effect.PolicyID = p.ID
		effects = append(effects, effect)
		o.recordApplied(traceID, c, p, effect)
	}

	summary, err := checkout.Summarize(c, restaurant.Menu, effects)
	if err != nil {
		o.metrics.ErrorTotal.WithLabelValues("pricing").Inc()
		return Evaluation{}, err
	}
	return Evaluation{Effects: effects, Summary: summary}, nil
}

// ApplyPolicy применяет одну политику. Неподходящая, остановленная или закрытая бандлом политика дает пустой эффект.
func (o *OrderingCore) ApplyPolicy(ctx context.Context, restaurantID, userID, policyID string, c domain.Cart) (domain.DealEffectPayload, error) {
	if err := c.Validate(); err != nil {
		return domain.DealEffectPayload{}, err
	}
	restaurant, err := o.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.DealEffectPayload{}, err
	}
	p, ok := o.policies.Get(policyID)
	if !ok || p.RestaurantID != restaurantID {
		return domain.DealEffectPayload{}, domain.ErrPolicyNotFound
	}

	effect := domain.NewDealEffectPayload()
	effect.PolicyID = p.ID
	if !p.Active || o.isPaused(p) {
		return effect, nil
	}

	c.RestaurantID = restaurantID
	if userID != "" {
		c.UserID = userID
	}
	if p.BundleID != nil {
		allowed, err := o.accessibleIDs(ctx, restaurantID, c.UserID)
		if err != nil {
			return domain.DealEffectPayload{}, err
		}
		if _, ok := allowed[p.ID]; !ok {
			o.metrics.Evaluations.WithLabelValues(restaurantID, "locked").Inc()
			return effect, nil
		}
	}

	effect = o.evaluator.Apply(c, p.Definition, restaurant.Menu)
	effect.PolicyID = p.ID
	if effect.IsEmpty() {
		o.metrics.Evaluations.WithLabelValues(restaurantID, "skipped").Inc()
		return effect, nil
	}
	o.recordApplied(extractTraceID(ctx), c, p, effect)
	return effect, nil
}

// Quote считает сводку корзины только с перечисленными политиками, доступными владельцу корзины.
func (o *OrderingCore) Quote(ctx context.Context, restaurantID string, c domain.Cart, policyIDs []string) (checkout.Summary, error) {
	if err := c.Validate(); err != nil {
		return checkout.Summary{}, err
	}
	restaurant, err := o.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return checkout.Summary{}, err
	}
	c.RestaurantID = restaurantID
	allowed, err := o.accessibleIDs(ctx, restaurantID, c.UserID)
	if err != nil {
		return checkout.Summary{}, err
	}

	effects := make([]domain.DealEffectPayload, 0, len(policyIDs))
	for _, id := range policyIDs {
		p, ok := allowed[id]
		if !ok {
			continue
		}
		if effect := o.evaluator.Apply(c, p.Definition, restaurant.Menu); !effect.IsEmpty() {
			effect.PolicyID = p.ID
			effects = append(effects, effect)
		}
	}
	return checkout.Summarize(c, restaurant.Menu, effects)
}

// SuggestBundle подбирает бандл, который выгоднее всего купить под текущую корзину.
func (o *OrderingCore) SuggestBundle(ctx context.Context, restaurantID, userID string, c domain.Cart) (domain.BundleSuggestion, bool, error) {
	restaurant, err := o.restaurants.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.BundleSuggestion{}, false, err
	}
	bundles, err := o.bundles.GetBundles(ctx, restaurantID)
	if err != nil {
		return domain.BundleSuggestion{}, false, err
	}
	subs, err := o.subscriptions(ctx, userID)
	if err != nil {
		return domain.BundleSuggestion{}, false, err
	}

	active := o.activePolicies(restaurantID)
	return o.suggester.Suggest(c, restaurant.Menu, bundles, active, subs, o.now())
}

// RedeemPass погашает одну единицу пасса для позиции корзины.
func (o *OrderingCore) RedeemPass(ctx context.Context, passID, userID string, item domain.Item) (domain.Pass, error) {
	pass, err := o.passes.GetPass(ctx, passID)
	if err != nil {
		return domain.Pass{}, err
	}
	if pass.UserID != userID {
		return domain.Pass{}, domain.ErrPassNotFound
	}
	if err := pass.Redeemable(item, o.now()); err != nil {
		return domain.Pass{}, err
	}

	remaining, err := o.passes.RedeemPass(ctx, passID)
	if err != nil {
		return domain.Pass{}, err
	}
	pass.Remaining = remaining

	o.auditor.Log(audit.DealEvent{
		ID:      uuid.NewString(),
		TraceID: extractTraceID(ctx),
		UserID:  userID,
		PassID:  passID,
		Effect:  item,
		Status:  audit.StatusRedeemed,
	})
	return pass, nil
}

// accessiblePolicies - активные, не остановленные политики, с учетом бандлов пользователя.
func (o *OrderingCore) accessiblePolicies(ctx context.Context, restaurantID, userID string) ([]domain.Policy, error) {
	active := o.activePolicies(restaurantID)

	gated := false
	for _, p := range active {
		if p.BundleID != nil {
			gated = true
			break
		}
	}
	if !gated {
		return active, nil
	}

	bundles, err := o.bundles.GetBundles(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load bundles: %w", err)
	}
	subs, err := o.subscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return bundle.AccessiblePolicies(active, bundles, subs, o.now()), nil
}

func (o *OrderingCore) accessibleIDs(ctx context.Context, restaurantID, userID string) (map[string]domain.Policy, error) {
	policies, err := o.accessiblePolicies(ctx, restaurantID, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Policy, len(policies))
	for _, p := range policies {
		out[p.ID] = p
	}
	return out, nil
}

func (o *OrderingCore) activePolicies(restaurantID string) []domain.Policy {
	all := o.policies.ForRestaurant(restaurantID)
	out := make([]domain.Policy, 0, len(all))
	for _, p := range all {
		if o.isPaused(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (o *OrderingCore) subscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	if userID == "" {
		return nil, nil
	}
	subs, err := o.bundles.GetSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return subs, nil
}

func (o *OrderingCore) isPaused(p domain.Policy) bool {
	return p.Paused || (o.pauses != nil && o.pauses.IsPaused(p.ID))
}

func (o *OrderingCore) recordApplied(traceID string, c domain.Cart, p domain.Policy, effect domain.DealEffectPayload) {
	o.metrics.Evaluations.WithLabelValues(c.RestaurantID, "qualified").Inc()
	o.metrics.DealsApplied.WithLabelValues(c.RestaurantID, string(p.Definition.Action.Type)).Inc()

	o.auditor.Log(audit.DealEvent{
		ID:           uuid.NewString(),
		TraceID:      traceID,
		RestaurantID: c.RestaurantID,
		CartID:       c.ID,
		UserID:       c.UserID,
		PolicyID:     p.ID,
		Action:       string(p.Definition.Action.Type),
		Effect:       effect,
		Status:       audit.StatusApplied,
	})
}
