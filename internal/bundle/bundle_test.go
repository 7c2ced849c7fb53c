package bundle

import (
	"testing"
	"time"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/policy"
	"go.uber.org/zap"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestOwns(t *testing.T) {
	subs := []domain.Subscription{
		{BundleID: "gold", Status: domain.SubscriptionActive, CurrentPeriodEnd: now.Add(time.Hour)},
		{BundleID: "expired", Status: domain.SubscriptionActive, CurrentPeriodEnd: now.Add(-time.Hour)},
		{BundleID: "canceled", Status: domain.SubscriptionCanceled, CurrentPeriodEnd: now.Add(time.Hour)},
	}

	tests := map[string]bool{"gold": true, "expired": false, "canceled": false, "unknown": false}
	for id, want := range tests {
		if got := Owns(subs, id, now); got != want {
			t.Errorf("Owns(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestAccessiblePolicies(t *testing.T) {
	policies := []domain.Policy{
		{ID: "open"},
		{ID: "gated-owned", BundleID: strPtr("gold")},
		{ID: "gated-other", BundleID: strPtr("silver")},
		{ID: "listed", BundleID: strPtr("platinum")},
	}
	bundles := []domain.Bundle{{ID: "gold", PolicyIDs: []string{"listed"}}}
	subs := []domain.Subscription{{BundleID: "gold", Status: domain.SubscriptionActive, CurrentPeriodEnd: now.Add(time.Hour)}}

	got := AccessiblePolicies(policies, bundles, subs, now)

	want := []string{"open", "gated-owned", "listed"}
	if len(got) != len(want) {
		t.Fatalf("got %d policies, want %d: %+v", len(got), len(want), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("policy %d = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestSuggester_PicksBestBundle(t *testing.T) {
	engine, err := policy.NewEngine(zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	root := &domain.MenuNode{Children: map[string]*domain.MenuNode{
		"coffee": {Item: &domain.MenuItem{Price: 500}},
	}}
	cart := domain.Cart{Items: []domain.CartItem{{ID: 1, Item: domain.Item{Path: []string{"coffee"}}, Quantity: 4}}}

	bundles := []domain.Bundle{
		{ID: "small", Price: 300, PolicyIDs: []string{"p-small"}},
		{ID: "big", Price: 1500, PolicyIDs: []string{"p-big"}},
		{ID: "owned", Price: 100, PolicyIDs: []string{"p-owned"}},
	}
	policies := []domain.Policy{
		{ID: "p-small", Active: true, BundleID: strPtr("small"), Definition: domain.PolicyDefinition{
			Action: domain.Action{Type: domain.ActionFixedOrderDiscount, Amount: 400},
		}},
		{ID: "p-big", Active: true, BundleID: strPtr("big"), Definition: domain.PolicyDefinition{
			Action: domain.Action{Type: domain.ActionOrderPercentDiscount, Amount: 50},
		}},
		{ID: "p-owned", Active: true, BundleID: strPtr("owned"), Definition: domain.PolicyDefinition{
			Action: domain.Action{Type: domain.ActionOrderPercentDiscount, Amount: 100},
		}},
	}
	subs := []domain.Subscription{{BundleID: "owned", Status: domain.SubscriptionActive, CurrentPeriodEnd: now.Add(time.Hour)}}

	got, ok, err := NewSuggester(engine).Suggest(cart, root, bundles, policies, subs, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a suggestion")
	}
	if got.Bundle.ID != "big" || got.Savings != 1000 || got.NetValue != -500 || got.PaysForItself {
		t.Errorf("unexpected suggestion: %+v", got)
	}
	if len(got.PolicyIDs) != 1 || got.PolicyIDs[0] != "p-big" {
		t.Errorf("PolicyIDs = %v", got.PolicyIDs)
	}
}

func TestSuggester_NothingQualifies(t *testing.T) {
	engine, err := policy.NewEngine(zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bundles := []domain.Bundle{{ID: "b", Price: 100, PolicyIDs: []string{"p"}}}
	policies := []domain.Policy{{ID: "p", Active: true, Definition: domain.PolicyDefinition{
		Conditions: []domain.Condition{{Type: domain.ConditionMinimumCartTotal, Amount: 1}},
		Action:     domain.Action{Type: domain.ActionFixedOrderDiscount, Amount: 100},
	}}}

	_, ok, err := NewSuggester(engine).Suggest(domain.Cart{}, &domain.MenuNode{}, bundles, policies, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("empty cart should not produce a suggestion")
	}
}
