package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestItem_Matches(t *testing.T) {
	latteLarge := Item{
		Path:      []string{"drinks", "coffee", "latte"},
		Modifiers: map[string][]string{"size": {"large"}, "extras": {"shot", "syrup"}},
	}

	tests := []struct {
		name    string
		pattern Item
		want    bool
	}{
		{"path prefix", Item{Path: []string{"drinks"}}, true},
		{"full path", Item{Path: []string{"drinks", "coffee", "latte"}}, true},
		{"empty pattern", Item{}, true},
		{"other branch", Item{Path: []string{"food"}}, false},
		{"longer than item", Item{Path: []string{"drinks", "coffee", "latte", "iced"}}, false},
		{"same modifier", Item{Path: []string{"drinks"}, Modifiers: map[string][]string{"size": {"large"}}}, true},
		{"options order ignored", Item{Modifiers: map[string][]string{"extras": {"syrup", "shot"}}}, true},
		{"different option", Item{Modifiers: map[string][]string{"size": {"small"}}}, false},
		{"subset of options", Item{Modifiers: map[string][]string{"extras": {"shot"}}}, false},
		{"missing group", Item{Modifiers: map[string][]string{"milk": {"oat"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := latteLarge.Matches(tt.pattern); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItem_MatchesAnyEmptySet(t *testing.T) {
	if !(Item{Path: []string{"x"}}).MatchesAny(nil) {
		t.Error("empty pattern set should match any item")
	}
}

func TestItem_KeyCanonical(t *testing.T) {
	a := Item{Path: []string{"a", "b"}, Modifiers: map[string][]string{"x": {"2", "1"}, "y": {"z"}}}
	b := Item{Path: []string{"a", "b"}, Modifiers: map[string][]string{"y": {"z"}, "x": {"1", "2"}}}
	if !a.Equal(b) {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	if a.Equal(Item{Path: []string{"a", "b"}}) {
		t.Error("items with different modifiers must not be equal")
	}
}

func TestItem_KeyUnambiguous(t *testing.T) {
	cases := []struct {
		name string
		a, b Item
	}{
		{"slash in segment", Item{Path: []string{"a/b"}}, Item{Path: []string{"a", "b"}}},
		{"separator in option", Item{Path: []string{"x"}, Modifiers: map[string][]string{"g": {"1,2"}}},
			Item{Path: []string{"x"}, Modifiers: map[string][]string{"g": {"1", "2"}}}},
		{"separator in group", Item{Path: []string{"x"}, Modifiers: map[string][]string{"g=1|h": {"2"}}},
			Item{Path: []string{"x"}, Modifiers: map[string][]string{"g": {"1"}, "h": {"2"}}}},
		{"empty group vs none", Item{Path: []string{"x"}, Modifiers: map[string][]string{"g": {}}},
			Item{Path: []string{"x"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.a.Key() == tc.b.Key() {
				t.Errorf("keys collide: %q", tc.a.Key())
			}
			if tc.a.Equal(tc.b) {
				t.Error("distinct items must not be equal")
			}
		})
	}
}

func TestPass_Redeemable(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	pass := Pass{ID: "p1", Item: Item{Path: []string{"drinks"}}, Remaining: 2, ExpiresAt: now.Add(time.Hour)}
	latte := Item{Path: []string{"drinks", "latte"}}

	if err := pass.Redeemable(latte, now); err != nil {
		t.Fatalf("expected redeemable, got %v", err)
	}
	if err := pass.Redeemable(Item{Path: []string{"food"}}, now); !errors.Is(err, ErrPassNotForItem) {
		t.Errorf("expected ErrPassNotForItem, got %v", err)
	}
	if err := pass.Redeemable(latte, now.Add(2*time.Hour)); !errors.Is(err, ErrPassExpired) {
		t.Errorf("expected ErrPassExpired, got %v", err)
	}
	pass.Remaining = 0
	if err := pass.Redeemable(latte, now); !errors.Is(err, ErrPassExhausted) {
		t.Errorf("expected ErrPassExhausted, got %v", err)
	}
}

func TestActionType_LegacyAlias(t *testing.T) {
	var a Action
	if err := json.Unmarshal([]byte(`{"type":"apply_discount","amount":10}`), &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Type != ActionPercentDiscount {
		t.Errorf("Type = %q, want %q", a.Type, ActionPercentDiscount)
	}
}

func TestPolicyDefinition_Validate(t *testing.T) {
	valid := PolicyDefinition{
		Tag:        "happy-hour",
		Conditions: []Condition{{Type: ConditionMinimumCartTotal, Amount: 1000}},
		Action:     Action{Type: ActionOrderPercentDiscount, Amount: 10},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noTarget := PolicyDefinition{Action: Action{Type: ActionAddFreeItem, Amount: 1}}
	if err := noTarget.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}

	unknown := PolicyDefinition{Conditions: []Condition{{Type: "weekday"}}, Action: valid.Action}
	if err := unknown.Validate(); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestCondition_LegacyItemIDs(t *testing.T) {
	var c Condition
	data := `{"type":"minimum_quantity","quantity":2,"itemIds":[{"path":["drinks"]}]}`
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Quantity != 2 || len(c.Items) != 1 || c.Items[0].Path[0] != "drinks" {
		t.Errorf("unexpected condition: %+v", c)
	}
}
