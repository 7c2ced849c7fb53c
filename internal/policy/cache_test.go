package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"go.uber.org/zap"
)

type fakePolicyRepo struct {
	policies []domain.Policy
	err      error
}

func (f *fakePolicyRepo) GetAllPolicies(ctx context.Context) ([]domain.Policy, error) {
	return f.policies, f.err
}

func TestCache_RefreshGroupsByRestaurant(t *testing.T) {
	now := time.Now()
	repo := &fakePolicyRepo{policies: []domain.Policy{
		{ID: "late", RestaurantID: "r1", Active: true, CreatedAt: now},
		{ID: "early", RestaurantID: "r1", Active: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "inactive", RestaurantID: "r1", Active: false, CreatedAt: now},
		{ID: "other", RestaurantID: "r2", Active: true, CreatedAt: now},
	}}
	c := NewCache(repo, zap.NewNop())

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	got := c.ForRestaurant("r1")
	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("unexpected policies for r1: %+v", got)
	}
	if _, ok := c.Get("inactive"); !ok {
		t.Error("inactive policy should still be addressable by id")
	}
	if len(c.ForRestaurant("missing")) != 0 {
		t.Error("unknown restaurant should have no policies")
	}
}

func TestCache_RefreshErrorKeepsPreviousState(t *testing.T) {
	repo := &fakePolicyRepo{policies: []domain.Policy{{ID: "p1", RestaurantID: "r1", Active: true}}}
	c := NewCache(repo, zap.NewNop())
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	repo.err = errors.New("db down")
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(c.ForRestaurant("r1")) != 1 {
		t.Error("failed refresh must keep previous cache")
	}
}
