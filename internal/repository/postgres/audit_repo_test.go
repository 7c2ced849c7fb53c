package postgres

import (
	"strings"
	"testing"

	"github.com/xela07ax/loyalty-ordering/internal/audit"
)

func TestBuildLogQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    audit.Filter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:     "no filter uses default limit",
			filter:   audit.Filter{},
			wantArgs: []any{defaultLogLimit},
		},
		{
			name:      "restaurant only",
			filter:    audit.Filter{RestaurantID: "r1", Limit: 10},
			wantWhere: "WHERE restaurant_id = $1 ORDER BY",
			wantArgs:  []any{"r1", 10},
		},
		{
			name:      "restaurant and policy",
			filter:    audit.Filter{RestaurantID: "r1", PolicyID: "p1", Limit: 5},
			wantWhere: "WHERE restaurant_id = $1 AND policy_id = $2 ORDER BY",
			wantArgs:  []any{"r1", "p1", 5},
		},
		{
			name:      "policy only",
			filter:    audit.Filter{PolicyID: "p1"},
			wantWhere: "WHERE policy_id = $1 ORDER BY",
			wantArgs:  []any{"p1", defaultLogLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildLogQuery(tt.filter)

			if tt.wantWhere == "" && strings.Contains(query, "WHERE") {
				t.Errorf("unexpected WHERE clause in %q", query)
			}
			if tt.wantWhere != "" && !strings.Contains(query, tt.wantWhere) {
				t.Errorf("query %q does not contain %q", query, tt.wantWhere)
			}
			wantLimit := "LIMIT $" + string(rune('0'+len(tt.wantArgs)))
			if !strings.HasSuffix(query, wantLimit) {
				t.Errorf("query %q should end with %q", query, wantLimit)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
