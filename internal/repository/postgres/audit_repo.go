package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xela07ax/loyalty-ordering/internal/audit"
)

const defaultLogLimit = 100

var auditColumns = []string{
	"id", "trace_id", "restaurant_id", "cart_id", "user_id", "policy_id", "pass_id",
	"action", "effect", "status", "duration_ms", "error", "timestamp",
}

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// WriteBatch пишет пачку событий журнала через COPY.
func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.DealEvent) error {
	if len(events) == 0 {
		return nil
	}

	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"deal_audit_logs"}, auditColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			var effect []byte
			if e.Effect != nil {
				b, err := json.Marshal(e.Effect)
				if err != nil {
					return nil, fmt.Errorf("postgres: event %s: %w", e.ID, err)
				}
				effect = b
			}
			return []any{
				e.ID, e.TraceID, e.RestaurantID, e.CartID, e.UserID, e.PolicyID, e.PassID,
				e.Action, effect, e.Status, e.DurationMs, e.Error, e.Timestamp,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("postgres: failed to write audit batch: %w", err)
	}
	return nil
}

// FetchLogs возвращает последние события, пустые поля фильтра не ограничивают выборку.
func (r *AuditRepo) FetchLogs(ctx context.Context, f audit.Filter) ([]audit.DealEvent, error) {
	query, args := buildLogQuery(f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]audit.DealEvent, 0)
	for rows.Next() {
		var (
			e      audit.DealEvent
			effect []byte
		)
		if err := rows.Scan(&e.ID, &e.TraceID, &e.RestaurantID, &e.CartID, &e.UserID, &e.PolicyID, &e.PassID,
			&e.Action, &effect, &e.Status, &e.DurationMs, &e.Error, &e.Timestamp); err != nil {
			return nil, err
		}
		if len(effect) > 0 {
			e.Effect = json.RawMessage(effect)
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

func buildLogQuery(f audit.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.RestaurantID != "" {
		args = append(args, f.RestaurantID)
		where = append(where, fmt.Sprintf("restaurant_id = $%d", len(args)))
	}
	if f.PolicyID != "" {
		args = append(args, f.PolicyID)
		where = append(where, fmt.Sprintf("policy_id = $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLogLimit
	}
	args = append(args, limit)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(auditColumns, ", "))
	b.WriteString(" FROM deal_audit_logs")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY timestamp DESC LIMIT $%d", len(args))
	return b.String(), args
}

// GetDealStats считает статусы журнала и P95 длительности за окно с момента since.
func (r *AuditRepo) GetDealStats(ctx context.Context, restaurantID string, since time.Time) (*audit.Stats, error) {
	s := &audit.Stats{RestaurantID: restaurantID, Since: since}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'APPLIED'),
			COUNT(*) FILTER (WHERE status = 'VERIFIED'),
			COUNT(*) FILTER (WHERE status = 'VERIFY_FAILED'),
			COUNT(*) FILTER (WHERE status = 'REDEEMED'),
			COALESCE(PERCENTILE_CONT(0.95) WITHIN GROUP (ORDER BY duration_ms), 0)
		FROM deal_audit_logs
		WHERE timestamp > $1 AND ($2 = '' OR restaurant_id = $2)`, since, restaurantID).
		Scan(&s.Applied, &s.Verified, &s.VerifyFailed, &s.Redeemed, &s.P95Latency)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to aggregate audit stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT policy_id, COUNT(*) AS applied
		FROM deal_audit_logs
		WHERE status = 'APPLIED' AND timestamp > $1 AND ($2 = '' OR restaurant_id = $2)
		GROUP BY policy_id
		ORDER BY applied DESC
		LIMIT 5`, since, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch top policies: %w", err)
	}
	top, err := pgx.CollectRows(rows, pgx.RowToStructByPos[audit.PolicyUsage])
	if err != nil {
		return nil, err
	}
	s.TopPolicies = top
	return s, nil
}
