package postgres

/*
Файл policy_repo.go хранит политики ресторанов. Определение политики (условия и действие)
лежит в колонке definition типа JSONB, проверка идет в памяти сервиса заказов.
*/

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

const policyColumns = `id, restaurant_id, name, bundle_id, active, paused, definition, created_at, updated_at`

func scanPolicy(row pgx.Row) (domain.Policy, error) {
	var (
		p   domain.Policy
		def []byte
	)
	if err := row.Scan(&p.ID, &p.RestaurantID, &p.Name, &p.BundleID, &p.Active, &p.Paused, &def, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Policy{}, err
	}
	if err := json.Unmarshal(def, &p.Definition); err != nil {
		return domain.Policy{}, fmt.Errorf("postgres: policy %s has malformed definition: %w", p.ID, err)
	}
	return p, nil
}

func (r *LoyaltyRepo) GetPolicyByID(ctx context.Context, id string) (domain.Policy, error) {
	p, err := scanPolicy(r.pool.QueryRow(ctx, `SELECT `+policyColumns+` FROM policies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Policy{}, domain.ErrPolicyNotFound
		}
		return domain.Policy{}, err
	}
	return p, nil
}

// GetAllPolicies выполняет "холодную загрузку" всех политик для кэша сервиса заказов.
func (r *LoyaltyRepo) GetAllPolicies(ctx context.Context) ([]domain.Policy, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+policyColumns+` FROM policies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// ListPolicies - политики одного ресторана (пустой restaurantID - все).
func (r *LoyaltyRepo) ListPolicies(ctx context.Context, restaurantID string) ([]domain.Policy, error) {
	if restaurantID == "" {
		return r.GetAllPolicies(ctx)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE restaurant_id = $1 ORDER BY created_at`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// CreatePolicy сохраняет политику, ID и временные метки выдает база.
func (r *LoyaltyRepo) CreatePolicy(ctx context.Context, p *domain.Policy) error {
	def, err := json.Marshal(p.Definition)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode policy definition: %w", err)
	}

	query := `
		INSERT INTO policies (id, restaurant_id, name, bundle_id, active, paused, definition)
		VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query, p.RestaurantID, p.Name, p.BundleID, p.Active, p.Paused, def).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create policy: %w", err)
	}
	return nil
}

// UpdatePolicy меняет имя, привязку к бандлу, активность и определение. Флаг паузы меняется отдельно.
func (r *LoyaltyRepo) UpdatePolicy(ctx context.Context, p *domain.Policy) error {
	def, err := json.Marshal(p.Definition)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode policy definition: %w", err)
	}

	query := `
		UPDATE policies
		SET name = $1, bundle_id = $2, active = $3, definition = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING restaurant_id, paused, created_at, updated_at`

	err = r.pool.QueryRow(ctx, query, p.Name, p.BundleID, p.Active, def, p.ID).
		Scan(&p.RestaurantID, &p.Paused, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPolicyNotFound
		}
		return fmt.Errorf("postgres: failed to update policy: %w", err)
	}
	return nil
}

func (r *LoyaltyRepo) DeletePolicy(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete policy: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrPolicyNotFound
	}
	return nil
}

// SetPolicyPaused - долговременная часть kill switch, оперативная живет в Redis.
func (r *LoyaltyRepo) SetPolicyPaused(ctx context.Context, id string, paused bool) error {
	ct, err := r.pool.Exec(ctx, `UPDATE policies SET paused = $1, updated_at = NOW() WHERE id = $2`, paused, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to set pause flag: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrPolicyNotFound
	}
	return nil
}

// GetPausedPolicies - источник правды для прогрева PauseManager.
func (r *LoyaltyRepo) GetPausedPolicies(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM policies WHERE paused = true`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
