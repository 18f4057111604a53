package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
	"github.com/smartmfg-dev/order-planner/backend/internal/planning"
)

func (r *Repository) CreatePlanningScenario(scenario *domain.PlanningScenario, snapshot *planning.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO planning_scenarios (name, description, planning_start_date, min_early_delivery_days, bucket_days, horizon_days, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{scenario.Name, scenario.Description, scenario.PlanningStartDate, scenario.MinEarlyDeliveryDays, scenario.BucketDays, scenario.HorizonDays, payload}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&scenario.ID, &scenario.CreatedAt, &scenario.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetPlanningScenarioByID(id int64) (*domain.PlanningScenario, *planning.Snapshot, error) {
	query := `
		SELECT name, description, planning_start_date, min_early_delivery_days, bucket_days, horizon_days, snapshot, created_at, version
		FROM planning_scenarios WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	scenario := &domain.PlanningScenario{
		ID: id,
	}

	var payload []byte
	dst := []any{&scenario.Name, &scenario.Description, &scenario.PlanningStartDate, &scenario.MinEarlyDeliveryDays, &scenario.BucketDays, &scenario.HorizonDays, &payload, &scenario.CreatedAt, &scenario.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, nil, err
	}

	snapshot := &planning.Snapshot{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		return nil, nil, err
	}

	return scenario, snapshot, nil
}

// GetAllPlanningScenarios 只返回元信息，快照明细按 ID 单独加载
func (r *Repository) GetAllPlanningScenarios() ([]*domain.PlanningScenario, error) {
	query := `
		SELECT id, name, description, planning_start_date, min_early_delivery_days, bucket_days, horizon_days, created_at, version
		FROM planning_scenarios
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scenarios := make([]*domain.PlanningScenario, 0)
	for rows.Next() {
		scenario := &domain.PlanningScenario{}
		dst := []any{&scenario.ID, &scenario.Name, &scenario.Description, &scenario.PlanningStartDate, &scenario.MinEarlyDeliveryDays, &scenario.BucketDays, &scenario.HorizonDays, &scenario.CreatedAt, &scenario.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scenarios, nil
}

func (r *Repository) UpdatePlanningScenario(scenario *domain.PlanningScenario, snapshot *planning.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query := `
		UPDATE planning_scenarios
		SET
			name = $1,
			description = $2,
			planning_start_date = $3,
			min_early_delivery_days = $4,
			bucket_days = $5,
			horizon_days = $6,
			snapshot = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
		RETURNING created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{scenario.Name, scenario.Description, scenario.PlanningStartDate, scenario.MinEarlyDeliveryDays, scenario.BucketDays, scenario.HorizonDays, payload, scenario.ID, scenario.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&scenario.CreatedAt, &scenario.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeletePlanningScenario(id int64) error {
	query := `
		DELETE FROM planning_scenarios WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
