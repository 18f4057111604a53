package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/smartmfg-dev/order-planner/backend/internal/domain"
)

func (r *Repository) InsertOptimizationRun(run *domain.OptimizationRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 同一个任务 ID 只保留最新一份结果
	query := `DELETE FROM optimization_runs WHERE job_id = $1`
	if _, err := tx.ExecContext(ctx, query, run.JobID); err != nil {
		return err
	}

	history, err := json.Marshal(run.FitnessHistory)
	if err != nil {
		return err
	}

	query = `
		INSERT INTO optimization_runs (scenario_id, job_id, status, final_fitness, fitness_history)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	args := []any{run.ScenarioID, run.JobID, run.Status, run.FinalFitness, history}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt, &run.Version); err != nil {
		return err
	}

	for _, assignment := range run.Assignments {
		operations, err := json.Marshal(assignment.Operations)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO optimization_run_assignments (optimization_run_id, order_number, bucket_date, operations)
			VALUES ($1, $2, $3, $4)
		`

		if _, err := tx.ExecContext(ctx, query, run.ID, assignment.OrderNumber, assignment.BucketDate, operations); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetOptimizationRunByJobID(jobID string) (*domain.OptimizationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			o.id,
			o.scenario_id,
			o.status,
			o.final_fitness,
			o.fitness_history,
			a.order_number,
			a.bucket_date,
			a.operations,
			o.created_at,
			o.version
		FROM optimization_runs o
		LEFT JOIN optimization_run_assignments a ON o.id = a.optimization_run_id
		WHERE o.job_id = $1
		ORDER BY a.order_number
	`

	rows, err := r.dbpool.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run := &domain.OptimizationRun{
		JobID:       jobID,
		Assignments: make([]domain.OrderAssignment, 0),
	}

	for rows.Next() {
		var row struct {
			id           int64
			scenarioID   int64
			status       string
			finalFitness float64
			history      []byte
			orderNumber  sql.NullString
			bucketDate   sql.NullString
			operations   []byte
			createdAt    time.Time
			version      int32
		}

		dst := []any{
			&row.id,
			&row.scenarioID,
			&row.status,
			&row.finalFitness,
			&row.history,
			&row.orderNumber,
			&row.bucketDate,
			&row.operations,
			&row.createdAt,
			&row.version,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		run.ID = row.id
		run.ScenarioID = row.scenarioID
		run.Status = row.status
		run.FinalFitness = row.finalFitness
		run.CreatedAt = row.createdAt
		run.Version = row.version

		if run.FitnessHistory == nil {
			if err := json.Unmarshal(row.history, &run.FitnessHistory); err != nil {
				return nil, err
			}
		}

		if !row.orderNumber.Valid {
			// 任务被取消或出错时可能没有任何排产结果
			continue
		}

		assignment := domain.OrderAssignment{
			OrderNumber: row.orderNumber.String,
			BucketDate:  row.bucketDate.String,
		}
		if err := json.Unmarshal(row.operations, &assignment.Operations); err != nil {
			return nil, err
		}
		run.Assignments = append(run.Assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if run.ID == 0 {
		return nil, sql.ErrNoRows
	}

	return run, nil
}

func (r *Repository) GetOptimizationRunsByScenarioID(scenarioID int64) ([]*domain.OptimizationRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// 列表接口不带排产明细，明细按 job_id 单独加载
	query := `
		SELECT id, scenario_id, job_id, status, final_fitness, fitness_history, created_at, version
		FROM optimization_runs
		WHERE scenario_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.OptimizationRun, 0)
	for rows.Next() {
		run := &domain.OptimizationRun{}
		var history []byte
		dst := []any{&run.ID, &run.ScenarioID, &run.JobID, &run.Status, &run.FinalFitness, &history, &run.CreatedAt, &run.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(history, &run.FitnessHistory); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
