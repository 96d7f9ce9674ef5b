package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// DefaultBatchSize is the number of runs written per transaction
const DefaultBatchSize = 50

// ErrDuplicateSimulation is returned when a simulation id is already stored
var ErrDuplicateSimulation = errors.New("simulation already exists")

// SaveSimulation stores the simulation header and then its runs in batches. Each batch
// commits atomically; batches are written in order and the first failure stops the rest.
func (r *Repository) SaveSimulation(ctx context.Context, result *models.SimulationResult, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	params, err := json.Marshal(result.Parameters)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	const header = `
		INSERT INTO cashflow.simulations (id, segment_id, parameters, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, header,
		result.SimulationID, result.Parameters.SegmentID, params, summary, result.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateSimulation
		}
		return fmt.Errorf("failed to create simulation: %w", err)
	}

	for start := 0; start < len(result.Runs); start += batchSize {
		end := start + batchSize
		if end > len(result.Runs) {
			end = len(result.Runs)
		}
		if err := r.saveRunBatch(ctx, result.SimulationID, result.Runs[start:end]); err != nil {
			r.logger.WithFields(logrus.Fields{
				"simulation_id": result.SimulationID,
				"batch_start":   start,
			}).WithError(err).Error("Failed to persist simulation batch")
			return err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"simulation_id": result.SimulationID,
		"runs":          len(result.Runs),
	}).Info("Simulation persisted")
	return nil
}

func (r *Repository) saveRunBatch(ctx context.Context, simulationID uuid.UUID, runs []models.SimulationRun) error {
	const query = `
		INSERT INTO cashflow.simulation_runs (simulation_id, run_index, final_balance, min_balance,
			max_balance, probability_negative, runway_months, runway_extrapolated, months)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare run insert: %w", err)
		}
		defer stmt.Close()

		for _, run := range runs {
			months, err := json.Marshal(run.Months)
			if err != nil {
				return fmt.Errorf("failed to encode run %d: %w", run.RunIndex, err)
			}
			_, err = stmt.ExecContext(ctx, simulationID, run.RunIndex, run.FinalBalance, run.MinBalance,
				run.MaxBalance, run.ProbabilityNegative, run.RunwayMonths, run.RunwayExtrapolated, months)
			if err != nil {
				return fmt.Errorf("failed to insert run %d: %w", run.RunIndex, err)
			}
		}
		return nil
	})
}

// GetSimulation loads a stored simulation header and its runs ordered by run index
func (r *Repository) GetSimulation(ctx context.Context, id uuid.UUID) (*models.StoredSimulation, []models.SimulationRun, error) {
	const header = `
		SELECT id, segment_id, parameters, summary, created_at
		FROM cashflow.simulations
		WHERE id = $1`

	sim := &models.StoredSimulation{}
	var params, summary []byte
	err := r.db.QueryRowContext(ctx, header, id).
		Scan(&sim.SimulationID, &sim.SegmentID, &params, &summary, &sim.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find simulation: %w", err)
	}
	if err := json.Unmarshal(params, &sim.Parameters); err != nil {
		return nil, nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := json.Unmarshal(summary, &sim.Summary); err != nil {
		return nil, nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	const runsQuery = `
		SELECT run_index, final_balance, min_balance, max_balance, probability_negative,
		       runway_months, runway_extrapolated, months
		FROM cashflow.simulation_runs
		WHERE simulation_id = $1
		ORDER BY run_index`

	rows, err := r.db.QueryContext(ctx, runsQuery, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query simulation runs: %w", err)
	}
	defer rows.Close()

	runs := []models.SimulationRun{}
	for rows.Next() {
		var run models.SimulationRun
		var runway sql.NullFloat64
		var months []byte
		if err := rows.Scan(&run.RunIndex, &run.FinalBalance, &run.MinBalance, &run.MaxBalance,
			&run.ProbabilityNegative, &runway, &run.RunwayExtrapolated, &months); err != nil {
			return nil, nil, fmt.Errorf("failed to scan simulation run: %w", err)
		}
		if runway.Valid {
			v := runway.Float64
			run.RunwayMonths = &v
		}
		if err := json.Unmarshal(months, &run.Months); err != nil {
			return nil, nil, fmt.Errorf("failed to decode run %d: %w", run.RunIndex, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read simulation runs: %w", err)
	}
	return sim, runs, nil
}

// LatestSimulationSummary returns the summary of the most recent simulation for a segment
func (r *Repository) LatestSimulationSummary(ctx context.Context, segmentID *int64) (*models.SimulationSummary, error) {
	const query = `
		SELECT summary
		FROM cashflow.simulations
		WHERE segment_id IS NOT DISTINCT FROM $1::bigint
		ORDER BY created_at DESC
		LIMIT 1`

	var raw []byte
	err := r.db.QueryRowContext(ctx, query, segmentID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest simulation: %w", err)
	}

	var summary models.SimulationSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &summary, nil
}
