package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Dan9191/cashflow-service/internal/models"
)

const forecastColumns = `id, segment_id, forecast_date, predicted, confidence, lower_bound,
		upper_bound, model, scenario, actual`

// SaveForecasts stores a forecast series in one transaction and assigns ids
func (r *Repository) SaveForecasts(ctx context.Context, forecasts []models.ForecastResult) error {
	const query = `
		INSERT INTO cashflow.forecasts (` + forecastColumns + `, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)`

	return r.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare forecast insert: %w", err)
		}
		defer stmt.Close()

		for i := range forecasts {
			f := &forecasts[i]
			if f.ID == uuid.Nil {
				f.ID = uuid.New()
			}
			_, err := stmt.ExecContext(ctx, f.ID, f.SegmentID, f.Date, f.Predicted, f.Confidence,
				f.LowerBound, f.UpperBound, string(f.Model), string(f.Scenario), f.Actual)
			if err != nil {
				return fmt.Errorf("failed to insert forecast: %w", err)
			}
		}
		return nil
	})
}

// ListForecastsWithActuals returns stored forecasts of the given models that have a realized actual
func (r *Repository) ListForecastsWithActuals(ctx context.Context, segmentID *int64, modelNames []string) ([]models.ForecastResult, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM cashflow.forecasts
		WHERE actual IS NOT NULL
		  AND segment_id IS NOT DISTINCT FROM $1::bigint
		  AND model = ANY($2)
		ORDER BY forecast_date`

	return r.queryForecasts(ctx, query, segmentID, pq.Array(modelNames))
}

// PendingActuals returns forecasts dated before cutoff that still lack an actual
func (r *Repository) PendingActuals(ctx context.Context, cutoff time.Time) ([]models.ForecastResult, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM cashflow.forecasts
		WHERE actual IS NULL AND forecast_date < $1
		ORDER BY forecast_date`

	return r.queryForecasts(ctx, query, cutoff)
}

// UpdateActual records the realized value of a forecast
func (r *Repository) UpdateActual(ctx context.Context, id uuid.UUID, actual float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cashflow.forecasts SET actual = $2 WHERE id = $1`, id, actual)
	if err != nil {
		return fmt.Errorf("failed to update forecast actual: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update forecast actual: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) queryForecasts(ctx context.Context, query string, args ...any) ([]models.ForecastResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []models.ForecastResult
	for rows.Next() {
		var f models.ForecastResult
		var model, scenario string
		var actual sql.NullFloat64
		if err := rows.Scan(&f.ID, &f.SegmentID, &f.Date, &f.Predicted, &f.Confidence,
			&f.LowerBound, &f.UpperBound, &model, &scenario, &actual); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		f.Model = models.ForecastModel(model)
		f.Scenario = models.Scenario(scenario)
		if actual.Valid {
			v := actual.Float64
			f.Actual = &v
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read forecasts: %w", err)
	}
	return forecasts, nil
}
