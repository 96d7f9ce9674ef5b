package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// MonthlyFlows returns inflow and outflow totals per calendar month in [from, to),
// ordered by month. Months without transactions are not returned.
func (r *Repository) MonthlyFlows(ctx context.Context, segmentID *int64, from, to time.Time) ([]models.MonthlyFlow, error) {
	r.logger.WithFields(logrus.Fields{
		"segment_id": segmentID,
		"from":       from.Format("2006-01-02"),
		"to":         to.Format("2006-01-02"),
	}).Debug("Querying monthly flows")

	const query = `
		SELECT date_trunc('month', tx_date)::date AS month,
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'inflow'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'outflow'), 0)
		FROM cashflow.transactions
		WHERE tx_date >= $1 AND tx_date < $2
		  AND ($3::bigint IS NULL OR segment_id = $3)
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, from, to, segmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly flows: %w", err)
	}
	defer rows.Close()

	var flows []models.MonthlyFlow
	for rows.Next() {
		var f models.MonthlyFlow
		if err := rows.Scan(&f.Month, &f.Inflow, &f.Outflow); err != nil {
			return nil, fmt.Errorf("failed to scan monthly flow: %w", err)
		}
		// read the calendar month in the zone the row was returned in
		f.Month = time.Date(f.Month.Year(), f.Month.Month(), 1, 0, 0, 0, 0, time.UTC)
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly flows: %w", err)
	}

	r.logger.WithField("months", len(flows)).Debug("Monthly flows loaded")
	return flows, nil
}

// NetPaidFlow returns the sum of paid inflows minus paid outflows up to now
func (r *Repository) NetPaidFlow(ctx context.Context, segmentID *int64) (decimal.Decimal, error) {
	const query = `
		SELECT COALESCE(SUM(CASE WHEN direction = 'inflow' THEN amount ELSE -amount END), 0)
		FROM cashflow.transactions
		WHERE paid AND ($1::bigint IS NULL OR segment_id = $1)`

	var net decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, segmentID).Scan(&net); err != nil {
		return decimal.Zero, fmt.Errorf("failed to query net paid flow: %w", err)
	}
	return net, nil
}

// Receivables summarises unpaid inflows and their aging
func (r *Repository) Receivables(ctx context.Context, segmentID *int64, overdueDays int) (models.Receivables, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0),
		       COALESCE(SUM(amount) FILTER (WHERE aging_days > $2), 0),
		       COUNT(*),
		       COALESCE(SUM(aging_days), 0)
		FROM cashflow.transactions
		WHERE direction = 'inflow' AND NOT paid
		  AND ($1::bigint IS NULL OR segment_id = $1)`

	var outstanding, overdue decimal.Decimal
	var rec models.Receivables
	err := r.db.QueryRowContext(ctx, query, segmentID, overdueDays).
		Scan(&outstanding, &overdue, &rec.Count, &rec.TotalAgingDays)
	if err != nil {
		return models.Receivables{}, fmt.Errorf("failed to query receivables: %w", err)
	}
	rec.Outstanding = outstanding.InexactFloat64()
	rec.Overdue = overdue.InexactFloat64()
	return rec, nil
}

// ListSegments returns all segments ordered by name
func (r *Repository) ListSegments(ctx context.Context) ([]models.Segment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM cashflow.segments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	segments := []models.Segment{}
	for rows.Next() {
		var s models.Segment
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read segments: %w", err)
	}
	return segments, nil
}
