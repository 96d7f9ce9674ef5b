package simulation

import (
	"errors"
	"math"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

const (
	// LookbackMonths is the history window used for estimation
	LookbackMonths = 24

	DefaultGrowthRateMean  = 0.05
	DefaultGrowthRateStd   = 0.02
	DefaultStartingBalance = 500_000.0
)

// ErrInsufficientHistory is returned when neither history nor overrides provide flow means
var ErrInsufficientHistory = errors.New("insufficient historical data")

// Seasonal multipliers by month slot. Fixed on purpose; they are not fitted from data.
var (
	InflowSeasonality  = [12]float64{1.00, 0.90, 0.95, 1.00, 1.05, 1.10, 1.00, 0.95, 1.05, 1.10, 1.05, 1.20}
	OutflowSeasonality = [12]float64{1.10, 0.95, 0.95, 1.00, 1.00, 1.05, 1.05, 0.95, 1.00, 1.00, 1.05, 1.15}
)

// EstimateParameters derives sampling parameters from monthly flows. Any non-nil
// override replaces the statistic computed from history.
func EstimateParameters(flows []models.MonthlyFlow, overrides *models.CustomVariables, startingBalance float64) (models.BaseParameters, error) {
	inflows := make([]float64, 0, len(flows))
	outflows := make([]float64, 0, len(flows))
	for _, f := range flows {
		inflows = append(inflows, f.Inflow.InexactFloat64())
		outflows = append(outflows, f.Outflow.InexactFloat64())
	}

	if overrides == nil {
		overrides = &models.CustomVariables{}
	}
	if len(flows) == 0 && (overrides.InflowMean == nil || overrides.OutflowMean == nil) {
		return models.BaseParameters{}, ErrInsufficientHistory
	}

	params := models.BaseParameters{
		InflowMean:         pick(overrides.InflowMean, stats.Mean(inflows)),
		InflowStd:          pick(overrides.InflowStd, stdOrZero(inflows)),
		OutflowMean:        pick(overrides.OutflowMean, stats.Mean(outflows)),
		OutflowStd:         pick(overrides.OutflowStd, stdOrZero(outflows)),
		GrowthRateMean:     pick(overrides.GrowthRateMean, DefaultGrowthRateMean),
		GrowthRateStd:      pick(overrides.GrowthRateStd, DefaultGrowthRateStd),
		InflowSeasonality:  InflowSeasonality,
		OutflowSeasonality: OutflowSeasonality,
		StartingBalance:    startingBalance,
	}
	return params, nil
}

func pick(override *float64, computed float64) float64 {
	if override != nil {
		return *override
	}
	return computed
}

func stdOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := stats.StdDev(values)
	if math.IsNaN(s) {
		return 0
	}
	return s
}
