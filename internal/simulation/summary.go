package simulation

import (
	"math"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

// FixedSensitivity is an illustrative placeholder. The coefficients are constants and
// are not derived from the runs they accompany.
func FixedSensitivity() models.Sensitivity {
	return models.Sensitivity{
		InflowImpact:      0.8,
		OutflowImpact:     -0.7,
		GrowthImpact:      0.9,
		SeasonalityImpact: 0.3,
		Method:            "fixed",
		Illustrative:      true,
	}
}

// Summarize aggregates final balances, negative-balance probability and runway across runs
func Summarize(runs []models.SimulationRun) models.SimulationSummary {
	summary := models.SimulationSummary{
		Runs:        len(runs),
		Sensitivity: FixedSensitivity(),
	}
	if len(runs) == 0 {
		return summary
	}

	finals := make([]float64, 0, len(runs))
	negatives := 0.0
	var runways []float64
	for _, run := range runs {
		finals = append(finals, run.FinalBalance)
		negatives += run.ProbabilityNegative
		if run.RunwayMonths != nil {
			runways = append(runways, *run.RunwayMonths)
		}
	}

	sorted := stats.Sorted(finals)
	summary.MeanFinalBalance = stats.Mean(finals)
	summary.MedianFinalBalance = stats.Percentile(sorted, 0.5)
	summary.P5FinalBalance = stats.Percentile(sorted, 0.05)
	summary.P95FinalBalance = stats.Percentile(sorted, 0.95)
	summary.ProbabilityNegative = negatives / float64(len(runs))

	if len(runways) > 0 {
		avg := stats.Mean(runways)
		best, worst := math.Inf(-1), math.Inf(1)
		for _, r := range runways {
			best = math.Max(best, r)
			worst = math.Min(worst, r)
		}
		summary.AverageRunway = &avg
		summary.BestRunway = &best
		summary.WorstRunway = &worst
	}
	return summary
}
