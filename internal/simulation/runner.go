package simulation

import (
	"math"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

const (
	MinRuns           = 100
	MaxRuns           = 2000
	MinHorizonMonths  = 1
	MaxHorizonMonths  = 36
	inflowNoiseStd    = 0.10
	outflowNoiseStd   = 0.08
	outflowGrowthRate = 0.7 // share of the inflow growth mean applied to outflows
)

var inflowScenario = map[models.Scenario]float64{
	models.ScenarioOptimistic:  1.2,
	models.ScenarioBase:        1.0,
	models.ScenarioPessimistic: 0.8,
	models.ScenarioStressTest:  0.6,
}

var outflowScenario = map[models.Scenario]float64{
	models.ScenarioOptimistic:  0.9,
	models.ScenarioBase:        1.0,
	models.ScenarioPessimistic: 1.1,
	models.ScenarioStressTest:  1.3,
}

// InflowMultiplier returns the inflow scale for a scenario. Unknown scenarios scale by 1.
func InflowMultiplier(s models.Scenario) float64 {
	if m, ok := inflowScenario[s]; ok {
		return m
	}
	return 1.0
}

// OutflowMultiplier returns the outflow scale for a scenario. Unknown scenarios scale by 1.
func OutflowMultiplier(s models.Scenario) float64 {
	if m, ok := outflowScenario[s]; ok {
		return m
	}
	return 1.0
}

// Runner executes Monte Carlo cash-flow trajectories. It holds no state between
// calls except the random source, so a seeded source makes runs reproducible.
type Runner struct {
	src   stats.Source
	start time.Time
}

// NewRunner creates a runner drawing from src. Month dates are counted from start.
func NewRunner(src stats.Source, start time.Time) *Runner {
	return &Runner{src: src, start: start}
}

// Run executes numRuns independent trajectories sequentially
func (r *Runner) Run(params models.BaseParameters, scenario models.Scenario, horizon, numRuns int) []models.SimulationRun {
	runs := make([]models.SimulationRun, 0, numRuns)
	for i := 0; i < numRuns; i++ {
		run := r.RunOnce(params, scenario, horizon)
		run.RunIndex = i
		runs = append(runs, run)
	}
	return runs
}

// RunOnce simulates a single trajectory over horizon months
func (r *Runner) RunOnce(params models.BaseParameters, scenario models.Scenario, horizon int) models.SimulationRun {
	inScale := InflowMultiplier(scenario)
	outScale := OutflowMultiplier(scenario)

	balance := params.StartingBalance
	run := models.SimulationRun{
		Months:     make([]models.MonthRecord, 0, horizon),
		MinBalance: balance,
		MaxBalance: balance,
	}
	var burns []float64

	for m := 1; m <= horizon; m++ {
		slot := m % 12

		inflow := stats.Normal(r.src, params.InflowMean, params.InflowStd) *
			inScale *
			math.Pow(1+stats.Normal(r.src, params.GrowthRateMean, params.GrowthRateStd), float64(m)) *
			params.InflowSeasonality[slot] *
			stats.Normal(r.src, 1.0, inflowNoiseStd)
		inflow = math.Max(inflow, 0)

		outflow := stats.Normal(r.src, params.OutflowMean, params.OutflowStd) *
			outScale *
			math.Pow(1+stats.Normal(r.src, params.GrowthRateMean*outflowGrowthRate, params.GrowthRateStd), float64(m)) *
			params.OutflowSeasonality[slot] *
			stats.Normal(r.src, 1.0, outflowNoiseStd)
		outflow = math.Max(outflow, 0)

		net := inflow - outflow
		balance += net
		run.MinBalance = math.Min(run.MinBalance, balance)
		run.MaxBalance = math.Max(run.MaxBalance, balance)

		if balance < 0 && run.RunwayMonths == nil {
			runway := float64(m - 1)
			run.RunwayMonths = &runway
		}
		if net < 0 {
			burns = append(burns, -net)
		}

		run.Months = append(run.Months, models.MonthRecord{
			Month:             m,
			Date:              r.start.AddDate(0, m, 0),
			Inflow:            inflow,
			Outflow:           outflow,
			NetFlow:           net,
			CumulativeBalance: balance,
		})
	}

	run.FinalBalance = balance
	if run.RunwayMonths == nil && len(burns) > 0 {
		runway := balance / stats.Mean(burns)
		run.RunwayMonths = &runway
		run.RunwayExtrapolated = true
	}
	if run.MinBalance < 0 {
		run.ProbabilityNegative = 1
	}
	return run
}
