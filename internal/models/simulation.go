package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scenario is a named stress profile scaling inflow and outflow sampling
type Scenario string

const (
	ScenarioBase        Scenario = "BASE"
	ScenarioOptimistic  Scenario = "OPTIMISTIC"
	ScenarioPessimistic Scenario = "PESSIMISTIC"
	ScenarioStressTest  Scenario = "STRESS_TEST"
)

// ParseScenario validates a scenario name. An empty name means BASE.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(s) {
	case "":
		return ScenarioBase, nil
	case ScenarioBase, ScenarioOptimistic, ScenarioPessimistic, ScenarioStressTest:
		return Scenario(s), nil
	}
	return "", fmt.Errorf("unknown scenario %q", s)
}

// CustomVariables override estimated statistics. Nil fields are estimated from history.
type CustomVariables struct {
	InflowMean     *float64 `json:"inflow_mean,omitempty"`
	InflowStd      *float64 `json:"inflow_std,omitempty"`
	OutflowMean    *float64 `json:"outflow_mean,omitempty"`
	OutflowStd     *float64 `json:"outflow_std,omitempty"`
	GrowthRateMean *float64 `json:"growth_rate_mean,omitempty"`
	GrowthRateStd  *float64 `json:"growth_rate_std,omitempty"`
}

// SimulationParameters describes one simulation request
type SimulationParameters struct {
	NumRuns           int              `json:"num_runs"`
	TimeHorizonMonths int              `json:"time_horizon_months"`
	Scenario          Scenario         `json:"scenario"`
	SegmentID         *int64           `json:"segment_id,omitempty"`
	CustomVariables   *CustomVariables `json:"custom_variables,omitempty"`
}

// BaseParameters are the sampling inputs derived from history and overrides
type BaseParameters struct {
	InflowMean         float64     `json:"inflow_mean"`
	InflowStd          float64     `json:"inflow_std"`
	OutflowMean        float64     `json:"outflow_mean"`
	OutflowStd         float64     `json:"outflow_std"`
	GrowthRateMean     float64     `json:"growth_rate_mean"`
	GrowthRateStd      float64     `json:"growth_rate_std"`
	InflowSeasonality  [12]float64 `json:"inflow_seasonality"`
	OutflowSeasonality [12]float64 `json:"outflow_seasonality"`
	StartingBalance    float64     `json:"starting_balance"`
}

// MonthRecord is one month of a simulated trajectory
type MonthRecord struct {
	Month             int       `json:"month"`
	Date              time.Time `json:"date"`
	Inflow            float64   `json:"inflow"`
	Outflow           float64   `json:"outflow"`
	NetFlow           float64   `json:"net_flow"`
	CumulativeBalance float64   `json:"cumulative_balance"`
}

// SimulationRun is a single stochastic trajectory
type SimulationRun struct {
	RunIndex            int           `json:"run_index"`
	Months              []MonthRecord `json:"months"`
	FinalBalance        float64       `json:"final_balance"`
	MinBalance          float64       `json:"min_balance"`
	MaxBalance          float64       `json:"max_balance"`
	ProbabilityNegative float64       `json:"probability_negative"` // 0 or 1
	RunwayMonths        *float64      `json:"runway_months"`
	RunwayExtrapolated  bool          `json:"runway_extrapolated"`
}

// Sensitivity reports the impact coefficients of each input
type Sensitivity struct {
	InflowImpact      float64 `json:"inflow_impact"`
	OutflowImpact     float64 `json:"outflow_impact"`
	GrowthImpact      float64 `json:"growth_impact"`
	SeasonalityImpact float64 `json:"seasonality_impact"`
	Method            string  `json:"method"`
	Illustrative      bool    `json:"illustrative"`
}

// SimulationSummary aggregates all runs of one simulation
type SimulationSummary struct {
	Runs                int         `json:"runs"`
	MeanFinalBalance    float64     `json:"mean_final_balance"`
	MedianFinalBalance  float64     `json:"median_final_balance"`
	P5FinalBalance      float64     `json:"p5_final_balance"`
	P95FinalBalance     float64     `json:"p95_final_balance"`
	ProbabilityNegative float64     `json:"probability_negative"`
	AverageRunway       *float64    `json:"average_runway"`
	BestRunway          *float64    `json:"best_runway"`
	WorstRunway         *float64    `json:"worst_runway"`
	Sensitivity         Sensitivity `json:"sensitivity"`
}

// SimulationResult is the full response of a simulation request
type SimulationResult struct {
	SimulationID uuid.UUID            `json:"simulation_id"`
	Parameters   SimulationParameters `json:"parameters"`
	Base         BaseParameters       `json:"base_parameters"`
	Runs         []SimulationRun      `json:"runs"`
	Summary      SimulationSummary    `json:"summary"`
	CreatedAt    time.Time            `json:"created_at"`
}
