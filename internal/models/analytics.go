package models

import "time"

// CashFlowPoint represents monthly inflow and outflow statistics
type CashFlowPoint struct {
	Month   string  `json:"month"` // Format: YYYY-MM
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	NetFlow float64 `json:"net_flow"`
}

// CashFlowTrend represents the recent cash-flow history and its linear trend
type CashFlowTrend struct {
	Points     []CashFlowPoint `json:"points"`
	TrendSlope float64         `json:"trend_slope"` // change in net flow per month
}

// KPIs represents headline indicators for the dashboard
type KPIs struct {
	PeriodMonths           int      `json:"period_months"`
	TotalInflow            float64  `json:"total_inflow"`
	TotalOutflow           float64  `json:"total_outflow"`
	NetCashFlow            float64  `json:"net_cash_flow"`
	AverageMonthlyInflow   float64  `json:"average_monthly_inflow"`
	AverageMonthlyOutflow  float64  `json:"average_monthly_outflow"`
	CurrentBalance         float64  `json:"current_balance"`
	BurnRate               float64  `json:"burn_rate"`
	RunwayMonths           *float64 `json:"runway_months"` // nil when there is no burn
	ReceivablesOutstanding float64  `json:"receivables_outstanding"`
	AverageAgingDays       float64  `json:"average_aging_days"`
	OverdueShare           float64  `json:"overdue_share"` // share of receivables aged over 90 days
}

// Receivables summarises unpaid inflows
type Receivables struct {
	Outstanding    float64 `json:"outstanding"`
	Overdue        float64 `json:"overdue"`
	Count          int     `json:"count"`
	TotalAgingDays int     `json:"total_aging_days"`
}

// Severity grades a risk alert
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// RiskAlert represents a condition worth surfacing on the dashboard
type RiskAlert struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Value    float64  `json:"value"`
}

// Recommendation represents a suggested action
type Recommendation struct {
	Code     string `json:"code"`
	Priority int    `json:"priority"` // 1 is most urgent
	Title    string `json:"title"`
	Detail   string `json:"detail"`
}

// StoredSimulation is the persisted header of a simulation
type StoredSimulation struct {
	SimulationID string               `json:"simulation_id"`
	SegmentID    *int64               `json:"segment_id,omitempty"`
	Parameters   SimulationParameters `json:"parameters"`
	Summary      SimulationSummary    `json:"summary"`
	CreatedAt    time.Time            `json:"created_at"`
}
