package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

const (
	DefaultTrendMonths = 12
	MaxTrendMonths     = 36

	// receivables older than this many days count as overdue
	OverdueDays = 90

	runwayCriticalMonths  = 3.0
	runwayLowMonths       = 6.0
	overdueShareThreshold = 0.20
	negativeRiskHigh      = 0.20
	negativeRiskCritical  = 0.50
	surplusCoverageMonths = 6.0
)

var severityRank = map[models.Severity]int{
	models.SeverityCritical: 0,
	models.SeverityHigh:     1,
	models.SeverityMedium:   2,
	models.SeverityLow:      3,
}

// Trends returns monthly inflow, outflow and net flow for the last months completed months
func (s *Service) Trends(ctx context.Context, segmentID *int64, months int) (*models.CashFlowTrend, error) {
	if months == 0 {
		months = DefaultTrendMonths
	}
	if months < 1 || months > MaxTrendMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidParameters, MaxTrendMonths)
	}

	to := s.currentMonth()
	from := to.AddDate(0, -months, 0)
	flows, err := s.store.MonthlyFlows(ctx, segmentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load trends: %w", err)
	}
	flows = zeroFill(flows, from, to)

	trend := &models.CashFlowTrend{Points: make([]models.CashFlowPoint, 0, len(flows))}
	for _, f := range flows {
		trend.Points = append(trend.Points, models.CashFlowPoint{
			Month:   f.Month.Format("2006-01"),
			Inflow:  f.Inflow.InexactFloat64(),
			Outflow: f.Outflow.InexactFloat64(),
			NetFlow: f.Net().InexactFloat64(),
		})
	}
	trend.TrendSlope, _ = stats.LinearTrend(netFlows(flows))
	return trend, nil
}

// KPIs computes headline indicators over the lookback window
func (s *Service) KPIs(ctx context.Context, segmentID *int64) (*models.KPIs, error) {
	flows, err := s.monthlyHistory(ctx, segmentID, s.config.LookbackMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	netPaid, err := s.store.NetPaidFlow(ctx, segmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	rec, err := s.store.Receivables(ctx, segmentID, OverdueDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load receivables: %w", err)
	}

	totalIn, totalOut := decimal.Zero, decimal.Zero
	var burns []float64
	for _, f := range flows {
		totalIn = totalIn.Add(f.Inflow)
		totalOut = totalOut.Add(f.Outflow)
		if net := f.Net(); net.IsNegative() {
			burns = append(burns, net.Neg().InexactFloat64())
		}
	}

	kpis := &models.KPIs{
		PeriodMonths:           len(flows),
		TotalInflow:            totalIn.InexactFloat64(),
		TotalOutflow:           totalOut.InexactFloat64(),
		NetCashFlow:            totalIn.Sub(totalOut).InexactFloat64(),
		CurrentBalance:         decimal.NewFromFloat(s.config.StartingBalance).Add(netPaid).InexactFloat64(),
		ReceivablesOutstanding: rec.Outstanding,
	}
	if n := len(flows); n > 0 {
		kpis.AverageMonthlyInflow = kpis.TotalInflow / float64(n)
		kpis.AverageMonthlyOutflow = kpis.TotalOutflow / float64(n)
	}
	if len(burns) > 0 {
		kpis.BurnRate = stats.Mean(burns)
		runway := 0.0
		if kpis.CurrentBalance > 0 {
			runway = kpis.CurrentBalance / kpis.BurnRate
		}
		kpis.RunwayMonths = &runway
	}
	if rec.Count > 0 {
		kpis.AverageAgingDays = float64(rec.TotalAgingDays) / float64(rec.Count)
	}
	if rec.Outstanding > 0 {
		kpis.OverdueShare = rec.Overdue / rec.Outstanding
	}
	return kpis, nil
}

// Alerts evaluates risk rules against KPIs, the net-flow trend and the latest simulation.
// Alerts are ordered from most to least severe.
func (s *Service) Alerts(ctx context.Context, segmentID *int64) ([]models.RiskAlert, error) {
	alerts, _, err := s.alerts(ctx, segmentID)
	return alerts, err
}

func (s *Service) alerts(ctx context.Context, segmentID *int64) ([]models.RiskAlert, *models.KPIs, error) {
	kpis, err := s.KPIs(ctx, segmentID)
	if err != nil {
		return nil, nil, err
	}
	trend, err := s.Trends(ctx, segmentID, DefaultTrendMonths)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.store.LatestSimulationSummary(ctx, segmentID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to load latest simulation: %w", err)
	}

	alerts := evaluateAlerts(kpis, trend, summary)
	s.log.WithFields(logrus.Fields{
		"segment_id": segmentField(segmentID),
		"alerts":     len(alerts),
	}).Debug("Risk alerts evaluated")
	return alerts, kpis, nil
}

func evaluateAlerts(kpis *models.KPIs, trend *models.CashFlowTrend, summary *models.SimulationSummary) []models.RiskAlert {
	alerts := []models.RiskAlert{}

	if kpis.CurrentBalance < 0 {
		alerts = append(alerts, models.RiskAlert{
			Code:     "NEGATIVE_BALANCE",
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Current balance is negative: %.2f", kpis.CurrentBalance),
			Value:    kpis.CurrentBalance,
		})
	}
	if r := kpis.RunwayMonths; r != nil {
		switch {
		case *r < runwayCriticalMonths:
			alerts = append(alerts, models.RiskAlert{
				Code:     "RUNWAY_CRITICAL",
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Cash runway is %.1f months, below %.0f", *r, runwayCriticalMonths),
				Value:    *r,
			})
		case *r < runwayLowMonths:
			alerts = append(alerts, models.RiskAlert{
				Code:     "RUNWAY_LOW",
				Severity: models.SeverityHigh,
				Message:  fmt.Sprintf("Cash runway is %.1f months, below %.0f", *r, runwayLowMonths),
				Value:    *r,
			})
		}
	}
	if trend != nil && trend.TrendSlope < 0 {
		alerts = append(alerts, models.RiskAlert{
			Code:     "NEGATIVE_TREND",
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Net cash flow is declining by %.2f per month", -trend.TrendSlope),
			Value:    trend.TrendSlope,
		})
	}
	if kpis.OverdueShare > overdueShareThreshold {
		alerts = append(alerts, models.RiskAlert{
			Code:     "OVERDUE_RECEIVABLES",
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("%.0f%% of receivables are overdue by more than %d days", kpis.OverdueShare*100, OverdueDays),
			Value:    kpis.OverdueShare,
		})
	}
	if summary != nil {
		p := summary.ProbabilityNegative
		switch {
		case p > negativeRiskCritical:
			alerts = append(alerts, models.RiskAlert{
				Code:     "SIMULATED_SHORTFALL",
				Severity: models.SeverityCritical,
				Message:  fmt.Sprintf("Latest simulation shows a %.0f%% chance of a negative balance", p*100),
				Value:    p,
			})
		case p > negativeRiskHigh:
			alerts = append(alerts, models.RiskAlert{
				Code:     "SIMULATED_SHORTFALL",
				Severity: models.SeverityHigh,
				Message:  fmt.Sprintf("Latest simulation shows a %.0f%% chance of a negative balance", p*100),
				Value:    p,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank[alerts[i].Severity] < severityRank[alerts[j].Severity]
	})
	return alerts
}

// Recommendations derives suggested actions from the risk alerts. When cash comfortably
// covers outflows it also suggests placing the surplus, quoting the key rate.
func (s *Service) Recommendations(ctx context.Context, segmentID *int64) ([]models.Recommendation, error) {
	alerts, kpis, err := s.alerts(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	recs := []models.Recommendation{}
	seen := make(map[string]bool)
	for _, a := range alerts {
		rec, ok := recommendationFor(a)
		if !ok || seen[rec.Code] {
			continue
		}
		seen[rec.Code] = true
		recs = append(recs, rec)
	}

	if rec, ok := s.surplusRecommendation(ctx, kpis, len(alerts) == 0); ok {
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority < recs[j].Priority })
	return recs, nil
}

func recommendationFor(a models.RiskAlert) (models.Recommendation, bool) {
	priority := severityRank[a.Severity] + 1
	switch a.Code {
	case "NEGATIVE_BALANCE", "RUNWAY_CRITICAL", "RUNWAY_LOW":
		return models.Recommendation{
			Code:     "EXTEND_RUNWAY",
			Priority: priority,
			Title:    "Extend cash runway",
			Detail:   "Defer discretionary spending, renegotiate supplier terms and arrange a credit line before the runway shortens further.",
		}, true
	case "NEGATIVE_TREND":
		return models.Recommendation{
			Code:     "REVIEW_COST_BASE",
			Priority: priority,
			Title:    "Review the cost base",
			Detail:   "Net cash flow is trending down. Review recurring outflows and pricing of the weakest segments.",
		}, true
	case "OVERDUE_RECEIVABLES":
		return models.Recommendation{
			Code:     "COLLECT_RECEIVABLES",
			Priority: priority,
			Title:    "Accelerate collections",
			Detail:   fmt.Sprintf("Prioritise collection of invoices overdue by more than %d days and tighten payment terms.", OverdueDays),
		}, true
	case "SIMULATED_SHORTFALL":
		return models.Recommendation{
			Code:     "BUILD_CASH_BUFFER",
			Priority: priority,
			Title:    "Build a cash buffer",
			Detail:   "Simulated scenarios show a material chance of running out of cash. Hold a reserve against the stress case.",
		}, true
	}
	return models.Recommendation{}, false
}

func (s *Service) surplusRecommendation(ctx context.Context, kpis *models.KPIs, healthy bool) (models.Recommendation, bool) {
	if !healthy || s.rates == nil || kpis.AverageMonthlyOutflow <= 0 {
		return models.Recommendation{}, false
	}
	surplus := kpis.CurrentBalance - surplusCoverageMonths*kpis.AverageMonthlyOutflow
	if surplus <= 0 {
		return models.Recommendation{}, false
	}

	rate, err := s.rates.GetKeyRate(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Key rate unavailable, skipping surplus recommendation")
		return models.Recommendation{}, false
	}

	return models.Recommendation{
		Code:     "PLACE_SURPLUS",
		Priority: 4,
		Title:    "Place surplus cash on deposit",
		Detail: fmt.Sprintf("About %.2f exceeds %.0f months of outflows. At the current key rate of %.2f%% a deposit would earn roughly %.2f per year.",
			surplus, surplusCoverageMonths, rate, surplus*rate/100),
	}, true
}
