// Package forecast projects monthly net cash flow forward from a linear trend.
//
// The ARIMA, Prophet and Ensemble variants are deterministic transforms of the
// regression output. They keep the names the dashboard exposes but do not fit
// separate statistical models.
package forecast

import (
	"math"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

const (
	MinHorizon = 1
	MaxHorizon = 36

	confidenceStep  = 0.05
	confidenceFloor = 0.6
	prophetCap      = 0.95
	z95             = 1.96
)

// Seasonality holds the calendar-month multipliers applied to forecasts (January first)
var Seasonality = [12]float64{0.95, 0.92, 1.00, 1.02, 1.03, 1.05, 0.98, 0.94, 1.02, 1.05, 1.04, 1.10}

var scenarioMultiplier = map[models.Scenario]float64{
	models.ScenarioOptimistic:  1.15,
	models.ScenarioBase:        1.0,
	models.ScenarioPessimistic: 0.85,
	models.ScenarioStressTest:  0.7,
}

// Ensemble weights for regression, ARIMA and Prophet
const (
	weightRegression = 0.3
	weightARIMA      = 0.3
	weightProphet    = 0.4
)

// ScenarioMultiplier returns the forecast scale for a scenario
func ScenarioMultiplier(s models.Scenario) float64 {
	if m, ok := scenarioMultiplier[s]; ok {
		return m
	}
	return 1.0
}

// point is the shared regression output for one forecast step
type point struct {
	step   int
	date   time.Time
	trend  float64 // scenario-scaled trend value before seasonality
	season float64
}

type fit struct {
	slope, intercept float64
	n                int
	std              float64
	scenario         float64
}

func newFit(history []float64, scenario models.Scenario) fit {
	slope, intercept := stats.LinearTrend(history)
	return fit{
		slope:     slope,
		intercept: intercept,
		n:         len(history),
		std:       math.Sqrt(stats.SampleVariance(history)),
		scenario:  ScenarioMultiplier(scenario),
	}
}

func (f fit) at(step int, lastMonth time.Time) point {
	date := lastMonth.AddDate(0, step, 0)
	return point{
		step:   step,
		date:   date,
		trend:  (f.slope*float64(f.n+step) + f.intercept) * f.scenario,
		season: Seasonality[int(date.Month())-1],
	}
}

// Confidence decays by five points per step and never drops below 0.6
func Confidence(step int) float64 {
	return math.Max(confidenceFloor, 1.0-confidenceStep*float64(step))
}

// margin scales with confidence, so intervals narrow as confidence decays
func (f fit) margin(confidence float64) float64 {
	return z95 * f.std * confidence
}

func regression(p point) (predicted, confidence float64) {
	return p.trend * p.season, Confidence(p.step)
}

func arima(p point) (predicted, confidence float64) {
	base, conf := regression(p)
	return base * (1 + 0.1*math.Sin(float64(p.step)/3)), conf
}

func prophet(p point) (predicted, confidence float64) {
	weekly := 0.02 * math.Abs(p.trend) * math.Sin(2*math.Pi*float64(p.step)/7)
	predicted = p.trend*(1+0.2*(p.season-1)) + weekly
	return predicted, math.Min(prophetCap, Confidence(p.step)*1.1)
}

// Generate produces horizon monthly forecasts following the last historical month.
// history holds monthly net flows in chronological order.
func Generate(history []float64, lastMonth time.Time, horizon int, model models.ForecastModel, scenario models.Scenario) []models.ForecastResult {
	if horizon < MinHorizon {
		return nil
	}
	f := newFit(history, scenario)
	results := make([]models.ForecastResult, 0, horizon)

	for step := 1; step <= horizon; step++ {
		p := f.at(step, lastMonth)
		var predicted, confidence, margin float64

		switch model {
		case models.ModelARIMA:
			predicted, confidence = arima(p)
			margin = f.margin(confidence)
		case models.ModelProphet:
			predicted, confidence = prophet(p)
			margin = f.margin(confidence)
		case models.ModelEnsemble:
			r, rc := regression(p)
			a, ac := arima(p)
			ph, pc := prophet(p)
			predicted = weightRegression*r + weightARIMA*a + weightProphet*ph
			confidence = (rc + ac + pc) / 3
			margin = z95 * stats.StdDev([]float64{r, a, ph})
		default:
			model = models.ModelRegression
			predicted, confidence = regression(p)
			margin = f.margin(confidence)
		}

		results = append(results, models.ForecastResult{
			Date:       p.date,
			Predicted:  predicted,
			Confidence: confidence,
			LowerBound: predicted - margin,
			UpperBound: predicted + margin,
			Model:      model,
			Scenario:   scenario,
		})
	}
	return results
}
