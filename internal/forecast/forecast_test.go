package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

var lastMonth = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

func history() []float64 {
	return []float64{100, 120, 90, 130, 150, 140, 160, 170, 155, 180, 190, 200}
}

func TestGenerate_RegressionConfidence(t *testing.T) {
	results := Generate(history(), lastMonth, MaxHorizon, models.ModelRegression, models.ScenarioBase)

	if len(results) != MaxHorizon {
		t.Fatalf("expected %d results, got %d", MaxHorizon, len(results))
	}
	for i, r := range results {
		if r.Confidence < 0.6 {
			t.Errorf("step %d: confidence %f below floor", i+1, r.Confidence)
		}
		if i > 0 && r.Confidence > results[i-1].Confidence {
			t.Errorf("step %d: confidence increased", i+1)
		}
		if r.LowerBound > r.Predicted || r.UpperBound < r.Predicted {
			t.Errorf("step %d: prediction outside bounds", i+1)
		}
		if r.Model != models.ModelRegression || r.Scenario != models.ScenarioBase {
			t.Errorf("step %d: unexpected labels %s/%s", i+1, r.Model, r.Scenario)
		}
	}
	if results[0].Confidence != 0.95 {
		t.Errorf("expected first step confidence 0.95, got %f", results[0].Confidence)
	}
	if results[MaxHorizon-1].Confidence != 0.6 {
		t.Errorf("expected floored confidence 0.6, got %f", results[MaxHorizon-1].Confidence)
	}
}

func TestGenerate_MarginFollowsConfidence(t *testing.T) {
	h := history()
	std := math.Sqrt(stats.SampleVariance(h))

	for _, model := range []models.ForecastModel{models.ModelRegression, models.ModelARIMA, models.ModelProphet} {
		results := Generate(h, lastMonth, 10, model, models.ScenarioBase)
		for i, r := range results {
			want := 1.96 * std * r.Confidence
			if math.Abs((r.UpperBound-r.Predicted)-want) > 1e-9 || math.Abs((r.Predicted-r.LowerBound)-want) > 1e-9 {
				t.Errorf("%s step %d: expected margin %f, got %f", model, i+1, want, r.UpperBound-r.Predicted)
			}
			if i > 0 && r.UpperBound-r.Predicted > results[i-1].UpperBound-results[i-1].Predicted+1e-9 {
				t.Errorf("%s step %d: margin widened while confidence decayed", model, i+1)
			}
		}
	}
}

func TestGenerate_RegressionExtrapolatesTrend(t *testing.T) {
	h := []float64{10, 20, 30, 40}
	results := Generate(h, lastMonth, 2, models.ModelRegression, models.ScenarioPessimistic)

	// slope 10, intercept 0 -> step 1 is x=5
	july := Seasonality[time.July-1]
	want := 50 * 0.85 * july
	if math.Abs(results[0].Predicted-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, results[0].Predicted)
	}
	if !results[0].Date.Equal(time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected forecast date %s", results[0].Date)
	}
}

func TestGenerate_ARIMATransform(t *testing.T) {
	base := Generate(history(), lastMonth, 6, models.ModelRegression, models.ScenarioBase)
	arima := Generate(history(), lastMonth, 6, models.ModelARIMA, models.ScenarioBase)

	for i := range base {
		step := float64(i + 1)
		want := base[i].Predicted * (1 + 0.1*math.Sin(step/3))
		if math.Abs(arima[i].Predicted-want) > 1e-9 {
			t.Errorf("step %d: expected %f, got %f", i+1, want, arima[i].Predicted)
		}
	}
}

func TestGenerate_ProphetConfidenceCapped(t *testing.T) {
	results := Generate(history(), lastMonth, 3, models.ModelProphet, models.ScenarioBase)

	if results[0].Confidence != 0.95 {
		t.Errorf("expected capped confidence 0.95, got %f", results[0].Confidence)
	}
	if math.Abs(results[2].Confidence-0.85*1.1) > 1e-9 {
		t.Errorf("expected inflated confidence %f, got %f", 0.85*1.1, results[2].Confidence)
	}
}

func TestGenerate_EnsembleWeights(t *testing.T) {
	h := history()
	reg := Generate(h, lastMonth, 12, models.ModelRegression, models.ScenarioOptimistic)
	ari := Generate(h, lastMonth, 12, models.ModelARIMA, models.ScenarioOptimistic)
	pro := Generate(h, lastMonth, 12, models.ModelProphet, models.ScenarioOptimistic)
	ens := Generate(h, lastMonth, 12, models.ModelEnsemble, models.ScenarioOptimistic)

	for i := range ens {
		want := 0.3*reg[i].Predicted + 0.3*ari[i].Predicted + 0.4*pro[i].Predicted
		if math.Abs(ens[i].Predicted-want) > 1e-9 {
			t.Errorf("step %d: expected %f, got %f", i+1, want, ens[i].Predicted)
		}
		conf := (reg[i].Confidence + ari[i].Confidence + pro[i].Confidence) / 3
		if math.Abs(ens[i].Confidence-conf) > 1e-12 {
			t.Errorf("step %d: expected confidence %f, got %f", i+1, conf, ens[i].Confidence)
		}
		if ens[i].Model != models.ModelEnsemble {
			t.Errorf("step %d: expected ENSEMBLE label", i+1)
		}
	}
}

func TestGenerate_EnsembleBoundsFromModelSpread(t *testing.T) {
	// a flat history has zero variance, so any width comes from model disagreement
	flat := []float64{100, 100, 100, 100}
	ens := Generate(flat, lastMonth, 3, models.ModelEnsemble, models.ScenarioBase)
	reg := Generate(flat, lastMonth, 3, models.ModelRegression, models.ScenarioBase)

	if reg[0].UpperBound != reg[0].Predicted {
		t.Errorf("expected zero-width regression bounds for flat history")
	}
	if ens[0].UpperBound <= ens[0].Predicted {
		t.Errorf("expected ensemble bounds from model spread")
	}
}

func TestGenerate_DegenerateHistory(t *testing.T) {
	single := Generate([]float64{250}, lastMonth, 2, models.ModelRegression, models.ScenarioBase)
	want := 250 * Seasonality[time.July-1]
	if math.Abs(single[0].Predicted-want) > 1e-9 {
		t.Errorf("expected flat forecast %f, got %f", want, single[0].Predicted)
	}

	empty := Generate(nil, lastMonth, 2, models.ModelEnsemble, models.ScenarioBase)
	for _, r := range empty {
		if r.Predicted != 0 {
			t.Errorf("expected zero forecast without history, got %f", r.Predicted)
		}
	}

	if Generate(history(), lastMonth, 0, models.ModelRegression, models.ScenarioBase) != nil {
		t.Errorf("expected no forecasts for zero horizon")
	}
}

func TestMAPE(t *testing.T) {
	actual := func(v float64) *float64 { return &v }
	results := []models.ForecastResult{
		{Predicted: 90, Actual: actual(100)},
		{Predicted: 110, Actual: actual(100)},
		{Predicted: 50, Actual: actual(0)},
		{Predicted: 70},
	}

	mape, n := MAPE(results)
	if n != 2 {
		t.Fatalf("expected 2 scored forecasts, got %d", n)
	}
	if math.Abs(mape-10) > 1e-9 {
		t.Errorf("expected MAPE 10, got %f", mape)
	}
}
