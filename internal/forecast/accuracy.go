package forecast

import (
	"math"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// MAPE returns the mean absolute percentage error of forecasts that have a realized
// actual, along with the number of forecasts scored. Zero actuals are skipped.
func MAPE(results []models.ForecastResult) (float64, int) {
	sum := 0.0
	n := 0
	for _, r := range results {
		if r.Actual == nil || *r.Actual == 0 {
			continue
		}
		sum += math.Abs((*r.Actual - r.Predicted) / *r.Actual)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n) * 100, n
}
