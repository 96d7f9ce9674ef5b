package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ForecastModel names a forecasting variant
type ForecastModel string

const (
	ModelRegression ForecastModel = "REGRESSION"
	ModelARIMA      ForecastModel = "ARIMA"
	ModelProphet    ForecastModel = "PROPHET"
	ModelEnsemble   ForecastModel = "ENSEMBLE"
)

// ParseForecastModel validates a model name. An empty name means ENSEMBLE.
func ParseForecastModel(s string) (ForecastModel, error) {
	switch ForecastModel(s) {
	case "":
		return ModelEnsemble, nil
	case ModelRegression, ModelARIMA, ModelProphet, ModelEnsemble:
		return ForecastModel(s), nil
	}
	return "", fmt.Errorf("unknown forecast model %q", s)
}

// ForecastResult is a single monthly point forecast
type ForecastResult struct {
	ID         uuid.UUID     `json:"id,omitempty"`
	SegmentID  *int64        `json:"segment_id,omitempty"`
	Date       time.Time     `json:"date"`
	Predicted  float64       `json:"predicted"`
	Confidence float64       `json:"confidence"`
	LowerBound float64       `json:"lower_bound"`
	UpperBound float64       `json:"upper_bound"`
	Model      ForecastModel `json:"model"`
	Scenario   Scenario      `json:"scenario"`
	Actual     *float64      `json:"actual,omitempty"`
}

// ForecastRequest describes a forecast request
type ForecastRequest struct {
	Horizon   int    `json:"horizon"`
	Model     string `json:"model"`
	Scenario  string `json:"scenario"`
	SegmentID *int64 `json:"segment_id,omitempty"`
	Persist   bool   `json:"persist"`
}

// ForecastAccuracy scores stored forecasts against realized actuals
type ForecastAccuracy struct {
	Model   ForecastModel `json:"model,omitempty"`
	MAPE    float64       `json:"mape"`
	Samples int           `json:"samples"`
}
