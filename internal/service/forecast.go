package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/cache"
	"github.com/Dan9191/cashflow-service/internal/forecast"
	"github.com/Dan9191/cashflow-service/internal/models"
)

var allForecastModels = []string{
	string(models.ModelRegression),
	string(models.ModelARIMA),
	string(models.ModelProphet),
	string(models.ModelEnsemble),
}

// ValidateForecastRequest checks the horizon and resolves the model and scenario names
func ValidateForecastRequest(req models.ForecastRequest) (models.ForecastModel, models.Scenario, error) {
	if req.Horizon < forecast.MinHorizon || req.Horizon > forecast.MaxHorizon {
		return "", "", fmt.Errorf("%w: horizon must be between %d and %d",
			ErrInvalidParameters, forecast.MinHorizon, forecast.MaxHorizon)
	}
	if err := validateSegmentID(req.SegmentID); err != nil {
		return "", "", err
	}
	model, err := models.ParseForecastModel(req.Model)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	scenario, err := models.ParseScenario(req.Scenario)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return model, scenario, nil
}

// GenerateForecast forecasts monthly net flow. Results that are not persisted are
// cached per segment, model, scenario, horizon and month.
func (s *Service) GenerateForecast(ctx context.Context, req models.ForecastRequest) ([]models.ForecastResult, error) {
	model, scenario, err := ValidateForecastRequest(req)
	if err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{
		"segment_id": segmentField(req.SegmentID),
		"model":      model,
		"scenario":   scenario,
		"horizon":    req.Horizon,
	})

	current := s.currentMonth()
	key := cache.Key("forecast", fmt.Sprint(segmentField(req.SegmentID)), string(model),
		string(scenario), strconv.Itoa(req.Horizon), current.Format("2006-01"))
	if !req.Persist {
		if cached, ok := s.cachedForecast(ctx, key); ok {
			logger.Debug("Forecast served from cache")
			return cached, nil
		}
	}

	flows, err := s.monthlyHistory(ctx, req.SegmentID, s.config.LookbackMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	results := forecast.Generate(netFlows(flows), current.AddDate(0, -1, 0), req.Horizon, model, scenario)
	for i := range results {
		results[i].SegmentID = req.SegmentID
	}

	if req.Persist {
		if err := s.store.SaveForecasts(ctx, results); err != nil {
			return nil, fmt.Errorf("failed to save forecasts: %w", err)
		}
	} else {
		s.cacheForecast(ctx, key, results, logger)
	}

	logger.WithField("history_months", len(flows)).Info("Forecast generated")
	return results, nil
}

func (s *Service) cachedForecast(ctx context.Context, key string) ([]models.ForecastResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var results []models.ForecastResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		s.log.WithError(err).Warn("Discarding malformed cached forecast")
		return nil, false
	}
	return results, true
}

func (s *Service) cacheForecast(ctx context.Context, key string, results []models.ForecastResult, logger *logrus.Entry) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		logger.WithError(err).Warn("Failed to encode forecast for cache")
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.config.ForecastCacheTTL); err != nil {
		logger.WithError(err).Warn("Failed to cache forecast")
	}
}

// ForecastAccuracy scores stored forecasts with realized actuals. An empty model
// name scores every model together.
func (s *Service) ForecastAccuracy(ctx context.Context, segmentID *int64, modelName string) (*models.ForecastAccuracy, error) {
	names := allForecastModels
	var model models.ForecastModel
	if modelName != "" {
		m, err := models.ParseForecastModel(modelName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		model = m
		names = []string{string(m)}
	}

	results, err := s.store.ListForecastsWithActuals(ctx, segmentID, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load forecasts: %w", err)
	}

	mape, samples := forecast.MAPE(results)
	return &models.ForecastAccuracy{Model: model, MAPE: mape, Samples: samples}, nil
}
