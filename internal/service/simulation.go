package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/simulation"
)

// ValidateSimulationParameters checks request bounds and normalizes the scenario name
func ValidateSimulationParameters(params *models.SimulationParameters) error {
	if params.NumRuns < simulation.MinRuns || params.NumRuns > simulation.MaxRuns {
		return fmt.Errorf("%w: num_runs must be between %d and %d",
			ErrInvalidParameters, simulation.MinRuns, simulation.MaxRuns)
	}
	if params.TimeHorizonMonths < simulation.MinHorizonMonths || params.TimeHorizonMonths > simulation.MaxHorizonMonths {
		return fmt.Errorf("%w: time_horizon_months must be between %d and %d",
			ErrInvalidParameters, simulation.MinHorizonMonths, simulation.MaxHorizonMonths)
	}
	if err := validateSegmentID(params.SegmentID); err != nil {
		return err
	}
	scenario, err := models.ParseScenario(string(params.Scenario))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	params.Scenario = scenario

	if cv := params.CustomVariables; cv != nil {
		for name, v := range map[string]*float64{
			"inflow_std":      cv.InflowStd,
			"outflow_std":     cv.OutflowStd,
			"growth_rate_std": cv.GrowthRateStd,
		} {
			if v != nil && *v < 0 {
				return fmt.Errorf("%w: %s must not be negative", ErrInvalidParameters, name)
			}
		}
	}
	return nil
}

// RunSimulation estimates parameters from history, runs the Monte Carlo simulation,
// summarizes it and persists the result
func (s *Service) RunSimulation(ctx context.Context, params models.SimulationParameters) (*models.SimulationResult, error) {
	if err := ValidateSimulationParameters(&params); err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{
		"segment_id": segmentField(params.SegmentID),
		"num_runs":   params.NumRuns,
		"horizon":    params.TimeHorizonMonths,
		"scenario":   params.Scenario,
	})

	flows, err := s.monthlyHistory(ctx, params.SegmentID, s.config.LookbackMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	base, err := simulation.EstimateParameters(flows, params.CustomVariables, s.config.StartingBalance)
	if err != nil {
		logger.WithError(err).Warn("Simulation rejected")
		return nil, err
	}

	runner := simulation.NewRunner(s.newSource(), s.currentMonth())
	runs := runner.Run(base, params.Scenario, params.TimeHorizonMonths, params.NumRuns)

	result := &models.SimulationResult{
		SimulationID: uuid.New(),
		Parameters:   params,
		Base:         base,
		Runs:         runs,
		Summary:      simulation.Summarize(runs),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.SaveSimulation(ctx, result, s.config.SimulationBatchSize); err != nil {
		return nil, fmt.Errorf("failed to save simulation: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"simulation_id":        result.SimulationID,
		"history_months":       len(flows),
		"probability_negative": result.Summary.ProbabilityNegative,
		"median_final_balance": result.Summary.MedianFinalBalance,
	}).Info("Simulation completed")
	return result, nil
}

// GetSimulation loads a stored simulation with its runs
func (s *Service) GetSimulation(ctx context.Context, id uuid.UUID) (*models.StoredSimulation, []models.SimulationRun, error) {
	return s.store.GetSimulation(ctx, id)
}
