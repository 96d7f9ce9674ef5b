package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
)

type monthKey struct {
	segment int64
	all     bool
	month   time.Time
}

// ReconcileActuals fills the realized net flow into stored forecasts whose month has
// completed. It returns the number of forecasts updated.
func (s *Service) ReconcileActuals(ctx context.Context) (int, error) {
	cutoff := s.currentMonth()
	pending, err := s.store.PendingActuals(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending forecasts: %w", err)
	}

	actuals := make(map[monthKey]float64)
	updated := 0
	for _, f := range pending {
		month := monthStart(f.Date)
		key := monthKey{all: f.SegmentID == nil, month: month}
		if f.SegmentID != nil {
			key.segment = *f.SegmentID
		}

		actual, ok := actuals[key]
		if !ok {
			flows, err := s.store.MonthlyFlows(ctx, f.SegmentID, month, month.AddDate(0, 1, 0))
			if err != nil {
				return updated, fmt.Errorf("failed to load realized flow: %w", err)
			}
			for _, flow := range flows {
				actual += flow.Net().InexactFloat64()
			}
			actuals[key] = actual
		}

		if err := s.store.UpdateActual(ctx, f.ID, actual); err != nil {
			return updated, fmt.Errorf("failed to update forecast %s: %w", f.ID, err)
		}
		updated++
	}

	s.log.WithFields(logrus.Fields{
		"pending": len(pending),
		"updated": updated,
	}).Info("Forecast actuals reconciled")
	return updated, nil
}

type digestTarget struct {
	name string
	id   *int64
}

// SendAlertDigests emails HIGH and CRITICAL alerts for the whole business and for each
// segment. A failing target does not stop the others; failures are returned joined.
func (s *Service) SendAlertDigests(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}

	segments, err := s.store.ListSegments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load segments: %w", err)
	}

	targets := []digestTarget{{name: "all segments"}}
	for i := range segments {
		targets = append(targets, digestTarget{name: segments[i].Name, id: &segments[i].ID})
	}

	var errs []error
	for _, target := range targets {
		logger := s.log.WithField("segment", target.name)
		alerts, err := s.Alerts(ctx, target.id)
		if err != nil {
			logger.WithError(err).Error("Failed to evaluate alerts for digest")
			errs = append(errs, fmt.Errorf("%s: %w", target.name, err))
			continue
		}
		urgent := urgentAlerts(alerts)
		if len(urgent) == 0 {
			continue
		}
		if err := s.notifier.SendAlertDigest(ctx, target.name, urgent); err != nil {
			logger.WithError(err).Error("Failed to send alert digest")
			errs = append(errs, fmt.Errorf("%s: %w", target.name, err))
		}
	}
	return errors.Join(errs...)
}

func urgentAlerts(alerts []models.RiskAlert) []models.RiskAlert {
	var out []models.RiskAlert
	for _, a := range alerts {
		if a.Severity == models.SeverityHigh || a.Severity == models.SeverityCritical {
			out = append(out, a)
		}
	}
	return out
}
