package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/cache"
	"github.com/Dan9191/cashflow-service/internal/config"
	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/stats"
)

// ErrInvalidParameters is returned when a request fails boundary validation
var ErrInvalidParameters = errors.New("invalid parameters")

// TransactionStore reads transaction history
type TransactionStore interface {
	MonthlyFlows(ctx context.Context, segmentID *int64, from, to time.Time) ([]models.MonthlyFlow, error)
	NetPaidFlow(ctx context.Context, segmentID *int64) (decimal.Decimal, error)
	Receivables(ctx context.Context, segmentID *int64, overdueDays int) (models.Receivables, error)
	ListSegments(ctx context.Context) ([]models.Segment, error)
}

// SimulationStore persists simulations
type SimulationStore interface {
	SaveSimulation(ctx context.Context, result *models.SimulationResult, batchSize int) error
	GetSimulation(ctx context.Context, id uuid.UUID) (*models.StoredSimulation, []models.SimulationRun, error)
	LatestSimulationSummary(ctx context.Context, segmentID *int64) (*models.SimulationSummary, error)
}

// ForecastStore persists forecasts and their realized actuals
type ForecastStore interface {
	SaveForecasts(ctx context.Context, forecasts []models.ForecastResult) error
	ListForecastsWithActuals(ctx context.Context, segmentID *int64, modelNames []string) ([]models.ForecastResult, error)
	PendingActuals(ctx context.Context, cutoff time.Time) ([]models.ForecastResult, error)
	UpdateActual(ctx context.Context, id uuid.UUID, actual float64) error
}

// Store is the full data-access surface used by the service
type Store interface {
	TransactionStore
	SimulationStore
	ForecastStore
}

// KeyRateProvider returns the central bank key rate in percent
type KeyRateProvider interface {
	GetKeyRate(ctx context.Context) (float64, error)
}

// Notifier delivers risk-alert digests
type Notifier interface {
	SendAlertDigest(ctx context.Context, segment string, alerts []models.RiskAlert) error
}

// Service handles business logic
type Service struct {
	store    Store
	cache    cache.Cache
	rates    KeyRateProvider
	notifier Notifier
	log      *logrus.Logger
	config   *config.Config

	newSource func() stats.Source
	now       func() time.Time
}

// NewService initializes a new service
func NewService(store Store, c cache.Cache, rates KeyRateProvider, notifier Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		cache:    c,
		rates:    rates,
		notifier: notifier,
		log:      log,
		config:   cfg,
		newSource: func() stats.Source {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		now: time.Now,
	}
}

func validateSegmentID(segmentID *int64) error {
	if segmentID != nil && *segmentID <= 0 {
		return fmt.Errorf("%w: segment_id must be a positive integer", ErrInvalidParameters)
	}
	return nil
}

// ListSegments returns all known segments
func (s *Service) ListSegments(ctx context.Context) ([]models.Segment, error) {
	return s.store.ListSegments(ctx)
}

// monthStart keeps the calendar month of t as seen in its own zone
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// currentMonth is the first day of the month in progress. History windows end here
// so that a partial month never enters an estimate.
func (s *Service) currentMonth() time.Time {
	return monthStart(s.now())
}

// monthlyHistory loads completed months of the lookback window. Months with no
// transactions between the first observed month and the window end are zero-filled.
func (s *Service) monthlyHistory(ctx context.Context, segmentID *int64, months int) ([]models.MonthlyFlow, error) {
	to := s.currentMonth()
	from := to.AddDate(0, -months, 0)
	flows, err := s.store.MonthlyFlows(ctx, segmentID, from, to)
	if err != nil {
		return nil, err
	}
	if len(flows) == 0 {
		return nil, nil
	}
	return zeroFill(flows, monthStart(flows[0].Month), to), nil
}

// zeroFill returns one entry per month in [from, to), using zero flows where none were recorded
func zeroFill(flows []models.MonthlyFlow, from, to time.Time) []models.MonthlyFlow {
	byMonth := make(map[time.Time]models.MonthlyFlow, len(flows))
	for _, f := range flows {
		byMonth[monthStart(f.Month)] = f
	}

	var filled []models.MonthlyFlow
	for m := from; m.Before(to); m = m.AddDate(0, 1, 0) {
		f, ok := byMonth[m]
		if !ok {
			f = models.MonthlyFlow{Month: m, Inflow: decimal.Zero, Outflow: decimal.Zero}
		}
		f.Month = m
		filled = append(filled, f)
	}
	return filled
}

func netFlows(flows []models.MonthlyFlow) []float64 {
	out := make([]float64, 0, len(flows))
	for _, f := range flows {
		out = append(out, f.Net().InexactFloat64())
	}
	return out
}

func segmentField(segmentID *int64) any {
	if segmentID == nil {
		return "all"
	}
	return *segmentID
}
