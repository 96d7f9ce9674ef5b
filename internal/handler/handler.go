package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/service"
	"github.com/Dan9191/cashflow-service/internal/simulation"
)

// Analytics is the service surface exposed over HTTP
type Analytics interface {
	RunSimulation(ctx context.Context, params models.SimulationParameters) (*models.SimulationResult, error)
	GetSimulation(ctx context.Context, id uuid.UUID) (*models.StoredSimulation, []models.SimulationRun, error)
	GenerateForecast(ctx context.Context, req models.ForecastRequest) ([]models.ForecastResult, error)
	ForecastAccuracy(ctx context.Context, segmentID *int64, model string) (*models.ForecastAccuracy, error)
	Trends(ctx context.Context, segmentID *int64, months int) (*models.CashFlowTrend, error)
	KPIs(ctx context.Context, segmentID *int64) (*models.KPIs, error)
	Alerts(ctx context.Context, segmentID *int64) ([]models.RiskAlert, error)
	Recommendations(ctx context.Context, segmentID *int64) ([]models.Recommendation, error)
	ListSegments(ctx context.Context) ([]models.Segment, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc    Analytics
	db     Pinger
	logger *logrus.Logger
}

func NewHandler(svc Analytics, db Pinger, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, db: db, logger: logger}
}

// RegisterRoutes mounts the protected API routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/simulations", h.RunSimulation).Methods("POST")
	router.HandleFunc("/simulations/{id}", h.GetSimulation).Methods("GET")
	router.HandleFunc("/forecasts", h.GenerateForecast).Methods("POST")
	router.HandleFunc("/forecasts/accuracy", h.ForecastAccuracy).Methods("GET")
	router.HandleFunc("/dashboard/trends", h.Trends).Methods("GET")
	router.HandleFunc("/dashboard/kpis", h.KPIs).Methods("GET")
	router.HandleFunc("/dashboard/alerts", h.Alerts).Methods("GET")
	router.HandleFunc("/dashboard/recommendations", h.Recommendations).Methods("GET")
	router.HandleFunc("/segments", h.ListSegments).Methods("GET")
}

// Health reports service and database status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.logger.WithError(err).Error("Health check failed")
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to HTTP statuses. Unexpected errors are
// logged and reported with the opaque fallback message.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidParameters):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, simulation.ErrInsufficientHistory):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found")
	default:
		h.logger.WithError(err).Error(fallback)
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
}

// segmentParam parses the optional segment query parameter
func segmentParam(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("segment")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errors.New("segment must be a positive integer")
	}
	return &id, nil
}
