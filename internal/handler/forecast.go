package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/service"
)

// GenerateForecast handles POST /api/forecasts
func (h *Handler) GenerateForecast(w http.ResponseWriter, r *http.Request) {
	var req models.ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid forecast request body")
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, _, err := service.ValidateForecastRequest(req); err != nil {
		h.logger.WithError(err).Warn("Forecast request rejected")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.svc.GenerateForecast(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "failed to generate forecast")
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// ForecastAccuracy handles GET /api/forecasts/accuracy
func (h *Handler) ForecastAccuracy(w http.ResponseWriter, r *http.Request) {
	segmentID, err := segmentParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := h.svc.ForecastAccuracy(r.Context(), segmentID, r.URL.Query().Get("model"))
	if err != nil {
		h.writeServiceError(w, err, "failed to compute forecast accuracy")
		return
	}
	h.writeJSON(w, http.StatusOK, acc)
}
