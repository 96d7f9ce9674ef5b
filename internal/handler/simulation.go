package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/service"
)

type simulationResponse struct {
	Simulation *models.StoredSimulation `json:"simulation"`
	Runs       []models.SimulationRun   `json:"runs"`
}

// RunSimulation handles POST /api/simulations
func (h *Handler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	var params models.SimulationParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.logger.WithError(err).Warn("Invalid simulation request body")
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := service.ValidateSimulationParameters(&params); err != nil {
		h.logger.WithError(err).Warn("Simulation request rejected")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"num_runs": params.NumRuns,
		"horizon":  params.TimeHorizonMonths,
		"scenario": params.Scenario,
	}).Info("Simulation requested")

	result, err := h.svc.RunSimulation(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, err, "failed to run simulation")
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// GetSimulation handles GET /api/simulations/{id}
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid simulation id")
		return
	}

	sim, runs, err := h.svc.GetSimulation(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to load simulation")
		return
	}
	h.writeJSON(w, http.StatusOK, simulationResponse{Simulation: sim, Runs: runs})
}
