package handler

import (
	"net/http"
	"strconv"
)

// Trends handles GET /api/dashboard/trends
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	segmentID, err := segmentParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		if months, err = strconv.Atoi(raw); err != nil {
			h.writeError(w, http.StatusBadRequest, "months must be an integer")
			return
		}
	}

	trend, err := h.svc.Trends(r.Context(), segmentID, months)
	if err != nil {
		h.writeServiceError(w, err, "failed to load trends")
		return
	}
	h.writeJSON(w, http.StatusOK, trend)
}

// KPIs handles GET /api/dashboard/kpis
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	segmentID, err := segmentParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kpis, err := h.svc.KPIs(r.Context(), segmentID)
	if err != nil {
		h.writeServiceError(w, err, "failed to load KPIs")
		return
	}
	h.writeJSON(w, http.StatusOK, kpis)
}

// Alerts handles GET /api/dashboard/alerts
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	segmentID, err := segmentParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, err := h.svc.Alerts(r.Context(), segmentID)
	if err != nil {
		h.writeServiceError(w, err, "failed to evaluate alerts")
		return
	}
	h.writeJSON(w, http.StatusOK, alerts)
}

// Recommendations handles GET /api/dashboard/recommendations
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	segmentID, err := segmentParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.svc.Recommendations(r.Context(), segmentID)
	if err != nil {
		h.writeServiceError(w, err, "failed to build recommendations")
		return
	}
	h.writeJSON(w, http.StatusOK, recs)
}

// ListSegments handles GET /api/segments
func (h *Handler) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.svc.ListSegments(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to load segments")
		return
	}
	h.writeJSON(w, http.StatusOK, segments)
}
