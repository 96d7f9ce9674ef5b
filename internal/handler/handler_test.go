package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/cashflow-service/internal/models"
	"github.com/Dan9191/cashflow-service/internal/repository"
	"github.com/Dan9191/cashflow-service/internal/simulation"
)

type fakeAnalytics struct {
	err         error
	simulations int
	forecasts   int
	segment     *int64
	months      int
}

func (f *fakeAnalytics) RunSimulation(_ context.Context, params models.SimulationParameters) (*models.SimulationResult, error) {
	f.simulations++
	if f.err != nil {
		return nil, f.err
	}
	return &models.SimulationResult{SimulationID: uuid.New(), Parameters: params}, nil
}

func (f *fakeAnalytics) GetSimulation(_ context.Context, id uuid.UUID) (*models.StoredSimulation, []models.SimulationRun, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &models.StoredSimulation{SimulationID: id.String()}, []models.SimulationRun{{RunIndex: 0}}, nil
}

func (f *fakeAnalytics) GenerateForecast(_ context.Context, req models.ForecastRequest) ([]models.ForecastResult, error) {
	f.forecasts++
	if f.err != nil {
		return nil, f.err
	}
	return make([]models.ForecastResult, req.Horizon), nil
}

func (f *fakeAnalytics) ForecastAccuracy(_ context.Context, segmentID *int64, _ string) (*models.ForecastAccuracy, error) {
	f.segment = segmentID
	return &models.ForecastAccuracy{MAPE: 12.5, Samples: 4}, f.err
}

func (f *fakeAnalytics) Trends(_ context.Context, segmentID *int64, months int) (*models.CashFlowTrend, error) {
	f.segment, f.months = segmentID, months
	return &models.CashFlowTrend{}, f.err
}

func (f *fakeAnalytics) KPIs(_ context.Context, segmentID *int64) (*models.KPIs, error) {
	f.segment = segmentID
	return &models.KPIs{}, f.err
}

func (f *fakeAnalytics) Alerts(context.Context, *int64) ([]models.RiskAlert, error) {
	return []models.RiskAlert{}, f.err
}

func (f *fakeAnalytics) Recommendations(context.Context, *int64) ([]models.Recommendation, error) {
	return []models.Recommendation{}, f.err
}

func (f *fakeAnalytics) ListSegments(context.Context) ([]models.Segment, error) {
	return []models.Segment{{ID: 1, Name: "Retail"}}, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestRouter(svc *fakeAnalytics) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewHandler(svc, fakePinger{}, logger)
	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health).Methods("GET")
	h.RegisterRoutes(router.PathPrefix("/api").Subrouter())
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRunSimulation_Bounds(t *testing.T) {
	cases := []struct {
		runs    int
		horizon int
		want    int
	}{
		{99, 12, http.StatusBadRequest},
		{100, 12, http.StatusCreated},
		{2000, 12, http.StatusCreated},
		{2001, 12, http.StatusBadRequest},
		{100, 0, http.StatusBadRequest},
		{100, 1, http.StatusCreated},
		{100, 36, http.StatusCreated},
		{100, 37, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("runs=%d/horizon=%d", tc.runs, tc.horizon), func(t *testing.T) {
			svc := &fakeAnalytics{}
			body := fmt.Sprintf(`{"num_runs":%d,"time_horizon_months":%d,"scenario":"BASE"}`, tc.runs, tc.horizon)

			w := do(newTestRouter(svc), http.MethodPost, "/api/simulations", body)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
			if tc.want == http.StatusBadRequest && svc.simulations != 0 {
				t.Errorf("expected no simulation for rejected request")
			}
		})
	}
}

func TestRunSimulation_BadInput(t *testing.T) {
	svc := &fakeAnalytics{}
	router := newTestRouter(svc)

	if w := do(router, http.MethodPost, "/api/simulations", `{invalid-json}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/simulations", `{"num_runs":100,"time_horizon_months":12,"scenario":"DOOM"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown scenario, got %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/simulations", `{"num_runs":100,"time_horizon_months":12,"segment_id":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-positive segment_id, got %d", w.Code)
	}
	if w := do(router, http.MethodPost, "/api/forecasts", `{"horizon":6,"segment_id":-2}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative forecast segment_id, got %d", w.Code)
	}
	if svc.simulations != 0 || svc.forecasts != 0 {
		t.Errorf("expected no computation for rejected requests")
	}
}

func TestRunSimulation_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		msg  string
	}{
		{simulation.ErrInsufficientHistory, http.StatusUnprocessableEntity, simulation.ErrInsufficientHistory.Error()},
		{fmt.Errorf("failed to save simulation: %w", errors.New("connection reset")), http.StatusInternalServerError, "failed to run simulation"},
	}
	for _, tc := range cases {
		svc := &fakeAnalytics{err: tc.err}
		w := do(newTestRouter(svc), http.MethodPost, "/api/simulations",
			`{"num_runs":100,"time_horizon_months":12}`)
		if w.Code != tc.want {
			t.Fatalf("expected %d, got %d", tc.want, w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["error"] != tc.msg {
			t.Errorf("expected error %q, got %q", tc.msg, body["error"])
		}
	}
}

func TestGetSimulation(t *testing.T) {
	id := uuid.New()

	w := do(newTestRouter(&fakeAnalytics{}), http.MethodGet, "/api/simulations/"+id.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp simulationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Simulation.SimulationID != id.String() || len(resp.Runs) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}

	if w := do(newTestRouter(&fakeAnalytics{}), http.MethodGet, "/api/simulations/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Code)
	}
	if w := do(newTestRouter(&fakeAnalytics{err: repository.ErrNotFound}), http.MethodGet, "/api/simulations/"+id.String(), ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGenerateForecast_Bounds(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{`{"horizon":0}`, http.StatusBadRequest},
		{`{"horizon":1}`, http.StatusOK},
		{`{"horizon":36,"model":"PROPHET","scenario":"OPTIMISTIC"}`, http.StatusOK},
		{`{"horizon":37}`, http.StatusBadRequest},
		{`{"horizon":12,"model":"GARCH"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		svc := &fakeAnalytics{}
		w := do(newTestRouter(svc), http.MethodPost, "/api/forecasts", tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.body, tc.want, w.Code)
		}
		if tc.want == http.StatusBadRequest && svc.forecasts != 0 {
			t.Errorf("%s: expected no forecast for rejected request", tc.body)
		}
	}
}

func TestGenerateForecast_InternalError(t *testing.T) {
	svc := &fakeAnalytics{err: errors.New("redis: connection refused")}

	w := do(newTestRouter(svc), http.MethodPost, "/api/forecasts", `{"horizon":6}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("failed to generate forecast")) {
		t.Errorf("expected opaque error, got %s", w.Body.String())
	}
}

func TestDashboard_SegmentParam(t *testing.T) {
	svc := &fakeAnalytics{}
	router := newTestRouter(svc)

	if w := do(router, http.MethodGet, "/api/dashboard/kpis?segment=7", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.segment == nil || *svc.segment != 7 {
		t.Errorf("expected segment 7 passed through")
	}

	if w := do(router, http.MethodGet, "/api/dashboard/trends?months=24", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.segment != nil || svc.months != 24 {
		t.Errorf("expected all segments and 24 months, got %v %d", svc.segment, svc.months)
	}

	for _, path := range []string{
		"/api/dashboard/alerts?segment=abc",
		"/api/dashboard/recommendations?segment=-1",
		"/api/forecasts/accuracy?segment=0",
		"/api/dashboard/trends?months=many",
	} {
		if w := do(router, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	if w := do(newTestRouter(&fakeAnalytics{}), http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewHandler(&fakeAnalytics{}, fakePinger{err: errors.New("down")}, logger)
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestListSegments(t *testing.T) {
	w := do(newTestRouter(&fakeAnalytics{}), http.MethodGet, "/api/segments", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var segments []models.Segment
	if err := json.NewDecoder(w.Body).Decode(&segments); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(segments) != 1 || segments[0].Name != "Retail" {
		t.Errorf("unexpected segments %+v", segments)
	}
}
