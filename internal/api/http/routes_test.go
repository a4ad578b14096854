package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/commodity-weather-forecast/internal/forecast"
	"github.com/i474232898/commodity-weather-forecast/internal/metrics"
	"github.com/i474232898/commodity-weather-forecast/internal/pipeline"
	"github.com/i474232898/commodity-weather-forecast/internal/series"
	"github.com/i474232898/commodity-weather-forecast/internal/store"
)

type stubRunner struct {
	tasks []string
	err   error
}

func (r *stubRunner) Run(ctx context.Context, task string) (pipeline.Report, error) {
	r.tasks = append(r.tasks, task)
	return pipeline.Report{Task: task, RunID: "run-1"}, r.err
}

// flatOracle predicts the last observed value for every point.
type flatOracle struct {
	samples []forecast.Sample
}

func (o *flatOracle) Fit(samples []forecast.Sample) error {
	o.samples = samples
	return nil
}

func (o *flatOracle) Predict(horizon int) ([]forecast.Point, error) {
	last := o.samples[len(o.samples)-1]
	var out []forecast.Point
	for _, s := range o.samples {
		out = append(out, forecast.Point{Date: s.Timestamp, Yhat: last.Value, Lower: last.Value, Upper: last.Value})
	}
	for i := 1; i <= horizon; i++ {
		out = append(out, forecast.Point{Date: forecast.Daily.Next(last.Timestamp, i), Yhat: last.Value, Lower: last.Value, Upper: last.Value, Future: true})
	}
	return out, nil
}

func newTestDeps(t *testing.T) (Deps, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	adapter := forecast.NewAdapter(func() forecast.Oracle { return &flatOracle{} })
	return Deps{
		Store:          st,
		Forecaster:     forecast.NewService(st, adapter, time.Minute, nil),
		Runner:         &stubRunner{},
		DefaultHorizon: 90,
	}, st
}

func doJSON(t *testing.T, deps Deps, method, target string, out any) int {
	t.Helper()
	app := NewApp(deps, metrics.New().Handler())
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		body, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", target, err, body)
		}
	}
	return resp.StatusCode
}

func TestSeriesEndpoint(t *testing.T) {
	deps, st := newTestDeps(t)

	if code := doJSON(t, deps, http.MethodGet, "/api/v1/series/commodity_prices", nil); code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before first load", code)
	}
	if code := doJSON(t, deps, http.MethodGet, "/api/v1/series/coffee", nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown series", code)
	}

	st.Write(context.Background(), series.CommodityPrices, series.PriceFrame(series.Series{{Label: "1960M01", Value: 1.63}}))

	var body struct {
		Name    string          `json:"name"`
		Columns []series.Column `json:"columns"`
		Rows    [][]any         `json:"rows"`
	}
	if code := doJSON(t, deps, http.MethodGet, "/api/v1/series/commodity_prices", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Name != series.CommodityPrices || len(body.Rows) != 1 || body.Rows[0][0] != "1960M01" {
		t.Errorf("body = %+v", body)
	}
	if body.Columns[1].Name != "price" {
		t.Errorf("columns = %+v", body.Columns)
	}
}

func TestForecastEndpoint(t *testing.T) {
	deps, st := newTestDeps(t)

	if code := doJSON(t, deps, http.MethodGet, "/api/v1/forecast", nil); code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 before first load", code)
	}

	st.Write(context.Background(), series.CommodityPrices, series.PriceFrame(series.Series{
		{Label: "1960M01", Value: 1.0},
		{Label: "1960M02", Value: 2.0},
		{Label: "1960M03", Value: 3.0},
	}))

	var body struct {
		Horizon int              `json:"horizon"`
		Fitted  int              `json:"fitted"`
		Points  []forecast.Point `json:"points"`
	}
	if code := doJSON(t, deps, http.MethodGet, "/api/v1/forecast?horizon=5", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Horizon != 5 || body.Fitted != 3 || len(body.Points) != 8 {
		t.Errorf("horizon=%d fitted=%d points=%d", body.Horizon, body.Fitted, len(body.Points))
	}

	if code := doJSON(t, deps, http.MethodGet, "/api/v1/forecast?horizon=5&only_future=true", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(body.Points) != 5 {
		t.Errorf("future points = %d, want 5", len(body.Points))
	}
	for _, p := range body.Points {
		if !p.Future {
			t.Errorf("only_future returned historical point %+v", p)
		}
	}
}

// TestForecastHorizonValidation verifies that the forecast endpoint enforces
// the expected range for the `horizon` query parameter.
func TestForecastHorizonValidation(t *testing.T) {
	deps, _ := newTestDeps(t)

	for _, target := range []string{
		"/api/v1/forecast?horizon=0",
		"/api/v1/forecast?horizon=abc",
		"/api/v1/forecast?horizon=100000",
		"/api/v1/forecast?only_future=perhaps",
	} {
		if code := doJSON(t, deps, http.MethodGet, target, nil); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, code)
		}
	}
}

func TestRunsEndpoint(t *testing.T) {
	deps, _ := newTestDeps(t)
	runner := deps.Runner.(*stubRunner)

	var rep pipeline.Report
	if code := doJSON(t, deps, http.MethodPost, "/api/v1/runs/prices", &rep); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if rep.Task != "prices" || rep.RunID != "run-1" {
		t.Errorf("report = %+v", rep)
	}

	if code := doJSON(t, deps, http.MethodPost, "/api/v1/runs/coffee", nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}

	runner.err = errors.New("label missing")
	if code := doJSON(t, deps, http.MethodPost, "/api/v1/runs/weather", nil); code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", code)
	}
	if len(runner.tasks) != 2 {
		t.Errorf("tasks = %v", runner.tasks)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	deps, _ := newTestDeps(t)
	app := NewApp(deps, metrics.New().Handler())

	for _, target := range []string{"/health", "/metrics"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", target, resp.StatusCode)
		}
	}
}
