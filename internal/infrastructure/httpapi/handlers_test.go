package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FeedNotifier/internal/infrastructure/miniflux"
	"FeedNotifier/internal/pipeline"
)

type stubHistory struct {
	report  pipeline.Report
	has     bool
	skipped int
}

func (s stubHistory) LastReport() (pipeline.Report, bool) { return s.report, s.has }
func (s stubHistory) Skipped() int                        { return s.skipped }

type stubWatermark struct{ w miniflux.Watermark }

func (s stubWatermark) Watermark() miniflux.Watermark { return s.w }

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	NewRouter(h, nil).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewHandler(Info{Version: "1.2.3"}, nil, nil), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "1.2.3" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStatusReportsLastRunAndWatermark(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	history := stubHistory{
		report:  pipeline.Report{RunID: "run-7", Status: pipeline.StatusFailed, Error: "stage router: no eligible channels"},
		has:     true,
		skipped: 2,
	}
	h := NewHandler(Info{Interval: time.Minute, Stages: []string{"enrich", "router"}}, history, stubWatermark{w: miniflux.WatermarkAt(at)})

	rec := serve(t, h, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Interval != "1m0s" || body.SkippedRuns != 2 {
		t.Fatalf("unexpected schedule fields: %+v", body)
	}
	if body.Watermark == nil || !body.Watermark.Equal(at) {
		t.Fatalf("unexpected watermark: %v", body.Watermark)
	}
	if body.LastRun == nil || body.LastRun.RunID != "run-7" || body.LastRun.Status != pipeline.StatusFailed {
		t.Fatalf("unexpected last run: %+v", body.LastRun)
	}
}

func TestStatusBeforeFirstRun(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewHandler(Info{}, stubHistory{}, stubWatermark{}), "/status")

	var body statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.LastRun != nil || body.Watermark != nil {
		t.Fatalf("expected empty status, got %+v", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	if rec := serve(t, NewHandler(Info{}, nil, nil), "/runs"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
