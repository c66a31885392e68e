package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"capstone/internal/adapters/observability"
)

func routedWith(mw func(http.Handler) http.Handler) http.Handler {
	m := chi.NewRouter()
	m.Use(chimw.RequestID)
	m.Use(mw)
	m.Get("/v1/tables/{name}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") != "location" {
			writeProblem(w, http.StatusNotFound, "Not Found", "no such table")
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return m
}

func TestLogger_FieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	h := routedWith(Logger(zerolog.New(&buf)))

	req := httptest.NewRequest(http.MethodGet, "/v1/tables/ghost?format=csv", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	want := map[string]any{
		"level":      "warn",
		"request_id": "req-42",
		"route":      "/v1/tables/{name}",
		"table":      "ghost",
		"format":     "csv",
		"status":     float64(404),
		"message":    "http_request",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("%s = %v, want %v", k, line[k], v)
		}
	}

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tables/location", nil))
	if !strings.Contains(buf.String(), `"level":"info"`) || !strings.Contains(buf.String(), `"bytes":2`) {
		t.Fatalf("unexpected log line: %s", buf.String())
	}
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	reg := observability.InitRegistry()
	h := routedWith(Metrics)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tables/location", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tables/region", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/at/all", nil))

	rec := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, s := range []string{
		`capstone_http_requests_total{method="GET",route="/v1/tables/{name}",status="200"}`,
		`capstone_http_requests_total{method="GET",route="/v1/tables/{name}",status="404"}`,
		`capstone_http_requests_total{method="GET",route="unmatched",status="404"}`,
	} {
		if !strings.Contains(body, s) {
			t.Errorf("metrics missing %s", s)
		}
	}
	if strings.Contains(body, "/v1/tables/region") || strings.Contains(body, "/nowhere") {
		t.Fatalf("raw paths leaked into labels:\n%s", body)
	}
}
