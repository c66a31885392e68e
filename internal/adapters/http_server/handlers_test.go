package httpserver

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"capstone/internal/app"
	"capstone/internal/domain"
	"capstone/internal/export"
)

type stubStore struct {
	err error
}

func (s *stubStore) ShowTables(ctx context.Context) ([]string, error) {
	return append([]string(nil), domain.CapstoneTables...), s.err
}

func (s *stubStore) DescribeTable(ctx context.Context, name string) ([]domain.Column, error) {
	if name != "location" {
		return nil, fmt.Errorf("%w: table %s", domain.ErrNotFound, name)
	}
	return []domain.Column{{Name: "location_id", Type: "int", Key: "PRI"}, {Name: "city"}, {Name: "state"}, {Name: "zipcode"}}, nil
}

func (s *stubStore) SampleRows(ctx context.Context, name string, limit int) (domain.ResultSet, error) {
	rs := domain.ResultSet{Columns: []string{"location_id"}}
	for i := 1; i <= limit; i++ {
		rs.Rows = append(rs.Rows, domain.Row{"location_id": int64(i)})
	}
	return rs, nil
}

func (s *stubStore) RunQuery(ctx context.Context, q string, args ...any) (domain.ResultSet, error) {
	return domain.ResultSet{Columns: []string{"n"}, Rows: []domain.Row{{"n": float64(len(args))}}}, s.err
}

func (s *stubStore) BaseReport(ctx context.Context) ([]domain.BaseRow, error) {
	return []domain.BaseRow{{WSPropertyID: 1, City: "Durham"}}, s.err
}

func (s *stubStore) ComparablesReport(ctx context.Context, year int) ([]domain.ComparableRow, error) {
	occ := float64(year-2000) / 100
	st := "st0001"
	return []domain.ComparableRow{{BaseRow: domain.BaseRow{WSPropertyID: 1}, STPropertyID: &st, OccupancyRate: &occ}}, s.err
}

func newTestServer(st domain.Store, limiter *rate.Limiter) http.Handler {
	s := New(5 * time.Second)
	var mw func(http.Handler) http.Handler
	if limiter != nil {
		mw = RateLimit(limiter)
	}
	s.MountHandlers(&Handlers{
		Explorer: app.NewExplorerService(st, 10),
		Reports:  app.NewReportService(st, nil, time.Minute),
		Year:     2015,
	}, mw)
	return s.Mux()
}

func do(t *testing.T, h http.Handler, method, target string, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTablesAndDescribe(t *testing.T) {
	h := newTestServer(&stubStore{}, nil)

	rec := do(t, h, http.MethodGet, "/v1/tables", "")
	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var tables struct{ Tables []string }
	if err := json.Unmarshal(rec.Body.Bytes(), &tables); err != nil || len(tables.Tables) != 6 {
		t.Fatalf("unexpected body %s (%v)", rec.Body, err)
	}

	rec = do(t, h, http.MethodGet, "/v1/tables/location", "")
	var info app.TableInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(info.Columns) != 4 || info.Columns[0].Name != "location_id" || info.Columns[3].Name != "zipcode" {
		t.Fatalf("unexpected columns: %+v", info.Columns)
	}

	rec = do(t, h, http.MethodGet, "/v1/tables/nope", "")
	if rec.Code != http.StatusNotFound || rec.Header().Get("Content-Type") != "application/problem+json" {
		t.Fatalf("expected 404 problem, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestETagNotModified(t *testing.T) {
	h := newTestServer(&stubStore{}, nil)
	first := do(t, h, http.MethodGet, "/v1/reports/base", "")
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	second := do(t, h, http.MethodGet, "/v1/reports/base", "", "If-None-Match", etag)
	if second.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", second.Code)
	}
}

func TestSampleLimitValidation(t *testing.T) {
	h := newTestServer(&stubStore{}, nil)
	if rec := do(t, h, http.MethodGet, "/v1/tables/location/sample?limit=abc", ""); rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/v1/tables/location/sample?limit=3", "")
	var rs domain.ResultSet
	if err := json.Unmarshal(rec.Body.Bytes(), &rs); err != nil || rs.Len() != 3 {
		t.Fatalf("expected 3 rows, got %s (%v)", rec.Body, err)
	}
	rec = do(t, h, http.MethodGet, "/v1/tables/location/sample", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &rs); err != nil || rs.Len() != 10 {
		t.Fatalf("expected default 10 rows, got %d (%v)", rs.Len(), err)
	}
}

func TestComparablesFormats(t *testing.T) {
	h := newTestServer(&stubStore{}, nil)

	rec := do(t, h, http.MethodGet, "/v1/reports/comparables?year=2016", "")
	var rows []domain.ComparableRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || *rows[0].OccupancyRate != 0.16 {
		t.Fatalf("unexpected rows: %s", rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/v1/reports/comparables?format=csv", "")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "comparables_2015.csv") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	recs, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil || len(recs) != 2 || len(recs[0]) != len(domain.ComparableColumns) {
		t.Fatalf("unexpected csv %v (%v)", recs, err)
	}

	rec = do(t, h, http.MethodGet, "/v1/reports/base?format=xlsx", "")
	got, err := export.ReadXLSX(bytes.NewReader(rec.Body.Bytes()))
	if err != nil || len(got) != 2 || got[1][2] != "Durham" {
		t.Fatalf("unexpected xlsx %v (%v)", got, err)
	}

	if rec := do(t, h, http.MethodGet, "/v1/reports/base?format=pdf", ""); rec.Code != 400 {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/reports/comparables?year=20x", ""); rec.Code != 400 {
		t.Fatalf("expected 400 for bad year, got %d", rec.Code)
	}
}

func TestQueryEndpoint(t *testing.T) {
	h := newTestServer(&stubStore{}, nil)

	rec := do(t, h, http.MethodPost, "/v1/query", `{"sql":"SELECT * FROM location WHERE city = ?","args":["Durham"]}`)
	if rec.Code != 200 {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var rs domain.ResultSet
	if err := json.Unmarshal(rec.Body.Bytes(), &rs); err != nil || rs.Rows[0]["n"] != 1.0 {
		t.Fatalf("unexpected body %s", rec.Body)
	}

	if rec := do(t, h, http.MethodPost, "/v1/query", `{"sql":"DROP TABLE location"}`); rec.Code != 400 {
		t.Fatalf("expected 400 for write statement, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/v1/query", `not json`); rec.Code != 400 {
		t.Fatalf("expected 400 for bad body, got %d", rec.Code)
	}
}

func TestQueryRateLimit(t *testing.T) {
	h := newTestServer(&stubStore{}, rate.NewLimiter(rate.Every(time.Hour), 1))
	body := `{"sql":"SELECT 1"}`
	if rec := do(t, h, http.MethodPost, "/v1/query", body); rec.Code != 200 {
		t.Fatalf("first call should pass, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/v1/query", body)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	// other routes are not limited
	if rec := do(t, h, http.MethodGet, "/v1/tables", ""); rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	h := newTestServer(&stubStore{err: fmt.Errorf("%w: dial tcp", domain.ErrConnection)}, nil)
	rec := do(t, h, http.MethodGet, "/v1/tables", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "dial tcp") {
		t.Fatalf("internal detail leaked: %s", rec.Body)
	}
}
