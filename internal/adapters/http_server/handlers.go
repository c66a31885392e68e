package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"capstone/internal/app"
	"capstone/internal/domain"
	"capstone/internal/export"
)

type Handlers struct {
	Explorer *app.ExplorerService
	Reports  *app.ReportService
	Year     int // default for /v1/reports/comparables
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type queryRequest struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args,omitempty"`
}

// MountHandlers registers the API routes. A nil queryLimit leaves /v1/query unthrottled.
func (s *Server) MountHandlers(h *Handlers, queryLimit func(http.Handler) http.Handler) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/tables", h.listTables)
		r.Get("/tables/{name}", h.describeTable)
		r.Get("/tables/{name}/sample", h.sampleTable)
		r.Get("/reports/base", h.baseReport)
		r.Get("/reports/comparables", h.comparablesReport)
		if queryLimit != nil {
			r.With(queryLimit).Post("/query", h.runQuery)
		} else {
			r.Post("/query", h.runQuery)
		}
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrQuery):
		writeProblem(w, http.StatusBadRequest, "Bad Query", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// writeReport honours ?format=csv|xlsx and falls back to JSON rows.
func writeReport(w http.ResponseWriter, r *http.Request, name string, rows any, rs func() domain.ResultSet) {
	fs := r.URL.Query().Get("format")
	if fs == "" || fs == "json" {
		writeJSON(w, r, rows)
		return
	}
	f, err := export.ParseFormat(fs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, f))
	if err := export.Write(w, f, rs()); err != nil {
		log.Error().Err(err).Str("report", name).Msg("failed to stream report")
	}
}

func (h *Handlers) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.Explorer.Tables(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"tables": tables})
}

func (h *Handlers) describeTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cols, err := h.Explorer.Describe(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, app.TableInfo{Name: name, Columns: cols})
}

func (h *Handlers) sampleTable(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 1000 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 1000")
			return
		}
		limit = l
	}
	rs, err := h.Explorer.Sample(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, rs)
}

func (h *Handlers) baseReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.Base(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReport(w, r, "base_report", rows, func() domain.ResultSet { return domain.BaseResultSet(rows) })
}

func (h *Handlers) comparablesReport(w http.ResponseWriter, r *http.Request) {
	year := h.Year
	if ys := r.URL.Query().Get("year"); ys != "" {
		y, err := strconv.Atoi(ys)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid year", "year must be an integer")
			return
		}
		year = y
	}
	rows, err := h.Reports.Comparables(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("comparables_%d", year)
	writeReport(w, r, name, rows, func() domain.ResultSet { return domain.ComparableResultSet(rows) })
}

func (h *Handlers) runQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", `expected {"sql": "...", "args": [...]}`)
		return
	}
	rs, err := h.Explorer.Query(r.Context(), req.SQL, req.Args...)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, rs)
}
