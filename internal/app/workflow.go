package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"capstone/internal/domain"
)

// Workflow replays the exploration notebook: list the tables, describe and sample
// each one, then run and export the two reports. Steps run in order on one store
// and the first error ends the run.
type Workflow struct {
	explorer     *ExplorerService
	reports      *ReportService
	exporter     domain.Exporter
	year         int
	expectedRows int
}

func NewWorkflow(e *ExplorerService, r *ReportService, x domain.Exporter, year, expectedRows int) *Workflow {
	return &Workflow{explorer: e, reports: r, exporter: x, year: year, expectedRows: expectedRows}
}

type WorkflowResult struct {
	Tables           []TableInfo
	Samples          map[string]int // table -> sampled rows
	BaseRows         int
	ComparableRows   int
	Summary          domain.ReportSummary
	BaseExport       string
	ComparableExport string
}

func (w *Workflow) Run(ctx context.Context) (WorkflowResult, error) {
	var res WorkflowResult

	// 1) what is in the database
	schema, err := w.explorer.Schema(ctx)
	if err != nil {
		return res, fmt.Errorf("schema: %w", err)
	}
	res.Tables = schema
	for _, t := range schema {
		log.Info().Str("table", t.Name).Strs("columns", domain.ColumnNames(t.Columns)).Msg("desc")
	}

	// 2) a few rows of each table
	res.Samples = make(map[string]int, len(schema))
	for _, t := range schema {
		rs, err := w.explorer.Sample(ctx, t.Name, 0)
		if err != nil {
			return res, fmt.Errorf("sample %s: %w", t.Name, err)
		}
		res.Samples[t.Name] = rs.Len()
		log.Debug().Str("table", t.Name).Int("rows", rs.Len()).Msg("sample")
	}

	// 3) base join
	base, err := w.reports.Base(ctx)
	if err != nil {
		return res, fmt.Errorf("base report: %w", err)
	}
	res.BaseRows = len(base)
	if w.expectedRows > 0 && len(base) != w.expectedRows {
		log.Warn().Int("rows", len(base)).Int("expected", w.expectedRows).Msg("base report row count differs")
	}
	if res.BaseExport, err = w.exporter.Export("base_report", domain.BaseResultSet(base)); err != nil {
		return res, fmt.Errorf("export base report: %w", err)
	}
	log.Info().Int("rows", len(base)).Str("path", res.BaseExport).Msg("base report exported")

	// 4) comparables with occupancy
	comp, err := w.reports.Comparables(ctx, w.year)
	if err != nil {
		return res, fmt.Errorf("comparables report: %w", err)
	}
	res.ComparableRows = len(comp)
	res.Summary = Summarize(comp)
	if len(res.Summary.DuplicateWS) > 0 {
		log.Warn().Int("duplicates", len(res.Summary.DuplicateWS)).
			Msg("watershed properties matched more than one short-term comparable")
	}
	name := fmt.Sprintf("comparables_%d", w.year)
	if res.ComparableExport, err = w.exporter.Export(name, domain.ComparableResultSet(comp)); err != nil {
		return res, fmt.Errorf("export comparables report: %w", err)
	}
	log.Info().
		Int("rows", len(comp)).
		Int("distinct_ws", res.Summary.DistinctWS).
		Int("no_comparable", res.Summary.NoComparable).
		Int("zero_occupancy", res.Summary.ZeroOccupancy).
		Float64("min_occupancy", res.Summary.MinOccupancy).
		Float64("max_occupancy", res.Summary.MaxOccupancy).
		Str("path", res.ComparableExport).
		Msg("comparables report exported")

	return res, nil
}
