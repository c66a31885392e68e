package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capstone/internal/app"
	"capstone/internal/domain"
	"capstone/internal/export"
	"capstone/internal/shared"
)

type stubStore struct{ lastSQL string }

func (s *stubStore) ShowTables(ctx context.Context) ([]string, error) {
	return []string{"location", "property_type"}, nil
}

func (s *stubStore) DescribeTable(ctx context.Context, name string) ([]domain.Column, error) {
	def := "0"
	return []domain.Column{
		{Name: "location_id", Type: "int", Key: "PRI", Extra: "auto_increment"},
		{Name: "zipcode", Type: "int", Nullable: true, Default: &def},
	}, nil
}

func (s *stubStore) SampleRows(ctx context.Context, name string, limit int) (domain.ResultSet, error) {
	return domain.ResultSet{Columns: []string{"location_id", "city"}, Rows: []domain.Row{
		{"location_id": int64(1), "city": "Durham"},
		{"location_id": int64(2), "city": nil},
	}[:min(limit, 2)]}, nil
}

func (s *stubStore) RunQuery(ctx context.Context, q string, args ...any) (domain.ResultSet, error) {
	s.lastSQL = q
	return domain.ResultSet{Columns: []string{"n"}, Rows: []domain.Row{{"n": int64(244)}}}, nil
}

func (s *stubStore) BaseReport(ctx context.Context) ([]domain.BaseRow, error) {
	return []domain.BaseRow{{WSPropertyID: 1}, {WSPropertyID: 2}}, nil
}

func (s *stubStore) ComparablesReport(ctx context.Context, year int) ([]domain.ComparableRow, error) {
	occ := 0.5
	return []domain.ComparableRow{{BaseRow: domain.BaseRow{WSPropertyID: 1}, OccupancyRate: &occ}}, nil
}

func runStub(t *testing.T, args ...string) (string, *stubStore, string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := shared.Config{Year: 2015, SampleLimit: 10, ExpectedRows: 2}
	st := &stubStore{}
	var out bytes.Buffer
	err := dispatch(context.Background(), cfg, args, &out,
		app.NewExplorerService(st, cfg.SampleLimit),
		app.NewReportService(st, nil, time.Minute),
		export.NewFileExporter(dir, export.CSV))
	return out.String(), st, dir, err
}

func TestDispatch_Tables(t *testing.T) {
	out, _, _, err := runStub(t, "tables")
	require.NoError(t, err)
	assert.Equal(t, "location\nproperty_type\n", out)
}

func TestDispatch_Desc(t *testing.T) {
	out, _, _, err := runStub(t, "desc", "location")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Field"))
	assert.Contains(t, lines[1], "NULL")
	assert.Contains(t, lines[2], "YES")

	_, _, _, err = runStub(t, "desc")
	assert.True(t, errors.Is(err, domain.ErrQuery))
}

func TestDispatch_SampleAndQuery(t *testing.T) {
	out, _, _, err := runStub(t, "sample", "location", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Durham")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")

	out, st, _, err := runStub(t, "query", "SELECT", "COUNT(*)", "AS", "n", "FROM", "watershed_property_info;")
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS n FROM watershed_property_info", st.lastSQL)
	assert.Contains(t, out, "244")

	_, _, _, err = runStub(t, "query", "DELETE", "FROM", "location")
	assert.True(t, errors.Is(err, domain.ErrQuery))
}

func TestDispatch_ReportAndWorkflow(t *testing.T) {
	out, _, dir, err := runStub(t, "report", "comparables", "2016")
	require.NoError(t, err)
	assert.Contains(t, out, "comparables_2016.csv")
	_, err = os.Stat(filepath.Join(dir, "comparables_2016.csv"))
	require.NoError(t, err)

	out, _, dir, err = runStub(t)
	require.NoError(t, err)
	assert.Contains(t, out, "base rows: 2")
	for _, f := range []string{"base_report.csv", "comparables_2015.csv"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}

	_, _, _, err = runStub(t, "report", "weekly")
	assert.True(t, errors.Is(err, domain.ErrQuery))
	_, _, _, err = runStub(t, "nope")
	assert.True(t, errors.Is(err, domain.ErrQuery))
}
