package app

import (
	"context"
	"fmt"

	"capstone/internal/domain"
)

type ExplorerService struct {
	store       domain.Store
	sampleLimit int
}

func NewExplorerService(s domain.Store, sampleLimit int) *ExplorerService {
	if sampleLimit <= 0 {
		sampleLimit = 10
	}
	return &ExplorerService{store: s, sampleLimit: sampleLimit}
}

func (s *ExplorerService) Tables(ctx context.Context) ([]string, error) {
	return s.store.ShowTables(ctx)
}

func (s *ExplorerService) Describe(ctx context.Context, table string) ([]domain.Column, error) {
	return s.store.DescribeTable(ctx, table)
}

// Sample returns up to limit rows of table; limit <= 0 uses the configured default.
func (s *ExplorerService) Sample(ctx context.Context, table string, limit int) (domain.ResultSet, error) {
	if limit <= 0 {
		limit = s.sampleLimit
	}
	return s.store.SampleRows(ctx, table, limit)
}

// TableInfo is one table of the schema walk.
type TableInfo struct {
	Name    string          `json:"name"`
	Columns []domain.Column `json:"columns"`
}

// Schema describes every table, in ShowTables order.
func (s *ExplorerService) Schema(ctx context.Context) ([]TableInfo, error) {
	names, err := s.store.ShowTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TableInfo, 0, len(names))
	for _, n := range names {
		cols, err := s.store.DescribeTable(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", n, err)
		}
		out = append(out, TableInfo{Name: n, Columns: cols})
	}
	return out, nil
}

// Query runs one read-only statement.
func (s *ExplorerService) Query(ctx context.Context, sqlText string, args ...any) (domain.ResultSet, error) {
	stmt, err := readOnlyStatement(sqlText)
	if err != nil {
		return domain.ResultSet{}, err
	}
	return s.store.RunQuery(ctx, stmt, args...)
}
