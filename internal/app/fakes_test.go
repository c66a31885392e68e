package app_test

import (
	"context"
	"encoding/json"
	"fmt"

	"capstone/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	tables  []string
	columns map[string][]domain.Column
	base    []domain.BaseRow
	comp    []domain.ComparableRow
	err     error

	baseCalls, compCalls int
	queries              []string
}

func (f *fakeStore) ShowTables(ctx context.Context) ([]string, error) { return f.tables, f.err }

func (f *fakeStore) DescribeTable(ctx context.Context, name string) ([]domain.Column, error) {
	cols, ok := f.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", domain.ErrNotFound, name)
	}
	return cols, nil
}

func (f *fakeStore) SampleRows(ctx context.Context, name string, limit int) (domain.ResultSet, error) {
	cols := domain.ColumnNames(f.columns[name])
	rs := domain.ResultSet{Columns: cols}
	for i := 0; i < limit && i < 3; i++ {
		rs.Rows = append(rs.Rows, domain.Row{})
	}
	return rs, nil
}

func (f *fakeStore) RunQuery(ctx context.Context, sqlText string, args ...any) (domain.ResultSet, error) {
	f.queries = append(f.queries, sqlText)
	return domain.ResultSet{Columns: []string{"n"}, Rows: []domain.Row{{"n": int64(1)}}}, f.err
}

func (f *fakeStore) BaseReport(ctx context.Context) ([]domain.BaseRow, error) {
	f.baseCalls++
	return f.base, f.err
}

func (f *fakeStore) ComparablesReport(ctx context.Context, year int) ([]domain.ComparableRow, error) {
	f.compCalls++
	return f.comp, f.err
}

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	c.store[key] = b
	return err
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type fakeExporter struct {
	written map[string]domain.ResultSet
	err     error
}

func (x *fakeExporter) Export(name string, rs domain.ResultSet) (string, error) {
	if x.err != nil {
		return "", x.err
	}
	if x.written == nil {
		x.written = map[string]domain.ResultSet{}
	}
	x.written[name] = rs
	return "out/" + name + ".csv", nil
}

func locationColumns() []domain.Column {
	return []domain.Column{{Name: "location_id", Key: "PRI"}, {Name: "city"}, {Name: "state"}, {Name: "zipcode"}}
}

func pfloat(f float64) *float64 { return &f }
func pstr(s string) *string     { return &s }
