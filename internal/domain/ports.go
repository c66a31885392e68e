package domain

import "context"

type Store interface {
	// Introspection
	ShowTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, name string) ([]Column, error)
	SampleRows(ctx context.Context, name string, limit int) (ResultSet, error)

	// Read paths
	RunQuery(ctx context.Context, sqlText string, args ...any) (ResultSet, error)
	BaseReport(ctx context.Context) ([]BaseRow, error)
	ComparablesReport(ctx context.Context, year int) ([]ComparableRow, error)
}

// FixtureWriter loads a capstone dataset. Used by the seeder and tests only.
type FixtureWriter interface {
	ApplySchema(ctx context.Context, statements []string) error
	UpsertLocations(ctx context.Context, ls []Location) error
	UpsertPropertyTypes(ctx context.Context, ps []PropertyType) error
	UpsertWatershed(ctx context.Context, ws []WatershedProperty) error
	UpsertSTProperties(ctx context.Context, sts []STProperty) error
	UpsertPrices(ctx context.Context, ps []STRentalPrice) error
	InsertRentalDates(ctx context.Context, ds []STRentalDate) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Exporter writes a result set under a base name (no extension) and returns the path written.
type Exporter interface {
	Export(name string, rs ResultSet) (string, error)
}
