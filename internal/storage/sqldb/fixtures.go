package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"capstone/internal/adapters/observability"
	"capstone/internal/domain"
)

// rows per multi-row INSERT; keeps placeholders well under MySQL's 65535 limit
const batchSize = 500

// ApplySchema runs DDL statements in order.
func (r *Runner) ApplySchema(ctx context.Context, statements []string) error {
	if err := r.mysqlOnly(); err != nil {
		return err
	}
	for _, st := range statements {
		if _, err := r.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("apply schema %q: %w", oneLine(st), classify(ctx, err))
		}
	}
	return nil
}

func (r *Runner) UpsertLocations(ctx context.Context, ls []domain.Location) error {
	return r.batchExec(ctx, "fixture_location", upsertLocationsPrefix, "(?,?,?,?)", upsertLocationsOnDup, len(ls),
		func(i int) []any { l := ls[i]; return []any{l.ID, l.City, l.State, l.Zipcode} })
}

func (r *Runner) UpsertPropertyTypes(ctx context.Context, ps []domain.PropertyType) error {
	return r.batchExec(ctx, "fixture_property_type", upsertPropertyTypesPrefix, "(?,?,?,?,?)", upsertPropertyTypesOnDup, len(ps),
		func(i int) []any {
			p := ps[i]
			return []any{p.ID, p.AptHouse, p.NumBedrooms, domain.YN(p.Kitchen), domain.YN(p.Shared)}
		})
}

func (r *Runner) UpsertWatershed(ctx context.Context, ws []domain.WatershedProperty) error {
	return r.batchExec(ctx, "fixture_watershed", upsertWatershedPrefix, "(?,?,?,?)", upsertWatershedOnDup, len(ws),
		func(i int) []any {
			w := ws[i]
			return []any{w.ID, w.LocationID, w.PropertyTypeID, w.CurrentMonthlyRent}
		})
}

func (r *Runner) UpsertSTProperties(ctx context.Context, sts []domain.STProperty) error {
	return r.batchExec(ctx, "fixture_st_property", upsertSTPropertiesPrefix, "(?,?,?)", upsertSTPropertiesOnDup, len(sts),
		func(i int) []any { s := sts[i]; return []any{s.ID, s.LocationID, s.PropertyTypeID} })
}

func (r *Runner) UpsertPrices(ctx context.Context, ps []domain.STRentalPrice) error {
	return r.batchExec(ctx, "fixture_price", upsertPricesPrefix, "(?,?,?,?,?)", upsertPricesOnDup, len(ps),
		func(i int) []any {
			p := ps[i]
			return []any{p.LocationID, p.PropertyTypeID, p.Percentile10thPrice, p.Percentile90thPrice, p.SampleNightlyRentPrice}
		})
}

func (r *Runner) InsertRentalDates(ctx context.Context, ds []domain.STRentalDate) error {
	return r.batchExec(ctx, "fixture_rental_date", insertRentalDatesPrefix, "(?,?)", "", len(ds),
		func(i int) []any { return []any{ds[i].RentalDate.Format("2006-01-02"), ds[i].STPropertyID} })
}

// batchExec writes n rows as chunked multi-row statements: prefix + (tuple),(tuple)... + suffix.
func (r *Runner) batchExec(ctx context.Context, kind, prefix, tuple, suffix string, n int, args func(i int) []any) (err error) {
	if err := r.mysqlOnly(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observability.ObserveQuery(kind, -1, err, time.Since(start)) }()

	for lo := 0; lo < n; lo += batchSize {
		hi := min(lo+batchSize, n)
		values := make([]string, 0, hi-lo)
		params := make([]any, 0, (hi-lo)*strings.Count(tuple, "?"))
		for i := lo; i < hi; i++ {
			values = append(values, tuple)
			params = append(params, args(i)...)
		}
		stmt := prefix + strings.Join(values, ",") + suffix
		if _, err := r.db.ExecContext(ctx, stmt, params...); err != nil {
			return fmt.Errorf("%s rows %d-%d: %w", kind, lo, hi-1, classify(ctx, err))
		}
	}
	return nil
}

func (r *Runner) mysqlOnly() error {
	if r.d.Name != MySQL.Name {
		return fmt.Errorf("%w: fixtures are only supported on mysql, not %s", domain.ErrQuery, r.d.Name)
	}
	return nil
}
