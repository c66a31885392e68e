package sqldb

import (
	"context"
	"database/sql"
	"time"

	"capstone/internal/adapters/observability"
	"capstone/internal/domain"
)

func (r *Runner) BaseReport(ctx context.Context) (out []domain.BaseRow, err error) {
	start := time.Now()
	defer func() { observability.ObserveQuery("report_base", len(out), err, time.Since(start)) }()

	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(baseReportSQL))
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer rows.Close()

	out = []domain.BaseRow{}
	for rows.Next() {
		var br domain.BaseRow
		if err := rows.Scan(baseDest(&br)...); err != nil {
			return nil, classify(ctx, err)
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

// ComparablesReport joins each watershed property with its short-term comparables
// and their occupancy rate over the calendar year.
func (r *Runner) ComparablesReport(ctx context.Context, year int) (out []domain.ComparableRow, err error) {
	start := time.Now()
	defer func() { observability.ObserveQuery("report_comparables", len(out), err, time.Since(start)) }()

	ctx, cancel := r.bound(ctx)
	defer cancel()

	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	days := domain.DaysInYear(year)

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(comparablesReportSQL), days, from, to)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer rows.Close()

	out = []domain.ComparableRow{}
	for rows.Next() {
		var (
			cr        domain.ComparableRow
			stID      sql.NullString
			firstDate sql.NullTime
			rented    sql.NullInt64
			occ       sql.NullFloat64
		)
		dest := append(baseDest(&cr.BaseRow), &stID, &firstDate, &rented, &occ)
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(ctx, err)
		}
		if stID.Valid {
			s := stID.String
			cr.STPropertyID = &s
		}
		if firstDate.Valid {
			t := firstDate.Time
			cr.RentalDate = &t
		}
		cr.RentedDays = int(rented.Int64)
		if occ.Valid {
			// recomputed in Go so the value does not depend on the server's DECIMAL scale
			o := domain.OccupancyRate(cr.RentedDays, days)
			cr.OccupancyRate = &o
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

func baseDest(br *domain.BaseRow) []any {
	return []any{
		&br.WSPropertyID,
		&br.LocationID,
		&br.City,
		&br.State,
		&br.Zipcode,
		&br.AptHouse,
		&br.NumBedrooms,
		&br.Kitchen,
		&br.Shared,
		&br.CurrentMonthlyRent,
		&br.Percentile10thPrice,
		&br.Percentile90thPrice,
		&br.SampleNightlyRentPrice,
	}
}
