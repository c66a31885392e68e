package domain

import (
	"math"
	"time"
)

// BaseRow is one watershed property joined with its location, type and short-term prices.
type BaseRow struct {
	WSPropertyID           int64   `json:"ws_property_id"`
	LocationID             int64   `json:"location_id"`
	City                   string  `json:"city"`
	State                  string  `json:"state"`
	Zipcode                int     `json:"zipcode"`
	AptHouse               string  `json:"apt_house"`
	NumBedrooms            int     `json:"num_bedrooms"`
	Kitchen                string  `json:"kitchen"`
	Shared                 string  `json:"shared"`
	CurrentMonthlyRent     float64 `json:"current_monthly_rent"`
	Percentile10thPrice    float64 `json:"percentile_10th_price"`
	Percentile90thPrice    float64 `json:"percentile_90th_price"`
	SampleNightlyRentPrice float64 `json:"sample_nightly_rent_price"`
}

// ComparableRow extends BaseRow with the matched short-term property and its occupancy.
// STPropertyID and OccupancyRate are nil when no short-term property shares the
// location and property type.
type ComparableRow struct {
	BaseRow
	STPropertyID  *string    `json:"st_property_id"`
	RentalDate    *time.Time `json:"rental_date"`
	RentedDays    int        `json:"rented_days"`
	OccupancyRate *float64   `json:"occupancy_rate"`
}

var BaseColumns = []string{
	"ws_property_id", "location_id", "city", "state", "zipcode",
	"apt_house", "num_bedrooms", "kitchen", "shared",
	"current_monthly_rent",
	"percentile_10th_price", "percentile_90th_price", "sample_nightly_rent_price",
}

var ComparableColumns = append(append([]string(nil), BaseColumns...),
	"st_property_id", "rental_date", "rented_days", "occupancy_rate")

func (r BaseRow) values() []any {
	return []any{
		r.WSPropertyID, r.LocationID, r.City, r.State, r.Zipcode,
		r.AptHouse, r.NumBedrooms, r.Kitchen, r.Shared,
		r.CurrentMonthlyRent,
		r.Percentile10thPrice, r.Percentile90thPrice, r.SampleNightlyRentPrice,
	}
}

func (r ComparableRow) values() []any {
	var st, date, occ any
	if r.STPropertyID != nil {
		st = *r.STPropertyID
	}
	if r.RentalDate != nil {
		date = *r.RentalDate
	}
	if r.OccupancyRate != nil {
		occ = *r.OccupancyRate
	}
	return append(r.BaseRow.values(), st, date, r.RentedDays, occ)
}

func tabulate(cols []string, n int, row func(i int) []any) ResultSet {
	rs := ResultSet{Columns: cols, Rows: make([]Row, 0, n)}
	for i := 0; i < n; i++ {
		vals := row(i)
		m := make(Row, len(cols))
		for j, c := range cols {
			m[c] = vals[j]
		}
		rs.Rows = append(rs.Rows, m)
	}
	return rs
}

// BaseResultSet flattens base rows for export.
func BaseResultSet(rows []BaseRow) ResultSet {
	return tabulate(BaseColumns, len(rows), func(i int) []any { return rows[i].values() })
}

// ComparableResultSet flattens comparable rows for export.
func ComparableResultSet(rows []ComparableRow) ResultSet {
	return tabulate(ComparableColumns, len(rows), func(i int) []any { return rows[i].values() })
}

// DaysInYear is the occupancy denominator (365 for 2015).
func DaysInYear(year int) int {
	d := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC).Sub(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
	return int(d.Hours() / 24)
}

// OccupancyRate returns rented/days clamped to [0,1].
func OccupancyRate(rentedDays, daysInYear int) float64 {
	if daysInYear <= 0 || rentedDays <= 0 {
		return 0
	}
	return math.Min(1, float64(rentedDays)/float64(daysInYear))
}

// ReportSummary describes a comparables result for logging.
type ReportSummary struct {
	Rows          int
	DistinctWS    int
	DuplicateWS   []int64
	NoComparable  int
	ZeroOccupancy int
	MinOccupancy  float64
	MaxOccupancy  float64
}
