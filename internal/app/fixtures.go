package app

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"capstone/internal/domain"
)

var fixtureCities = []domain.Location{
	{ID: 1, City: "Durham", State: "NC", Zipcode: 27701},
	{ID: 2, City: "Durham", State: "NC", Zipcode: 27705},
	{ID: 3, City: "Chapel Hill", State: "NC", Zipcode: 27514},
	{ID: 4, City: "Raleigh", State: "NC", Zipcode: 27601},
	{ID: 5, City: "Cary", State: "NC", Zipcode: 27511},
	{ID: 6, City: "Asheville", State: "NC", Zipcode: 28801},
	{ID: 7, City: "Charlotte", State: "NC", Zipcode: 28202},
	{ID: 8, City: "Wilmington", State: "NC", Zipcode: 28401},
}

// GenerateFixture builds a deterministic capstone dataset with n watershed
// properties. Every location/type pair in use gets exactly one short-term
// comparable and one price row, so the reports have one row per watershed
// property. The last comparable has no rentals inside occupancyYear.
func GenerateFixture(n int, seed int64, occupancyYear int) domain.Fixture {
	rng := rand.New(rand.NewSource(seed))
	var f domain.Fixture

	f.Locations = append(f.Locations, fixtureCities...)

	id := int64(1)
	for _, kind := range []string{"apartment", "house"} {
		for beds := 0; beds <= 3; beds++ {
			if kind == "house" && beds == 0 {
				continue
			}
			f.PropertyTypes = append(f.PropertyTypes, domain.PropertyType{
				ID: id, AptHouse: kind, NumBedrooms: beds, Kitchen: beds > 0, Shared: beds == 0,
			})
			id++
		}
	}

	type pair struct{ loc, typ int64 }
	used := map[pair]bool{}
	var order []pair
	for i := 0; i < n; i++ {
		loc := f.Locations[rng.Intn(len(f.Locations))]
		pt := f.PropertyTypes[rng.Intn(len(f.PropertyTypes))]
		p := pair{loc.ID, pt.ID}
		if !used[p] {
			used[p] = true
			order = append(order, p)
		}
		rent := 700 + 350*float64(pt.NumBedrooms) + float64(rng.Intn(400))
		f.Watershed = append(f.Watershed, domain.WatershedProperty{
			ID:                 int64(i + 1),
			LocationID:         loc.ID,
			PropertyTypeID:     pt.ID,
			CurrentMonthlyRent: rent,
		})
	}

	yearStart := time.Date(occupancyYear, 1, 1, 0, 0, 0, 0, time.UTC)
	days := domain.DaysInYear(occupancyYear)
	for i, p := range order {
		stID := fmt.Sprintf("st%04d", i+1)
		f.STProperties = append(f.STProperties, domain.STProperty{ID: stID, LocationID: p.loc, PropertyTypeID: p.typ})

		p10 := 40 + float64(rng.Intn(60))
		p90 := p10 + 60 + float64(rng.Intn(120))
		sample := math.Round((p10+(p90-p10)*rng.Float64())*100) / 100
		f.Prices = append(f.Prices, domain.STRentalPrice{
			LocationID: p.loc, PropertyTypeID: p.typ,
			Percentile10thPrice: p10, Percentile90thPrice: p90, SampleNightlyRentPrice: sample,
		})

		// a few rentals on each side of the year so the date filter matters
		f.RentalDates = append(f.RentalDates,
			domain.STRentalDate{STPropertyID: stID, RentalDate: yearStart.AddDate(0, 0, -1-rng.Intn(30))},
			domain.STRentalDate{STPropertyID: stID, RentalDate: yearStart.AddDate(1, 0, rng.Intn(30))},
		)
		if i == len(order)-1 {
			continue
		}
		rented := 1 + rng.Intn(days)
		for _, d := range rng.Perm(days)[:rented] {
			f.RentalDates = append(f.RentalDates, domain.STRentalDate{STPropertyID: stID, RentalDate: yearStart.AddDate(0, 0, d)})
		}
	}
	return f
}

// FixtureService loads a generated dataset through a FixtureWriter.
type FixtureService struct {
	w domain.FixtureWriter
}

func NewFixtureService(w domain.FixtureWriter) *FixtureService {
	return &FixtureService{w: w}
}

// LoadReference writes the parent tables; rental dates go through LoadRentalDates
// so callers can fan them out.
func (s *FixtureService) LoadReference(ctx context.Context, f domain.Fixture) error {
	if err := s.w.UpsertLocations(ctx, f.Locations); err != nil {
		return fmt.Errorf("locations: %w", err)
	}
	if err := s.w.UpsertPropertyTypes(ctx, f.PropertyTypes); err != nil {
		return fmt.Errorf("property types: %w", err)
	}
	if err := s.w.UpsertWatershed(ctx, f.Watershed); err != nil {
		return fmt.Errorf("watershed properties: %w", err)
	}
	if err := s.w.UpsertSTProperties(ctx, f.STProperties); err != nil {
		return fmt.Errorf("short-term properties: %w", err)
	}
	if err := s.w.UpsertPrices(ctx, f.Prices); err != nil {
		return fmt.Errorf("prices: %w", err)
	}
	log.Info().
		Int("locations", len(f.Locations)).
		Int("property_types", len(f.PropertyTypes)).
		Int("watershed", len(f.Watershed)).
		Int("st_properties", len(f.STProperties)).
		Msg("reference data loaded")
	return nil
}

func (s *FixtureService) LoadRentalDates(ctx context.Context, ds []domain.STRentalDate) error {
	return s.w.InsertRentalDates(ctx, ds)
}

// Load writes everything sequentially.
func (s *FixtureService) Load(ctx context.Context, f domain.Fixture) error {
	if err := s.LoadReference(ctx, f); err != nil {
		return err
	}
	return s.LoadRentalDates(ctx, f.RentalDates)
}

// RentalDatesByProperty groups rental dates per short-term property, in fixture order.
func RentalDatesByProperty(f domain.Fixture) [][]domain.STRentalDate {
	idx := make(map[string]int, len(f.STProperties))
	out := make([][]domain.STRentalDate, 0, len(f.STProperties))
	for _, st := range f.STProperties {
		idx[st.ID] = len(out)
		out = append(out, nil)
	}
	for _, d := range f.RentalDates {
		i, ok := idx[d.STPropertyID]
		if !ok {
			continue
		}
		out[i] = append(out[i], d)
	}
	return out
}
