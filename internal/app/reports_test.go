package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"capstone/internal/app"
	"capstone/internal/domain"
)

func TestBase_CacheMissThenHit(t *testing.T) {
	st := &fakeStore{base: []domain.BaseRow{{WSPropertyID: 1, City: "Durham"}}}
	cache := &fakeCache{}
	svc := app.NewReportService(st, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	rows, err := svc.Base(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rows) != 1 || rows[0].City != "Durham" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	// Mutate store to ensure second read indeed comes from cache
	st.base[0].City = "SHOULD NOT SEE THIS"

	rows, err = svc.Base(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rows[0].City != "Durham" || st.baseCalls != 1 {
		t.Fatalf("expected cached row and one store call, got %+v / %d calls", rows, st.baseCalls)
	}
}

func TestComparables_CachedPerYear(t *testing.T) {
	st := &fakeStore{comp: []domain.ComparableRow{{BaseRow: domain.BaseRow{WSPropertyID: 7}, STPropertyID: pstr("st0001"), OccupancyRate: pfloat(0.25)}}}
	cache := &fakeCache{}
	svc := app.NewReportService(st, cache, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		rows, err := svc.Comparables(ctx, 2015)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if *rows[0].OccupancyRate != 0.25 {
			t.Fatalf("unexpected rows: %+v", rows)
		}
	}
	if st.compCalls != 1 {
		t.Fatalf("expected 1 store call for 2015, got %d", st.compCalls)
	}

	if _, err := svc.Comparables(ctx, 2016); err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.compCalls != 2 {
		t.Fatalf("expected a store call for 2016, got %d", st.compCalls)
	}

	svc.Invalidate(ctx, 2015)
	if _, err := svc.Comparables(ctx, 2015); err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.compCalls != 3 {
		t.Fatalf("expected invalidation to force a store call, got %d", st.compCalls)
	}
}

func TestComparables_NoCacheAndBadYear(t *testing.T) {
	st := &fakeStore{}
	svc := app.NewReportService(st, nil, time.Minute)

	if _, err := svc.Comparables(context.Background(), 15); !errors.Is(err, domain.ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
	_, _ = svc.Comparables(context.Background(), 2015)
	_, _ = svc.Comparables(context.Background(), 2015)
	if st.compCalls != 2 {
		t.Fatalf("nil cache should always hit the store, got %d calls", st.compCalls)
	}
}

func TestSummarize(t *testing.T) {
	rows := []domain.ComparableRow{
		{BaseRow: domain.BaseRow{WSPropertyID: 1}, OccupancyRate: pfloat(0.5)},
		{BaseRow: domain.BaseRow{WSPropertyID: 2}, OccupancyRate: pfloat(0)},
		{BaseRow: domain.BaseRow{WSPropertyID: 2}, OccupancyRate: pfloat(0.9)},
		{BaseRow: domain.BaseRow{WSPropertyID: 3}},
	}
	s := app.Summarize(rows)
	if s.Rows != 4 || s.DistinctWS != 3 || s.NoComparable != 1 || s.ZeroOccupancy != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if len(s.DuplicateWS) != 1 || s.DuplicateWS[0] != 2 {
		t.Fatalf("unexpected duplicates: %v", s.DuplicateWS)
	}
	if s.MinOccupancy != 0 || s.MaxOccupancy != 0.9 {
		t.Fatalf("unexpected range: %v..%v", s.MinOccupancy, s.MaxOccupancy)
	}
}
