package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"capstone/internal/domain"
)

type ReportService struct {
	repo     domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
}

// NewReportService wires a store and an optional cache (nil disables caching).
func NewReportService(r domain.Store, c domain.Cache, ttl time.Duration) *ReportService {
	return &ReportService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *ReportService) Base(ctx context.Context) ([]domain.BaseRow, error) {
	key := "report:base"
	var out []domain.BaseRow
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	rows, err := s.repo.BaseReport(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *ReportService) Comparables(ctx context.Context, year int) ([]domain.ComparableRow, error) {
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrQuery, year)
	}
	key := fmt.Sprintf("report:comparables:%d", year)
	var out []domain.ComparableRow
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	rows, err := s.repo.ComparablesReport(ctx, year)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// Invalidate drops the cached reports for the given years (and the base report).
func (s *ReportService) Invalidate(ctx context.Context, years ...int) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, "report:base")
	for _, y := range years {
		_ = s.cache.Del(ctx, fmt.Sprintf("report:comparables:%d", y))
	}
}

func (s *ReportService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	return ok && err == nil
}

func (s *ReportService) store(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	_ = s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds()))
}

// Summarize counts rows, distinct watershed ids and the occupancy range.
func Summarize(rows []domain.ComparableRow) domain.ReportSummary {
	sum := domain.ReportSummary{Rows: len(rows)}
	seen := make(map[int64]int, len(rows))
	first := true
	for _, r := range rows {
		seen[r.WSPropertyID]++
		if r.OccupancyRate == nil {
			sum.NoComparable++
			continue
		}
		o := *r.OccupancyRate
		if o == 0 {
			sum.ZeroOccupancy++
		}
		if first || o < sum.MinOccupancy {
			sum.MinOccupancy = o
		}
		if first || o > sum.MaxOccupancy {
			sum.MaxOccupancy = o
		}
		first = false
	}
	sum.DistinctWS = len(seen)
	for id, n := range seen {
		if n > 1 {
			sum.DuplicateWS = append(sum.DuplicateWS, id)
		}
	}
	sort.Slice(sum.DuplicateWS, func(i, j int) bool { return sum.DuplicateWS[i] < sum.DuplicateWS[j] })
	return sum
}
