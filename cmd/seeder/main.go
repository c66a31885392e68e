// Command seeder creates the capstone schema and loads a deterministic
// synthetic dataset into a MySQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"capstone/internal/adapters/observability"
	redisad "capstone/internal/adapters/redis"
	"capstone/internal/app"
	"capstone/internal/shared"
	"capstone/internal/storage/sqldb"
	"capstone/migrations"
)

func main() {
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	observability.Serve(os.Getenv("SEED_METRICS_ADDR"), observability.InitRegistry())

	log.Info().
		Int("properties", cfg.SeedCount).
		Int("workers", cfg.SeedWorkers).
		Int64("seed", cfg.SeedRandom).
		Int("year", cfg.Year).
		Msg("seeder starting")

	runner, err := sqldb.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer runner.Close()

	stmts, err := migrations.Statements()
	if err != nil {
		log.Fatal().Err(err).Msg("load migrations failed")
	}
	if err := runner.ApplySchema(ctx, stmts); err != nil {
		log.Fatal().Err(err).Msg("apply schema failed")
	}
	log.Info().Int("statements", len(stmts)).Msg("schema ok")

	fixture := app.GenerateFixture(cfg.SeedCount, cfg.SeedRandom, cfg.Year)
	svc := app.NewFixtureService(runner)
	if err := svc.LoadReference(ctx, fixture); err != nil {
		log.Fatal().Err(err).Msg("load reference data failed")
	}

	sem := semaphore.NewWeighted(int64(max(1, cfg.SeedWorkers)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, dates := range app.RentalDatesByProperty(fixture) {
		if len(dates) == 0 {
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		dates := dates // per-iteration copy; module targets go 1.21 loop semantics
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			id := dates[0].STPropertyID
			if err := svc.LoadRentalDates(ctx, dates); err != nil {
				failed.Add(1)
				log.Warn().Str("st_property_id", id).Err(err).Msg("rental dates failed")
				return
			}
			log.Debug().Str("st_property_id", id).Int("dates", len(dates)).Msg("rental dates ok")
		}()
	}

	wg.Wait()
	if n := failed.Load(); n > 0 || ctx.Err() != nil {
		log.Fatal().Int32("failed", n).Msg("seeding incomplete")
	}
	log.Info().Int("watershed", len(fixture.Watershed)).Int("rental_dates", len(fixture.RentalDates)).Msg("seeding completed")

	// a running API may still hold reports computed from the old rows
	if cfg.RedisAddr != "" {
		invalidateReports(ctx, redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB), cfg.Year)
	}
}

func invalidateReports(ctx context.Context, rc *redisad.Cache, year int) {
	defer func() { _ = rc.Close() }()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; cached reports not invalidated")
		return
	}
	app.NewReportService(nil, rc, 0).Invalidate(ctx, year)
	log.Info().Int("year", year).Msg("cached reports invalidated")
}
