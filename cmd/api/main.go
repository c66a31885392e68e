package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	server "capstone/internal/adapters/http_server"
	"capstone/internal/adapters/observability"
	redisad "capstone/internal/adapters/redis"
	"capstone/internal/app"
	"capstone/internal/domain"
	"capstone/internal/shared"
	"capstone/internal/storage/sqldb"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	runner, err := sqldb.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer runner.Close()
	runner.WithTimeout(cfg.QueryTimeout)

	// deps
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer func() { _ = rc.Close() }()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; serving without cache")
		} else {
			cache = rc
		}
	}
	explorer := app.NewExplorerService(runner, cfg.SampleLimit)
	reports := app.NewReportService(runner, cache, cfg.CacheTTL)

	// http
	reqTimeout := 15 * time.Second
	if cfg.QueryTimeout > 0 {
		reqTimeout = cfg.QueryTimeout + 5*time.Second
	}
	srv := server.New(reqTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	var queryLimit func(http.Handler) http.Handler
	if cfg.QueryRPS > 0 {
		queryLimit = server.RateLimit(rate.NewLimiter(rate.Limit(cfg.QueryRPS), max(1, int(cfg.QueryRPS))))
	}
	srv.MountHandlers(&server.Handlers{Explorer: explorer, Reports: reports, Year: cfg.Year}, queryLimit)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdown)
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
