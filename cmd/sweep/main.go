package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking/internal/db"
	infraRepo "github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/telemetry"
)

// sweep runs the housekeeping tasks once and exits, for cron or a k8s CronJob.
func main() {
	cfg := config.Load()

	var opts options
	flag.StringVar(&opts.task, "task", "all", "reconcile | cleanup | expire | all")
	flag.StringVar(&opts.date, "date", "", "date to reconcile (YYYY-MM-DD, default today UTC)")
	flag.StringVar(&opts.providerID, "provider", "", "reconcile a single provider")
	flag.IntVar(&opts.retentionDays, "retention", cfg.CleanupRetentionDays, "days of future slots to keep")
	flag.DurationVar(&opts.ttl, "ttl", cfg.ReservationTTL(), "age after which unpaid reservations expire")
	flag.Parse()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := telemetry.Setup(ctx, cfg, "barber-booking-sweep")
	if err == nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		log.Fatal("database setup failed", zap.Error(err))
	}

	dispatcher := audit.NewDispatcher(log, audit.New(db))
	code := 0
	if err := run(ctx, opts, sweepDeps{
		store:   infraRepo.NewGormRepository(db),
		audit:   dispatcher,
		metrics: metrics.NewBookingMetrics(prometheus.NewRegistry()),
		log:     log,
	}); err != nil {
		log.Error("sweep failed", zap.String("task", opts.task), zap.Error(err))
		code = 1
	}
	dispatcher.Close()

	if code != 0 {
		os.Exit(code)
	}
}
