package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	ucHousekeeping "github.com/BruksfildServices01/barber-booking/internal/usecase/housekeeping"
)

type options struct {
	task          string
	date          string
	providerID    string
	retentionDays int
	ttl           time.Duration
}

type sweepDeps struct {
	store   booking.SweepRepository
	audit   *audit.Dispatcher
	metrics *metrics.BookingMetrics
	log     *zap.Logger
}

// run executes the selected tasks in order: expire first so released slots
// are seen by reconcile, cleanup last.
func run(ctx context.Context, opts options, deps sweepDeps) error {
	tasks := map[string]bool{}
	switch opts.task {
	case "all":
		tasks["expire"], tasks["reconcile"], tasks["cleanup"] = true, true, true
	case "expire", "reconcile", "cleanup":
		tasks[opts.task] = true
	default:
		return fmt.Errorf("unknown task %q", opts.task)
	}

	if tasks["expire"] {
		res, err := ucHousekeeping.NewExpirePending(deps.store, deps.audit, deps.metrics, deps.log).Execute(ctx, opts.ttl)
		if err != nil {
			return fmt.Errorf("expire: %w", err)
		}
		deps.log.Info("expire done",
			zap.Int("expired", res.Expired),
			zap.Int("released", res.Released),
			zap.Int("skipped", res.Skipped),
		)
	}

	if tasks["reconcile"] {
		uc := ucHousekeeping.NewReconcile(deps.store, deps.metrics, deps.log)
		if opts.providerID != "" {
			res, err := uc.Execute(ctx, opts.providerID, opts.date)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			deps.log.Info("reconcile done",
				zap.String("provider_id", res.ProviderID),
				zap.String("date", res.Date),
				zap.Int("examined", res.Examined),
				zap.Int("corrected", res.Corrected),
			)
		} else {
			res, err := uc.ExecuteDate(ctx, opts.date)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			deps.log.Info("reconcile done",
				zap.String("date", res.Date),
				zap.Int("providers", len(res.Providers)),
				zap.Int("examined", res.Examined),
				zap.Int("corrected", res.Corrected),
				zap.Strings("failed", res.Failed),
			)
		}
	}

	if tasks["cleanup"] {
		res, err := ucHousekeeping.NewCleanup(deps.store, deps.metrics, deps.log).Execute(ctx, opts.retentionDays)
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		deps.log.Info("cleanup done",
			zap.String("before", res.Before),
			zap.String("after", res.After),
			zap.Int64("deleted", res.Deleted),
		)
	}

	return nil
}
