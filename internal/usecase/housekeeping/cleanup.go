package housekeeping

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type CleanupResult struct {
	Before  string `json:"before"`
	After   string `json:"after"`
	Deleted int64  `json:"deleted"`
}

// Cleanup deletes unbooked slots dated before yesterday or after the
// retention window. Booked slots are never deleted.
type Cleanup struct {
	repo    booking.SweepRepository
	metrics *metrics.BookingMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewCleanup(
	repo booking.SweepRepository,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *Cleanup {
	return &Cleanup{
		repo:    repo,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (uc *Cleanup) Execute(ctx context.Context, retentionDays int) (*CleanupResult, error) {
	ctx, span := tracer.Start(ctx, "housekeeping.cleanup")
	defer span.End()

	if retentionDays < 0 {
		return nil, httperr.ErrInvalid("invalid_retention")
	}

	today := timezone.Today(uc.now(), time.UTC)
	res := &CleanupResult{
		Before: timezone.AddDays(today, -1),
		After:  timezone.AddDays(today, retentionDays),
	}

	deleted, err := uc.repo.DeleteUnbookedSlotsOutside(ctx, res.Before, res.After)
	if err != nil {
		return nil, err
	}
	res.Deleted = deleted

	span.SetAttributes(attribute.Int64("slots.deleted", deleted))
	uc.metrics.ObserveSweep("cleanup", int(deleted))
	uc.log.Info("cleanup finished",
		zap.String("before", res.Before),
		zap.String("after", res.After),
		zap.Int64("deleted", deleted),
	)
	return res, nil
}
