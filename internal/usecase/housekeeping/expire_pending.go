package housekeeping

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
)

const expireBatchSize = 500

type ExpireResult struct {
	Expired  int `json:"expired"`
	Released int `json:"released"`
	Skipped  int `json:"skipped"`
}

// ExpirePending cancels reservations whose payment never completed within the TTL.
type ExpirePending struct {
	repo    booking.SweepRepository
	audit   *audit.Dispatcher
	metrics *metrics.BookingMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewExpirePending(
	repo booking.SweepRepository,
	audit *audit.Dispatcher,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *ExpirePending {
	return &ExpirePending{
		repo:    repo,
		audit:   audit,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (uc *ExpirePending) Execute(ctx context.Context, ttl time.Duration) (*ExpireResult, error) {
	if ttl <= 0 {
		return nil, httperr.ErrInvalid("invalid_ttl")
	}

	now := uc.now()
	stale, err := uc.repo.ListStalePendingBookings(ctx, now.Add(-ttl), expireBatchSize)
	if err != nil {
		return nil, err
	}

	res := &ExpireResult{}
	for i := range stale {
		b := &stale[i]

		b.Status = string(booking.StatusCancelled)
		b.PaymentStatus = string(booking.PaymentCancelled)
		if err := uc.repo.UpdateBooking(ctx, b, booking.StatusPending); err != nil {
			// A payment outcome or cancel got there first.
			if httperr.IsBusiness(err, "booking_changed") {
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Expired++

		released, err := uc.repo.ReleaseSlot(ctx, b.SlotID, now)
		if err != nil {
			uc.log.Warn("expired booking slot release failed", zap.String("booking_id", b.ID), zap.Error(err))
		}
		if released {
			res.Released++
		}

		if b.AppointmentID != "" {
			if err := uc.repo.SetAppointmentStatus(ctx, b.AppointmentID, string(appointment.StatusCancelled), "", now); err != nil {
				uc.log.Warn("expired booking appointment update failed", zap.String("booking_id", b.ID), zap.Error(err))
			}
		}

		uc.audit.Dispatch(audit.Event{
			ProviderID: b.ProviderID,
			Action:     "booking_expired",
			Entity:     "booking",
			EntityID:   b.ID,
			Metadata:   map[string]any{"slot_id": b.SlotID, "released": released},
		})
	}

	uc.metrics.ObserveSweep("expire", res.Expired)
	if res.Expired > 0 {
		uc.log.Info("expired pending bookings",
			zap.Int("expired", res.Expired),
			zap.Int("released", res.Released),
			zap.Int("skipped", res.Skipped),
		)
	}
	return res, nil
}
