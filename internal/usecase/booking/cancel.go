package booking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type CancelResult struct {
	Booking  *models.Booking `json:"booking"`
	Released bool            `json:"released"`
	Degraded []string        `json:"degraded,omitempty"`
}

type CancelBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
	now   func() time.Time
}

func NewCancelBooking(
	repo domain.Repository,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *CancelBooking {
	return &CancelBooking{
		repo:  repo,
		audit: audit,
		log:   logger.OrNop(log),
		now:   time.Now,
	}
}

// Execute cancels a booking on behalf of its customer, the provider or an admin.
// Cancelling twice only re-asserts the release.
func (uc *CancelBooking) Execute(
	ctx context.Context,
	actor access.Actor,
	bookingID string,
) (res *CancelResult, err error) {

	ctx, span := tracer.Start(ctx, "booking.cancel")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("booking.id", bookingID))

	if err := actor.Authenticated(); err != nil {
		return nil, err
	}

	b, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, actor, b); err != nil {
		return nil, err
	}

	b, err = updateWithRetry(ctx, uc.repo, b, func(b *models.Booking) (bool, error) {
		if err := domain.CanCancel(domain.Status(b.Status)); err != nil {
			return false, err
		}
		if b.Status == string(domain.StatusCancelled) {
			return false, nil
		}
		b.Status = string(domain.StatusCancelled)
		switch domain.PaymentStatus(b.PaymentStatus) {
		case domain.PaymentPending, domain.PaymentProcessing:
			b.PaymentStatus = string(domain.PaymentCancelled)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	res = &CancelResult{Booking: b}

	released, err := uc.repo.ReleaseSlot(ctx, b.SlotID, now)
	if err != nil {
		logDegraded(uc.log, "cancel", "slot", b.ID, err)
		res.Degraded = append(res.Degraded, "slot")
	}
	res.Released = released

	if b.AppointmentID != "" {
		if err := uc.repo.SetAppointmentStatus(ctx, b.AppointmentID, string(appointment.StatusCancelled), "", now); err != nil {
			logDegraded(uc.log, "cancel", "appointment", b.ID, err)
			res.Degraded = append(res.Degraded, "appointment")
		}
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: b.ProviderID,
		ActorID:    actor.UserID,
		Action:     "booking_cancelled",
		Entity:     "booking",
		EntityID:   b.ID,
		Metadata: map[string]any{
			"slot_id":  b.SlotID,
			"released": released,
		},
	})

	return res, nil
}

func (uc *CancelBooking) authorize(ctx context.Context, actor access.Actor, b *models.Booking) error {
	if actor.IsAdmin() || actor.UserID == b.CustomerID {
		return nil
	}
	provider, err := uc.repo.GetProvider(ctx, b.ProviderID)
	if err != nil {
		return err
	}
	if actor.CanManageProvider(provider.UserID) {
		return nil
	}
	return httperr.ErrForbidden("not_booking_owner")
}
