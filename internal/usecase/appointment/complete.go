package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type CompleteResult struct {
	Appointment *models.Appointment `json:"appointment"`
	Degraded    []string            `json:"degraded,omitempty"`
}

type CompleteAppointment struct {
	repo  booking.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
	now   func() time.Time
}

func NewCompleteAppointment(
	repo booking.Repository,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:  repo,
		audit: audit,
		log:   logger.OrNop(log),
		now:   time.Now,
	}
}

// Execute marks the service as delivered. The slot is left as it is.
func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	actor access.Actor,
	appointmentID string,
) (*CompleteResult, error) {

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	provider, err := uc.repo.GetProvider(ctx, ap.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(provider.UserID); err != nil {
		return nil, err
	}

	now := uc.now()
	if err := appointment.Complete(ap, now); err != nil {
		return nil, err
	}

	// A cancel or refund that landed after the read wins.
	err = uc.repo.TransitionAppointment(ctx, ap.ID, appointment.CompletableStatuses(), ap.Status, now)
	if err != nil {
		return nil, err
	}
	ap.PaymentStatus = appointment.PaymentStatusFor(appointment.StatusCompleted)

	res := &CompleteResult{Appointment: ap}
	if ap.BookingID != "" {
		if err := uc.completeBooking(ctx, ap.BookingID); err != nil {
			uc.log.Warn("booking completion failed",
				zap.String("appointment_id", ap.ID),
				zap.String("booking_id", ap.BookingID),
				zap.Error(err),
			)
			res.Degraded = append(res.Degraded, "booking")
		}
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: ap.ProviderID,
		ActorID:    actor.UserID,
		Action:     "appointment_completed",
		Entity:     "appointment",
		EntityID:   ap.ID,
	})

	return res, nil
}

func (uc *CompleteAppointment) completeBooking(ctx context.Context, bookingID string) error {
	b, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	from := booking.Status(b.Status)
	if from == booking.StatusCompleted || !booking.IsActive(from) {
		return nil
	}

	b.Status = string(booking.StatusCompleted)
	return uc.repo.UpdateBooking(ctx, b, from)
}
