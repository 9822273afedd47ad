package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type ClaimInput struct {
	SlotID      string
	ServiceName string

	// Optional profile data for first-time customers.
	CustomerName  string
	CustomerEmail string
}

type ClaimResult struct {
	Booking     *models.Booking     `json:"booking"`
	Appointment *models.Appointment `json:"appointment"`
	Degraded    []string            `json:"degraded,omitempty"`
}

// ======================================================
// USE CASE
// ======================================================

// ClaimSlot reserves a slot for a customer. The slot flip, the booking and the
// appointment are written together, and the flip only succeeds on a free slot.
type ClaimSlot struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	metrics *metrics.BookingMetrics
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

func NewClaimSlot(
	repo domain.Repository,
	audit *audit.Dispatcher,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *ClaimSlot {
	return &ClaimSlot{
		repo:    repo,
		audit:   audit,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *ClaimSlot) Execute(
	ctx context.Context,
	actor access.Actor,
	in ClaimInput,
) (res *ClaimResult, err error) {

	ctx, span := tracer.Start(ctx, "booking.claim")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := actor.Authenticated(); err != nil {
		return nil, err
	}

	slotID := strings.TrimSpace(in.SlotID)
	if slotID == "" {
		return nil, httperr.ErrInvalid("slot_required")
	}
	serviceName := strings.TrimSpace(in.ServiceName)
	if len(serviceName) > 100 {
		return nil, httperr.ErrInvalid("service_name_too_long")
	}
	span.SetAttributes(attribute.String("slot.id", slotID))

	slot, err := uc.repo.GetSlot(ctx, slotID)
	if err != nil {
		uc.metrics.ObserveClaim("not_found")
		return nil, err
	}
	if slot.Booked {
		uc.metrics.ObserveClaim("conflict")
		return nil, httperr.ErrConflict("slot_already_booked")
	}
	if !slot.Available {
		uc.metrics.ObserveClaim("unavailable")
		return nil, httperr.ErrConflict("slot_unavailable")
	}

	provider, err := uc.repo.GetProvider(ctx, slot.ProviderID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	start, err := timezone.StartOf(slot.Date, slot.StartTime, timezone.Location(provider.Timezone))
	if err != nil {
		return nil, err
	}
	if !start.After(now) {
		uc.metrics.ObserveClaim("past")
		return nil, httperr.ErrInvalid("slot_in_past")
	}

	var degraded []string
	if err := uc.ensureCustomer(ctx, actor.UserID, in); err != nil {
		logDegraded(uc.log, "claim", "customer_profile", "", err)
		degraded = append(degraded, "customer_profile")
	}

	amount := slot.Price
	if amount <= 0 {
		amount = provider.DefaultPrice
	}

	status, payment := domain.InitialStatus()
	b := &models.Booking{
		ID:            uc.newID(),
		SlotID:        slot.ID,
		ProviderID:    slot.ProviderID,
		CustomerID:    actor.UserID,
		Status:        string(status),
		PaymentStatus: string(payment),
		Amount:        amount,
		Currency:      currencyFor(provider),
		ServiceName:   serviceName,
	}
	ap := appointment.New(uc.newID(), b.ID, actor.UserID, slot, serviceName)
	b.AppointmentID = ap.ID

	if err := uc.repo.ReserveSlot(ctx, domain.Reservation{
		SlotID:      slot.ID,
		Booking:     b,
		Appointment: ap,
		Now:         now,
	}); err != nil {
		if httperr.IsKind(err, httperr.KindConflict) {
			uc.metrics.ObserveClaim("conflict")
			return nil, err
		}
		uc.metrics.ObserveClaim("error")
		return nil, httperr.WrapUpstream(err)
	}

	uc.metrics.ObserveClaim("claimed")
	span.SetAttributes(attribute.String("booking.id", b.ID))

	uc.audit.Dispatch(audit.Event{
		ProviderID: b.ProviderID,
		ActorID:    actor.UserID,
		Action:     "booking_claimed",
		Entity:     "booking",
		EntityID:   b.ID,
		Metadata: map[string]any{
			"slot_id":        slot.ID,
			"appointment_id": ap.ID,
			"date":           slot.Date,
			"start_time":     slot.StartTime,
		},
	})

	return &ClaimResult{
		Booking:     b,
		Appointment: ap,
		Degraded:    degraded,
	}, nil
}

// ensureCustomer never blocks the claim; missing data gets placeholder values.
func (uc *ClaimSlot) ensureCustomer(ctx context.Context, userID string, in ClaimInput) error {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = placeholderName
	}
	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" {
		email = placeholderEmail(userID)
	}

	_, err := uc.repo.GetOrCreateCustomer(ctx, userID, name, email)
	return err
}
