package housekeeping

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

var tracer = otel.Tracer("github.com/BruksfildServices01/barber-booking/internal/usecase/housekeeping")

type ReconcileResult struct {
	ProviderID         string `json:"provider_id"`
	Date               string `json:"date"`
	Examined           int    `json:"examined"`
	Corrected          int    `json:"corrected"`
	AppointmentsSynced int    `json:"appointments_synced"`
}

type ReconcileDateResult struct {
	Date      string            `json:"date"`
	Providers []ReconcileResult `json:"providers"`
	Examined  int               `json:"examined"`
	Corrected int               `json:"corrected"`
	Failed    []string          `json:"failed,omitempty"`
}

// Reconcile makes slot booked flags agree with the active bookings that
// reference them. Running it again without other writes corrects nothing.
type Reconcile struct {
	repo    booking.SweepRepository
	metrics *metrics.BookingMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewReconcile(
	repo booking.SweepRepository,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *Reconcile {
	return &Reconcile{
		repo:    repo,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (uc *Reconcile) Execute(
	ctx context.Context,
	providerID string,
	date string,
) (*ReconcileResult, error) {

	ctx, span := tracer.Start(ctx, "housekeeping.reconcile")
	defer span.End()

	if providerID == "" {
		return nil, httperr.ErrInvalid("provider_required")
	}
	date, err := uc.date(date)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("provider.id", providerID),
		attribute.String("date", date),
	)

	// Slots are read before bookings: a claim landing in between shows up as an
	// active booking, and the guarded release below refuses to undo it.
	slots, err := uc.repo.ListSlotsForDate(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.ID)
	}

	active, err := uc.repo.ListActiveBookingsForSlots(ctx, ids)
	if err != nil {
		return nil, err
	}

	shouldBeBooked := make(map[string]bool, len(active))
	for _, b := range active {
		shouldBeBooked[b.SlotID] = true
	}

	res := &ReconcileResult{ProviderID: providerID, Date: date, Examined: len(slots)}
	now := uc.now()

	for _, s := range slots {
		want := shouldBeBooked[s.ID]
		switch {
		case want && !s.Booked:
			if err := uc.repo.AssertSlotBooked(ctx, s.ID, now); err != nil {
				return nil, err
			}
			res.Corrected++
		case !want && s.Booked:
			released, err := uc.repo.ReleaseSlot(ctx, s.ID, now)
			if err != nil {
				return nil, err
			}
			if released {
				res.Corrected++
			}
		}
	}

	for i := range active {
		synced, err := uc.syncAppointment(ctx, &active[i], now)
		if err != nil {
			uc.log.Warn("appointment sync failed",
				zap.String("booking_id", active[i].ID),
				zap.Error(err),
			)
			continue
		}
		if synced {
			res.AppointmentsSynced++
		}
	}

	uc.metrics.ObserveSweep("reconcile", res.Corrected)
	uc.metrics.ObserveSweep("appointment_sync", res.AppointmentsSynced)
	if res.Corrected > 0 || res.AppointmentsSynced > 0 {
		uc.log.Info("reconcile corrected drift",
			zap.String("provider_id", providerID),
			zap.String("date", date),
			zap.Int("examined", res.Examined),
			zap.Int("corrected", res.Corrected),
			zap.Int("appointments_synced", res.AppointmentsSynced),
		)
	}
	return res, nil
}

// syncAppointment mirrors the booking status onto its appointment. A completed
// appointment is final and pulls a lagging booking forward instead.
func (uc *Reconcile) syncAppointment(
	ctx context.Context,
	b *models.Booking,
	now time.Time,
) (bool, error) {

	if b.AppointmentID == "" {
		return false, nil
	}
	ap, err := uc.repo.GetAppointment(ctx, b.AppointmentID)
	if err != nil {
		return false, err
	}

	if ap.Status == string(appointment.StatusCompleted) {
		if b.Status == string(booking.StatusCompleted) {
			return false, nil
		}
		from := booking.Status(b.Status)
		b.Status = string(booking.StatusCompleted)
		return true, uc.repo.UpdateBooking(ctx, b, from)
	}

	want := string(appointment.FromBooking(booking.Status(b.Status)))
	if ap.Status == want {
		return false, nil
	}
	return true, uc.repo.SetAppointmentStatus(ctx, ap.ID, want, "", now)
}

func (uc *Reconcile) date(raw string) (string, error) {
	if raw == "" {
		return timezone.Today(uc.now(), time.UTC), nil
	}
	return timezone.NormalizeDate(raw, time.UTC)
}

// ExecuteDate reconciles every provider that has slots on the date. A failing
// provider is logged and skipped.
func (uc *Reconcile) ExecuteDate(
	ctx context.Context,
	date string,
) (*ReconcileDateResult, error) {

	date, err := uc.date(date)
	if err != nil {
		return nil, err
	}

	providers, err := uc.repo.ListProviderIDsWithSlotsOn(ctx, date)
	if err != nil {
		return nil, err
	}

	out := &ReconcileDateResult{Date: date, Providers: []ReconcileResult{}}
	for _, id := range providers {
		res, err := uc.Execute(ctx, id, date)
		if err != nil {
			uc.log.Error("reconcile failed",
				zap.String("provider_id", id),
				zap.String("date", date),
				zap.Error(err),
			)
			out.Failed = append(out.Failed, id)
			continue
		}
		out.Providers = append(out.Providers, *res)
		out.Examined += res.Examined
		out.Corrected += res.Corrected
	}
	return out, nil
}
