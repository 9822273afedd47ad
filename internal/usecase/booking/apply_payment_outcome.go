package booking

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

// PaymentOutcome is one at-least-once, possibly out-of-order event from a processor.
type PaymentOutcome struct {
	EventID    string
	Source     string
	BookingID  string
	SlotID     string
	ProviderID string
	Outcome    string

	ExternalReference string
	ReceiptReference  string
}

type OutcomeResult struct {
	BookingID     string `json:"booking_id,omitempty"`
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`

	Ignored bool   `json:"ignored,omitempty"`
	Reason  string `json:"reason,omitempty"`

	// Inconsistent names a state that needs follow-up, e.g. a refund.
	Inconsistent string   `json:"inconsistent,omitempty"`
	Degraded     []string `json:"degraded,omitempty"`
}

// ======================================================
// USE CASE
// ======================================================

type ApplyPaymentOutcome struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	metrics *metrics.BookingMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewApplyPaymentOutcome(
	repo domain.Repository,
	audit *audit.Dispatcher,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *ApplyPaymentOutcome {
	return &ApplyPaymentOutcome{
		repo:    repo,
		audit:   audit,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *ApplyPaymentOutcome) Execute(
	ctx context.Context,
	in PaymentOutcome,
) (res *OutcomeResult, err error) {

	ctx, span := tracer.Start(ctx, "booking.apply_payment_outcome")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	outcome, err := domain.ParseOutcome(in.Outcome)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("payment.outcome", string(outcome)),
		attribute.String("slot.id", in.SlotID),
	)

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		b, err := uc.locate(ctx, in)
		if err != nil {
			if httperr.IsKind(err, httperr.KindNotFound) {
				uc.metrics.ObservePaymentOutcome(string(outcome), "not_found")
				uc.log.Warn("payment outcome without booking",
					zap.String("event_id", in.EventID),
					zap.String("slot_id", in.SlotID),
					zap.String("external_reference", in.ExternalReference),
				)
				return &OutcomeResult{Inconsistent: "booking_not_found"}, nil
			}
			var be httperr.BusinessError
			if errors.As(err, &be) && be.Kind == httperr.KindInconsistent {
				uc.metrics.ObservePaymentOutcome(string(outcome), "inconsistent")
				uc.log.Warn("payment outcome does not match booking",
					zap.String("event_id", in.EventID),
					zap.String("booking_id", in.BookingID),
					zap.String("slot_id", in.SlotID),
					zap.String("external_reference", in.ExternalReference),
					zap.String("reason", be.Code),
				)
				return &OutcomeResult{Inconsistent: be.Code}, nil
			}
			return nil, httperr.WrapUpstream(err)
		}

		if in.ProviderID != "" && b.ProviderID != in.ProviderID {
			return nil, httperr.ErrInvalid("provider_mismatch")
		}

		res, err := uc.apply(ctx, b, outcome, in)
		if httperr.IsBusiness(err, "booking_changed") {
			continue
		}
		if err != nil {
			uc.metrics.ObservePaymentOutcome(string(outcome), "error")
			return nil, err
		}

		uc.metrics.ObservePaymentOutcome(string(outcome), resultLabel(res))
		uc.audit.Dispatch(audit.Event{
			ProviderID: b.ProviderID,
			Action:     "payment_" + string(outcome),
			Entity:     "booking",
			EntityID:   b.ID,
			Metadata: map[string]any{
				"event_id":     in.EventID,
				"source":       in.Source,
				"ignored":      res.Ignored,
				"reason":       res.Reason,
				"inconsistent": res.Inconsistent,
			},
		})
		return res, nil
	}

	return nil, httperr.ErrConflict("booking_changed")
}

func resultLabel(res *OutcomeResult) string {
	switch {
	case res.Inconsistent != "":
		return "inconsistent"
	case res.Ignored:
		return "ignored"
	}
	return "applied"
}

// locate tries the identifiers that name a single booking before the slot.
// A slot is reused once released, so a slot match must not contradict the
// references carried by the event.
func (uc *ApplyPaymentOutcome) locate(ctx context.Context, in PaymentOutcome) (*models.Booking, error) {
	slotID := strings.TrimSpace(in.SlotID)

	if id := strings.TrimSpace(in.BookingID); id != "" {
		b, err := uc.repo.GetBooking(ctx, id)
		if err == nil {
			return checkSlot(b, slotID)
		}
		if !httperr.IsKind(err, httperr.KindNotFound) {
			return nil, err
		}
	}

	for _, ref := range []string{in.ExternalReference, in.ReceiptReference} {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		b, err := uc.repo.FindBookingByExternalRef(ctx, ref)
		if err == nil {
			return checkSlot(b, slotID)
		}
		if !httperr.IsKind(err, httperr.KindNotFound) {
			return nil, err
		}
	}

	if slotID == "" {
		return nil, httperr.ErrNotFound("booking_not_found")
	}
	b, err := uc.repo.FindBookingForSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !referencesAgree(b, in) {
		return nil, httperr.ErrInconsistent("reference_mismatch")
	}
	return b, nil
}

func checkSlot(b *models.Booking, slotID string) (*models.Booking, error) {
	if slotID != "" && b.SlotID != slotID {
		return nil, httperr.ErrInconsistent("slot_mismatch")
	}
	return b, nil
}

// referencesAgree is false only when both sides carry references and none of
// them match.
func referencesAgree(b *models.Booking, in PaymentOutcome) bool {
	var stored []string
	for _, ref := range []string{b.CheckoutReference, b.ExternalReference, b.ReceiptReference} {
		if ref != "" {
			stored = append(stored, ref)
		}
	}
	seen := false
	for _, ref := range []string{in.ExternalReference, in.ReceiptReference} {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		seen = true
		if slices.Contains(stored, ref) {
			return true
		}
	}
	return !seen || len(stored) == 0
}

// apply writes the booking first; the slot and appointment writes after it are
// secondary and only degrade the result when they fail.
func (uc *ApplyPaymentOutcome) apply(
	ctx context.Context,
	b *models.Booking,
	outcome domain.Outcome,
	in PaymentOutcome,
) (*OutcomeResult, error) {

	now := uc.now()
	from := domain.Status(b.Status)

	d := domain.Decide(from, domain.PaymentStatus(b.PaymentStatus), outcome)
	res := &OutcomeResult{BookingID: b.ID}

	if d.Ignored {
		res.Ignored = true
		res.Reason = d.Reason
		res.Status = b.Status
		res.PaymentStatus = b.PaymentStatus
		if d.Reason == "paid_after_release" {
			res.Inconsistent = d.Reason
		}
		uc.log.Info("payment outcome ignored",
			zap.String("booking_id", b.ID),
			zap.String("outcome", string(outcome)),
			zap.String("reason", d.Reason),
		)
		return res, nil
	}

	b.Status = string(d.Status)
	b.PaymentStatus = string(d.Payment)
	if in.ExternalReference != "" {
		b.ExternalReference = in.ExternalReference
	}
	if in.ReceiptReference != "" {
		b.ReceiptReference = in.ReceiptReference
	}

	if d.Slot == domain.SlotReclaim {
		if err := uc.reclaim(ctx, b, from, now, res); err != nil {
			return nil, err
		}
	} else {
		if err := uc.repo.UpdateBooking(ctx, b, from); err != nil {
			return nil, httperr.WrapUpstream(err)
		}

		switch d.Slot {
		case domain.SlotAssertBooked:
			if err := uc.repo.AssertSlotBooked(ctx, b.SlotID, now); err != nil {
				logDegraded(uc.log, "payment_outcome", "slot", b.ID, err)
				res.Degraded = append(res.Degraded, "slot")
			}
		case domain.SlotRelease:
			if _, err := uc.repo.ReleaseSlot(ctx, b.SlotID, now); err != nil {
				logDegraded(uc.log, "payment_outcome", "slot", b.ID, err)
				res.Degraded = append(res.Degraded, "slot")
			}
		}
	}

	if b.AppointmentID != "" {
		status := appointment.FromBooking(domain.Status(b.Status))
		if err := uc.repo.SetAppointmentStatus(ctx, b.AppointmentID, string(status), paymentRef(b), now); err != nil {
			logDegraded(uc.log, "payment_outcome", "appointment", b.ID, err)
			res.Degraded = append(res.Degraded, "appointment")
		}
	}

	res.Status = b.Status
	res.PaymentStatus = b.PaymentStatus
	return res, nil
}

// reclaim handles a success that arrives after the booking was released.
// The slot is taken back only while it is still free; otherwise the payment
// is recorded on the cancelled booking and reported for a refund.
func (uc *ApplyPaymentOutcome) reclaim(
	ctx context.Context,
	b *models.Booking,
	from domain.Status,
	now time.Time,
	res *OutcomeResult,
) error {

	claimErr := uc.repo.ClaimSlot(ctx, b.SlotID, now)
	if claimErr != nil && !httperr.IsKind(claimErr, httperr.KindConflict) {
		return httperr.WrapUpstream(claimErr)
	}

	if claimErr == nil {
		err := uc.repo.UpdateBooking(ctx, b, from)
		if err == nil {
			return nil
		}

		// The flip must not outlive a booking that did not move.
		if _, relErr := uc.repo.ReleaseSlot(ctx, b.SlotID, now); relErr != nil {
			logDegraded(uc.log, "payment_outcome", "slot", b.ID, relErr)
		}
		if !httperr.IsBusiness(err, "slot_already_booked") {
			return httperr.WrapUpstream(err)
		}
	}

	b.Status = string(domain.StatusCancelled)
	b.PaymentStatus = string(domain.PaymentSucceeded)
	if err := uc.repo.UpdateBooking(ctx, b, from); err != nil {
		return httperr.WrapUpstream(err)
	}

	res.Inconsistent = "paid_after_release"
	uc.log.Warn("payment succeeded after slot was released",
		zap.String("booking_id", b.ID),
		zap.String("slot_id", b.SlotID),
	)
	return nil
}

func paymentRef(b *models.Booking) string {
	if b.ReceiptReference != "" {
		return b.ReceiptReference
	}
	return b.ExternalReference
}
