package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// CreateCheckout opens a hosted payment page for a pending booking.
type CreateCheckout struct {
	repo      domain.Repository
	gateway   payments.Gateway
	audit     *audit.Dispatcher
	log       *zap.Logger
	publicURL string
}

func NewCreateCheckout(
	repo domain.Repository,
	gateway payments.Gateway,
	audit *audit.Dispatcher,
	log *zap.Logger,
	publicURL string,
) *CreateCheckout {
	return &CreateCheckout{
		repo:      repo,
		gateway:   gateway,
		audit:     audit,
		log:       logger.OrNop(log),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (uc *CreateCheckout) Execute(
	ctx context.Context,
	actor access.Actor,
	bookingID string,
) (*payments.CheckoutSession, error) {

	if err := actor.Authenticated(); err != nil {
		return nil, err
	}

	b, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != b.CustomerID {
		return nil, httperr.ErrForbidden("not_booking_owner")
	}
	if err := domain.CanCheckout(domain.Status(b.Status), domain.PaymentStatus(b.PaymentStatus)); err != nil {
		return nil, err
	}

	provider, err := uc.repo.GetProvider(ctx, b.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.PaymentAccountID == "" {
		return nil, httperr.ErrConflict("provider_payments_disabled")
	}
	if provider.PaymentAccountStatus != payments.AccountActive {
		return nil, httperr.ErrConflict("payment_account_not_active")
	}
	if uc.gateway == nil {
		return nil, httperr.ErrUpstream("payment_unavailable", payments.ErrNotConfigured)
	}

	slot, err := uc.repo.GetSlot(ctx, b.SlotID)
	if err != nil {
		return nil, err
	}

	req := payments.CheckoutRequest{
		BookingID:          b.ID,
		SlotID:             b.SlotID,
		ProviderID:         b.ProviderID,
		CustomerID:         b.CustomerID,
		Amount:             b.Amount,
		Currency:           b.Currency,
		Title:              checkoutTitle(provider, slot, b),
		DestinationAccount: provider.PaymentAccountID,
		FeePercent:         payments.PlatformFeePercent,
		SuccessURL:         uc.publicURL + "/bookings/" + b.ID + "?checkout=success",
		CancelURL:          uc.publicURL + "/bookings/" + b.ID + "?checkout=cancelled",
	}
	if profile, err := uc.repo.GetOrCreateCustomer(ctx, b.CustomerID, placeholderName, placeholderEmail(b.CustomerID)); err == nil {
		if !strings.HasSuffix(profile.Email, "@example.com") {
			req.CustomerEmail = profile.Email
		}
	}

	sess, err := uc.gateway.CreateCheckout(ctx, req)
	if err != nil {
		uc.log.Error("checkout creation failed",
			zap.String("booking_id", b.ID),
			zap.String("gateway", uc.gateway.Name()),
			zap.Error(err),
		)
		return nil, httperr.ErrUpstream("payment_unavailable", err)
	}

	if _, err := updateWithRetry(ctx, uc.repo, b, func(b *models.Booking) (bool, error) {
		if err := domain.CanCheckout(domain.Status(b.Status), domain.PaymentStatus(b.PaymentStatus)); err != nil {
			return false, err
		}
		b.PaymentStatus = string(domain.PaymentProcessing)
		b.CheckoutReference = sess.Reference
		return true, nil
	}); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: b.ProviderID,
		ActorID:    actor.UserID,
		Action:     "checkout_created",
		Entity:     "booking",
		EntityID:   b.ID,
		Metadata: map[string]any{
			"gateway":   sess.Provider,
			"reference": sess.Reference,
		},
	})

	return sess, nil
}

func checkoutTitle(p *models.Provider, s *models.Slot, b *models.Booking) string {
	what := b.ServiceName
	if what == "" {
		what = "Appointment"
	}
	return what + " with " + p.Name + " on " + s.Date + " " + timezone.Clock(s.StartTime)
}
