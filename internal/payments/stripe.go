package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/account"
	"github.com/stripe/stripe-go/v79/accountlink"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

const stripeWebhookTolerance = 5 * time.Minute

type StripeGateway struct {
	secretKey     string
	webhookSecret string
	log           *zap.Logger

	newSession     func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	newAccount     func(*stripe.AccountParams) (*stripe.Account, error)
	newAccountLink func(*stripe.AccountLinkParams) (*stripe.AccountLink, error)
}

func NewStripeGateway(secretKey, webhookSecret string, log *zap.Logger) *StripeGateway {
	return &StripeGateway{
		secretKey:      secretKey,
		webhookSecret:  webhookSecret,
		log:            log,
		newSession:     checkoutsession.New,
		newAccount:     account.New,
		newAccountLink: accountlink.New,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

// ======================================================
// CHECKOUT
// ======================================================

func (g *StripeGateway) CreateCheckout(
	ctx context.Context,
	req CheckoutRequest,
) (*CheckoutSession, error) {

	if strings.TrimSpace(g.secretKey) == "" {
		return nil, ErrNotConfigured
	}

	// stripe-go keeps the API key in a package global.
	stripe.Key = g.secretKey

	meta := req.Metadata()
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(ApplicationFee(req.Amount, req.FeePercent)),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.DestinationAccount),
			},
			Metadata: meta,
		},
		Metadata: meta,
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String("checkout-" + req.BookingID)

	sess, err := g.newSession(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}

	return &CheckoutSession{
		Provider:  g.Name(),
		Reference: sess.ID,
		URL:       sess.URL,
	}, nil
}

// ======================================================
// WEBHOOK
// ======================================================

func (g *StripeGateway) ParseWebhook(
	_ context.Context,
	req WebhookRequest,
) (*Event, error) {

	if strings.TrimSpace(g.webhookSecret) == "" {
		return nil, ErrNotConfigured
	}

	sig := req.Header.Get("Stripe-Signature")
	if sig == "" {
		return nil, ErrInvalidSignature
	}

	evt, err := webhook.ConstructEventWithOptions(req.Body, sig, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                stripeWebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{
		ID:       evt.ID,
		Provider: g.Name(),
		Type:     string(evt.Type),
	}

	switch evt.Type {
	case "checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"checkout.session.expired":

		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: stripe checkout session: %v", ErrInvalidPayload, err)
		}
		out.Outcome = sessionOutcome(string(evt.Type), s.PaymentStatus)
		fillFromMetadata(out, s.Metadata)
		out.ExternalReference = s.ID
		if s.PaymentIntent != nil {
			out.ReceiptReference = s.PaymentIntent.ID
		}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: stripe payment intent: %v", ErrInvalidPayload, err)
		}
		out.Outcome = OutcomeFailed
		fillFromMetadata(out, pi.Metadata)
		out.ExternalReference = pi.ID
		out.ReceiptReference = pi.ID

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: stripe charge: %v", ErrInvalidPayload, err)
		}
		if !ch.Refunded {
			// Partial refunds keep the booking.
			return out, nil
		}
		out.Outcome = OutcomeRefunded
		fillFromMetadata(out, ch.Metadata)
		if ch.PaymentIntent != nil {
			out.ExternalReference = ch.PaymentIntent.ID
			out.ReceiptReference = ch.PaymentIntent.ID
		}

	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(evt.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("%w: stripe account: %v", ErrInvalidPayload, err)
		}
		out.AccountID = acct.ID
		out.AccountStatus = AccountRestricted
		if acct.ChargesEnabled && acct.PayoutsEnabled {
			out.AccountStatus = AccountActive
		}

	default:
		if g.log != nil {
			g.log.Debug("stripe event ignored", zap.String("event_id", evt.ID), zap.String("type", out.Type))
		}
	}

	return out, nil
}

func sessionOutcome(eventType string, status stripe.CheckoutSessionPaymentStatus) string {
	switch eventType {
	case "checkout.session.completed":
		if status == stripe.CheckoutSessionPaymentStatusPaid ||
			status == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
			return OutcomeSucceeded
		}
		// Async methods settle later through their own events.
		return ""
	case "checkout.session.async_payment_succeeded":
		return OutcomeSucceeded
	default:
		return OutcomeFailed
	}
}

func fillFromMetadata(e *Event, meta map[string]string) {
	e.BookingID = strings.TrimSpace(meta["bookingId"])
	e.SlotID = strings.TrimSpace(meta["slotId"])
	e.ProviderID = strings.TrimSpace(meta["providerId"])
}
