package payments

import (
	"context"
	"errors"
)

// PlatformFeePercent is withheld from every booking payment.
const PlatformFeePercent = 10

// CheckoutRequest is what the booking core hands to the payment processor.
type CheckoutRequest struct {
	BookingID  string
	SlotID     string
	ProviderID string
	CustomerID string

	Amount   int64 // minor units
	Currency string
	Title    string

	DestinationAccount string
	FeePercent         int64

	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Metadata is attached to the checkout so outcome events can find the booking.
func (r CheckoutRequest) Metadata() map[string]string {
	return map[string]string{
		"bookingId":  r.BookingID,
		"slotId":     r.SlotID,
		"providerId": r.ProviderID,
		"customerId": r.CustomerID,
	}
}

type CheckoutSession struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
	URL       string `json:"url"`
}

type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

var ErrNotConfigured = errors.New("payment gateway not configured")

// ApplicationFee returns the platform share of amount, rounded half up.
func ApplicationFee(amount, percent int64) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	return (amount*percent + 50) / 100
}
