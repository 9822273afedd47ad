package payments

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Event is a verified processor notification reduced to what the booking core needs.
// Outcome is empty for notifications that carry no payment result.
type Event struct {
	ID       string
	Provider string
	Type     string

	Outcome           string
	BookingID         string
	SlotID            string
	ProviderID        string
	ExternalReference string
	ReceiptReference  string

	AccountID     string
	AccountStatus string
}

func (e *Event) HasOutcome() bool { return e != nil && e.Outcome != "" }

func (e *Event) HasAccountUpdate() bool { return e != nil && e.AccountID != "" }

type WebhookRequest struct {
	Header http.Header
	Query  url.Values
	Body   []byte
}

type WebhookParser interface {
	Name() string
	ParseWebhook(ctx context.Context, req WebhookRequest) (*Event, error)
}

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRefunded  = "refunded"

	AccountActive     = "active"
	AccountRestricted = "restricted"
)
