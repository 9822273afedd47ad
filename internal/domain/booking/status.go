package booking

import (
	"strings"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// IsActive reports whether a booking in this status holds its slot.
func IsActive(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

func ActiveStatuses() []string {
	return []string{
		string(StatusPending),
		string(StatusConfirmed),
		string(StatusCompleted),
	}
}

// ===============================
// Payment outcome
// ===============================

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeRefunded  Outcome = "refunded"
)

func ParseOutcome(raw string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(raw))); o {
	case OutcomeSucceeded, OutcomeFailed, OutcomeRefunded:
		return o, nil
	}
	return "", httperr.ErrInvalid("invalid_outcome")
}

// ===============================
// Validations
// ===============================

// CanCancel allows re-cancelling so redelivered cancels stay harmless.
func CanCancel(current Status) error {
	switch current {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return nil
	}
	return httperr.ErrConflict("invalid_state")
}

func CanCheckout(current Status, payment PaymentStatus) error {
	if current != StatusPending {
		return httperr.ErrConflict("invalid_state")
	}
	if payment == PaymentSucceeded || payment == PaymentRefunded {
		return httperr.ErrConflict("invalid_state")
	}
	return nil
}

func InitialStatus() (Status, PaymentStatus) {
	return StatusPending, PaymentPending
}
