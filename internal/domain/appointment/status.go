package appointment

import (
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// FromBooking maps a booking status to the vocabulary shown to providers.
func FromBooking(s booking.Status) Status {
	switch s {
	case booking.StatusConfirmed:
		return StatusPaid
	case booking.StatusCompleted:
		return StatusCompleted
	case booking.StatusCancelled:
		return StatusCancelled
	case booking.StatusRefunded:
		return StatusRefunded
	}
	return StatusPending
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusPaid, StatusCompleted, StatusCancelled, StatusRefunded:
		return s, nil
	case "confirmed":
		return StatusPaid, nil
	}
	return "", httperr.ErrInvalid("invalid_status")
}

// ===============================
// Validations
// ===============================

// CanComplete allows pending (unpaid, pay at the chair) and paid appointments.
func CanComplete(current Status) error {
	if current != StatusPending && current != StatusPaid {
		return httperr.ErrConflict("invalid_state")
	}
	return nil
}

// CompletableStatuses is the write guard matching CanComplete.
func CompletableStatuses() []string {
	return []string{string(StatusPending), string(StatusPaid)}
}

func InitialStatus() Status {
	return StatusPending
}

// PaymentStatusFor is the payment label stored next to an appointment status.
func PaymentStatusFor(s Status) string {
	switch s {
	case StatusPaid, StatusCompleted:
		return "paid"
	case StatusRefunded:
		return "refunded"
	case StatusCancelled:
		return "cancelled"
	}
	return "pending"
}
