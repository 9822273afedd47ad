package booking

// SlotEffect is what an outcome does to the booking's slot.
type SlotEffect int

const (
	SlotKeep SlotEffect = iota
	SlotAssertBooked
	SlotRelease
	// SlotReclaim re-reserves a slot released before the payment succeeded.
	SlotReclaim
)

// Decision is the pure result of applying an outcome to a booking's current state.
type Decision struct {
	Ignored bool
	Reason  string

	Status  Status
	Payment PaymentStatus
	Slot    SlotEffect
}

// Decide encodes the out-of-order rules: a refund is terminal, a failure never
// undoes a success, and a success after a release tries to take the slot back.
func Decide(current Status, payment PaymentStatus, outcome Outcome) Decision {
	switch outcome {
	case OutcomeSucceeded:
		switch current {
		case StatusPending, StatusConfirmed:
			return Decision{Status: StatusConfirmed, Payment: PaymentSucceeded, Slot: SlotAssertBooked}
		case StatusCancelled:
			if payment == PaymentSucceeded {
				return Decision{Ignored: true, Reason: "paid_after_release"}
			}
			return Decision{Status: StatusConfirmed, Payment: PaymentSucceeded, Slot: SlotReclaim}
		case StatusCompleted:
			return Decision{Ignored: true, Reason: "already_completed"}
		default:
			return Decision{Ignored: true, Reason: "already_refunded"}
		}

	case OutcomeFailed:
		switch current {
		case StatusPending:
			return Decision{Status: StatusCancelled, Payment: PaymentFailed, Slot: SlotRelease}
		case StatusCancelled:
			p := PaymentFailed
			if payment == PaymentSucceeded || payment == PaymentRefunded {
				p = payment
			}
			return Decision{Status: StatusCancelled, Payment: p, Slot: SlotRelease}
		case StatusRefunded:
			return Decision{Ignored: true, Reason: "already_refunded"}
		default:
			return Decision{Ignored: true, Reason: "failure_after_success"}
		}

	case OutcomeRefunded:
		return Decision{Status: StatusRefunded, Payment: PaymentRefunded, Slot: SlotRelease}
	}

	return Decision{Ignored: true, Reason: "unknown_outcome"}
}
