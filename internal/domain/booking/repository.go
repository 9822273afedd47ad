package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Reservation is a claim written as one unit: slot flip, booking and appointment.
type Reservation struct {
	SlotID      string
	Booking     *models.Booking
	Appointment *models.Appointment
	Now         time.Time
}

type AppointmentFilter struct {
	Status string
	Date   string
}

// SlotWriter holds the conditional slot writes shared by the engine and the sweeps.
type SlotWriter interface {
	// ClaimSlot flips booked false->true on an available slot or fails with Conflict.
	ClaimSlot(ctx context.Context, slotID string, now time.Time) error

	// AssertSlotBooked sets booked (and available) unconditionally.
	AssertSlotBooked(ctx context.Context, slotID string, now time.Time) error

	// ReleaseSlot clears booked unless an active booking still references the slot.
	ReleaseSlot(ctx context.Context, slotID string, now time.Time) (bool, error)
}

type Repository interface {
	SlotWriter

	// -------- Provider / Slot --------
	GetProvider(ctx context.Context, providerID string) (*models.Provider, error)
	GetSlot(ctx context.Context, slotID string) (*models.Slot, error)
	ListSlotsByIDs(ctx context.Context, slotIDs []string) ([]models.Slot, error)

	// -------- Customer --------
	GetOrCreateCustomer(ctx context.Context, userID, name, email string) (*models.CustomerProfile, error)
	UpdateCustomer(ctx context.Context, profile *models.CustomerProfile) error

	// -------- Booking --------
	ReserveSlot(ctx context.Context, r Reservation) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	// FindBookingForSlot prefers the active booking, else the most recent one.
	FindBookingForSlot(ctx context.Context, slotID string) (*models.Booking, error)
	FindBookingByExternalRef(ctx context.Context, ref string) (*models.Booking, error)
	// UpdateBooking writes only if the stored status still equals fromStatus.
	UpdateBooking(ctx context.Context, b *models.Booking, fromStatus Status) error
	ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error)

	// -------- Appointment --------
	GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error)
	SetAppointmentStatus(ctx context.Context, appointmentID, status, paymentRef string, now time.Time) error
	// TransitionAppointment writes only while the stored status is one of from;
	// otherwise it fails with Conflict "appointment_changed".
	TransitionAppointment(ctx context.Context, appointmentID string, from []string, status string, now time.Time) error
	ListProviderAppointments(ctx context.Context, providerID string, f AppointmentFilter) ([]models.Appointment, error)
}

type SweepRepository interface {
	SlotWriter

	ListProviderIDsWithSlotsOn(ctx context.Context, date string) ([]string, error)
	ListSlotsForDate(ctx context.Context, providerID, date string) ([]models.Slot, error)
	ListActiveBookingsForSlots(ctx context.Context, slotIDs []string) ([]models.Booking, error)

	GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error)
	SetAppointmentStatus(ctx context.Context, appointmentID, status, paymentRef string, now time.Time) error

	// DeleteUnbookedSlotsOutside removes unbooked slots dated before `before` or after `after`.
	DeleteUnbookedSlotsOutside(ctx context.Context, before, after string) (int64, error)

	ListStalePendingBookings(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking, fromStatus Status) error
}
