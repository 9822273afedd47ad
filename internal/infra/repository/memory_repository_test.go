package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

func TestMemoryInsertSlotsSkipsExistingIdentity(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := []models.Slot{
		{ID: "a", ProviderID: "p", Date: "2025-03-10", StartTime: 540, Available: true},
		{ID: "b", ProviderID: "p", Date: "2025-03-10", StartTime: 570, Available: true},
	}
	n, err := repo.InsertSlots(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	again := []models.Slot{
		{ID: "c", ProviderID: "p", Date: "2025-03-10", StartTime: 540, Available: true},
		{ID: "d", ProviderID: "p", Date: "2025-03-10", StartTime: 600, Available: true},
	}
	n, err = repo.InsertSlots(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	slots, err := repo.ListSlotsForDate(ctx, "p", "2025-03-10")
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, []int{540, 570, 600}, []int{slots[0].StartTime, slots[1].StartTime, slots[2].StartTime})
}

func TestMemoryReleaseSlotKeepsSlotOfActiveBooking(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.PutSlot(models.Slot{ID: "s", ProviderID: "p", Date: "2025-03-10", Available: true, Booked: true})
	repo.PutBooking(models.Booking{ID: "b", SlotID: "s", Status: string(booking.StatusConfirmed)})

	released, err := repo.ReleaseSlot(ctx, "s", time.Now())
	require.NoError(t, err)
	assert.False(t, released)

	repo.PutBooking(models.Booking{ID: "b", SlotID: "s", Status: string(booking.StatusCancelled)})

	released, err = repo.ReleaseSlot(ctx, "s", time.Now())
	require.NoError(t, err)
	assert.True(t, released)
}

func TestMemoryUpdateBookingIsConditional(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.PutBooking(models.Booking{ID: "b", SlotID: "s", Status: string(booking.StatusCancelled)})

	err := repo.UpdateBooking(ctx, &models.Booking{ID: "b", Status: string(booking.StatusConfirmed)}, booking.StatusPending)
	assert.True(t, httperr.IsBusiness(err, "booking_changed"))
}

func TestMemoryWithdrawSkipsBookedSlots(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.PutSlot(models.Slot{ID: "booked", Available: true, Booked: true})
	repo.PutSlot(models.Slot{ID: "free", Available: true})

	n, err := repo.SetSlotsAvailable(ctx, []string{"booked", "free"}, false, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := repo.GetSlot(ctx, "booked")
	require.NoError(t, err)
	assert.True(t, s.Available)
}

func TestMemoryTransitionAppointmentIsConditional(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	repo.PutAppointment(models.Appointment{ID: "a", BookingID: "b", Status: "cancelled"})

	err := repo.TransitionAppointment(ctx, "a", []string{"pending", "paid"}, "completed", now)
	assert.True(t, httperr.IsBusiness(err, "appointment_changed"))

	ap, err := repo.GetAppointment(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", ap.Status)
	assert.Nil(t, ap.CompletedAt)

	repo.PutAppointment(models.Appointment{ID: "a", BookingID: "b", Status: "paid"})
	require.NoError(t, repo.TransitionAppointment(ctx, "a", []string{"pending", "paid"}, "completed", now))

	ap, err = repo.GetAppointment(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "completed", ap.Status)
	require.NotNil(t, ap.CompletedAt)

	err = repo.TransitionAppointment(ctx, "missing", []string{"paid"}, "completed", now)
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))
}

func TestMemoryUpdateBookingKeepsReferencesOfStaleCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.PutBooking(models.Booking{
		ID: "b", SlotID: "s", Status: string(booking.StatusPending),
		PaymentStatus: string(booking.PaymentProcessing), CheckoutReference: "cs_1",
	})

	// Read before the checkout reference was written.
	stale := &models.Booking{ID: "b", SlotID: "s", Status: string(booking.StatusCancelled), PaymentStatus: string(booking.PaymentFailed)}
	require.NoError(t, repo.UpdateBooking(ctx, stale, booking.StatusPending))

	b, err := repo.GetBooking(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "cs_1", b.CheckoutReference)
	assert.Equal(t, string(booking.PaymentFailed), b.PaymentStatus)
}
