package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

func TestFromBooking(t *testing.T) {
	assert.Equal(t, StatusPending, FromBooking(booking.StatusPending))
	assert.Equal(t, StatusPaid, FromBooking(booking.StatusConfirmed))
	assert.Equal(t, StatusCompleted, FromBooking(booking.StatusCompleted))
	assert.Equal(t, StatusCancelled, FromBooking(booking.StatusCancelled))
	assert.Equal(t, StatusRefunded, FromBooking(booking.StatusRefunded))
}

func TestParseStatusAcceptsConfirmed(t *testing.T) {
	s, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, s)

	_, err = ParseStatus("scheduled")
	assert.True(t, httperr.IsKind(err, httperr.KindInvalid))
}

func TestComplete(t *testing.T) {
	now := time.Now()

	for _, s := range []Status{StatusPending, StatusPaid} {
		ap := &models.Appointment{Status: string(s)}
		require.NoError(t, Complete(ap, now))
		assert.Equal(t, string(StatusCompleted), ap.Status)
		assert.Equal(t, &now, ap.CompletedAt)
	}

	for _, s := range []Status{StatusCancelled, StatusCompleted, StatusRefunded} {
		ap := &models.Appointment{Status: string(s)}
		assert.True(t, httperr.IsBusiness(Complete(ap, now), "invalid_state"))
	}
}

func TestNewLinksBooking(t *testing.T) {
	slot := &models.Slot{ProviderID: "p1", Date: "2025-03-10", StartTime: 540, EndTime: 570}

	ap := New("ap1", "bk1", "c1", slot, "Haircut")

	assert.Equal(t, "bk1", ap.BookingID)
	assert.Equal(t, []string{"Haircut"}, ap.Services)
	assert.Equal(t, "pending", ap.Status)
	assert.Equal(t, 540, ap.StartTime)
}
