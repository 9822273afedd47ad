package appointment

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

var (
	owner    = access.Actor{UserID: "u-owner", Role: access.RoleProvider}
	stranger = access.Actor{UserID: "u-other", Role: access.RoleProvider}
	fixedNow = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) *repository.MemoryRepository {
	t.Helper()

	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.CreateProvider(context.Background(), &models.Provider{
		ID: "p1", UserID: owner.UserID, Name: "Barber", Active: true, Timezone: "UTC",
	}))

	repo.PutBooking(models.Booking{
		ID: "b1", SlotID: "s1", ProviderID: "p1", CustomerID: "u-c",
		Status: "confirmed", PaymentStatus: "succeeded", AppointmentID: "a1",
	})
	repo.PutAppointment(models.Appointment{
		ID: "a1", BookingID: "b1", CustomerID: "u-c", ProviderID: "p1",
		Date: "2025-03-10", StartTime: 540, EndTime: 570, Services: []string{"Haircut"},
		Status: "paid", PaymentStatus: "paid",
	})
	repo.PutAppointment(models.Appointment{
		ID: "a2", CustomerID: "u-d", ProviderID: "p1",
		Date: "2025-03-11", StartTime: 600, EndTime: 630,
		Status: "cancelled", PaymentStatus: "cancelled",
	})
	return repo
}

func TestCompleteMovesAppointmentAndBooking(t *testing.T) {
	repo := setup(t)
	uc := NewCompleteAppointment(repo, nil, nil)
	uc.now = func() time.Time { return fixedNow }

	res, err := uc.Execute(context.Background(), owner, "a1")
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Appointment.Status)
	assert.Empty(t, res.Degraded)

	ap, err := repo.GetAppointment(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "completed", ap.Status)
	require.NotNil(t, ap.CompletedAt)

	b, err := repo.GetBooking(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "completed", b.Status)
}

func TestCompleteRules(t *testing.T) {
	repo := setup(t)
	uc := NewCompleteAppointment(repo, nil, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, stranger, "a1")
	assert.True(t, httperr.IsBusiness(err, "not_provider_owner"))

	_, err = uc.Execute(ctx, access.Actor{UserID: "u-c", Role: access.RoleCustomer}, "a1")
	assert.True(t, httperr.IsKind(err, httperr.KindForbidden))

	_, err = uc.Execute(ctx, owner, "a2")
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	_, err = uc.Execute(ctx, owner, "missing")
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))
}

// cancelAfterRead cancels the booking and its appointment right after the
// appointment is read, the way a concurrent customer cancel would.
type cancelAfterRead struct {
	*repository.MemoryRepository
}

func (r cancelAfterRead) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	ap, err := r.MemoryRepository.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := r.MemoryRepository.GetBooking(ctx, ap.BookingID)
	if err != nil {
		return nil, err
	}
	from := booking.Status(b.Status)
	b.Status = string(booking.StatusCancelled)
	if err := r.MemoryRepository.UpdateBooking(ctx, b, from); err != nil {
		return nil, err
	}
	if err := r.MemoryRepository.SetAppointmentStatus(ctx, id, "cancelled", "", fixedNow); err != nil {
		return nil, err
	}
	return ap, nil
}

func TestCompleteLosesToConcurrentCancel(t *testing.T) {
	repo := setup(t)
	uc := NewCompleteAppointment(cancelAfterRead{repo}, nil, nil)
	uc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	_, err := uc.Execute(ctx, owner, "a1")
	assert.True(t, httperr.IsBusiness(err, "appointment_changed"))

	ap, err := repo.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", ap.Status)
	assert.Nil(t, ap.CompletedAt)

	b, err := repo.GetBooking(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", b.Status)
}

func TestListProviderAppointmentsFilters(t *testing.T) {
	repo := setup(t)
	uc := NewListProviderAppointments(repo)
	ctx := context.Background()

	all, err := uc.Execute(ctx, owner, "p1", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	paid, err := uc.Execute(ctx, owner, "p1", "confirmed", "")
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "a1", paid[0].ID)
	assert.Equal(t, "09:00", paid[0].Start)

	ms := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC).UnixMilli()
	byDate, err := uc.Execute(ctx, owner, "p1", "", strconv.FormatInt(ms, 10))
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "a2", byDate[0].ID)
	assert.Equal(t, []string{}, byDate[0].Services)

	_, err = uc.Execute(ctx, owner, "p1", "weird", "")
	assert.True(t, httperr.IsBusiness(err, "invalid_status"))

	_, err = uc.Execute(ctx, stranger, "p1", "", "")
	assert.True(t, httperr.IsKind(err, httperr.KindForbidden))
}
