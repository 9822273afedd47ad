package repository

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// --------------------------------------------------
// Housekeeping
// --------------------------------------------------

func (r *GormRepository) ListProviderIDsWithSlotsOn(
	ctx context.Context,
	date string,
) ([]string, error) {

	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where("date = ?", date).
		Distinct().
		Pluck("provider_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormRepository) ListActiveBookingsForSlots(
	ctx context.Context,
	slotIDs []string,
) ([]models.Booking, error) {

	if len(slotIDs) == 0 {
		return nil, nil
	}

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("slot_id IN ? AND status IN ?", slotIDs, booking.ActiveStatuses()).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUnbookedSlotsOutside is one statement so each row's booked flag is
// re-checked under its row lock; a slot claimed mid-sweep survives.
func (r *GormRepository) DeleteUnbookedSlotsOutside(
	ctx context.Context,
	before string,
	after string,
) (int64, error) {

	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM slots
		WHERE booked = false
		  AND (date < ? OR date > ?)
		  AND NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bookings.slot_id = slots.id AND bookings.status IN ?
		  )`,
		before, after, booking.ActiveStatuses(),
	)
	return res.RowsAffected, res.Error
}

func (r *GormRepository) ListStalePendingBookings(
	ctx context.Context,
	createdBefore time.Time,
	limit int,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status = ? AND payment_status IN ? AND created_at < ?",
			string(booking.StatusPending),
			[]string{string(booking.PaymentPending), string(booking.PaymentProcessing)},
			createdBefore,
		).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
