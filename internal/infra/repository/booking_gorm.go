package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (r *GormRepository) GetOrCreateCustomer(
	ctx context.Context,
	userID string,
	name string,
	email string,
) (*models.CustomerProfile, error) {

	db := r.db.WithContext(ctx)

	var p models.CustomerProfile
	err := db.Where(models.CustomerProfile{UserID: userID}).
		Attrs(models.CustomerProfile{ID: uuid.NewString(), Name: name, Email: email}).
		FirstOrCreate(&p).Error
	if err != nil && httperr.IsUniqueViolation(err) {
		// lost the insert race; the other request created it
		err = db.Where("user_id = ?", userID).First(&p).Error
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepository) UpdateCustomer(
	ctx context.Context,
	p *models.CustomerProfile,
) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// --------------------------------------------------
// Slot (conditional writes)
// --------------------------------------------------

func claimSlot(tx *gorm.DB, slotID string, now time.Time) error {
	res := tx.Model(&models.Slot{}).
		Where("id = ? AND booked = ? AND available = ?", slotID, false, true).
		Updates(map[string]any{
			"booked":       true,
			"last_updated": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrConflict("slot_already_booked")
	}
	return nil
}

func (r *GormRepository) ClaimSlot(
	ctx context.Context,
	slotID string,
	now time.Time,
) error {
	return claimSlot(r.db.WithContext(ctx), slotID, now)
}

func (r *GormRepository) AssertSlotBooked(
	ctx context.Context,
	slotID string,
	now time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where("id = ?", slotID).
		Updates(map[string]any{
			"booked":       true,
			"available":    true,
			"last_updated": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrNotFound("slot_not_found")
	}
	return nil
}

func (r *GormRepository) ReleaseSlot(
	ctx context.Context,
	slotID string,
	now time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).Exec(`
		UPDATE slots
		SET booked = false, last_updated = ?
		WHERE id = ? AND booked = true
		  AND NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bookings.slot_id = slots.id AND bookings.status IN ?
		  )`,
		now, slotID, booking.ActiveStatuses(),
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (r *GormRepository) ReserveSlot(
	ctx context.Context,
	in booking.Reservation,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimSlot(tx, in.SlotID, in.Now); err != nil {
			return err
		}

		if err := tx.Create(in.Booking).Error; err != nil {
			if httperr.IsUniqueViolation(err) {
				return httperr.ErrConflict("slot_already_booked")
			}
			return err
		}

		return tx.Create(in.Appointment).Error
	})
}

func (r *GormRepository) GetBooking(
	ctx context.Context,
	bookingID string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ?", bookingID).
		First(&b).Error; err != nil {
		return nil, notFound(err, "booking_not_found")
	}
	return &b, nil
}

func (r *GormRepository) FindBookingForSlot(
	ctx context.Context,
	slotID string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("slot_id = ?", slotID).
		Order(clauseActiveFirst).
		Order("created_at DESC").
		First(&b).Error; err != nil {
		return nil, notFound(err, "booking_not_found")
	}
	return &b, nil
}

const clauseActiveFirst = "CASE WHEN status IN ('pending','confirmed','completed') THEN 0 ELSE 1 END"

func (r *GormRepository) FindBookingByExternalRef(
	ctx context.Context,
	ref string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ? OR external_reference = ? OR checkout_reference = ? OR receipt_reference = ?", ref, ref, ref, ref).
		Order("created_at DESC").
		First(&b).Error; err != nil {
		return nil, notFound(err, "booking_not_found")
	}
	return &b, nil
}

func (r *GormRepository) UpdateBooking(
	ctx context.Context,
	b *models.Booking,
	fromStatus booking.Status,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", b.ID, string(fromStatus)).
		Updates(bookingChanges(b))
	if res.Error != nil {
		if httperr.IsUniqueViolation(res.Error) {
			return httperr.ErrConflict("slot_already_booked")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrConflict("booking_changed")
	}
	return nil
}

// bookingChanges never blanks a reference: a writer holding an older copy
// must not erase what a concurrent checkout or webhook recorded.
func bookingChanges(b *models.Booking) map[string]any {
	changes := map[string]any{
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
	}
	if b.CheckoutReference != "" {
		changes["checkout_reference"] = b.CheckoutReference
	}
	if b.ExternalReference != "" {
		changes["external_reference"] = b.ExternalReference
	}
	if b.ReceiptReference != "" {
		changes["receipt_reference"] = b.ReceiptReference
	}
	return changes
}

func (r *GormRepository) ListCustomerBookings(
	ctx context.Context,
	customerID string,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *GormRepository) GetAppointment(
	ctx context.Context,
	appointmentID string,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Where("id = ?", appointmentID).
		First(&ap).Error; err != nil {
		return nil, notFound(err, "appointment_not_found")
	}
	return &ap, nil
}

func (r *GormRepository) SetAppointmentStatus(
	ctx context.Context,
	appointmentID string,
	status string,
	paymentRef string,
	now time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Updates(appointmentChanges(status, paymentRef, now))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrNotFound("appointment_not_found")
	}
	return nil
}

func (r *GormRepository) TransitionAppointment(
	ctx context.Context,
	appointmentID string,
	from []string,
	status string,
	now time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", appointmentID, from).
		Updates(appointmentChanges(status, "", now))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.ErrConflict("appointment_changed")
	}
	return nil
}

func appointmentChanges(status, paymentRef string, now time.Time) map[string]any {
	s := appointment.Status(status)
	changes := map[string]any{
		"status":         status,
		"payment_status": appointment.PaymentStatusFor(s),
	}
	if paymentRef != "" {
		changes["payment_ref"] = paymentRef
	}
	switch s {
	case appointment.StatusCancelled:
		changes["cancelled_at"] = now
	case appointment.StatusCompleted:
		changes["completed_at"] = now
	}
	return changes
}

func (r *GormRepository) ListProviderAppointments(
	ctx context.Context,
	providerID string,
	f booking.AppointmentFilter,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}

	var out []models.Appointment
	if err := q.Order("date ASC, start_time ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
