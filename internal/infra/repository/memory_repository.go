package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/domain/provider"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

var (
	_ availability.Repository = (*MemoryRepository)(nil)
	_ booking.Repository      = (*MemoryRepository)(nil)
	_ booking.SweepRepository = (*MemoryRepository)(nil)
	_ provider.Repository     = (*MemoryRepository)(nil)
	_ Store                   = (*MemoryRepository)(nil)
)

// MemoryRepository keeps everything in process memory (STORAGE_DRIVER=memory).
// One mutex serialises writes, which gives the same conditional-write
// guarantees the SQL statements give.
type MemoryRepository struct {
	mu           sync.Mutex
	providers    map[string]models.Provider
	customers    map[string]models.CustomerProfile // by user id
	templates    map[string]models.AvailabilityTemplate
	slots        map[string]models.Slot
	bookings     map[string]models.Booking
	appointments map[string]models.Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		providers:    map[string]models.Provider{},
		customers:    map[string]models.CustomerProfile{},
		templates:    map[string]models.AvailabilityTemplate{},
		slots:        map[string]models.Slot{},
		bookings:     map[string]models.Booking{},
		appointments: map[string]models.Appointment{},
	}
}

func templateKey(providerID string, weekday int) string {
	return fmt.Sprintf("%s|%d", providerID, weekday)
}

// --------------------------------------------------
// Provider
// --------------------------------------------------

func (m *MemoryRepository) CreateProvider(_ context.Context, p *models.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.providers {
		if existing.UserID == p.UserID {
			return httperr.ErrConflict("provider_exists")
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	m.providers[p.ID] = *p
	return nil
}

func (m *MemoryRepository) GetProvider(_ context.Context, providerID string) (*models.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.providers[providerID]
	if !ok {
		return nil, httperr.ErrNotFound("provider_not_found")
	}
	return &p, nil
}

func (m *MemoryRepository) GetProviderByUser(_ context.Context, userID string) (*models.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.providers {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, httperr.ErrNotFound("provider_not_found")
}

func (m *MemoryRepository) GetProviderByPaymentAccount(_ context.Context, accountID string) (*models.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.providers {
		if accountID != "" && p.PaymentAccountID == accountID {
			return &p, nil
		}
	}
	return nil, httperr.ErrNotFound("provider_not_found")
}

func (m *MemoryRepository) ListActiveProviders(_ context.Context) ([]models.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Provider
	for _, p := range m.providers {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) UpdateProvider(_ context.Context, p *models.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.providers[p.ID]; !ok {
		return httperr.ErrNotFound("provider_not_found")
	}
	p.UpdatedAt = time.Now()
	m.providers[p.ID] = *p
	return nil
}

// --------------------------------------------------
// Template
// --------------------------------------------------

func (m *MemoryRepository) GetTemplate(_ context.Context, providerID string, weekday time.Weekday) (*models.AvailabilityTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tpl, ok := m.templates[templateKey(providerID, int(weekday))]
	if !ok {
		return nil, httperr.ErrNotFound("template_not_found")
	}
	tpl.StartTimes = append([]int(nil), tpl.StartTimes...)
	return &tpl, nil
}

func (m *MemoryRepository) ListTemplates(_ context.Context, providerID string) ([]models.AvailabilityTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.AvailabilityTemplate
	for _, tpl := range m.templates {
		if tpl.ProviderID == providerID {
			tpl.StartTimes = append([]int(nil), tpl.StartTimes...)
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (m *MemoryRepository) SaveTemplate(_ context.Context, tpl *models.AvailabilityTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := templateKey(tpl.ProviderID, tpl.Weekday)
	now := time.Now()
	if existing, ok := m.templates[key]; ok {
		tpl.ID = existing.ID
		tpl.CreatedAt = existing.CreatedAt
	} else {
		if tpl.ID == "" {
			tpl.ID = uuid.NewString()
		}
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	stored := *tpl
	stored.StartTimes = append([]int(nil), tpl.StartTimes...)
	m.templates[key] = stored
	return nil
}

// --------------------------------------------------
// Slot
// --------------------------------------------------

func (m *MemoryRepository) GetSlot(_ context.Context, slotID string) (*models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotID]
	if !ok {
		return nil, httperr.ErrNotFound("slot_not_found")
	}
	return &s, nil
}

func (m *MemoryRepository) ListSlotsForDate(_ context.Context, providerID, date string) ([]models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.filterSlots(func(s models.Slot) bool {
		return s.ProviderID == providerID && s.Date == date
	}), nil
}

func (m *MemoryRepository) ListSlotsFrom(_ context.Context, providerID, fromDate string, weekday time.Weekday) ([]models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.filterSlots(func(s models.Slot) bool {
		return s.ProviderID == providerID && s.Date >= fromDate && s.Weekday == int(weekday)
	}), nil
}

func (m *MemoryRepository) ListSlotsByIDs(_ context.Context, slotIDs []string) ([]models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Slot
	for _, id := range slotIDs {
		if s, ok := m.slots[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryRepository) filterSlots(keep func(models.Slot) bool) []models.Slot {
	var out []models.Slot
	for _, s := range m.slots {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (m *MemoryRepository) InsertSlots(_ context.Context, slots []models.Slot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	taken := map[string]bool{}
	for _, s := range m.slots {
		taken[slotIdentity(s)] = true
	}

	inserted := 0
	for _, s := range slots {
		if taken[slotIdentity(s)] {
			continue
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now()
		}
		m.slots[s.ID] = s
		taken[slotIdentity(s)] = true
		inserted++
	}
	return inserted, nil
}

func slotIdentity(s models.Slot) string {
	return fmt.Sprintf("%s|%s|%d", s.ProviderID, s.Date, s.StartTime)
}

func (m *MemoryRepository) SetSlotsAvailable(_ context.Context, slotIDs []string, available bool, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := 0
	for _, id := range slotIDs {
		s, ok := m.slots[id]
		if !ok || (!available && s.Booked) {
			continue
		}
		s.Available = available
		s.LastUpdated = now
		m.slots[id] = s
		changed++
	}
	return changed, nil
}

func (m *MemoryRepository) ClaimSlot(_ context.Context, slotID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.claimLocked(slotID, now)
}

func (m *MemoryRepository) claimLocked(slotID string, now time.Time) error {
	s, ok := m.slots[slotID]
	if !ok || s.Booked || !s.Available {
		return httperr.ErrConflict("slot_already_booked")
	}
	s.Booked = true
	s.LastUpdated = now
	m.slots[slotID] = s
	return nil
}

func (m *MemoryRepository) AssertSlotBooked(_ context.Context, slotID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotID]
	if !ok {
		return httperr.ErrNotFound("slot_not_found")
	}
	s.Booked = true
	s.Available = true
	s.LastUpdated = now
	m.slots[slotID] = s
	return nil
}

func (m *MemoryRepository) ReleaseSlot(_ context.Context, slotID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotID]
	if !ok || !s.Booked || m.hasActiveBookingLocked(slotID) {
		return false, nil
	}
	s.Booked = false
	s.LastUpdated = now
	m.slots[slotID] = s
	return true, nil
}

func (m *MemoryRepository) hasActiveBookingLocked(slotID string) bool {
	for _, b := range m.bookings {
		if b.SlotID == slotID && booking.IsActive(booking.Status(b.Status)) {
			return true
		}
	}
	return false
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (m *MemoryRepository) GetOrCreateCustomer(_ context.Context, userID, name, email string) (*models.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.customers[userID]; ok {
		return &p, nil
	}
	now := time.Now()
	p := models.CustomerProfile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.customers[userID] = p
	return &p, nil
}

func (m *MemoryRepository) UpdateCustomer(_ context.Context, p *models.CustomerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.UpdatedAt = time.Now()
	m.customers[p.UserID] = *p
	return nil
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (m *MemoryRepository) ReserveSlot(_ context.Context, in booking.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasActiveBookingLocked(in.SlotID) {
		return httperr.ErrConflict("slot_already_booked")
	}
	if err := m.claimLocked(in.SlotID, in.Now); err != nil {
		return err
	}

	b := *in.Booking
	b.CreatedAt, b.UpdatedAt = in.Now, in.Now
	m.bookings[b.ID] = b
	in.Booking.CreatedAt, in.Booking.UpdatedAt = in.Now, in.Now

	ap := *in.Appointment
	ap.Services = append([]string(nil), ap.Services...)
	ap.CreatedAt, ap.UpdatedAt = in.Now, in.Now
	m.appointments[ap.ID] = ap
	return nil
}

func (m *MemoryRepository) GetBooking(_ context.Context, bookingID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, httperr.ErrNotFound("booking_not_found")
	}
	return &b, nil
}

func (m *MemoryRepository) FindBookingForSlot(_ context.Context, slotID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *models.Booking
	for _, b := range m.bookings {
		if b.SlotID != slotID {
			continue
		}
		b := b
		if best == nil || preferBooking(b, *best) {
			best = &b
		}
	}
	if best == nil {
		return nil, httperr.ErrNotFound("booking_not_found")
	}
	return best, nil
}

func preferBooking(a, b models.Booking) bool {
	aa := booking.IsActive(booking.Status(a.Status))
	ba := booking.IsActive(booking.Status(b.Status))
	if aa != ba {
		return aa
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (m *MemoryRepository) FindBookingByExternalRef(_ context.Context, ref string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *models.Booking
	for _, b := range m.bookings {
		if ref == "" || (b.ID != ref && b.ExternalReference != ref && b.CheckoutReference != ref && b.ReceiptReference != ref) {
			continue
		}
		b := b
		if best == nil || b.CreatedAt.After(best.CreatedAt) {
			best = &b
		}
	}
	if best == nil {
		return nil, httperr.ErrNotFound("booking_not_found")
	}
	return best, nil
}

func (m *MemoryRepository) UpdateBooking(_ context.Context, b *models.Booking, fromStatus booking.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.bookings[b.ID]
	if !ok || stored.Status != string(fromStatus) {
		return httperr.ErrConflict("booking_changed")
	}
	if booking.IsActive(booking.Status(b.Status)) && !booking.IsActive(fromStatus) {
		for _, other := range m.bookings {
			if other.ID != b.ID && other.SlotID == b.SlotID && booking.IsActive(booking.Status(other.Status)) {
				return httperr.ErrConflict("slot_already_booked")
			}
		}
	}

	stored.Status = b.Status
	stored.PaymentStatus = b.PaymentStatus
	for k, v := range bookingChanges(b) {
		switch k {
		case "checkout_reference":
			stored.CheckoutReference = v.(string)
		case "external_reference":
			stored.ExternalReference = v.(string)
		case "receipt_reference":
			stored.ReceiptReference = v.(string)
		}
	}
	stored.UpdatedAt = time.Now()
	m.bookings[b.ID] = stored
	return nil
}

func (m *MemoryRepository) ListCustomerBookings(_ context.Context, customerID string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Booking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (m *MemoryRepository) GetAppointment(_ context.Context, appointmentID string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ap, ok := m.appointments[appointmentID]
	if !ok {
		return nil, httperr.ErrNotFound("appointment_not_found")
	}
	ap.Services = append([]string(nil), ap.Services...)
	return &ap, nil
}

func (m *MemoryRepository) SetAppointmentStatus(_ context.Context, appointmentID, status, paymentRef string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ap, ok := m.appointments[appointmentID]
	if !ok {
		return httperr.ErrNotFound("appointment_not_found")
	}
	m.applyAppointmentLocked(ap, status, paymentRef, now)
	return nil
}

func (m *MemoryRepository) TransitionAppointment(_ context.Context, appointmentID string, from []string, status string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ap, ok := m.appointments[appointmentID]
	if !ok {
		return httperr.ErrNotFound("appointment_not_found")
	}
	if !slices.Contains(from, ap.Status) {
		return httperr.ErrConflict("appointment_changed")
	}
	m.applyAppointmentLocked(ap, status, "", now)
	return nil
}

func (m *MemoryRepository) applyAppointmentLocked(ap models.Appointment, status, paymentRef string, now time.Time) {
	for k, v := range appointmentChanges(status, paymentRef, now) {
		switch k {
		case "status":
			ap.Status = v.(string)
		case "payment_status":
			ap.PaymentStatus = v.(string)
		case "payment_ref":
			ap.PaymentRef = v.(string)
		case "cancelled_at":
			t := v.(time.Time)
			ap.CancelledAt = &t
		case "completed_at":
			t := v.(time.Time)
			ap.CompletedAt = &t
		}
	}
	ap.UpdatedAt = now
	m.appointments[ap.ID] = ap
}

func (m *MemoryRepository) ListProviderAppointments(_ context.Context, providerID string, f booking.AppointmentFilter) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Appointment
	for _, ap := range m.appointments {
		if ap.ProviderID != providerID {
			continue
		}
		if f.Status != "" && ap.Status != f.Status {
			continue
		}
		if f.Date != "" && ap.Date != f.Date {
			continue
		}
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// --------------------------------------------------
// Housekeeping
// --------------------------------------------------

func (m *MemoryRepository) ListProviderIDsWithSlotsOn(_ context.Context, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	var out []string
	for _, s := range m.slots {
		if s.Date == date && !seen[s.ProviderID] {
			seen[s.ProviderID] = true
			out = append(out, s.ProviderID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryRepository) ListActiveBookingsForSlots(_ context.Context, slotIDs []string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := map[string]bool{}
	for _, id := range slotIDs {
		wanted[id] = true
	}

	var out []models.Booking
	for _, b := range m.bookings {
		if wanted[b.SlotID] && booking.IsActive(booking.Status(b.Status)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MemoryRepository) DeleteUnbookedSlotsOutside(_ context.Context, before, after string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, s := range m.slots {
		if s.Booked || m.hasActiveBookingLocked(id) {
			continue
		}
		if s.Date < before || s.Date > after {
			delete(m.slots, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryRepository) ListStalePendingBookings(_ context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Booking
	for _, b := range m.bookings {
		if b.Status != string(booking.StatusPending) {
			continue
		}
		if b.PaymentStatus != string(booking.PaymentPending) && b.PaymentStatus != string(booking.PaymentProcessing) {
			continue
		}
		if b.CreatedAt.Before(createdBefore) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --------------------------------------------------
// Test helpers
// --------------------------------------------------

// PutSlot stores a slot as-is. Used to seed state that normal flows cannot
// produce, such as a drifted booked flag.
func (m *MemoryRepository) PutSlot(s models.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[s.ID] = s
}

func (m *MemoryRepository) PutBooking(b models.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

func (m *MemoryRepository) PutAppointment(ap models.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[ap.ID] = ap
}
