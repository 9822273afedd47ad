package availability

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type Repository interface {
	// -------- Provider --------
	GetProvider(
		ctx context.Context,
		providerID string,
	) (*models.Provider, error)

	// -------- Template --------
	GetTemplate(
		ctx context.Context,
		providerID string,
		weekday time.Weekday,
	) (*models.AvailabilityTemplate, error)

	ListTemplates(
		ctx context.Context,
		providerID string,
	) ([]models.AvailabilityTemplate, error)

	// SaveTemplate replaces the template for (provider, weekday), last write wins.
	SaveTemplate(
		ctx context.Context,
		tpl *models.AvailabilityTemplate,
	) error

	// -------- Slot --------
	GetSlot(
		ctx context.Context,
		slotID string,
	) (*models.Slot, error)

	ListSlotsForDate(
		ctx context.Context,
		providerID string,
		date string,
	) ([]models.Slot, error)

	ListSlotsFrom(
		ctx context.Context,
		providerID string,
		fromDate string,
		weekday time.Weekday,
	) ([]models.Slot, error)

	// InsertSlots skips slots whose (provider, date, start) already exists.
	InsertSlots(
		ctx context.Context,
		slots []models.Slot,
	) (int, error)

	// SetSlotsAvailable never withdraws a booked slot; it returns how many rows changed.
	SetSlotsAvailable(
		ctx context.Context,
		slotIDs []string,
		available bool,
		now time.Time,
	) (int, error)
}
