package availability

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// GenerateStatus tells the caller what GenerateSlots did for a (provider, date).
type GenerateStatus string

const (
	GenerateExisting   GenerateStatus = "existing"
	GenerateNoTemplate GenerateStatus = "no_template"
	GenerateGenerated  GenerateStatus = "generated"
)

// BuildSlots expands start times into fresh, unbooked slots for one date.
func BuildSlots(
	provider *models.Provider,
	date string,
	weekday time.Weekday,
	startTimes []int,
	now time.Time,
) []models.Slot {

	slots := make([]models.Slot, 0, len(startTimes))
	for _, start := range startTimes {
		slots = append(slots, models.Slot{
			ID:          uuid.NewString(),
			ProviderID:  provider.ID,
			Date:        date,
			StartTime:   start,
			EndTime:     start + provider.SlotDurationMin,
			Weekday:     int(weekday),
			Available:   true,
			Booked:      false,
			Price:       provider.DefaultPrice,
			LastUpdated: now,
		})
	}
	return slots
}
