package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// New builds the appointment projection of a freshly claimed slot.
func New(id, bookingID, customerID string, slot *models.Slot, serviceName string) *models.Appointment {
	services := []string{}
	if serviceName != "" {
		services = append(services, serviceName)
	}

	return &models.Appointment{
		ID:            id,
		BookingID:     bookingID,
		CustomerID:    customerID,
		ProviderID:    slot.ProviderID,
		Date:          slot.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		Services:      services,
		Status:        string(InitialStatus()),
		PaymentStatus: "pending",
	}
}
