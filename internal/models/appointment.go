package models

import "time"

type Appointment struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	BookingID  string `gorm:"size:36;uniqueIndex" json:"booking_id"`
	CustomerID string `gorm:"size:64;not null;index" json:"customer_id"`
	ProviderID string `gorm:"size:36;not null;index:idx_appointment_provider_date" json:"provider_id"`

	Date      string   `gorm:"size:10;not null;index:idx_appointment_provider_date" json:"date"`
	StartTime int      `json:"start_time"`
	EndTime   int      `json:"end_time"`
	Services  []string `gorm:"serializer:json;type:text" json:"services"`

	Status        string `gorm:"size:20;not null" json:"status"`
	PaymentStatus string `gorm:"size:20" json:"payment_status"`
	PaymentRef    string `gorm:"size:255" json:"payment_ref,omitempty"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
