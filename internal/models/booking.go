package models

import "time"

type Booking struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	SlotID     string `gorm:"size:36;not null;index" json:"slot_id"`
	ProviderID string `gorm:"size:36;not null;index" json:"provider_id"`
	CustomerID string `gorm:"size:64;not null;index" json:"customer_id"`

	Status        string `gorm:"size:20;not null;index" json:"status"`
	PaymentStatus string `gorm:"size:20;not null" json:"payment_status"`

	Amount      int64  `json:"amount"`
	Currency    string `gorm:"size:3" json:"currency"`
	ServiceName string `gorm:"size:100" json:"service_name"`

	CheckoutReference string `gorm:"size:255" json:"checkout_reference,omitempty"`
	ExternalReference string `gorm:"size:255;index" json:"external_reference,omitempty"`
	ReceiptReference  string `gorm:"size:255" json:"receipt_reference,omitempty"`

	AppointmentID string `gorm:"size:36;index" json:"appointment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
