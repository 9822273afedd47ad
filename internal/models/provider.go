package models

import "time"

type Provider struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"size:64;uniqueIndex;not null" json:"user_id"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	ImageURL    string `gorm:"size:255" json:"image_url"`
	Active      bool   `gorm:"not null" json:"active"`

	Timezone        string `gorm:"size:64" json:"timezone"`
	SlotDurationMin int    `json:"slot_duration_min"`
	DefaultPrice    int64  `json:"default_price"`
	Currency        string `gorm:"size:3" json:"currency"`

	// Destination account at the payment processor.
	PaymentAccountID     string `gorm:"size:100;index" json:"-"`
	PaymentAccountStatus string `gorm:"size:30" json:"payment_account_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
