package models

import "time"

type AvailabilityTemplate struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	ProviderID string `gorm:"size:36;not null;uniqueIndex:idx_template_provider_weekday" json:"provider_id"`
	Weekday    int    `gorm:"not null;uniqueIndex:idx_template_provider_weekday" json:"weekday"`

	// Minutes since midnight, ascending and unique.
	StartTimes []int `gorm:"serializer:json;type:text" json:"start_times"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
