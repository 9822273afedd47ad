package models

import "time"

type Slot struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	ProviderID string `gorm:"size:36;not null;uniqueIndex:idx_slot_identity,priority:1" json:"provider_id"`
	Date       string `gorm:"size:10;not null;uniqueIndex:idx_slot_identity,priority:2;index" json:"date"`
	StartTime  int    `gorm:"not null;uniqueIndex:idx_slot_identity,priority:3" json:"start_time"`
	EndTime    int    `gorm:"not null" json:"end_time"`
	Weekday    int    `json:"weekday"`

	// Available=false means withdrawn by the provider; Booked implies Available.
	Available bool  `gorm:"not null" json:"available"`
	Booked    bool  `gorm:"not null;index" json:"booked"`
	Price     int64 `json:"price"`

	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}
