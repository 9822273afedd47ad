package models

import "time"

type CustomerProfile struct {
	ID     string `gorm:"primaryKey;size:36" json:"id"`
	UserID string `gorm:"size:64;uniqueIndex;not null" json:"user_id"`

	Name  string `gorm:"size:100" json:"name"`
	Email string `gorm:"size:100" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
