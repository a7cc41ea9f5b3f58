package models

import "time"

// Foundation is the tenant organisation that owns rules, records, and alerts.
type Foundation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	TimeZone  string    `gorm:"size:64" json:"time_zone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
