package model

import "time"

// SessionRecord is one completed billing session in the ledger (cold table).
// Records are immutable once written; they leave the ledger only through an
// explicit delete or a full reset.
type SessionRecord struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StationID       int64     `gorm:"not null;index" json:"station_id"`
	StationName     string    `gorm:"size:128;not null" json:"station_name"` // display name at stop time
	StartedAt       time.Time `gorm:"not null" json:"started_at"`
	EndedAt         time.Time `gorm:"not null" json:"ended_at"`
	DurationSeconds int64     `gorm:"not null" json:"duration_seconds"`
	HourlyRate      float64   `gorm:"not null" json:"hourly_rate"`
	TotalCost       float64   `gorm:"not null" json:"total_cost"`
	CreatedAt       time.Time `json:"-"`
}
