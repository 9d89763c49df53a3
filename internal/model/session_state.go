package model

import "time"

// Session billing modes.
const (
	ModeOpen  = "open"
	ModeFixed = "fixed"
)

// SessionState is the durable snapshot of one station's session engine (hot table).
// The full row is rewritten on every state change; a later snapshot always
// supersedes an earlier one for the same station.
type SessionState struct {
	StationID    int64      `gorm:"primaryKey"`
	Active       bool       `gorm:"not null"`
	StartedAt    *time.Time // set iff Active
	HourlyRate   string     `gorm:"size:32;not null"`
	CustomerName string     `gorm:"size:256"`
	Mode         string     `gorm:"size:16;not null"`
	FixedMinutes int        `gorm:"not null"`
	Expired      bool       `gorm:"not null"`
	AlarmFired   bool       `gorm:"not null"` // one-shot latch, kept apart from Expired
	UpdatedAt    time.Time
}
