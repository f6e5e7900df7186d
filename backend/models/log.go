package models

import "time"

// LogEntry is one persisted slog record. UserID is set for events about an account.
// ID is only assigned by SQL stores and is left out of JSON when unset.
type LogEntry struct {
	ID        uint      `json:"id,omitempty" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	Level     string    `json:"level" gorm:"index"`
	Message   string    `json:"message"`
	Source    string    `json:"source" gorm:"index"`
	UserID    *string   `json:"user_id" gorm:"index;size:36"`
	Data      string    `json:"data"`
}
