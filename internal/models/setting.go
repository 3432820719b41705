package models

import (
	"encoding/json"
	"time"
)

// Setting stores a runtime configuration value as JSON keyed by name.
type Setting struct {
	Key       string          `gorm:"primaryKey;type:varchar(128)"` // Setting key.
	Value     json.RawMessage `gorm:"type:jsonb"`                   // JSON-encoded value.
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime"`      // Last update timestamp.
}
