package models

import "time"

// Plan represents a subscription plan configuration.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string  `gorm:"type:varchar(255);not null"`            // Plan name.
	NetPrice    float64 `gorm:"type:decimal(12,2);not null;default:0"` // Net list price per cycle, before tax.
	Description string  `gorm:"type:text"`                             // Plan description.

	MaxAsesores  int `gorm:"not null;default:0"`  // Maximum active advisors per empresa (0 means unlimited).
	DurationDays int `gorm:"not null;default:30"` // Billing cycle length in days.
	TrialDays    int `gorm:"not null;default:0"`  // Trial length for first subscriptions.

	SortOrder int `gorm:"not null;default:0"` // Display ordering weight.

	IsEnabled bool `gorm:"not null;default:true"` // Whether the plan can be subscribed to.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
