package models

import "time"

// Empresa represents a subscribing real-estate company, the billing unit.
type Empresa struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name string `gorm:"type:varchar(255);not null"`       // Company display name.
	CUIT string `gorm:"type:varchar(32);uniqueIndex"`     // Tax identification number.

	OwnerUserID uint64 `gorm:"not null;index"`         // Owning user account.
	OwnerUser   *User  `gorm:"foreignKey:OwnerUserID"` // Owning user record.

	IsEnabled bool `gorm:"not null;default:true"` // Whether the tenant is active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PlanPriceOverride stores a negotiated net price for one empresa and plan.
// When present it supersedes the plan's list price for that empresa only.
type PlanPriceOverride struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EmpresaID uint64 `gorm:"not null;uniqueIndex:idx_price_overrides_empresa_plan"` // Tenant the override applies to.
	PlanID    uint64 `gorm:"not null;uniqueIndex:idx_price_overrides_empresa_plan"` // Plan the override applies to.

	NetPrice float64 `gorm:"type:decimal(12,2);not null"` // Negotiated net price.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
