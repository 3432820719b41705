package models

import "time"

// BillingLine records a charge produced against an empresa's subscription:
// the initial cycle charge or the prorated delta of an immediate upgrade.
// Proration previews are never persisted; only committed charges are.
type BillingLine struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EmpresaID uint64   `gorm:"not null;index"`       // Billed tenant.
	Empresa   *Empresa `gorm:"foreignKey:EmpresaID"` // Billed tenant record.

	CycleID uint64             `gorm:"not null;index"`     // Cycle the charge belongs to.
	Cycle   *SubscriptionCycle `gorm:"foreignKey:CycleID"` // Cycle record.

	Concept string `gorm:"type:varchar(255);not null"` // Human-readable charge concept.

	NetAmount   float64 `gorm:"type:decimal(12,2);not null;default:0"` // Net amount before tax.
	TaxAmount   float64 `gorm:"type:decimal(12,2);not null;default:0"` // Tax amount.
	TotalAmount float64 `gorm:"type:decimal(12,2);not null;default:0"` // Net plus tax.

	Currency string `gorm:"type:varchar(8);not null;default:'ARS'"` // ISO currency code.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
