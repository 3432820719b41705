package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReportKind identifies the type of valuation report.
type ReportKind int

// ReportKind constants define report types.
const (
	// ReportKindACM is a comparative market analysis report.
	ReportKindACM ReportKind = 1
	// ReportKindFeasibility is a construction feasibility report.
	ReportKindFeasibility ReportKind = 2
)

// ReportStatus identifies the editing state of a report.
type ReportStatus int

// ReportStatus constants define report states.
const (
	// ReportStatusDraft marks an editable report.
	ReportStatusDraft ReportStatus = 1
	// ReportStatusFinal marks a finalized, read-only report.
	ReportStatusFinal ReportStatus = 2
)

// Report stores a valuation report produced by an empresa's advisor.
type Report struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EmpresaID uint64   `gorm:"not null;index"`       // Owning tenant.
	Empresa   *Empresa `gorm:"foreignKey:EmpresaID"` // Owning tenant record.

	AuthorUserID uint64 `gorm:"not null;index"`          // Advisor or owner that created the report.
	AuthorUser   *User  `gorm:"foreignKey:AuthorUserID"` // Author record.

	Kind ReportKind `gorm:"not null"` // ACM or feasibility.

	Title   string `gorm:"type:varchar(255);not null"` // Report title.
	Address string `gorm:"type:varchar(512)"`          // Subject property address.

	Payload datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Property data, comparables or feasibility parameters.

	EstimatedValue float64 `gorm:"type:decimal(14,2);not null;default:0"`  // Computed estimated value.
	Currency       string  `gorm:"type:varchar(8);not null;default:'ARS'"` // ISO currency code.

	Status ReportStatus `gorm:"not null;default:1"` // Draft or final.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
