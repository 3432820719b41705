package models

import "time"

// CycleState represents the lifecycle state of a subscription cycle.
type CycleState int

// CycleState constants define subscription cycle states.
const (
	// CycleStatePending marks a cycle created but not yet started.
	CycleStatePending CycleState = 1
	// CycleStateActive marks the current billing cycle.
	CycleStateActive CycleState = 2
	// CycleStateCancelled marks a cancelled or superseded cycle.
	CycleStateCancelled CycleState = 3
)

// SubscriptionCycle records one billing period for an empresa.
// Exactly one cycle is active per empresa at any time; a cycle is superseded
// at its boundary, never mutated in place except for plan changes.
type SubscriptionCycle struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	EmpresaID uint64   `gorm:"not null;index"`       // Tenant the cycle belongs to.
	Empresa   *Empresa `gorm:"foreignKey:EmpresaID"` // Tenant record.

	PlanID uint64 `gorm:"not null;index"`    // Currently active plan.
	Plan   *Plan  `gorm:"foreignKey:PlanID"` // Active plan record.

	StartDate time.Time `gorm:"not null"` // Cycle start date (inclusive).
	EndDate   time.Time `gorm:"not null"` // Cycle end date (inclusive).

	NextPlanID *uint64 `gorm:"index"`                 // Scheduled plan for the next cycle, set by deferred downgrades.
	NextPlan   *Plan   `gorm:"foreignKey:NextPlanID"` // Scheduled plan record.

	State   CycleState `gorm:"not null;default:2"`     // Lifecycle state.
	IsTrial bool       `gorm:"not null;default:false"` // Whether this cycle is an unbilled trial.

	// Version guards concurrent commits; every mutation must match and bump it.
	Version uint64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
