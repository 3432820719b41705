package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acmprop/acmprop/internal/models"
	"gorm.io/gorm"
)

// ErrNoActiveCycle indicates the empresa has no active subscription cycle.
var ErrNoActiveCycle = errors.New("billing: no active subscription cycle")

// CycleState describes the current billing cycle of an empresa.
// Authorization is the caller's concern; this resolver performs none.
type CycleState struct {
	CycleID   uint64    // Cycle primary key.
	EmpresaID uint64    // Tenant the cycle belongs to.
	StartDate time.Time // Cycle start date (inclusive).
	EndDate   time.Time // Cycle end date (inclusive).
	PlanID    uint64    // Currently active plan.
	PlanName  string    // Active plan display name.
	IsTrial   bool      // Whether the cycle is an unbilled trial.
	Version   uint64    // Optimistic concurrency version.

	NextPlanID   *uint64 // Scheduled plan for the next cycle, when a downgrade was deferred.
	NextPlanName string  // Scheduled plan display name, empty when none.
}

// ResolveCycleState loads the active cycle for an empresa with its plan and
// any scheduled next plan. Returns ErrNoActiveCycle when none exists.
func ResolveCycleState(ctx context.Context, conn *gorm.DB, empresaID uint64) (*CycleState, error) {
	if conn == nil {
		return nil, fmt.Errorf("billing: nil connection")
	}

	var cycle models.SubscriptionCycle
	errFind := conn.WithContext(ctx).
		Preload("Plan").
		Preload("NextPlan").
		Where("empresa_id = ? AND state = ?", empresaID, models.CycleStateActive).
		First(&cycle).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveCycle
		}
		return nil, fmt.Errorf("billing: query active cycle: %w", errFind)
	}

	state := &CycleState{
		CycleID:    cycle.ID,
		EmpresaID:  cycle.EmpresaID,
		StartDate:  cycle.StartDate,
		EndDate:    cycle.EndDate,
		PlanID:     cycle.PlanID,
		IsTrial:    cycle.IsTrial,
		Version:    cycle.Version,
		NextPlanID: cycle.NextPlanID,
	}
	if cycle.Plan != nil {
		state.PlanName = cycle.Plan.Name
	}
	if cycle.NextPlan != nil {
		state.NextPlanName = cycle.NextPlan.Name
	}
	return state, nil
}
