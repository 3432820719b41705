package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/acmprop/acmprop/internal/models"
	"gorm.io/gorm"
)

// ResolveNetPrice returns the effective net price of a plan for an empresa,
// preferring a negotiated per-tenant override over the plan's list price.
// ok is false when no price can be resolved; that is a business condition,
// not a fault. Only infrastructure failures return a non-nil error.
func ResolveNetPrice(ctx context.Context, conn *gorm.DB, planID, empresaID uint64) (price float64, ok bool, err error) {
	if conn == nil {
		return 0, false, fmt.Errorf("billing: nil connection")
	}

	var override models.PlanPriceOverride
	errOverride := conn.WithContext(ctx).
		Where("empresa_id = ? AND plan_id = ?", empresaID, planID).
		First(&override).Error
	if errOverride == nil {
		return override.NetPrice, true, nil
	}
	if !errors.Is(errOverride, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("billing: query price override: %w", errOverride)
	}

	var plan models.Plan
	errPlan := conn.WithContext(ctx).First(&plan, planID).Error
	if errPlan == nil {
		return plan.NetPrice, true, nil
	}
	if errors.Is(errPlan, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("billing: query plan: %w", errPlan)
}
