package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acmprop/acmprop/internal/models"
	"gorm.io/gorm"
)

// Business preconditions surfaced by the preview path. The route layer maps
// these to 409-class responses; they are never internal faults.
var (
	// ErrPlanNotFound indicates the target plan does not exist or is disabled.
	ErrPlanNotFound = errors.New("billing: target plan not found")
	// ErrPriceUnresolved indicates no net price could be resolved for a plan.
	ErrPriceUnresolved = errors.New("billing: price not configured")
)

// PreviewRequest carries the inputs of a plan-change preview.
type PreviewRequest struct {
	EmpresaID    uint64     // Tenant requesting the change.
	TargetPlanID uint64     // Plan to change to.
	Today        *time.Time // Optional date override for testability; defaults to UTC now.
}

// PlanPrice pairs a plan with its resolved net price for the tenant.
type PlanPrice struct {
	PlanID   uint64  `json:"plan_id"`
	Name     string  `json:"name"`
	NetPrice float64 `json:"net_price"`
}

// CycleInfo describes the cycle window the preview was computed against.
type CycleInfo struct {
	StartDate     time.Time `json:"start"`
	EndDate       time.Time `json:"end"`
	DaysInCycle   int       `json:"days_in_cycle"`
	DaysRemaining int       `json:"days_remaining"`
	Fraction      float64   `json:"fraction"`
}

// DeltaAmounts holds the monetary outcome of the preview.
type DeltaAmounts struct {
	Net      float64 `json:"net"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// ScheduledNext describes a deferred plan change awaiting the cycle boundary.
type ScheduledNext struct {
	PlanID        uint64    `json:"plan_id"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// Preview is the result of simulating a plan change. Computed on demand,
// never persisted.
type Preview struct {
	Action        Change         `json:"action"`
	Cycle         CycleInfo      `json:"cycle"`
	Current       PlanPrice      `json:"current"`
	Target        PlanPrice      `json:"target"`
	Delta         DeltaAmounts   `json:"delta"`
	ScheduledNext *ScheduledNext `json:"scheduled_next"`

	cycleVersion uint64 // Captured for optimistic commit checks.
}

// CycleVersion exposes the cycle version captured when the preview was built.
func (p *Preview) CycleVersion() uint64 { return p.cycleVersion }

// PreviewPlanChange simulates changing an empresa's plan mid-cycle.
// Upgrades carry an immediate prorated delta; downgrades are deferred to the
// next cycle boundary and preview at zero charge.
func PreviewPlanChange(ctx context.Context, conn *gorm.DB, req PreviewRequest) (*Preview, error) {
	if req.TargetPlanID == 0 {
		return nil, ErrPlanNotFound
	}

	var target models.Plan
	errTarget := conn.WithContext(ctx).
		Where("id = ? AND is_enabled = ?", req.TargetPlanID, true).
		First(&target).Error
	if errTarget != nil {
		if errors.Is(errTarget, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("billing: query target plan: %w", errTarget)
	}

	cycle, errCycle := ResolveCycleState(ctx, conn, req.EmpresaID)
	if errCycle != nil {
		return nil, errCycle
	}

	currentPrice, okCurrent, errCurrent := ResolveNetPrice(ctx, conn, cycle.PlanID, req.EmpresaID)
	if errCurrent != nil {
		return nil, errCurrent
	}
	targetPrice, okTarget, errResolve := ResolveNetPrice(ctx, conn, target.ID, req.EmpresaID)
	if errResolve != nil {
		return nil, errResolve
	}
	if !okCurrent || !okTarget {
		return nil, ErrPriceUnresolved
	}

	today := time.Now().UTC()
	if req.Today != nil {
		today = *req.Today
	}

	calc := Calculate(CalcInput{
		CycleStart:      cycle.StartDate,
		CycleEnd:        cycle.EndDate,
		Today:           today,
		CurrentNetPrice: currentPrice,
		NewNetPrice:     targetPrice,
		TaxRate:         LoadTaxRate(ctx, conn),
	})
	action := Classify(currentPrice, targetPrice)
	currency := LoadCurrency(ctx, conn)

	preview := &Preview{
		Action: action,
		Cycle: CycleInfo{
			StartDate:     cycle.StartDate,
			EndDate:       cycle.EndDate,
			DaysInCycle:   calc.DaysInCycle,
			DaysRemaining: calc.DaysRemaining,
			Fraction:      calc.Fraction,
		},
		Current:      PlanPrice{PlanID: cycle.PlanID, Name: cycle.PlanName, NetPrice: currentPrice},
		Target:       PlanPrice{PlanID: target.ID, Name: target.Name, NetPrice: targetPrice},
		Delta:        DeltaAmounts{Currency: currency},
		cycleVersion: cycle.Version,
	}

	switch action {
	case ChangeUpgrade:
		preview.Delta.Net = calc.DeltaNet
		preview.Delta.Tax = calc.Tax
		preview.Delta.Total = calc.Total
	case ChangeDowngrade:
		// Deferred: nothing billed now, the plan flips at the boundary.
		preview.ScheduledNext = &ScheduledNext{
			PlanID:        target.ID,
			EffectiveFrom: cycle.EndDate,
		}
	case ChangeNone:
	}

	return preview, nil
}
