package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/acmprop/acmprop/internal/db"
	"github.com/acmprop/acmprop/internal/models"
	"gorm.io/gorm"
)

// Commit-path business preconditions.
var (
	// ErrAlreadySubscribed indicates the empresa already has an active cycle.
	ErrAlreadySubscribed = errors.New("billing: active subscription already exists")
	// ErrCycleConflict indicates a concurrent commit modified the cycle first.
	ErrCycleConflict = errors.New("billing: cycle modified concurrently")
)

// StartSubscription creates the first active cycle for an empresa on a plan.
// Plans with trial days start with an unbilled trial cycle; otherwise the
// full cycle charge is recorded as a billing line.
func StartSubscription(ctx context.Context, conn *gorm.DB, empresaID, planID uint64, now time.Time) (*models.SubscriptionCycle, error) {
	if _, errState := ResolveCycleState(ctx, conn, empresaID); errState == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(errState, ErrNoActiveCycle) {
		return nil, errState
	}

	var plan models.Plan
	errPlan := conn.WithContext(ctx).
		Where("id = ? AND is_enabled = ?", planID, true).
		First(&plan).Error
	if errPlan != nil {
		if errors.Is(errPlan, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("billing: query plan: %w", errPlan)
	}

	price, ok, errPrice := ResolveNetPrice(ctx, conn, planID, empresaID)
	if errPrice != nil {
		return nil, errPrice
	}
	if !ok {
		return nil, ErrPriceUnresolved
	}

	start := dateOnly(now)
	isTrial := plan.TrialDays > 0
	lengthDays := plan.DurationDays
	if isTrial {
		lengthDays = plan.TrialDays
	}
	if lengthDays <= 0 {
		lengthDays = 1
	}
	end := start.AddDate(0, 0, lengthDays-1)

	cycle := models.SubscriptionCycle{
		EmpresaID: empresaID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   end,
		State:     models.CycleStateActive,
		IsTrial:   isTrial,
		CreatedAt: now,
		UpdatedAt: now,
	}

	errTx := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&cycle).Error; errCreate != nil {
			return fmt.Errorf("billing: create cycle: %w", errCreate)
		}
		if isTrial {
			return nil
		}
		line := newBillingLine(ctx, tx, &cycle, fmt.Sprintf("Alta de plan %s", plan.Name), price, now)
		if errLine := tx.Create(line).Error; errLine != nil {
			return fmt.Errorf("billing: create billing line: %w", errLine)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &cycle, nil
}

// ApplyPlanChange commits a previously previewed plan change, honoring the
// classifier policy exactly: upgrades switch the cycle's plan immediately and
// record the prorated delta; downgrades only schedule the next plan.
// The cycle version from the preview guards against concurrent commits.
func ApplyPlanChange(ctx context.Context, conn *gorm.DB, req PreviewRequest) (*Preview, error) {
	preview, errPreview := PreviewPlanChange(ctx, conn, req)
	if errPreview != nil {
		return nil, errPreview
	}
	if preview.Action == ChangeNone {
		return preview, nil
	}

	now := time.Now().UTC()
	errTx := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cycle models.SubscriptionCycle
		errFind := dbutil.LockForUpdate(tx).
			Where("empresa_id = ? AND state = ?", req.EmpresaID, models.CycleStateActive).
			First(&cycle).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNoActiveCycle
			}
			return fmt.Errorf("billing: lock cycle: %w", errFind)
		}
		if cycle.Version != preview.CycleVersion() {
			return ErrCycleConflict
		}

		updates := map[string]any{
			"version":    cycle.Version + 1,
			"updated_at": now,
		}
		switch preview.Action {
		case ChangeUpgrade:
			updates["plan_id"] = preview.Target.PlanID
			updates["next_plan_id"] = nil
		case ChangeDowngrade:
			updates["next_plan_id"] = preview.Target.PlanID
		}

		res := tx.Model(&models.SubscriptionCycle{}).
			Where("id = ? AND version = ?", cycle.ID, preview.CycleVersion()).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("billing: update cycle: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCycleConflict
		}

		if preview.Action == ChangeUpgrade && preview.Delta.Total != 0 {
			line := models.BillingLine{
				EmpresaID:   cycle.EmpresaID,
				CycleID:     cycle.ID,
				Concept:     fmt.Sprintf("Cambio de plan a %s (prorrateo)", preview.Target.Name),
				NetAmount:   preview.Delta.Net,
				TaxAmount:   preview.Delta.Tax,
				TotalAmount: preview.Delta.Total,
				Currency:    preview.Delta.Currency,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if errLine := tx.Create(&line).Error; errLine != nil {
				return fmt.Errorf("billing: create billing line: %w", errLine)
			}
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return preview, nil
}

// newBillingLine builds a full-cycle charge line with tax applied.
func newBillingLine(ctx context.Context, conn *gorm.DB, cycle *models.SubscriptionCycle, concept string, netPrice float64, now time.Time) *models.BillingLine {
	taxRate := LoadTaxRate(ctx, conn)
	net := Round2(netPrice)
	tax := Round2(netPrice * taxRate)
	return &models.BillingLine{
		EmpresaID:   cycle.EmpresaID,
		CycleID:     cycle.ID,
		Concept:     concept,
		NetAmount:   net,
		TaxAmount:   tax,
		TotalAmount: Round2(netPrice + netPrice*taxRate),
		Currency:    LoadCurrency(ctx, conn),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
