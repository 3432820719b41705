package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/acmprop/acmprop/internal/db"
	"github.com/acmprop/acmprop/internal/models"
	internalsettings "github.com/acmprop/acmprop/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RollExpiredCycles supersedes every active cycle whose end date has passed:
// the old cycle is marked cancelled and a new active cycle is created on the
// scheduled next plan when one was set, otherwise renewing the same plan.
// Returns the number of cycles rolled.
func RollExpiredCycles(ctx context.Context, conn *gorm.DB, now time.Time) (int, error) {
	if conn == nil {
		return 0, fmt.Errorf("billing: nil connection")
	}
	today := dateOnly(now)

	var expired []models.SubscriptionCycle
	if errFind := conn.WithContext(ctx).
		Where("state = ? AND end_date < ?", models.CycleStateActive, today).
		Find(&expired).Error; errFind != nil {
		return 0, fmt.Errorf("billing: query expired cycles: %w", errFind)
	}

	rolled := 0
	for i := range expired {
		if errRoll := rollCycle(ctx, conn, &expired[i], now); errRoll != nil {
			log.WithError(errRoll).Warnf("billing: roll cycle %d for empresa %d failed", expired[i].ID, expired[i].EmpresaID)
			continue
		}
		rolled++
	}
	return rolled, nil
}

// rollCycle supersedes one expired cycle inside a transaction.
func rollCycle(ctx context.Context, conn *gorm.DB, old *models.SubscriptionCycle, now time.Time) error {
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.SubscriptionCycle
		errFind := dbutil.LockForUpdate(tx).
			Where("id = ? AND state = ?", old.ID, models.CycleStateActive).
			First(&current).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("billing: lock cycle: %w", errFind)
		}

		nextPlanID := current.PlanID
		if current.NextPlanID != nil {
			nextPlanID = *current.NextPlanID
		}

		var plan models.Plan
		errPlan := tx.Where("id = ? AND is_enabled = ?", nextPlanID, true).First(&plan).Error
		if errPlan != nil {
			if !errors.Is(errPlan, gorm.ErrRecordNotFound) {
				return fmt.Errorf("billing: query next plan: %w", errPlan)
			}
			// Scheduled plan disappeared; renew the current plan instead.
			if errRenew := tx.First(&plan, current.PlanID).Error; errRenew != nil {
				return fmt.Errorf("billing: query current plan: %w", errRenew)
			}
		}

		price, ok, errPrice := ResolveNetPrice(ctx, tx, plan.ID, current.EmpresaID)
		if errPrice != nil {
			return errPrice
		}
		if !ok {
			return ErrPriceUnresolved
		}

		if errSupersede := tx.Model(&models.SubscriptionCycle{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{
				"state":      models.CycleStateCancelled,
				"version":    current.Version + 1,
				"updated_at": now,
			}).Error; errSupersede != nil {
			return fmt.Errorf("billing: supersede cycle: %w", errSupersede)
		}

		lengthDays := plan.DurationDays
		if lengthDays <= 0 {
			lengthDays = 1
		}
		start := dateOnly(current.EndDate).AddDate(0, 0, 1)
		next := models.SubscriptionCycle{
			EmpresaID: current.EmpresaID,
			PlanID:    plan.ID,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, lengthDays-1),
			State:     models.CycleStateActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if errCreate := tx.Create(&next).Error; errCreate != nil {
			return fmt.Errorf("billing: create next cycle: %w", errCreate)
		}

		if price > 0 {
			line := newBillingLine(ctx, tx, &next, fmt.Sprintf("Renovación de plan %s", plan.Name), price, now)
			if errLine := tx.Create(line).Error; errLine != nil {
				return fmt.Errorf("billing: create billing line: %w", errLine)
			}
		}
		return nil
	})
}

// Roller periodically rolls expired cycles over.
type Roller struct {
	db *gorm.DB
}

// NewRoller constructs a Roller.
func NewRoller(db *gorm.DB) *Roller {
	if db == nil {
		return nil
	}
	return &Roller{db: db}
}

// Start launches the rollover loop until the context is cancelled.
func (r *Roller) Start(ctx context.Context) {
	if r == nil || r.db == nil {
		return
	}
	go func() {
		for {
			interval := r.pollInterval(ctx)
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			rolled, errRoll := RollExpiredCycles(ctx, r.db, time.Now().UTC())
			if errRoll != nil {
				log.WithError(errRoll).Warn("billing: cycle rollover pass failed")
				continue
			}
			if rolled > 0 {
				log.Infof("billing: rolled %d expired cycles", rolled)
			}
		}
	}()
}

// pollInterval reads the rollover interval setting, falling back to the default.
func (r *Roller) pollInterval(ctx context.Context) time.Duration {
	seconds := internalsettings.DefaultCycleRollIntervalSeconds
	var setting models.Setting
	if errFind := r.db.WithContext(ctx).
		Where("key = ?", internalsettings.CycleRollIntervalSecondsKey).
		First(&setting).Error; errFind == nil {
		var configured int
		if errUnmarshal := json.Unmarshal(setting.Value, &configured); errUnmarshal == nil && configured > 0 {
			seconds = configured
		}
	}
	return time.Duration(seconds) * time.Second
}
