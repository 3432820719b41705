package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/billing"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriptionHandler serves the tenant's subscription lifecycle.
type SubscriptionHandler struct {
	db *gorm.DB
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(db *gorm.DB) *SubscriptionHandler {
	return &SubscriptionHandler{db: db}
}

// Get returns the current cycle state.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return
	}
	state, errState := billing.ResolveCycleState(c.Request.Context(), h.db, empresaID)
	if errState != nil {
		if errors.Is(errState, billing.ErrNoActiveCycle) {
			c.JSON(http.StatusConflict, gin.H{"error": "no active subscription"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, formatCycleState(state))
}

// startSubscriptionRequest captures the subscription start payload.
type startSubscriptionRequest struct {
	PlanID uint64 `json:"plan_id"` // Plan to subscribe to.
}

// Create starts the tenant's first subscription cycle.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return
	}
	var body startSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id is required"})
		return
	}

	cycle, errStart := billing.StartSubscription(c.Request.Context(), h.db, empresaID, body.PlanID, time.Now().UTC())
	if errStart != nil {
		switch {
		case errors.Is(errStart, billing.ErrPlanNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "plan not found"})
		case errors.Is(errStart, billing.ErrAlreadySubscribed):
			c.JSON(http.StatusConflict, gin.H{"error": "subscription already active"})
		case errors.Is(errStart, billing.ErrPriceUnresolved):
			c.JSON(http.StatusConflict, gin.H{"error": "price not configured"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "start subscription failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"cycle_id": cycle.ID,
		"plan_id":  cycle.PlanID,
		"start":    cycle.StartDate,
		"end":      cycle.EndDate,
		"is_trial": cycle.IsTrial,
	})
}

// planChangeRequest captures the preview/commit payload.
type planChangeRequest struct {
	PlanID uint64 `json:"plan_id"` // Target plan.
	Today  string `json:"today"`   // Optional YYYY-MM-DD override for previews.
}

// PreviewChange simulates a plan change without committing anything.
func (h *SubscriptionHandler) PreviewChange(c *gin.Context) {
	h.runPlanChange(c, true)
}

// CommitChange applies a plan change per the classifier policy.
func (h *SubscriptionHandler) CommitChange(c *gin.Context) {
	h.runPlanChange(c, false)
}

func (h *SubscriptionHandler) runPlanChange(c *gin.Context, previewOnly bool) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return
	}
	var body planChangeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id is required"})
		return
	}

	req := billing.PreviewRequest{EmpresaID: empresaID, TargetPlanID: body.PlanID}
	if previewOnly {
		// The date override exists for previews only; commits always bill as of today.
		if raw := strings.TrimSpace(body.Today); raw != "" {
			parsed, errParse := time.Parse(time.DateOnly, raw)
			if errParse != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid today date"})
				return
			}
			req.Today = &parsed
		}
	}

	var preview *billing.Preview
	var errRun error
	if previewOnly {
		preview, errRun = billing.PreviewPlanChange(c.Request.Context(), h.db, req)
	} else {
		preview, errRun = billing.ApplyPlanChange(c.Request.Context(), h.db, req)
	}
	if errRun != nil {
		switch {
		case errors.Is(errRun, billing.ErrPlanNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "plan not found"})
		case errors.Is(errRun, billing.ErrNoActiveCycle):
			c.JSON(http.StatusConflict, gin.H{"error": "no active subscription"})
		case errors.Is(errRun, billing.ErrPriceUnresolved):
			c.JSON(http.StatusConflict, gin.H{"error": "price not configured"})
		case errors.Is(errRun, billing.ErrCycleConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "subscription changed concurrently, retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "plan change failed"})
		}
		return
	}
	c.JSON(http.StatusOK, formatPreview(preview))
}

// formatPreview converts a preview into a response payload.
func formatPreview(p *billing.Preview) gin.H {
	out := gin.H{
		"action": string(p.Action),
		"cycle": gin.H{
			"start":          p.Cycle.StartDate,
			"end":            p.Cycle.EndDate,
			"days_in_cycle":  p.Cycle.DaysInCycle,
			"days_remaining": p.Cycle.DaysRemaining,
			"fraction":       p.Cycle.Fraction,
		},
		"current": gin.H{"plan_id": p.Current.PlanID, "name": p.Current.Name, "net_price": p.Current.NetPrice},
		"target":  gin.H{"plan_id": p.Target.PlanID, "name": p.Target.Name, "net_price": p.Target.NetPrice},
		"delta": gin.H{
			"net":      p.Delta.Net,
			"tax":      p.Delta.Tax,
			"total":    p.Delta.Total,
			"currency": p.Delta.Currency,
		},
	}
	if p.ScheduledNext != nil {
		out["scheduled_next"] = gin.H{
			"plan_id":        p.ScheduledNext.PlanID,
			"effective_from": p.ScheduledNext.EffectiveFrom,
		}
	}
	return out
}

// formatCycleState converts a cycle state into a response payload.
func formatCycleState(state *billing.CycleState) gin.H {
	out := gin.H{
		"cycle_id":  state.CycleID,
		"plan_id":   state.PlanID,
		"plan_name": state.PlanName,
		"start":     state.StartDate,
		"end":       state.EndDate,
		"is_trial":  state.IsTrial,
	}
	if state.NextPlanID != nil {
		out["next_plan"] = gin.H{"plan_id": *state.NextPlanID, "name": state.NextPlanName}
	}
	return out
}
