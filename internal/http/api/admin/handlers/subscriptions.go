package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/billing"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriptionAdminHandler manages subscriptions on behalf of tenants.
type SubscriptionAdminHandler struct {
	db *gorm.DB
}

// NewSubscriptionAdminHandler constructs a SubscriptionAdminHandler.
func NewSubscriptionAdminHandler(db *gorm.DB) *SubscriptionAdminHandler {
	return &SubscriptionAdminHandler{db: db}
}

// empresaIDFromPath reads the empresa id from the route and checks the
// caller may act on that tenant.
func empresaIDFromPath(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid empresa id"})
		return 0, false
	}
	if !actorFromContext(c).CanActOnTenant(id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return 0, false
	}
	return id, true
}

// Get returns the empresa's current cycle state.
func (h *SubscriptionAdminHandler) Get(c *gin.Context) {
	empresaID, ok := empresaIDFromPath(c)
	if !ok {
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
	c.JSON(http.StatusOK, gin.H{
		"cycle_id":  state.CycleID,
		"plan_id":   state.PlanID,
		"plan_name": state.PlanName,
		"start":     state.StartDate,
		"end":       state.EndDate,
		"is_trial":  state.IsTrial,
		"version":   state.Version,
	})
}

// adminPlanChangeRequest captures the payload for admin plan operations.
type adminPlanChangeRequest struct {
	PlanID uint64 `json:"plan_id"` // Target plan.
	Today  string `json:"today"`   // Optional YYYY-MM-DD override for previews.
}

// Start opens the empresa's first subscription cycle.
func (h *SubscriptionAdminHandler) Start(c *gin.Context) {
	empresaID, ok := empresaIDFromPath(c)
	if !ok {
		return
	}
	var body adminPlanChangeRequest
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

// Preview simulates a plan change for the empresa.
func (h *SubscriptionAdminHandler) Preview(c *gin.Context) {
	h.runPlanChange(c, true)
}

// Commit applies a plan change for the empresa.
func (h *SubscriptionAdminHandler) Commit(c *gin.Context) {
	h.runPlanChange(c, false)
}

func (h *SubscriptionAdminHandler) runPlanChange(c *gin.Context, previewOnly bool) {
	empresaID, ok := empresaIDFromPath(c)
	if !ok {
		return
	}
	var body adminPlanChangeRequest
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

	out := gin.H{
		"action": string(preview.Action),
		"cycle": gin.H{
			"start":          preview.Cycle.StartDate,
			"end":            preview.Cycle.EndDate,
			"days_in_cycle":  preview.Cycle.DaysInCycle,
			"days_remaining": preview.Cycle.DaysRemaining,
			"fraction":       preview.Cycle.Fraction,
		},
		"current": gin.H{"plan_id": preview.Current.PlanID, "name": preview.Current.Name, "net_price": preview.Current.NetPrice},
		"target":  gin.H{"plan_id": preview.Target.PlanID, "name": preview.Target.Name, "net_price": preview.Target.NetPrice},
		"delta": gin.H{
			"net":      preview.Delta.Net,
			"tax":      preview.Delta.Tax,
			"total":    preview.Delta.Total,
			"currency": preview.Delta.Currency,
		},
	}
	if preview.ScheduledNext != nil {
		out["scheduled_next"] = gin.H{
			"plan_id":        preview.ScheduledNext.PlanID,
			"effective_from": preview.ScheduledNext.EffectiveFrom,
		}
	}
	c.JSON(http.StatusOK, out)
}
