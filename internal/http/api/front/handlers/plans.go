package handlers

import (
	"net/http"

	"github.com/acmprop/acmprop/internal/billing"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PlanFrontHandler serves plan listings for tenants.
type PlanFrontHandler struct {
	db *gorm.DB
}

// NewPlanFrontHandler constructs a PlanFrontHandler.
func NewPlanFrontHandler(db *gorm.DB) *PlanFrontHandler {
	return &PlanFrontHandler{db: db}
}

// List returns enabled plans with the price effective for the tenant.
func (h *PlanFrontHandler) List(c *gin.Context) {
	empresaID, _ := getEmpresaID(c)

	var plans []models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("is_enabled = ?", true).
		Order("sort_order ASC, created_at DESC").
		Find(&plans).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}

	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		netPrice := plan.NetPrice
		if empresaID != 0 {
			if resolved, ok, errResolve := billing.ResolveNetPrice(c.Request.Context(), h.db, plan.ID, empresaID); errResolve == nil && ok {
				netPrice = resolved
			}
		}
		out = append(out, gin.H{
			"id":            plan.ID,
			"name":          plan.Name,
			"net_price":     netPrice,
			"description":   plan.Description,
			"max_asesores":  plan.MaxAsesores,
			"duration_days": plan.DurationDays,
			"trial_days":    plan.TrialDays,
			"sort_order":    plan.SortOrder,
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}
