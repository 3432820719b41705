package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PriceOverrideHandler manages negotiated per-tenant plan prices.
type PriceOverrideHandler struct {
	db *gorm.DB
}

// NewPriceOverrideHandler constructs a PriceOverrideHandler.
func NewPriceOverrideHandler(db *gorm.DB) *PriceOverrideHandler {
	return &PriceOverrideHandler{db: db}
}

// parseOverridePath reads the empresa and plan ids from the route.
func parseOverridePath(c *gin.Context) (empresaID, planID uint64, ok bool) {
	empresaID, errEmpresa := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errEmpresa != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid empresa id"})
		return 0, 0, false
	}
	planID, errPlan := strconv.ParseUint(strings.TrimSpace(c.Param("plan_id")), 10, 64)
	if errPlan != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return 0, 0, false
	}
	if !actorFromContext(c).CanActOnTenant(empresaID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return 0, 0, false
	}
	return empresaID, planID, true
}

// putOverrideRequest captures the negotiated price payload.
type putOverrideRequest struct {
	NetPrice float64 `json:"net_price"` // Negotiated net price.
}

// Put creates or replaces the negotiated price for one empresa and plan.
func (h *PriceOverrideHandler) Put(c *gin.Context) {
	empresaID, planID, ok := parseOverridePath(c)
	if !ok {
		return
	}
	var body putOverrideRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.NetPrice < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "net_price cannot be negative"})
		return
	}

	var empresa models.Empresa
	if errFind := h.db.WithContext(c.Request.Context()).First(&empresa, empresaID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "empresa not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var plan models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).First(&plan, planID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	now := time.Now().UTC()
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.PlanPriceOverride
		errFind := tx.Where("empresa_id = ? AND plan_id = ?", empresaID, planID).First(&existing).Error
		if errFind == nil {
			return tx.Model(&existing).
				Updates(map[string]any{"net_price": body.NetPrice, "updated_at": now}).Error
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return errFind
		}
		return tx.Create(&models.PlanPriceOverride{
			EmpresaID: empresaID,
			PlanID:    planID,
			NetPrice:  body.NetPrice,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save override failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"empresa_id": empresaID,
		"plan_id":    planID,
		"net_price":  body.NetPrice,
	})
}

// Delete removes the negotiated price, restoring the list price.
func (h *PriceOverrideHandler) Delete(c *gin.Context) {
	empresaID, planID, ok := parseOverridePath(c)
	if !ok {
		return
	}
	res := h.db.WithContext(c.Request.Context()).
		Where("empresa_id = ? AND plan_id = ?", empresaID, planID).
		Delete(&models.PlanPriceOverride{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns all overrides for an empresa.
func (h *PriceOverrideHandler) List(c *gin.Context) {
	empresaID, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid empresa id"})
		return
	}

	var rows []models.PlanPriceOverride
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("empresa_id = ?", empresaID).
		Order("plan_id ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list overrides failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"plan_id":    row.PlanID,
			"net_price":  row.NetPrice,
			"updated_at": row.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"price_overrides": out})
}
