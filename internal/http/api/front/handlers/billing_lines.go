package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/acmprop/acmprop/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BillingLineFrontHandler serves the tenant's billing history.
type BillingLineFrontHandler struct {
	db *gorm.DB
}

// NewBillingLineFrontHandler constructs a BillingLineFrontHandler.
func NewBillingLineFrontHandler(db *gorm.DB) *BillingLineFrontHandler {
	return &BillingLineFrontHandler{db: db}
}

// List returns the tenant's billing lines, newest first.
func (h *BillingLineFrontHandler) List(c *gin.Context) {
	empresaID, ok := getEmpresaID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "no empresa"})
		return
	}

	limit := 100
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, errParse := strconv.Atoi(raw); errParse == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	var lines []models.BillingLine
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("empresa_id = ?", empresaID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&lines).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list billing lines failed"})
		return
	}

	out := make([]gin.H, 0, len(lines))
	for _, line := range lines {
		out = append(out, gin.H{
			"id":         line.ID,
			"cycle_id":   line.CycleID,
			"concept":    line.Concept,
			"net":        line.NetAmount,
			"tax":        line.TaxAmount,
			"total":      line.TotalAmount,
			"currency":   line.Currency,
			"created_at": line.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"billing_lines": out})
}
