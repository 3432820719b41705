package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/acmprop/acmprop/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BillingLineAdminHandler exposes committed charges across tenants.
type BillingLineAdminHandler struct {
	db *gorm.DB
}

// NewBillingLineAdminHandler constructs a BillingLineAdminHandler.
func NewBillingLineAdminHandler(db *gorm.DB) *BillingLineAdminHandler {
	return &BillingLineAdminHandler{db: db}
}

const maxBillingLineAdminPage = 500

// List returns billing lines, newest first, optionally filtered by empresa.
func (h *BillingLineAdminHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.BillingLine{})

	if empresaQ := strings.TrimSpace(c.Query("empresa_id")); empresaQ != "" {
		empresaID, errParse := strconv.ParseUint(empresaQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid empresa_id"})
			return
		}
		q = q.Where("empresa_id = ?", empresaID)
	}
	if cycleQ := strings.TrimSpace(c.Query("cycle_id")); cycleQ != "" {
		cycleID, errParse := strconv.ParseUint(cycleQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cycle_id"})
			return
		}
		q = q.Where("cycle_id = ?", cycleID)
	}

	limit := 100
	if limitQ := strings.TrimSpace(c.Query("limit")); limitQ != "" {
		parsed, errParse := strconv.Atoi(limitQ)
		if errParse != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxBillingLineAdminPage {
		limit = maxBillingLineAdminPage
	}

	var rows []models.BillingLine
	if errFind := q.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list billing lines failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"empresa_id": row.EmpresaID,
			"cycle_id":   row.CycleID,
			"concept":    row.Concept,
			"net":        row.NetAmount,
			"tax":        row.TaxAmount,
			"total":      row.TotalAmount,
			"currency":   row.Currency,
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"billing_lines": out})
}
