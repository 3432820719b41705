package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	dbutil "github.com/acmprop/acmprop/internal/db"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// EmpresaHandler manages admin CRUD endpoints for tenants.
type EmpresaHandler struct {
	db *gorm.DB // Database handle for empresa records.
}

// NewEmpresaHandler constructs an empresa handler.
func NewEmpresaHandler(db *gorm.DB) *EmpresaHandler {
	return &EmpresaHandler{db: db}
}

// createEmpresaRequest captures the payload for creating a tenant with its
// owner account in one step.
type createEmpresaRequest struct {
	Name          string `json:"name"`           // Company display name.
	CUIT          string `json:"cuit"`           // Tax identification number.
	OwnerUsername string `json:"owner_username"` // Owner login name.
	OwnerEmail    string `json:"owner_email"`    // Owner email.
	OwnerName     string `json:"owner_name"`     // Owner display name.
	OwnerPassword string `json:"owner_password"` // Owner initial password.
}

// Create inserts a tenant and its owner account atomically.
func (h *EmpresaHandler) Create(c *gin.Context) {
	var body createEmpresaRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	ownerUsername := strings.TrimSpace(body.OwnerUsername)
	if name == "" || ownerUsername == "" || body.OwnerPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, owner_username and owner_password are required"})
		return
	}

	hashed, errHash := security.HashPassword(body.OwnerPassword)
	if errHash != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}

	now := time.Now().UTC()
	owner := models.User{
		Username:  ownerUsername,
		Name:      strings.TrimSpace(body.OwnerName),
		Email:     strings.TrimSpace(body.OwnerEmail),
		Password:  hashed,
		Role:      string(roles.RoleEmpresa),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	empresa := models.Empresa{
		Name:      name,
		CUIT:      strings.TrimSpace(body.CUIT),
		IsEnabled: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&owner).Error; errCreate != nil {
			return errCreate
		}
		empresa.OwnerUserID = owner.ID
		if errCreate := tx.Create(&empresa).Error; errCreate != nil {
			return errCreate
		}
		// Bind the owner to its tenant so resolution never falls back.
		return tx.Model(&models.User{}).
			Where("id = ?", owner.ID).
			Update("empresa_id", empresa.ID).Error
	})
	if errTx != nil {
		if dbutil.IsUniqueViolation(errTx) {
			c.JSON(http.StatusConflict, gin.H{"error": "cuit, username or email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create empresa failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatEmpresa(&empresa))
}

// List returns tenants, optionally filtered by name substring.
func (h *EmpresaHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Empresa{})
	if nameQ := strings.TrimSpace(c.Query("name")); nameQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+nameQ+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}

	var rows []models.Empresa
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list empresas failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatEmpresa(&row))
	}
	c.JSON(http.StatusOK, gin.H{"empresas": out})
}

// Get fetches a tenant by ID.
func (h *EmpresaHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var empresa models.Empresa
	if errFind := h.db.WithContext(c.Request.Context()).
		Preload("OwnerUser").
		First(&empresa, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	out := h.formatEmpresa(&empresa)
	if empresa.OwnerUser != nil {
		out["owner"] = gin.H{
			"id":       empresa.OwnerUser.ID,
			"username": empresa.OwnerUser.Username,
			"email":    empresa.OwnerUser.Email,
		}
	}
	c.JSON(http.StatusOK, out)
}

// updateEmpresaRequest captures optional fields for tenant updates.
type updateEmpresaRequest struct {
	Name *string `json:"name"` // Optional name update.
	CUIT *string `json:"cuit"` // Optional CUIT update.
}

// Update applies tenant field updates.
func (h *EmpresaHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateEmpresaRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if body.Name != nil {
		n := strings.TrimSpace(*body.Name)
		if n == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = n
	}
	if body.CUIT != nil {
		updates["cuit"] = strings.TrimSpace(*body.CUIT)
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Empresa{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if dbutil.IsUniqueViolation(res.Error) {
			c.JSON(http.StatusConflict, gin.H{"error": "cuit already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Enable re-activates a tenant.
func (h *EmpresaHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable deactivates a tenant, blocking all its users.
func (h *EmpresaHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

// setEnabled toggles the enabled state for a tenant.
func (h *EmpresaHandler) setEnabled(c *gin.Context, enabled bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Model(&models.Empresa{}).Where("id = ?", id).
		Updates(map[string]any{"is_enabled": enabled, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// formatEmpresa converts an empresa model into a response payload.
func (h *EmpresaHandler) formatEmpresa(e *models.Empresa) gin.H {
	return gin.H{
		"id":            e.ID,
		"name":          e.Name,
		"cuit":          e.CUIT,
		"owner_user_id": e.OwnerUserID,
		"is_enabled":    e.IsEnabled,
		"created_at":    e.CreatedAt,
		"updated_at":    e.UpdatedAt,
	}
}
