package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/billing"
	dbutil "github.com/acmprop/acmprop/internal/db"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AsesorHandler manages an empresa's advisor accounts. Owner only.
type AsesorHandler struct {
	db *gorm.DB
}

// NewAsesorHandler constructs an AsesorHandler.
func NewAsesorHandler(db *gorm.DB) *AsesorHandler {
	return &AsesorHandler{db: db}
}

// requireOwner enforces that the caller is the empresa owner role.
func (h *AsesorHandler) requireOwner(c *gin.Context) (uint64, bool) {
	empresaID, okEmpresa := getEmpresaID(c)
	role, okRole := getRole(c)
	if !okEmpresa || !okRole || role != roles.RoleEmpresa {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner only"})
		return 0, false
	}
	return empresaID, true
}

// createAsesorRequest captures the payload for creating an advisor.
type createAsesorRequest struct {
	Username string `json:"username"` // Unique login name.
	Name     string `json:"name"`     // Display name.
	Email    string `json:"email"`    // Email address.
	Password string `json:"password"` // Initial password.
}

// Create adds an advisor account, enforcing the plan's advisor quota.
func (h *AsesorHandler) Create(c *gin.Context) {
	empresaID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	var body createAsesorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
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

	var plan models.Plan
	if errPlan := h.db.WithContext(c.Request.Context()).First(&plan, state.PlanID).Error; errPlan != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if plan.MaxAsesores > 0 {
		var active int64
		if errCount := h.db.WithContext(c.Request.Context()).
			Model(&models.User{}).
			Where("empresa_id = ? AND role = ? AND active = ?", empresaID, string(roles.RoleAsesor), true).
			Count(&active).Error; errCount != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if active >= int64(plan.MaxAsesores) {
			c.JSON(http.StatusConflict, gin.H{"error": "advisor quota reached"})
			return
		}
	}

	hashed, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}

	now := time.Now().UTC()
	asesor := models.User{
		Username:  username,
		Name:      strings.TrimSpace(body.Name),
		Email:     strings.TrimSpace(body.Email),
		Password:  hashed,
		Role:      string(roles.RoleAsesor),
		EmpresaID: &empresaID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&asesor).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create asesor failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       asesor.ID,
		"username": asesor.Username,
		"name":     asesor.Name,
		"email":    asesor.Email,
	})
}

// List returns the empresa's advisor accounts.
func (h *AsesorHandler) List(c *gin.Context) {
	empresaID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	var rows []models.User
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("empresa_id = ? AND role = ?", empresaID, string(roles.RoleAsesor)).
		Order("created_at ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list asesores failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":         row.ID,
			"username":   row.Username,
			"name":       row.Name,
			"email":      row.Email,
			"active":     row.Active,
			"created_at": row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"asesores": out})
}

// Delete deactivates an advisor account.
func (h *AsesorHandler) Delete(c *gin.Context) {
	empresaID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ? AND empresa_id = ? AND role = ?", id, empresaID, string(roles.RoleAsesor)).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete asesor failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
