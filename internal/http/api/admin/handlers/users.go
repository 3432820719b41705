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

// UserAdminHandler manages accounts from the internal console.
type UserAdminHandler struct {
	db *gorm.DB
}

// NewUserAdminHandler constructs a UserAdminHandler.
func NewUserAdminHandler(db *gorm.DB) *UserAdminHandler {
	return &UserAdminHandler{db: db}
}

// createInternalUserRequest captures the payload for creating an internal account.
type createInternalUserRequest struct {
	Username string `json:"username"` // Login name.
	Name     string `json:"name"`     // Display name.
	Email    string `json:"email"`    // Email address.
	Password string `json:"password"` // Initial password.
	Role     string `json:"role"`     // Internal role name.
}

// CreateInternal creates a soporte or super_admin account. Only the root
// role reaches this handler.
func (h *UserAdminHandler) CreateInternal(c *gin.Context) {
	var body createInternalUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	role, errRole := roles.Parse(body.Role)
	if errRole != nil || !role.Internal() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be an internal role"})
		return
	}
	if role == roles.RoleSuperAdminRoot {
		c.JSON(http.StatusBadRequest, gin.H{"error": "root accounts cannot be created through the api"})
		return
	}

	hashed, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}

	now := time.Now().UTC()
	user := models.User{
		Username:  username,
		Name:      strings.TrimSpace(body.Name),
		Email:     strings.TrimSpace(body.Email),
		Password:  hashed,
		Role:      string(role),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		if dbutil.IsUniqueViolation(errCreate) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatUser(&user))
}

// List returns accounts, optionally filtered by role or empresa.
func (h *UserAdminHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})

	if roleQ := strings.TrimSpace(c.Query("role")); roleQ != "" {
		role, errRole := roles.Parse(roleQ)
		if errRole != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		q = q.Where("role = ?", string(role))
	}
	if empresaQ := strings.TrimSpace(c.Query("empresa_id")); empresaQ != "" {
		empresaID, errParse := strconv.ParseUint(empresaQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid empresa_id"})
			return
		}
		q = q.Where("empresa_id = ?", empresaID)
	}

	var rows []models.User
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatUser(&row))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get fetches an account by ID.
func (h *UserAdminHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatUser(&user))
}

// Enable re-activates an account.
func (h *UserAdminHandler) Enable(c *gin.Context) {
	h.setActive(c, true)
}

// Disable blocks an account from signing in.
func (h *UserAdminHandler) Disable(c *gin.Context) {
	h.setActive(c, false)
}

// setActive toggles the active flag for an account.
func (h *UserAdminHandler) setActive(c *gin.Context, active bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if adminID, ok := getAdminID(c); ok && adminID == id && !active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot disable your own account"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	// Internal accounts are managed by root only; tenant accounts by any writer.
	targetRole, errRole := roles.Parse(user.Role)
	if errRole == nil && targetRole.Internal() {
		callerRole, ok := getAdminRole(c)
		if !ok || !callerRole.CanManageAdmins() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// resetPasswordRequest captures the payload for a password reset.
type resetPasswordRequest struct {
	Password string `json:"password"` // New password.
}

// ResetPassword replaces an account password.
func (h *UserAdminHandler) ResetPassword(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body resetPasswordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	targetRole, errRole := roles.Parse(user.Role)
	if errRole == nil && targetRole.Internal() {
		callerRole, ok := getAdminRole(c)
		if !ok || !callerRole.CanManageAdmins() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}

	hashed, errHash := security.HashPassword(body.Password)
	if errHash != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"password": hashed, "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// formatUser converts a user model into a response payload.
func (h *UserAdminHandler) formatUser(u *models.User) gin.H {
	out := gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"active":     u.Active,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
	if u.EmpresaID != nil {
		out["empresa_id"] = *u.EmpresaID
	}
	return out
}
