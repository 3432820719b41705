package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthFrontHandler serves login for empresa owners and asesores.
type AuthFrontHandler struct {
	db     *gorm.DB
	issuer *security.TokenIssuer
}

// NewAuthFrontHandler constructs an AuthFrontHandler.
func NewAuthFrontHandler(db *gorm.DB, issuer *security.TokenIssuer) *AuthFrontHandler {
	return &AuthFrontHandler{db: db, issuer: issuer}
}

// loginRequest captures the login payload.
type loginRequest struct {
	Username string `json:"username"` // Username or email.
	Password string `json:"password"` // Plaintext password.
}

// Login authenticates a tenant user and returns a JWT.
func (h *AuthFrontHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).
		Where("username = ? OR email = ?", username, username).
		First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !user.Active || !security.CheckPassword(user.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	role, errRole := roles.Parse(user.Role)
	if errRole != nil || !role.Tenant() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errIssue := h.issuer.Issue(user.ID, string(role))
	if errIssue != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
			"role":     string(role),
		},
	})
}
