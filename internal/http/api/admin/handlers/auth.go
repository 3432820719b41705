package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler serves internal-role login with an optional TOTP second factor.
type AuthHandler struct {
	db     *gorm.DB
	issuer *security.TokenIssuer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, issuer *security.TokenIssuer) *AuthHandler {
	return &AuthHandler{db: db, issuer: issuer}
}

// adminLoginRequest captures the login payload.
type adminLoginRequest struct {
	Username string `json:"username"` // Username or email.
	Password string `json:"password"` // Plaintext password.
	Code     string `json:"code"`     // TOTP code for the second step.
}

// authenticate verifies credentials and returns the internal user.
func (h *AuthHandler) authenticate(c *gin.Context, body adminLoginRequest) (*models.User, roles.Role, bool) {
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return nil, "", false
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).
		Where("username = ? OR email = ?", username, username).
		First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return nil, "", false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, "", false
	}
	if !user.Active || !security.CheckPassword(user.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return nil, "", false
	}
	role, errRole := roles.Parse(user.Role)
	if errRole != nil || !role.Internal() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return nil, "", false
	}
	return &user, role, true
}

// Login authenticates an internal user. Accounts with TOTP enrolled get
// totp_required back and must finish on the /login/totp step.
func (h *AuthHandler) Login(c *gin.Context) {
	var body adminLoginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	user, role, ok := h.authenticate(c, body)
	if !ok {
		return
	}
	if user.TOTPSecret != "" {
		c.JSON(http.StatusOK, gin.H{"totp_required": true})
		return
	}
	h.issueToken(c, user, role)
}

// LoginTOTP finishes login for TOTP-enrolled accounts.
func (h *AuthHandler) LoginTOTP(c *gin.Context) {
	var body adminLoginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	user, role, ok := h.authenticate(c, body)
	if !ok {
		return
	}
	if user.TOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enrolled"})
		return
	}
	if !security.VerifyTOTP(user.TOTPSecret, strings.TrimSpace(body.Code)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}
	h.issueToken(c, user, role)
}

func (h *AuthHandler) issueToken(c *gin.Context, user *models.User, role roles.Role) {
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

// MFAHandler serves TOTP enrolment for authenticated internal users.
type MFAHandler struct {
	db *gorm.DB
}

// NewMFAHandler constructs an MFAHandler.
func NewMFAHandler(db *gorm.DB) *MFAHandler {
	return &MFAHandler{db: db}
}

// Status reports whether the caller has TOTP enrolled.
func (h *MFAHandler) Status(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totp_enrolled": user.TOTPSecret != ""})
}

// PrepareTOTP generates a fresh secret and provisioning URL. Nothing is
// stored until ConfirmTOTP verifies a code against it.
func (h *MFAHandler) PrepareTOTP(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	account := user.Email
	if account == "" {
		account = user.Username
	}
	secret, url, errGenerate := security.GenerateTOTPSecret(account)
	if errGenerate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate totp failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret": secret, "url": url})
}

// confirmTOTPRequest captures the enrolment confirmation payload.
type confirmTOTPRequest struct {
	Secret string `json:"secret"` // Secret returned by PrepareTOTP.
	Code   string `json:"code"`   // Current code from the authenticator.
}

// ConfirmTOTP verifies the code and stores the secret, enabling TOTP login.
func (h *MFAHandler) ConfirmTOTP(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body confirmTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	secret := strings.TrimSpace(body.Secret)
	if !security.VerifyTOTP(secret, strings.TrimSpace(body.Code)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"totp_secret": secret, "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// disableTOTPRequest captures the disable payload.
type disableTOTPRequest struct {
	Code string `json:"code"` // Current code from the authenticator.
}

// DisableTOTP removes the caller's TOTP enrolment after verifying a code.
func (h *MFAHandler) DisableTOTP(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body disableTOTPRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, adminID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if user.TOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "totp not enrolled"})
		return
	}
	if !security.VerifyTOTP(user.TOTPSecret, strings.TrimSpace(body.Code)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
		return
	}

	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", adminID).
		Updates(map[string]any{"totp_secret": "", "updated_at": time.Now().UTC()}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
