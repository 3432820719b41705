package admin

import (
	"net/http"
	"strings"

	"github.com/acmprop/acmprop/internal/config"
	handlers "github.com/acmprop/acmprop/internal/http/api/admin/handlers"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig) {
	if r == nil || db == nil {
		return
	}
	issuer, errIssuer := security.NewTokenIssuer(jwtCfg.Secret, jwtCfg.Expiry)
	if errIssuer != nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	versionHandler := handlers.NewVersionHandler()
	r.GET("/v0/version", versionHandler.GetVersion)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, issuer)
	adminGroup.POST("/login", authHandler.Login)
	adminGroup.POST("/login/totp", authHandler.LoginTOTP)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(db, issuer))

	mfaHandler := handlers.NewMFAHandler(db)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	// Soporte reads everything; mutations require super_admin or root.
	writer := authed.Group("")
	writer.Use(requireAdminWrite())

	planHandler := handlers.NewPlanHandler(db)
	authed.GET("/plans", planHandler.List)
	authed.GET("/plans/:id", planHandler.Get)
	writer.POST("/plans", planHandler.Create)
	writer.PUT("/plans/:id", planHandler.Update)
	writer.DELETE("/plans/:id", planHandler.Delete)
	writer.POST("/plans/:id/enable", planHandler.Enable)
	writer.POST("/plans/:id/disable", planHandler.Disable)

	empresaHandler := handlers.NewEmpresaHandler(db)
	authed.GET("/empresas", empresaHandler.List)
	authed.GET("/empresas/:id", empresaHandler.Get)
	writer.POST("/empresas", empresaHandler.Create)
	writer.PUT("/empresas/:id", empresaHandler.Update)
	writer.POST("/empresas/:id/enable", empresaHandler.Enable)
	writer.POST("/empresas/:id/disable", empresaHandler.Disable)

	overrideHandler := handlers.NewPriceOverrideHandler(db)
	authed.GET("/empresas/:id/price-overrides", overrideHandler.List)
	writer.PUT("/empresas/:id/price-overrides/:plan_id", overrideHandler.Put)
	writer.DELETE("/empresas/:id/price-overrides/:plan_id", overrideHandler.Delete)

	subscriptionHandler := handlers.NewSubscriptionAdminHandler(db)
	authed.GET("/empresas/:id/subscription", subscriptionHandler.Get)
	writer.POST("/empresas/:id/subscription", subscriptionHandler.Start)
	writer.POST("/empresas/:id/subscription/plan-change/preview", subscriptionHandler.Preview)
	writer.POST("/empresas/:id/subscription/plan-change", subscriptionHandler.Commit)

	billingLineHandler := handlers.NewBillingLineAdminHandler(db)
	authed.GET("/billing-lines", billingLineHandler.List)

	userHandler := handlers.NewUserAdminHandler(db)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	writer.POST("/users/:id/enable", userHandler.Enable)
	writer.POST("/users/:id/disable", userHandler.Disable)
	writer.PUT("/users/:id/password", userHandler.ResetPassword)

	// Creating internal accounts stays with the root administrator.
	rootOnly := authed.Group("")
	rootOnly.Use(requireAdminManage())
	rootOnly.POST("/users", userHandler.CreateInternal)

	settingHandler := handlers.NewSettingHandler(db)
	authed.GET("/settings", settingHandler.List)
	authed.GET("/settings/:key", settingHandler.Get)
	writer.POST("/settings", settingHandler.Create)
	writer.PUT("/settings/:key", settingHandler.Update)
	writer.DELETE("/settings/:key", settingHandler.Delete)
}

// adminAuthMiddleware validates internal JWTs and loads admin context.
func adminAuthMiddleware(db *gorm.DB, issuer *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := issuer.Parse(token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user disabled"})
			return
		}
		role, errRole := roles.Parse(user.Role)
		if errRole != nil || !role.Internal() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not an internal account"})
			return
		}

		c.Set(handlers.ContextAdminID, user.ID)
		c.Set(handlers.ContextAdminRole, role)
		c.Next()
	}
}

// requireAdminWrite rejects roles without admin mutation rights.
func requireAdminWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := roleFromContext(c)
		if !ok || !role.CanWriteAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// requireAdminManage rejects everyone but the root administrator.
func requireAdminManage() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := roleFromContext(c)
		if !ok || !role.CanManageAdmins() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func roleFromContext(c *gin.Context) (roles.Role, bool) {
	value, exists := c.Get(handlers.ContextAdminRole)
	if !exists {
		return "", false
	}
	role, ok := value.(roles.Role)
	return role, ok
}
