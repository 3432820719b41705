package front

import (
	"errors"
	"net/http"
	"strings"

	"github.com/acmprop/acmprop/internal/config"
	handlers "github.com/acmprop/acmprop/internal/http/api/front/handlers"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/ratelimit"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/acmprop/acmprop/internal/tenantresolve"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers tenant-facing routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}
	issuer, errIssuer := security.NewTokenIssuer(jwtCfg.Secret, jwtCfg.Expiry)
	if errIssuer != nil {
		return
	}

	frontGroup := r.Group("/v0")

	authHandler := handlers.NewAuthFrontHandler(db, issuer)
	frontGroup.POST("/auth/login", authHandler.Login)

	authed := frontGroup.Group("")
	authed.Use(frontAuthMiddleware(db, issuer))

	planHandler := handlers.NewPlanFrontHandler(db)
	authed.GET("/plans", planHandler.List)

	subscriptionHandler := handlers.NewSubscriptionHandler(db)
	authed.GET("/subscription", subscriptionHandler.Get)
	authed.POST("/subscription", subscriptionHandler.Create)
	authed.POST("/subscription/plan-change/preview", subscriptionHandler.PreviewChange)
	authed.POST("/subscription/plan-change", subscriptionHandler.CommitChange)

	billingLineHandler := handlers.NewBillingLineFrontHandler(db)
	authed.GET("/billing-lines", billingLineHandler.List)

	reportHandler := handlers.NewReportHandler(db, limiter)
	authed.POST("/reports", reportHandler.Create)
	authed.GET("/reports", reportHandler.List)
	authed.GET("/reports/:id", reportHandler.Get)
	authed.PUT("/reports/:id", reportHandler.Update)
	authed.POST("/reports/:id/finalize", reportHandler.Finalize)

	asesorHandler := handlers.NewAsesorHandler(db)
	authed.POST("/asesores", asesorHandler.Create)
	authed.GET("/asesores", asesorHandler.List)
	authed.DELETE("/asesores/:id", asesorHandler.Delete)
}

// frontAuthMiddleware validates tenant JWTs and resolves the empresa context.
func frontAuthMiddleware(db *gorm.DB, issuer *security.TokenIssuer) gin.HandlerFunc {
	resolver := tenantresolve.Default()
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
		if errRole != nil || !role.Tenant() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a tenant account"})
			return
		}

		empresa, errResolve := resolver.Resolve(c.Request.Context(), db, user.ID)
		if errResolve != nil {
			if errors.Is(errResolve, tenantresolve.ErrNoTenant) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no empresa"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "resolve empresa failed"})
			return
		}
		if !empresa.IsEnabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "empresa disabled"})
			return
		}

		c.Set(handlers.ContextUserID, user.ID)
		c.Set(handlers.ContextRole, role)
		c.Set(handlers.ContextEmpresaID, empresa.ID)
		c.Next()
	}
}
