package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/billing"
	"github.com/acmprop/acmprop/internal/config"
	"github.com/acmprop/acmprop/internal/db"
	adminapi "github.com/acmprop/acmprop/internal/http/api/admin"
	"github.com/acmprop/acmprop/internal/http/api/front"
	"github.com/acmprop/acmprop/internal/models"
	"github.com/acmprop/acmprop/internal/ratelimit"
	"github.com/acmprop/acmprop/internal/roles"
	"github.com/acmprop/acmprop/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EnvRootAdminPassword seeds the root administrator account on first boot.
const EnvRootAdminPassword = "ROOT_ADMIN_PASSWORD"

// rootAdminUsername is the login name of the bootstrap administrator.
const rootAdminUsername = "root"

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP API with database-backed components and blocks
// until the context is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := ensureRootAdmin(ctx, conn); errSeed != nil {
		return errSeed
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	if strings.TrimSpace(jwtConfig.Secret) == "" {
		return fmt.Errorf("app: jwt secret is not configured (set %s or jwt.secret)", config.EnvJWTSecret)
	}
	redisConfig, _ := config.LoadRedisConfig(configPath)
	limiter := ratelimit.NewManager(redisConfig, nil, nil)

	engine := buildEngine(conn, jwtConfig, limiter)

	roller := billing.NewRoller(conn)
	roller.Start(ctx)

	if port <= 0 {
		port = 8318
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("app: listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", errServe)
		}
		return nil
	}
}

// buildEngine assembles the gin engine with both API surfaces.
func buildEngine(conn *gorm.DB, jwtConfig config.JWTConfig, limiter *ratelimit.Manager) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	adminapi.RegisterAdminRoutes(engine, conn, jwtConfig)
	front.RegisterFrontRoutes(engine, conn, jwtConfig, limiter)
	return engine
}

// requestLogger logs one line per request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// ensureRootAdmin seeds the root administrator on an empty install. The
// password comes from the environment; without it the seed is skipped so a
// fresh database never gets a guessable default credential.
func ensureRootAdmin(ctx context.Context, conn *gorm.DB) error {
	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", string(roles.RoleSuperAdminRoot)).
		Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: count root admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv(EnvRootAdminPassword)
	if strings.TrimSpace(password) == "" {
		log.Warnf("app: no root administrator exists and %s is unset, admin api will be unreachable", EnvRootAdminPassword)
		return nil
	}
	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("app: hash root password: %w", errHash)
	}

	now := time.Now().UTC()
	root := models.User{
		Username:  rootAdminUsername,
		Name:      "Root Administrator",
		Password:  hashed,
		Role:      string(roles.RoleSuperAdminRoot),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.WithContext(ctx).Create(&root).Error; errCreate != nil {
		return fmt.Errorf("app: create root admin: %w", errCreate)
	}
	log.Infof("app: created root administrator %q", rootAdminUsername)
	return nil
}
