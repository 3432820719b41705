package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acmprop/acmprop/internal/models"
	internalsettings "github.com/acmprop/acmprop/internal/settings"
	"gorm.io/gorm"
)

// migratedModels lists every model in migration order.
var migratedModels = []any{
	&models.User{},
	&models.Empresa{},
	&models.Plan{},
	&models.PlanPriceOverride{},
	&models.SubscriptionCycle{},
	&models.BillingLine{},
	&models.Report{},
	&models.Setting{},
}

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(migratedModels...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}

	_ = conn.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).Error

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_plans_is_enabled_sort_order_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_plans_is_enabled_sort_order_created_at
				ON plans (is_enabled, sort_order ASC, created_at DESC)
			`,
		},
		{
			name: "idx_subscription_cycles_empresa_state",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_subscription_cycles_empresa_state
				ON subscription_cycles (empresa_id, state)
			`,
		},
		{
			name: "idx_subscription_cycles_active_unique",
			sql: `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_subscription_cycles_active_unique
				ON subscription_cycles (empresa_id)
				WHERE state = 2
			`,
		},
		{
			name: "idx_subscription_cycles_state_end_date",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_subscription_cycles_state_end_date
				ON subscription_cycles (state, end_date)
			`,
		},
		{
			name: "idx_billing_lines_empresa_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_billing_lines_empresa_id_created_at
				ON billing_lines (empresa_id, created_at DESC)
			`,
		},
		{
			name: "idx_reports_empresa_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_reports_empresa_id_created_at
				ON reports (empresa_id, created_at DESC)
			`,
		},
		{
			name: "idx_reports_empresa_id_kind_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_reports_empresa_id_kind_status
				ON reports (empresa_id, kind, status)
			`,
		},
		{
			name: "idx_users_empresa_id_role_active",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_users_empresa_id_role_active
				ON users (empresa_id, role, active)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	// trgmIndex defines trigram and fallback index statements.
	type trgmIndex struct {
		name     string // Logical index name.
		trgmSQL  string // Trigram index SQL.
		lowerSQL string // Lowercase fallback index SQL.
	}
	trgmIndexes := []trgmIndex{
		{
			name: "idx_users_username",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_users_username_trgm
				ON users USING gin (username gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_users_username_lower
				ON users (LOWER(username))
			`,
		},
		{
			name: "idx_empresas_name",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_empresas_name_trgm
				ON empresas USING gin (name gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_empresas_name_lower
				ON empresas (LOWER(name))
			`,
		},
		{
			name: "idx_reports_address",
			trgmSQL: `
				CREATE INDEX IF NOT EXISTS idx_reports_address_trgm
				ON reports USING gin (LOWER(address) gin_trgm_ops)
			`,
			lowerSQL: `
				CREATE INDEX IF NOT EXISTS idx_reports_address_lower
				ON reports (LOWER(address))
			`,
		},
	}
	for _, item := range trgmIndexes {
		if errIdx := conn.Exec(item.trgmSQL).Error; errIdx != nil {
			if errLower := conn.Exec(item.lowerSQL).Error; errLower != nil {
				return fmt.Errorf("db: create index %s: %w", item.name, errLower)
			}
		}
	}

	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(migratedModels...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_plans_is_enabled_sort_order_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_plans_is_enabled_sort_order_created_at
				ON plans (is_enabled, sort_order ASC, created_at DESC)
			`,
		},
		{
			name: "idx_subscription_cycles_empresa_state",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_subscription_cycles_empresa_state
				ON subscription_cycles (empresa_id, state)
			`,
		},
		{
			name: "idx_subscription_cycles_active_unique",
			sql: `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_subscription_cycles_active_unique
				ON subscription_cycles (empresa_id)
				WHERE state = 2
			`,
		},
		{
			name: "idx_subscription_cycles_state_end_date",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_subscription_cycles_state_end_date
				ON subscription_cycles (state, end_date)
			`,
		},
		{
			name: "idx_billing_lines_empresa_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_billing_lines_empresa_id_created_at
				ON billing_lines (empresa_id, created_at DESC)
			`,
		},
		{
			name: "idx_reports_empresa_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_reports_empresa_id_created_at
				ON reports (empresa_id, created_at DESC)
			`,
		},
		{
			name: "idx_reports_empresa_id_kind_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_reports_empresa_id_kind_status
				ON reports (empresa_id, kind, status)
			`,
		},
		{
			name: "idx_users_empresa_id_role_active",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_users_empresa_id_role_active
				ON users (empresa_id, role, active)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// ensureDefaultSettings seeds billing and rate-limit settings with defaults.
func ensureDefaultSettings(conn *gorm.DB) error {
	if errEnsure := ensureFloatSetting(conn, internalsettings.TaxRateKey, internalsettings.DefaultTaxRate); errEnsure != nil {
		return errEnsure
	}
	if errEnsure := ensureStringSetting(conn, internalsettings.DefaultCurrencyKey, internalsettings.DefaultCurrency); errEnsure != nil {
		return errEnsure
	}
	if errEnsure := ensureIntSetting(conn, internalsettings.ReportRateLimitKey, internalsettings.DefaultReportRateLimit); errEnsure != nil {
		return errEnsure
	}
	if errEnsure := ensureIntSetting(
		conn,
		internalsettings.CycleRollIntervalSecondsKey,
		internalsettings.DefaultCycleRollIntervalSeconds,
	); errEnsure != nil {
		return errEnsure
	}
	return nil
}

// ensureIntSetting ensures an integer setting exists and defaults when empty.
func ensureIntSetting(conn *gorm.DB, key string, value int) error {
	return ensureJSONSetting(conn, key, value)
}

// ensureFloatSetting ensures a float setting exists and defaults when empty.
func ensureFloatSetting(conn *gorm.DB, key string, value float64) error {
	return ensureJSONSetting(conn, key, value)
}

// ensureStringSetting ensures a string setting exists and defaults when empty.
func ensureStringSetting(conn *gorm.DB, key string, value string) error {
	return ensureJSONSetting(conn, key, value)
}

// ensureJSONSetting ensures a setting exists and backfills empty values.
func ensureJSONSetting(conn *gorm.DB, key string, value any) error {
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal %s setting: %w", key, errMarshal)
	}
	rawValue := json.RawMessage(payload)

	var existing models.Setting
	if errFind := conn.Where("key = ?", key).First(&existing).Error; errFind == nil {
		trimmed := strings.TrimSpace(string(existing.Value))
		if len(existing.Value) == 0 || trimmed == "" || trimmed == "null" {
			if errUpdate := conn.Model(&existing).Updates(map[string]any{
				"value":      rawValue,
				"updated_at": time.Now().UTC(),
			}).Error; errUpdate != nil {
				return fmt.Errorf("db: update %s setting: %w", key, errUpdate)
			}
		}
		return nil
	} else if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query %s setting: %w", key, errFind)
	}

	now := time.Now().UTC()
	setting := models.Setting{
		Key:       key,
		Value:     rawValue,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&setting).Error; errCreate != nil {
		return fmt.Errorf("db: create %s setting: %w", key, errCreate)
	}
	return nil
}
