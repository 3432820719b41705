package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by the DSN. Postgres DSNs use the
// pgx driver; `file:` and `:memory:` DSNs open SQLite.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if isSQLiteDSN(dsn) {
		conn, errOpen := gorm.Open(sqlite.Open(dsn), cfg)
		if errOpen != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", errOpen)
		}
		return conn, nil
	}

	conn, errOpen := gorm.Open(postgres.Open(dsn), cfg)
	if errOpen != nil {
		return nil, fmt.Errorf("db: open postgres: %w", errOpen)
	}
	return conn, nil
}

// isSQLiteDSN reports whether the DSN targets a SQLite database.
func isSQLiteDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "file:") ||
		strings.HasPrefix(lower, ":memory:") ||
		strings.HasSuffix(lower, ".db") ||
		strings.HasSuffix(lower, ".sqlite")
}

// pgUniqueViolationCode is the Postgres error code for unique constraint violations.
const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether the error is a unique constraint violation
// on either supported dialect.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
