package models

import "time"

// User represents an account stored in the database: empresa owners and
// asesores carry an empresa binding, internal roles do not.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Name     string `gorm:"type:text"`                      // Display name.
	Email    string `gorm:"type:text;uniqueIndex"`          // Email address.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	Role string `gorm:"type:varchar(32);not null;index"` // Role name, validated by the roles package.

	EmpresaID *uint64  `gorm:"index"`                // Bound tenant for owners and asesores.
	Empresa   *Empresa `gorm:"foreignKey:EmpresaID"` // Bound tenant record.

	Active bool `gorm:"not null;default:true"` // Whether the user can sign in.

	TOTPSecret string `gorm:"type:text"` // TOTP secret for internal-role MFA.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
