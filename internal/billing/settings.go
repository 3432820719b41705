package billing

import (
	"context"
	"encoding/json"

	"github.com/acmprop/acmprop/internal/models"
	internalsettings "github.com/acmprop/acmprop/internal/settings"
	"gorm.io/gorm"
)

// LoadTaxRate reads the configured tax rate, falling back to the default.
func LoadTaxRate(ctx context.Context, conn *gorm.DB) float64 {
	var setting models.Setting
	if errFind := conn.WithContext(ctx).
		Where("key = ?", internalsettings.TaxRateKey).
		First(&setting).Error; errFind != nil {
		return internalsettings.DefaultTaxRate
	}
	var rate float64
	if errUnmarshal := json.Unmarshal(setting.Value, &rate); errUnmarshal != nil || rate < 0 {
		return internalsettings.DefaultTaxRate
	}
	return rate
}

// LoadCurrency reads the configured billing currency, falling back to the default.
func LoadCurrency(ctx context.Context, conn *gorm.DB) string {
	var setting models.Setting
	if errFind := conn.WithContext(ctx).
		Where("key = ?", internalsettings.DefaultCurrencyKey).
		First(&setting).Error; errFind != nil {
		return internalsettings.DefaultCurrency
	}
	var currency string
	if errUnmarshal := json.Unmarshal(setting.Value, &currency); errUnmarshal != nil || currency == "" {
		return internalsettings.DefaultCurrency
	}
	return currency
}
