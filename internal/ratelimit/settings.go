package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/acmprop/acmprop/internal/models"
	internalsettings "github.com/acmprop/acmprop/internal/settings"
	"gorm.io/gorm"
)

// LoadReportLimit reads the per-empresa report creation limit setting.
// Zero disables limiting.
func LoadReportLimit(ctx context.Context, conn *gorm.DB) int {
	limit := internalsettings.DefaultReportRateLimit
	var setting models.Setting
	if errFind := conn.WithContext(ctx).
		Where("key = ?", internalsettings.ReportRateLimitKey).
		First(&setting).Error; errFind != nil {
		return limit
	}
	if parsed, ok := parseNonNegativeInt(setting.Value); ok {
		return parsed
	}
	return limit
}

func parseNonNegativeInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var parsedInt int
	if errUnmarshalInt := json.Unmarshal(raw, &parsedInt); errUnmarshalInt == nil {
		return parsedInt, parsedInt >= 0
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(parsedString))
		if errParse != nil {
			return 0, false
		}
		return parsed, parsed >= 0
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if math.IsNaN(parsedFloat) || math.IsInf(parsedFloat, 0) {
			return 0, false
		}
		if parsedFloat < 0 || parsedFloat != math.Trunc(parsedFloat) {
			return 0, false
		}
		return int(parsedFloat), true
	}
	return 0, false
}
