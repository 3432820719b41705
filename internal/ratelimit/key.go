package ratelimit

import "fmt"

// KeyForReportCreate builds the limiter key scoping report creation to one
// empresa.
func KeyForReportCreate(empresaID uint64) string {
	if empresaID == 0 {
		return ""
	}
	return fmt.Sprintf("e:%d:reports", empresaID)
}
