package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the UI site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback UI site name.
	DefaultSiteName = "ACMProp"
	// TaxRateKey is the DB config key for the billing tax rate.
	TaxRateKey = "TAX_RATE"
	// DefaultTaxRate is the fallback tax rate (Argentine IVA).
	DefaultTaxRate = 0.21
	// DefaultCurrencyKey is the DB config key for the billing currency.
	DefaultCurrencyKey = "DEFAULT_CURRENCY"
	// DefaultCurrency is the fallback billing currency.
	DefaultCurrency = "ARS"
	// ReportRateLimitKey controls report creations per minute per empresa.
	ReportRateLimitKey = "REPORT_RATE_LIMIT"
	// DefaultReportRateLimit is the fallback report rate limit (0 means unlimited).
	DefaultReportRateLimit = 0
	// CycleRollIntervalSecondsKey controls the cycle rollover poll interval in seconds.
	CycleRollIntervalSecondsKey = "CYCLE_ROLL_INTERVAL_SECONDS"
	// DefaultCycleRollIntervalSeconds is the fallback rollover poll interval (seconds).
	DefaultCycleRollIntervalSeconds = 300
)
