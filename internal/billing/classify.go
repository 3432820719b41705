package billing

// Change labels a requested plan change relative to the current plan price.
type Change string

// Change constants define plan change classifications.
const (
	// ChangeUpgrade applies immediately and bills the prorated delta now.
	ChangeUpgrade Change = "upgrade"
	// ChangeDowngrade is deferred to the next cycle boundary; nothing is billed now.
	ChangeDowngrade Change = "downgrade"
	// ChangeNone means the resolved prices are equal and no action is taken.
	ChangeNone Change = "no_change"
)

// Classify labels the requested change by comparing resolved net prices.
func Classify(currentNetPrice, newNetPrice float64) Change {
	switch {
	case newNetPrice > currentNetPrice:
		return ChangeUpgrade
	case newNetPrice < currentNetPrice:
		return ChangeDowngrade
	default:
		return ChangeNone
	}
}
