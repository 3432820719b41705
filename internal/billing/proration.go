package billing

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// CalcInput carries the inputs of a proration calculation. Today is injected
// by the caller so the calculation never reads the wall clock.
type CalcInput struct {
	CycleStart      time.Time // Billing cycle start date (inclusive).
	CycleEnd        time.Time // Billing cycle end date (inclusive).
	Today           time.Time // Reference date for the remaining fraction.
	CurrentNetPrice float64   // Net price of the active plan.
	NewNetPrice     float64   // Net price of the target plan.
	TaxRate         float64   // Tax rate applied to positive deltas.
}

// CalcResult is the derived proration outcome. It is a preview, never persisted.
type CalcResult struct {
	DaysInCycle   int     // Inclusive day count of the billing cycle.
	DaysRemaining int     // Remaining days including today, clamped to the cycle.
	Fraction      float64 // DaysRemaining over DaysInCycle.
	DeltaNet      float64 // Day-weighted net price delta, rounded.
	Tax           float64 // Tax on positive deltas, rounded.
	Total         float64 // DeltaNet plus Tax, rounded.
}

// Calculate computes the day-weighted price delta for a mid-cycle plan change.
// Pure and deterministic: identical inputs always yield identical output.
func Calculate(in CalcInput) CalcResult {
	daysInCycle := inclusiveDays(in.CycleStart, in.CycleEnd)
	daysRemaining := inclusiveDays(in.Today, in.CycleEnd)
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	if daysRemaining > daysInCycle {
		daysRemaining = daysInCycle
	}

	fraction := 0.0
	if daysInCycle > 0 {
		fraction = float64(daysRemaining) / float64(daysInCycle)
	} else {
		log.Warnf("billing: degenerate cycle %s..%s, fraction forced to 0",
			in.CycleStart.Format(time.DateOnly), in.CycleEnd.Format(time.DateOnly))
		daysRemaining = 0
	}

	deltaNet := (in.NewNetPrice - in.CurrentNetPrice) * fraction
	tax := 0.0
	if deltaNet > 0 {
		tax = deltaNet * in.TaxRate
	}
	total := deltaNet + tax

	return CalcResult{
		DaysInCycle:   daysInCycle,
		DaysRemaining: daysRemaining,
		Fraction:      fraction,
		DeltaNet:      Round2(deltaNet),
		Tax:           Round2(tax),
		Total:         Round2(total),
	}
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inclusiveDays counts calendar days from one date to another, both inclusive.
// Returns zero or negative when `to` precedes `from`.
func inclusiveDays(from, to time.Time) int {
	diff := dateOnly(to).Sub(dateOnly(from))
	return int(diff/(24*time.Hour)) + 1
}
