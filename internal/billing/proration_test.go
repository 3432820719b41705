package billing

import (
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRound2_Boundaries(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.005, 10.01},
		{10.004, 10.0},
		{-10.005, -10.01},
		{258.0645161290322, 258.06},
		{0, 0},
	}
	for _, tc := range cases {
		got := Round2(tc.in)
		if got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
		// Repeated rounding must not oscillate.
		if Round2(got) != got {
			t.Fatalf("Round2 not idempotent for %v", tc.in)
		}
	}
}

func TestRound2_NonFinitePropagates(t *testing.T) {
	if !math.IsNaN(Round2(math.NaN())) {
		t.Fatalf("expected NaN to propagate")
	}
	if !math.IsInf(Round2(math.Inf(1)), 1) {
		t.Fatalf("expected +Inf to propagate")
	}
	if !math.IsInf(Round2(math.Inf(-1)), -1) {
		t.Fatalf("expected -Inf to propagate")
	}
}

func TestClassify_SignConsistency(t *testing.T) {
	if got := Classify(1000, 1500); got != ChangeUpgrade {
		t.Fatalf("expected upgrade, got %s", got)
	}
	if got := Classify(1500, 1000); got != ChangeDowngrade {
		t.Fatalf("expected downgrade, got %s", got)
	}
	if got := Classify(1200, 1200); got != ChangeNone {
		t.Fatalf("expected no_change, got %s", got)
	}
}

func TestCalculate_ScenarioA(t *testing.T) {
	result := Calculate(CalcInput{
		CycleStart:      date(2024, time.January, 1),
		CycleEnd:        date(2024, time.January, 31),
		Today:           date(2024, time.January, 16),
		CurrentNetPrice: 1000,
		NewNetPrice:     1500,
		TaxRate:         0.21,
	})
	if result.DaysInCycle != 31 {
		t.Fatalf("expected 31 days in cycle, got %d", result.DaysInCycle)
	}
	if result.DaysRemaining != 16 {
		t.Fatalf("expected 16 days remaining, got %d", result.DaysRemaining)
	}
	if math.Abs(result.Fraction-16.0/31.0) > 1e-9 {
		t.Fatalf("expected fraction 16/31, got %v", result.Fraction)
	}
	if result.DeltaNet != 258.06 {
		t.Fatalf("expected delta net 258.06, got %v", result.DeltaNet)
	}
	if result.Tax != 54.19 {
		t.Fatalf("expected tax 54.19, got %v", result.Tax)
	}
	if result.Total != 312.26 {
		t.Fatalf("expected total 312.26, got %v", result.Total)
	}
}

func TestCalculate_EqualPricesAlwaysZero(t *testing.T) {
	for day := 1; day <= 31; day++ {
		result := Calculate(CalcInput{
			CycleStart:      date(2024, time.January, 1),
			CycleEnd:        date(2024, time.January, 31),
			Today:           date(2024, time.January, day),
			CurrentNetPrice: 1500,
			NewNetPrice:     1500,
			TaxRate:         0.21,
		})
		if result.Total != 0 || result.DeltaNet != 0 || result.Tax != 0 {
			t.Fatalf("day %d: expected zero delta, got %+v", day, result)
		}
	}
}

func TestCalculate_FractionBounds(t *testing.T) {
	start := date(2024, time.March, 1)
	end := date(2024, time.March, 30)
	for day := 1; day <= 30; day++ {
		result := Calculate(CalcInput{
			CycleStart:      start,
			CycleEnd:        end,
			Today:           date(2024, time.March, day),
			CurrentNetPrice: 100,
			NewNetPrice:     200,
			TaxRate:         0.21,
		})
		if result.Fraction < 0 || result.Fraction > 1 {
			t.Fatalf("day %d: fraction %v out of [0,1]", day, result.Fraction)
		}
	}
}

func TestCalculate_TodayOutsideCycleClamps(t *testing.T) {
	in := CalcInput{
		CycleStart:      date(2024, time.January, 1),
		CycleEnd:        date(2024, time.January, 31),
		CurrentNetPrice: 1000,
		NewNetPrice:     2000,
		TaxRate:         0.21,
	}

	in.Today = date(2024, time.February, 15)
	after := Calculate(in)
	if after.DaysRemaining != 0 || after.Total != 0 {
		t.Fatalf("expected zero remaining after cycle end, got %+v", after)
	}

	in.Today = date(2023, time.December, 1)
	before := Calculate(in)
	if before.DaysRemaining != before.DaysInCycle {
		t.Fatalf("expected full cycle remaining before start, got %+v", before)
	}
	if before.Fraction != 1 {
		t.Fatalf("expected fraction 1 before cycle start, got %v", before.Fraction)
	}
}

func TestCalculate_DegenerateCycle(t *testing.T) {
	result := Calculate(CalcInput{
		CycleStart:      date(2024, time.May, 10),
		CycleEnd:        date(2024, time.May, 1),
		Today:           date(2024, time.May, 5),
		CurrentNetPrice: 1000,
		NewNetPrice:     1500,
		TaxRate:         0.21,
	})
	if result.Fraction != 0 {
		t.Fatalf("expected fraction 0 for degenerate cycle, got %v", result.Fraction)
	}
	if result.Total != 0 {
		t.Fatalf("expected zero total for degenerate cycle, got %v", result.Total)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	in := CalcInput{
		CycleStart:      date(2024, time.January, 1),
		CycleEnd:        date(2024, time.January, 31),
		Today:           date(2024, time.January, 16),
		CurrentNetPrice: 1000,
		NewNetPrice:     1500,
		TaxRate:         0.21,
	}
	first := Calculate(in)
	second := Calculate(in)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestCalculate_NegativeDeltaCarriesNoTax(t *testing.T) {
	result := Calculate(CalcInput{
		CycleStart:      date(2024, time.January, 1),
		CycleEnd:        date(2024, time.January, 31),
		Today:           date(2024, time.January, 16),
		CurrentNetPrice: 1500,
		NewNetPrice:     1000,
		TaxRate:         0.21,
	})
	if result.DeltaNet >= 0 {
		t.Fatalf("expected negative net delta, got %v", result.DeltaNet)
	}
	if result.Tax != 0 {
		t.Fatalf("expected no tax on negative delta, got %v", result.Tax)
	}
}
