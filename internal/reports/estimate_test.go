package reports

import (
	"errors"
	"testing"

	"github.com/acmprop/acmprop/internal/models"
)

func TestEstimateACM(t *testing.T) {
	payload := ACMPayload{
		SurfaceM2: 80,
		Comparables: []Comparable{
			{Price: 100000, SurfaceM2: 100}, // 1000/m2
			{Price: 150000, SurfaceM2: 100}, // 1500/m2
		},
	}
	got, errEstimate := EstimateACM(payload)
	if errEstimate != nil {
		t.Fatalf("estimate: %v", errEstimate)
	}
	// avg 1250/m2 * 80 m2
	if got != 100000 {
		t.Fatalf("expected 100000, got %v", got)
	}
}

func TestEstimateACM_Weighted(t *testing.T) {
	payload := ACMPayload{
		SurfaceM2: 100,
		Comparables: []Comparable{
			{Price: 100000, SurfaceM2: 100, Weight: 3}, // 1000/m2
			{Price: 200000, SurfaceM2: 100, Weight: 1}, // 2000/m2
		},
	}
	got, errEstimate := EstimateACM(payload)
	if errEstimate != nil {
		t.Fatalf("estimate: %v", errEstimate)
	}
	// (1000*3 + 2000*1) / 4 = 1250/m2
	if got != 125000 {
		t.Fatalf("expected 125000, got %v", got)
	}
}

func TestEstimateACM_SkipsBrokenComparables(t *testing.T) {
	payload := ACMPayload{
		SurfaceM2: 50,
		Comparables: []Comparable{
			{Price: 0, SurfaceM2: 100},
			{Price: 100000, SurfaceM2: 0},
			{Price: 120000, SurfaceM2: 100},
		},
	}
	got, errEstimate := EstimateACM(payload)
	if errEstimate != nil {
		t.Fatalf("estimate: %v", errEstimate)
	}
	if got != 60000 {
		t.Fatalf("expected 60000 from the single valid comparable, got %v", got)
	}

	payload.Comparables = payload.Comparables[:2]
	if _, errEmpty := EstimateACM(payload); !errors.Is(errEmpty, ErrNoComparables) {
		t.Fatalf("expected ErrNoComparables, got %v", errEmpty)
	}
}

func TestEstimateFeasibility(t *testing.T) {
	payload := FeasibilityPayload{
		LandPrice:      200000,
		BuildableM2:    500,
		CostPerM2:      900,
		SalePricePerM2: 1800,
		OtherCosts:     50000,
	}
	got, errEstimate := EstimateFeasibility(payload)
	if errEstimate != nil {
		t.Fatalf("estimate: %v", errEstimate)
	}
	// 500*1800 - (200000 + 500*900 + 50000) = 900000 - 700000
	if got != 200000 {
		t.Fatalf("expected 200000, got %v", got)
	}

	payload.LandPrice = 1000000
	got, errEstimate = EstimateFeasibility(payload)
	if errEstimate != nil {
		t.Fatalf("estimate: %v", errEstimate)
	}
	if got != -600000 {
		t.Fatalf("negative margins are valid, got %v", got)
	}
}

func TestEstimateFromPayload(t *testing.T) {
	acm := []byte(`{"surface_m2":80,"comparables":[{"price":100000,"surface_m2":100}]}`)
	got, errEstimate := EstimateFromPayload(models.ReportKindACM, acm)
	if errEstimate != nil {
		t.Fatalf("acm estimate: %v", errEstimate)
	}
	if got != 80000 {
		t.Fatalf("expected 80000, got %v", got)
	}

	if _, errBad := EstimateFromPayload(models.ReportKindACM, []byte("{")); errBad == nil {
		t.Fatalf("expected parse error")
	}
	if _, errKind := EstimateFromPayload(models.ReportKind(99), []byte("{}")); errKind == nil {
		t.Fatalf("expected unknown kind error")
	}
}
