// Package reports computes the estimated values recorded on ACM and
// feasibility reports from their JSON payloads.
package reports

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/acmprop/acmprop/internal/billing"
	"github.com/acmprop/acmprop/internal/models"
)

// ErrNoComparables indicates an ACM payload with no usable comparables.
var ErrNoComparables = errors.New("reports: no usable comparables")

// Comparable is one sold or listed property used as an ACM reference.
type Comparable struct {
	Price     float64 `json:"price"`      // Sale or listing price.
	SurfaceM2 float64 `json:"surface_m2"` // Covered surface in square meters.
	Weight    float64 `json:"weight"`     // Optional weighting; defaults to 1.
}

// ACMPayload is the property data an ACM report carries.
type ACMPayload struct {
	SurfaceM2   float64      `json:"surface_m2"`  // Subject property surface.
	Comparables []Comparable `json:"comparables"` // Market references.
}

// FeasibilityPayload is the parameter set of a construction-feasibility report.
type FeasibilityPayload struct {
	LandPrice      float64 `json:"land_price"`        // Land acquisition cost.
	BuildableM2    float64 `json:"buildable_m2"`      // Sellable buildable surface.
	CostPerM2      float64 `json:"cost_per_m2"`       // Construction cost per m2.
	SalePricePerM2 float64 `json:"sale_price_per_m2"` // Expected sale price per m2.
	OtherCosts     float64 `json:"other_costs"`       // Fees, taxes, marketing.
}

// EstimateACM derives the subject property value as the weighted average
// price per square meter of the comparables applied to the subject surface.
func EstimateACM(p ACMPayload) (float64, error) {
	if p.SurfaceM2 <= 0 {
		return 0, fmt.Errorf("reports: non-positive subject surface")
	}
	var weightedSum, weightTotal float64
	for _, c := range p.Comparables {
		if c.Price <= 0 || c.SurfaceM2 <= 0 {
			continue
		}
		weight := c.Weight
		if weight <= 0 {
			weight = 1
		}
		weightedSum += (c.Price / c.SurfaceM2) * weight
		weightTotal += weight
	}
	if weightTotal == 0 {
		return 0, ErrNoComparables
	}
	return billing.Round2(weightedSum / weightTotal * p.SurfaceM2), nil
}

// EstimateFeasibility derives the expected project margin: sellable value
// minus land, construction and other costs. Negative margins are valid.
func EstimateFeasibility(p FeasibilityPayload) (float64, error) {
	if p.BuildableM2 <= 0 {
		return 0, fmt.Errorf("reports: non-positive buildable surface")
	}
	if p.SalePricePerM2 <= 0 {
		return 0, fmt.Errorf("reports: non-positive sale price")
	}
	revenue := p.BuildableM2 * p.SalePricePerM2
	costs := p.LandPrice + p.BuildableM2*p.CostPerM2 + p.OtherCosts
	return billing.Round2(revenue - costs), nil
}

// EstimateFromPayload dispatches on the report kind and computes its value.
func EstimateFromPayload(kind models.ReportKind, payload []byte) (float64, error) {
	switch kind {
	case models.ReportKindACM:
		var p ACMPayload
		if errUnmarshal := json.Unmarshal(payload, &p); errUnmarshal != nil {
			return 0, fmt.Errorf("reports: parse acm payload: %w", errUnmarshal)
		}
		return EstimateACM(p)
	case models.ReportKindFeasibility:
		var p FeasibilityPayload
		if errUnmarshal := json.Unmarshal(payload, &p); errUnmarshal != nil {
			return 0, fmt.Errorf("reports: parse feasibility payload: %w", errUnmarshal)
		}
		return EstimateFeasibility(p)
	default:
		return 0, fmt.Errorf("reports: unknown report kind %d", kind)
	}
}
