package inspection

import (
	"fmt"

	"github.com/agrocert/backend/internal/domain/producer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSurfaceTolerance is the accepted relative deviation between the
// producer's total declared area and the total allocated to crops.
var DefaultSurfaceTolerance = decimal.NewFromFloat(0.20)

// SurfacePolicy configures the surface validation rule
type SurfacePolicy struct {
	ToleranceRatio decimal.Decimal
}

// DefaultSurfacePolicy returns the policy used when none is configured
func DefaultSurfacePolicy() SurfacePolicy {
	return SurfacePolicy{ToleranceRatio: DefaultSurfaceTolerance}
}

// PlotSurface is the reconciliation of a single plot
type PlotSurface struct {
	PlotID    uuid.UUID       `json:"plot_id"`
	Label     string          `json:"label"`
	Declared  decimal.Decimal `json:"declared"`
	Allocated decimal.Decimal `json:"allocated"`
	Overage   decimal.Decimal `json:"overage"`
}

// SurfaceDetails carries the figures behind a validation result
type SurfaceDetails struct {
	Plots          []PlotSurface   `json:"plots"`
	TotalDeclared  decimal.Decimal `json:"total_declared"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	Deviation      decimal.Decimal `json:"deviation"`
}

// SurfaceValidationResult is the outcome of ValidateSurfaces.
// Errors block submission for review; warnings do not.
type SurfaceValidationResult struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Details  SurfaceDetails `json:"details"`
}

// ValidateSurfaces reconciles crop allocations against the producer's active
// plots. It has no side effects.
//
// Per plot, the allocated sum must not exceed the declared area. A crop row
// pointing at a plot outside the given set is also an error. Across all plots,
// a relative deviation of the allocated total from the declared total above
// the policy tolerance yields a warning.
func ValidateSurfaces(plots []producer.Plot, crops []CropDetail, policy SurfacePolicy) SurfaceValidationResult {
	result := SurfaceValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	allocated := make(map[uuid.UUID]decimal.Decimal, len(plots))
	known := make(map[uuid.UUID]struct{}, len(plots))
	for _, p := range plots {
		known[p.ID] = struct{}{}
	}

	totalAllocated := decimal.Zero
	for _, c := range crops {
		totalAllocated = totalAllocated.Add(c.Area)
		if _, ok := known[c.PlotID]; !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("crop detail references plot %s, which is not an active plot of the producer", c.PlotID))
			continue
		}
		allocated[c.PlotID] = allocated[c.PlotID].Add(c.Area)
	}

	totalDeclared := decimal.Zero
	for _, p := range plots {
		totalDeclared = totalDeclared.Add(p.DeclaredArea)
		sum := allocated[p.ID]
		ps := PlotSurface{
			PlotID:    p.ID,
			Label:     p.Label(),
			Declared:  p.DeclaredArea,
			Allocated: sum,
			Overage:   decimal.Zero,
		}
		if sum.GreaterThan(p.DeclaredArea) {
			ps.Overage = sum.Sub(p.DeclaredArea)
			result.Errors = append(result.Errors, fmt.Sprintf(
				"%s: allocated %s ha exceeds declared %s ha by %s ha",
				ps.Label, sum.StringFixed(2), p.DeclaredArea.StringFixed(2), ps.Overage.StringFixed(2)))
		}
		result.Details.Plots = append(result.Details.Plots, ps)
	}

	result.Details.TotalDeclared = totalDeclared
	result.Details.TotalAllocated = totalAllocated
	result.Details.Deviation = decimal.Zero
	if totalDeclared.IsPositive() {
		deviation := totalAllocated.Sub(totalDeclared).Abs().Div(totalDeclared)
		result.Details.Deviation = deviation
		if deviation.GreaterThan(policy.ToleranceRatio) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"allocated total %s ha deviates %s%% from declared total %s ha",
				totalAllocated.StringFixed(2), deviation.Mul(decimal.NewFromInt(100)).StringFixed(1),
				totalDeclared.StringFixed(2)))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
