package utils

import (
	"math"
)

// =============================================================================
// Growth Rate Utilities
// =============================================================================

// GrowthRate returns the percent change from previous to current, rounded
// to 2 decimals. A zero or NaN previous reading yields 100 when current is
// positive and 0 otherwise.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 || math.IsNaN(previous) {
		if current > 0 {
			return 100
		}
		return 0
	}
	return RoundTo(((current-previous)/previous)*100, 2)
}

// GrowthRates applies GrowthRate pairwise to three metric readings
func GrowthRates(current, previous [3]float64) [3]float64 {
	var out [3]float64
	for i := range current {
		out[i] = GrowthRate(current[i], previous[i])
	}
	return out
}

// RoundTo rounds v half away from zero to the given number of decimals
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
