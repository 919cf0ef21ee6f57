package odds

import (
	"fmt"
	"math"
)

// ImpliedProbability is the raw (margin-included) probability of decimal odds.
func ImpliedProbability(decimalOdds float64) float64 {
	if decimalOdds <= 0 {
		return 0
	}
	return 1.0 / decimalOdds
}

// Overround returns the bookmaker margin of a full market, e.g. 0.05 for 5%.
func Overround(decimalOdds ...float64) float64 {
	sum := 0.0
	for _, o := range decimalOdds {
		sum += ImpliedProbability(o)
	}
	return sum - 1
}

// RemoveVig2 converts two-way decimal odds to fair probabilities
// by stripping the bookmaker's overround.
func RemoveVig2(a, b float64) (float64, float64, error) {
	if err := checkOdds(a, b); err != nil {
		return 0, 0, err
	}
	rawA := 1.0 / a
	rawB := 1.0 / b
	total := rawA + rawB
	return rawA / total, rawB / total, nil
}

// RemoveVig3 converts three-way decimal odds to fair probabilities.
func RemoveVig3(a, b, c float64) (float64, float64, float64, error) {
	if err := checkOdds(a, b, c); err != nil {
		return 0, 0, 0, err
	}
	rawA := 1.0 / a
	rawB := 1.0 / b
	rawC := 1.0 / c
	total := rawA + rawB + rawC
	return rawA / total, rawB / total, rawC / total, nil
}

func checkOdds(all ...float64) error {
	for _, o := range all {
		if math.IsNaN(o) || math.IsInf(o, 0) || o <= 1 {
			return fmt.Errorf("decimal odds must be finite and greater than 1, got %v", o)
		}
	}
	return nil
}

// PoissonCDF2 returns P(X <= 2) for a Poisson distribution with mean g0.
func PoissonCDF2(g0 float64) float64 {
	if g0 <= 0 {
		return 1.0
	}
	return math.Exp(-g0) * (1.0 + g0 + g0*g0/2.0)
}

// InferTotalFromUnder25 uses binary search to find the expected total goals
// that produces the given under-2.5 probability via the Poisson CDF.
// Degenerate inputs fall back to the 2.5 goal market line.
func InferTotalFromUnder25(pUnder float64) float64 {
	if math.IsNaN(pUnder) || pUnder <= 0.01 || pUnder >= 0.99 {
		return 2.5
	}
	lo, hi := 0.1, 8.0
	for i := 0; i < 60; i++ {
		mid := (lo + hi) / 2.0
		if PoissonCDF2(mid) > pUnder {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2.0
}
