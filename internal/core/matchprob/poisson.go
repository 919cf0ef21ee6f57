package matchprob

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultMaxGoals is the per-team truncation used by the tracker UI.
	DefaultMaxGoals = 5
	// MaxGoalsLimit bounds the grid so callers cannot request absurd tables.
	MaxGoalsLimit = 100
	// MaxLambda is the largest accepted expected-goal rate.
	MaxLambda = 1000.0
)

var (
	ErrInvalidLambda     = errors.New("invalid expected-goal rate")
	ErrInvalidMatchInput = errors.New("invalid match input")
	ErrInvalidMaxGoals   = errors.New("invalid max goals")
)

// GoalDistribution holds P(exactly k goals) for k = 0..len-1. The tail past
// the last index is dropped, so the entries sum to less than 1.
type GoalDistribution []float64

// MaxGoals is the highest goal count the distribution covers.
func (d GoalDistribution) MaxGoals() int { return len(d) - 1 }

// Mass is the probability retained after truncation.
func (d GoalDistribution) Mass() float64 {
	sum := 0.0
	for _, p := range d {
		sum += p
	}
	return sum
}

// Mode returns the goal count with the highest probability.
func (d GoalDistribution) Mode() int {
	best := 0
	for k, p := range d {
		if p > d[best] {
			best = k
		}
	}
	return best
}

// ValidateLambda rejects rates outside (0, MaxLambda] and non-finite values.
func ValidateLambda(lambda float64) error {
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) || lambda <= 0 || lambda > MaxLambda {
		return fmt.Errorf("%w: %v not in (0, %v]", ErrInvalidLambda, lambda, MaxLambda)
	}
	return nil
}

func validateMaxGoals(maxGoals int) error {
	if maxGoals < 0 || maxGoals > MaxGoalsLimit {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidMaxGoals, maxGoals, MaxGoalsLimit)
	}
	return nil
}

// ComputeGoalDistribution evaluates the Poisson PMF for 0..maxGoals goals in
// log space. Very large rates underflow to zero entries rather than NaN.
func ComputeGoalDistribution(lambda float64, maxGoals int) (GoalDistribution, error) {
	if err := ValidateLambda(lambda); err != nil {
		return nil, err
	}
	if err := validateMaxGoals(maxGoals); err != nil {
		return nil, err
	}
	return poissonPMFs(lambda, maxGoals), nil
}

// poissonPMFs assumes a validated lambda. logFactorial is carried as a
// running sum so each term costs one log.
func poissonPMFs(lambda float64, maxGoals int) GoalDistribution {
	d := make(GoalDistribution, maxGoals+1)
	logLambda := math.Log(lambda)
	logFactorial := 0.0
	for x := 0; x <= maxGoals; x++ {
		if x >= 2 {
			logFactorial += math.Log(float64(x))
		}
		d[x] = math.Exp(-lambda + float64(x)*logLambda - logFactorial)
	}
	return d
}
