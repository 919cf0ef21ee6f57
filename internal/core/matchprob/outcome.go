package matchprob

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MatchInput carries the two expected-goal rates of a fixture.
type MatchInput struct {
	LambdaHome float64 `json:"lambda_home"`
	LambdaAway float64 `json:"lambda_away"`
}

// Validate wraps any rate error in ErrInvalidMatchInput; errors.Is still
// matches ErrInvalidLambda.
func (in MatchInput) Validate() error {
	if err := ValidateLambda(in.LambdaHome); err != nil {
		return fmt.Errorf("%w: home: %w", ErrInvalidMatchInput, err)
	}
	if err := ValidateLambda(in.LambdaAway); err != nil {
		return fmt.Errorf("%w: away: %w", ErrInvalidMatchInput, err)
	}
	return nil
}

// Score is a home/away scoreline.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string { return fmt.Sprintf("%d-%d", s.Home, s.Away) }

// MatchOutcome is the 1X2 split of a truncated independent-Poisson grid.
// Percentages are renormalized over the grid and rounded to 2 dp; the goal
// distributions are the raw marginals.
type MatchOutcome struct {
	HomeWinPct      float64          `json:"home_win_pct"`
	DrawPct         float64          `json:"draw_pct"`
	AwayWinPct      float64          `json:"away_win_pct"`
	Home            GoalDistribution `json:"home_goals"`
	Away            GoalDistribution `json:"away_goals"`
	MostLikelyScore Score            `json:"most_likely_score"`
}

// ComputeMatchOutcome builds both marginals, forms the joint grid under
// independence and splits it into home win, draw and away win.
func ComputeMatchOutcome(in MatchInput, maxGoals int) (MatchOutcome, error) {
	if err := in.Validate(); err != nil {
		return MatchOutcome{}, err
	}
	if err := validateMaxGoals(maxGoals); err != nil {
		return MatchOutcome{}, err
	}

	pH := poissonPMFs(in.LambdaHome, maxGoals)
	pA := poissonPMFs(in.LambdaAway, maxGoals)

	home, draw, away := tally(pH, pA)
	total := home + draw + away
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		return MatchOutcome{}, fmt.Errorf("%w: truncated grid at %d goals carries no probability mass (home=%v away=%v)",
			ErrInvalidMatchInput, maxGoals, in.LambdaHome, in.LambdaAway)
	}

	return MatchOutcome{
		HomeWinPct:      roundPct(home / total * 100),
		DrawPct:         roundPct(draw / total * 100),
		AwayWinPct:      roundPct(away / total * 100),
		Home:            pH,
		Away:            pA,
		MostLikelyScore: mostLikely(pH, pA),
	}, nil
}

// tally sums the joint grid into raw 1X2 mass. Home and away terms are
// accumulated in mirrored order so equal rates give bit-identical masses.
func tally(pH, pA GoalDistribution) (home, draw, away float64) {
	for i := range pH {
		draw += pH[i] * pA[i]
		for j := 0; j < i; j++ {
			home += pH[i] * pA[j]
			away += pH[j] * pA[i]
		}
	}
	return home, draw, away
}

func mostLikely(pH, pA GoalDistribution) Score {
	var best Score
	bestP := -1.0
	for i := range pH {
		for j := range pA {
			if p := pH[i] * pA[j]; p > bestP {
				bestP = p
				best = Score{Home: i, Away: j}
			}
		}
	}
	return best
}

// OverProbability returns P(total goals > line) in percent over the same
// renormalized grid the 1X2 split uses.
func (o MatchOutcome) OverProbability(line float64) float64 {
	mass := o.Home.Mass() * o.Away.Mass()
	if mass <= 0 || math.IsNaN(line) {
		return 0
	}
	over := 0.0
	for i := range o.Home {
		for j := range o.Away {
			if float64(i+j) > line {
				over += o.Home[i] * o.Away[j]
			}
		}
	}
	return roundPct(over / mass * 100)
}

// FairOdds converts the outcome percentages to decimal odds with no margin.
// A zero percentage maps to zero odds.
func (o MatchOutcome) FairOdds() (home, draw, away float64) {
	return fairOdd(o.HomeWinPct), fairOdd(o.DrawPct), fairOdd(o.AwayWinPct)
}

func fairOdd(pct float64) float64 {
	if pct <= 0 {
		return 0
	}
	return roundPct(100 / pct)
}

func roundPct(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
