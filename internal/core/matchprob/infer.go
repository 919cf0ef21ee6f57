package matchprob

import (
	"fmt"
	"math"
)

// ThreeWay holds home-win / draw / away-win probabilities (0–1).
type ThreeWay struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

const (
	inferGridSteps = 400
	inferEps       = 1e-6
)

// InferLambdas finds (λ_home, λ_away) with λ_home + λ_away = g0 whose
// truncated Poisson 1X2 split best matches the given probabilities.
// Dense 1-D grid search over λ_home ∈ (ε, g0−ε).
func InferLambdas(target ThreeWay, g0 float64, maxGoals int) (MatchInput, error) {
	if err := validateMaxGoals(maxGoals); err != nil {
		return MatchInput{}, err
	}
	if math.IsNaN(g0) || math.IsInf(g0, 0) || g0 <= 2*inferEps || g0 > MaxLambda {
		return MatchInput{}, fmt.Errorf("%w: expected total goals %v not in (%v, %v]", ErrInvalidMatchInput, g0, 2*inferEps, MaxLambda)
	}
	total := target.Home + target.Draw + target.Away
	if target.Home < 0 || target.Draw < 0 || target.Away < 0 || !(total > 0) || math.IsInf(total, 0) {
		return MatchInput{}, fmt.Errorf("%w: 1X2 probabilities %+v", ErrInvalidMatchInput, target)
	}
	hp, dp, ap := target.Home/total, target.Draw/total, target.Away/total

	bestX := g0 / 2
	bestErr := math.Inf(1)

	for s := 1; s < inferGridSteps; s++ {
		x := inferEps + (g0-2*inferEps)*float64(s)/inferGridSteps
		mh, md, ma := tally(poissonPMFs(x, maxGoals), poissonPMFs(g0-x, maxGoals))
		sum := mh + md + ma
		if sum <= 0 {
			continue
		}
		mh, md, ma = mh/sum, md/sum, ma/sum

		err := (mh-hp)*(mh-hp) + (md-dp)*(md-dp) + (ma-ap)*(ma-ap)
		if err < bestErr {
			bestErr = err
			bestX = x
		}
	}
	return MatchInput{LambdaHome: bestX, LambdaAway: g0 - bestX}, nil
}
