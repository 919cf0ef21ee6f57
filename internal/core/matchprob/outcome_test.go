package matchprob

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGoalDistribution_Truncation(t *testing.T) {
	for _, lambda := range []float64{0.3, 1.0, 2.25, 4.5} {
		d, err := ComputeGoalDistribution(lambda, DefaultMaxGoals)
		require.NoError(t, err)
		require.Len(t, d, DefaultMaxGoals+1)
		assert.Equal(t, DefaultMaxGoals, d.MaxGoals())
		for _, p := range d {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
		assert.Less(t, d.Mass(), 1.0)

		wide, err := ComputeGoalDistribution(lambda, 60)
		require.NoError(t, err)
		assert.Greater(t, wide.Mass(), d.Mass())
		assert.InDelta(t, 1.0, wide.Mass(), 1e-9)
	}
}

func TestComputeGoalDistribution_KnownValues(t *testing.T) {
	d, err := ComputeGoalDistribution(2.0, 3)
	require.NoError(t, err)
	e := math.Exp(-2)
	assert.InDelta(t, e, d[0], 1e-15)
	assert.InDelta(t, 2*e, d[1], 1e-15)
	assert.InDelta(t, 2*e, d[2], 1e-15)
	assert.InDelta(t, 4.0/3*e, d[3], 1e-15)

	d, err = ComputeGoalDistribution(1.5, DefaultMaxGoals)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Mode())
}

func TestComputeGoalDistribution_ScenarioC(t *testing.T) {
	d, err := ComputeGoalDistribution(0.0001, DefaultMaxGoals)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d[0], 1e-3)
	for _, p := range d[1:] {
		assert.Less(t, p, 1e-3)
	}
}

func TestComputeGoalDistribution_Invalid(t *testing.T) {
	for _, lambda := range []float64{0, -1, 1000.0001, math.NaN(), math.Inf(1)} {
		_, err := ComputeGoalDistribution(lambda, DefaultMaxGoals)
		assert.ErrorIs(t, err, ErrInvalidLambda, "lambda=%v", lambda)
	}
	_, err := ComputeGoalDistribution(1, -1)
	assert.ErrorIs(t, err, ErrInvalidMaxGoals)
	_, err = ComputeGoalDistribution(1, MaxGoalsLimit+1)
	assert.ErrorIs(t, err, ErrInvalidMaxGoals)
}

func TestComputeGoalDistribution_LargeLambdaStaysFinite(t *testing.T) {
	d, err := ComputeGoalDistribution(MaxLambda, MaxGoalsLimit)
	require.NoError(t, err)
	for _, p := range d {
		assert.False(t, math.IsNaN(p) || math.IsInf(p, 0))
		assert.GreaterOrEqual(t, p, 0.0)
	}
}

func TestComputeMatchOutcome_ScenarioB(t *testing.T) {
	out, err := ComputeMatchOutcome(MatchInput{LambdaHome: 2.25, LambdaAway: 2.16}, DefaultMaxGoals)
	require.NoError(t, err)

	assert.Greater(t, out.HomeWinPct, out.AwayWinPct)
	assert.Less(t, out.HomeWinPct-out.AwayWinPct, 5.0)
	assert.GreaterOrEqual(t, out.DrawPct, 20.0)
	assert.LessOrEqual(t, out.DrawPct, 30.0)
	assert.InDelta(t, 100.0, out.HomeWinPct+out.DrawPct+out.AwayWinPct, 0.01)

	assert.InDelta(t, 41.21, out.HomeWinPct, 1e-9)
	assert.InDelta(t, 20.61, out.DrawPct, 1e-9)
	assert.InDelta(t, 38.18, out.AwayWinPct, 1e-9)
}

func TestComputeMatchOutcome_DistributionsNotRenormalized(t *testing.T) {
	out, err := ComputeMatchOutcome(MatchInput{LambdaHome: 2.25, LambdaAway: 2.16}, DefaultMaxGoals)
	require.NoError(t, err)
	home, err := ComputeGoalDistribution(2.25, DefaultMaxGoals)
	require.NoError(t, err)
	assert.Equal(t, home, out.Home)
	assert.Less(t, out.Away.Mass(), 1.0)
}

func TestComputeMatchOutcome_SumAndSymmetry(t *testing.T) {
	rates := []float64{0.0001, 0.4, 1.0, 1.4, 2.7, 6.5, 40}
	for _, h := range rates {
		for _, a := range rates {
			out, err := ComputeMatchOutcome(MatchInput{LambdaHome: h, LambdaAway: a}, DefaultMaxGoals)
			require.NoError(t, err)
			sum := out.HomeWinPct + out.DrawPct + out.AwayWinPct
			assert.InDelta(t, 100.0, sum, 0.01+1e-9, "home=%v away=%v", h, a)
			for _, pct := range []float64{out.HomeWinPct, out.DrawPct, out.AwayWinPct} {
				assert.GreaterOrEqual(t, pct, 0.0)
				assert.LessOrEqual(t, pct, 100.0)
			}
			if h == a {
				assert.Equal(t, out.HomeWinPct, out.AwayWinPct, "lambda=%v", h)
			}
		}
	}
}

func TestComputeMatchOutcome_Invalid(t *testing.T) {
	_, err := ComputeMatchOutcome(MatchInput{LambdaHome: 0, LambdaAway: 1}, DefaultMaxGoals)
	assert.ErrorIs(t, err, ErrInvalidMatchInput)
	assert.ErrorIs(t, err, ErrInvalidLambda)

	_, err = ComputeMatchOutcome(MatchInput{LambdaHome: 1, LambdaAway: math.NaN()}, DefaultMaxGoals)
	assert.True(t, errors.Is(err, ErrInvalidMatchInput))

	_, err = ComputeMatchOutcome(MatchInput{LambdaHome: 1, LambdaAway: 1}, -3)
	assert.ErrorIs(t, err, ErrInvalidMaxGoals)
}

func TestComputeMatchOutcome_NoMassIsAnError(t *testing.T) {
	// every PMF term below six goals underflows at this rate
	_, err := ComputeMatchOutcome(MatchInput{LambdaHome: MaxLambda, LambdaAway: MaxLambda}, DefaultMaxGoals)
	assert.ErrorIs(t, err, ErrInvalidMatchInput)
	assert.NotErrorIs(t, err, ErrInvalidLambda)
}

func TestMatchOutcome_Extras(t *testing.T) {
	out, err := ComputeMatchOutcome(MatchInput{LambdaHome: 1.5, LambdaAway: 1.2}, DefaultMaxGoals)
	require.NoError(t, err)

	assert.Equal(t, Score{Home: 1, Away: 1}, out.MostLikelyScore)
	assert.Equal(t, "1-1", out.MostLikelyScore.String())
	assert.InDelta(t, 50.34, out.OverProbability(2.5), 1e-9)
	assert.Equal(t, 100.0, out.OverProbability(-1))
	assert.Equal(t, 0.0, out.OverProbability(10))

	h, d, a := out.FairOdds()
	assert.InDelta(t, 100/out.HomeWinPct, h, 0.005)
	assert.InDelta(t, 100/out.DrawPct, d, 0.005)
	assert.InDelta(t, 100/out.AwayWinPct, a, 0.005)
	assert.Equal(t, 0.0, fairOdd(0))
}

func TestInferLambdas_RecoversRates(t *testing.T) {
	const maxGoals = 12
	home, draw, away := tally(poissonPMFs(1.6, maxGoals), poissonPMFs(1.1, maxGoals))
	total := home + draw + away

	got, err := InferLambdas(ThreeWay{Home: home / total, Draw: draw / total, Away: away / total}, 2.7, maxGoals)
	require.NoError(t, err)
	assert.InDelta(t, 1.6, got.LambdaHome, 0.01)
	assert.InDelta(t, 1.1, got.LambdaAway, 0.01)
	assert.InDelta(t, 2.7, got.LambdaHome+got.LambdaAway, 1e-12)
}

func TestInferLambdas_Invalid(t *testing.T) {
	_, err := InferLambdas(ThreeWay{Home: 0.4, Draw: 0.3, Away: 0.3}, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidMatchInput)
	_, err = InferLambdas(ThreeWay{}, 2.5, 10)
	assert.ErrorIs(t, err, ErrInvalidMatchInput)
	_, err = InferLambdas(ThreeWay{Home: -0.1, Draw: 0.6, Away: 0.5}, 2.5, 10)
	assert.ErrorIs(t, err, ErrInvalidMatchInput)
	_, err = InferLambdas(ThreeWay{Home: 0.4, Draw: 0.3, Away: 0.3}, 1e-6, 10)
	assert.ErrorIs(t, err, ErrInvalidMatchInput)
}
