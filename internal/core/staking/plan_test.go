package staking

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioA() Config {
	return Config{
		InitialBankroll:    100,
		PlannedBetCount:    3,
		TargetProfitFactor: 0.5,
		WinProbability:     0.6,
		OddsSequence:       []float64{2.0, 1.8, 2.5},
	}
}

func TestBuildPlan_Validation(t *testing.T) {
	base := scenarioA()
	cases := map[string]func(c *Config){
		"zero bankroll":      func(c *Config) { c.InitialBankroll = 0 },
		"negative bankroll":  func(c *Config) { c.InitialBankroll = -10 },
		"nan bankroll":       func(c *Config) { c.InitialBankroll = math.NaN() },
		"zero bets":          func(c *Config) { c.PlannedBetCount = 0 },
		"zero factor":        func(c *Config) { c.TargetProfitFactor = 0 },
		"inf factor":         func(c *Config) { c.TargetProfitFactor = math.Inf(1) },
		"zero probability":   func(c *Config) { c.WinProbability = 0 },
		"probability over 1": func(c *Config) { c.WinProbability = 1.01 },
		"empty odds":         func(c *Config) { c.OddsSequence = nil },
		"odd equal to one":   func(c *Config) { c.OddsSequence = []float64{2.0, 1.0} },
		"unknown mode":       func(c *Config) { c.TargetMode = "double" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			cfg.OddsSequence = append([]float64(nil), base.OddsSequence...)
			mutate(&cfg)
			p, err := BuildPlan(cfg)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	cfg := base
	cfg.WinProbability = 1
	_, err := BuildPlan(cfg)
	assert.NoError(t, err, "probability of exactly 1 is allowed")
}

func TestBuildPlan_ScenarioA(t *testing.T) {
	p, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	require.Len(t, p.Steps, 3)
	assert.False(t, p.Exhausted)
	assert.Equal(t, TargetFraction, p.Config.TargetMode)

	// factor = 100*0.5 / (2-1)^3 = 50
	assert.InDelta(t, 50.0/3, p.Steps[0].Stake, 1e-9)
	assert.InDelta(t, 20.0, p.Steps[1].Stake, 1e-9)
	// raw 75 is capped by what is left of the bankroll
	assert.InDelta(t, 100-50.0/3-20, p.Steps[2].Stake, 1e-9)

	for _, s := range p.Steps {
		assert.Greater(t, s.Stake, 0.0)
		assert.LessOrEqual(t, s.Stake, s.BalanceBefore)
		assert.Equal(t, StatusPending, s.Status)
	}

	for i := 0; i < 3; i++ {
		_, err := p.ResolveStep(OutcomeWon)
		require.NoError(t, err)
	}
	assert.Greater(t, p.Balance, 100.0)
	assert.Equal(t, TerminationTargetReached, p.Termination)
	assert.True(t, p.Done())
}

func TestBuildPlan_Bounds(t *testing.T) {
	configs := []Config{
		scenarioA(),
		{InitialBankroll: 1000, PlannedBetCount: 10, TargetProfitFactor: 0.3, WinProbability: 0.5, OddsSequence: []float64{1.9}},
		{InitialBankroll: 50, PlannedBetCount: 8, TargetProfitFactor: 2, WinProbability: 0.4, OddsSequence: []float64{1.2, 3.5, 1.01}},
		{InitialBankroll: 5, PlannedBetCount: 30, TargetProfitFactor: 0.1, WinProbability: 0.9, OddsSequence: []float64{1.05}},
		{InitialBankroll: 200, PlannedBetCount: 6, TargetProfitFactor: 1, WinProbability: 0.5, OddsSequence: []float64{12, 1.5}},
	}
	for _, cfg := range configs {
		p, err := BuildPlan(cfg)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(p.Steps), cfg.PlannedBetCount)
		assert.Equal(t, p.Exhausted, len(p.Steps) < cfg.PlannedBetCount)

		committed := 0.0
		for i, s := range p.Steps {
			assert.Equal(t, i, s.Index)
			assert.GreaterOrEqual(t, s.Stake, 0.0)
			assert.LessOrEqual(t, s.Stake, cfg.InitialBankroll-committed+1e-9)
			assert.InDelta(t, cfg.InitialBankroll-committed, s.BalanceBefore, 1e-9)
			committed += s.Stake
		}
	}
}

func TestBuildPlan_ReusesLastOdd(t *testing.T) {
	p, err := BuildPlan(Config{
		InitialBankroll:    1000,
		PlannedBetCount:    4,
		TargetProfitFactor: 0.2,
		WinProbability:     0.5,
		OddsSequence:       []float64{2.0, 3.0},
	})
	require.NoError(t, err)
	require.Len(t, p.Steps, 4)
	got := []float64{p.Steps[0].Odd, p.Steps[1].Odd, p.Steps[2].Odd, p.Steps[3].Odd}
	assert.Equal(t, []float64{2.0, 3.0, 3.0, 3.0}, got)
}

func TestBuildPlan_CopiesOdds(t *testing.T) {
	cfg := scenarioA()
	p, err := BuildPlan(cfg)
	require.NoError(t, err)
	cfg.OddsSequence[0] = 9
	assert.Equal(t, 2.0, p.Config.OddsSequence[0])
}

func TestBuildPlan_Exhausted(t *testing.T) {
	// factor = 100 / 0.5^5 = 3200, first raw stake 320 swallows the bankroll
	p, err := BuildPlan(Config{
		InitialBankroll:    100,
		PlannedBetCount:    5,
		TargetProfitFactor: 1,
		WinProbability:     0.5,
		OddsSequence:       []float64{1.5},
	})
	require.NoError(t, err)
	assert.True(t, p.Exhausted)
	require.Len(t, p.Steps, 1)
	assert.InDelta(t, 100.0, p.Steps[0].Stake, 1e-9)
}

func TestResolveStep_BalanceReproduction(t *testing.T) {
	cfg := Config{
		InitialBankroll:    1000,
		PlannedBetCount:    4,
		TargetProfitFactor: 0.5,
		WinProbability:     0.5,
		OddsSequence:       []float64{3.0},
	}
	p, err := BuildPlan(cfg)
	require.NoError(t, err)
	require.Len(t, p.Steps, 4)

	outcomes := []Outcome{OutcomeWon, OutcomeLost, OutcomeWon, OutcomeLost}
	expected := cfg.InitialBankroll
	for i, o := range outcomes {
		before := p.Balance
		s, err := p.ResolveStep(o)
		require.NoError(t, err)
		assert.Equal(t, i, s.Index)
		assert.InEpsilon(t, before, s.BalanceBefore, 1e-12)
		if o == OutcomeWon {
			expected += s.Stake * (s.Odd - 1)
		} else {
			expected -= s.Stake
		}
		for _, later := range p.Steps[i+1:] {
			assert.InEpsilon(t, p.Balance, later.BalanceBefore, 1e-12)
		}
	}

	assert.InEpsilon(t, expected, p.Balance, 1e-9)
	assert.InEpsilon(t, 1010.4166666666667, p.Balance, 1e-9)
	assert.Equal(t, TerminationCompleted, p.Termination)
	assert.Equal(t, 4, p.Cursor)
	assert.Equal(t, 0, p.Pending())

	_, err = p.ResolveStep(OutcomeWon)
	assert.ErrorIs(t, err, ErrNoPendingStep)
}

func TestResolveStep_StakesNotRecomputed(t *testing.T) {
	p, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	stakes := []float64{p.Steps[0].Stake, p.Steps[1].Stake, p.Steps[2].Stake}

	_, err = p.ResolveStep(OutcomeLost)
	require.NoError(t, err)
	for i, s := range p.Steps {
		assert.Equal(t, stakes[i], s.Stake)
	}
}

func TestResolveStep_ScenarioD(t *testing.T) {
	p, err := BuildPlan(Config{
		InitialBankroll:    100,
		PlannedBetCount:    5,
		TargetProfitFactor: 1,
		WinProbability:     0.5,
		OddsSequence:       []float64{1.5},
	})
	require.NoError(t, err)

	s, err := p.ResolveStep(OutcomeLost)
	require.NoError(t, err)
	assert.Equal(t, StatusLost, s.Status)
	assert.LessOrEqual(t, p.Balance, 0.0)
	assert.Equal(t, TerminationDepleted, p.Termination)

	_, err = p.ResolveStep(OutcomeWon)
	assert.True(t, errors.Is(err, ErrNoPendingStep))
}

func TestResolveStep_DepletionMarksRemainingSteps(t *testing.T) {
	p := &Plan{
		Config: Config{
			InitialBankroll:    100,
			PlannedBetCount:    3,
			TargetProfitFactor: 1,
			WinProbability:     0.5,
			OddsSequence:       []float64{2},
			TargetMode:         TargetFraction,
		},
		Steps: []Step{
			{Index: 0, Odd: 2, Stake: 60, BalanceBefore: 50, Status: StatusPending},
			{Index: 1, Odd: 2, Stake: 10, BalanceBefore: 50, Status: StatusPending},
			{Index: 2, Odd: 2, Stake: 10, BalanceBefore: 50, Status: StatusPending},
		},
		Balance: 50,
	}

	_, err := p.ResolveStep(OutcomeLost)
	require.NoError(t, err)
	assert.Equal(t, TerminationDepleted, p.Termination)
	assert.Equal(t, StatusDepleted, p.Steps[1].Status)
	assert.Equal(t, StatusDepleted, p.Steps[2].Status)
	assert.False(t, p.UpdatePendingOdd(1, 2.5))

	_, err = p.ResolveStep(OutcomeWon)
	assert.ErrorIs(t, err, ErrNoPendingStep)
}

func TestResolveStep_TargetModes(t *testing.T) {
	cfg := scenarioA()
	cfg.TargetMode = TargetPercent
	p, err := BuildPlan(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 100.5, p.Config.Target(), 1e-9)

	_, err = p.ResolveStep(OutcomeWon)
	require.NoError(t, err)
	assert.Equal(t, TerminationTargetReached, p.Termination)
	_, err = p.ResolveStep(OutcomeWon)
	assert.ErrorIs(t, err, ErrNoPendingStep)

	frac, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	assert.InDelta(t, 150.0, frac.Config.Target(), 1e-9)
	_, err = frac.ResolveStep(OutcomeWon)
	require.NoError(t, err)
	assert.Equal(t, TerminationNone, frac.Termination)
}

func TestResolveStep_UnknownOutcome(t *testing.T) {
	p, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	_, err = p.ResolveStep("push")
	assert.Error(t, err)
	assert.Equal(t, 0, p.Cursor)
}

func TestUpdatePendingOdd(t *testing.T) {
	p, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	stake := p.Steps[1].Stake

	assert.True(t, p.UpdatePendingOdd(1, 2.2))
	assert.Equal(t, 2.2, p.Steps[1].Odd)
	assert.Equal(t, stake, p.Steps[1].Stake)

	assert.False(t, p.UpdatePendingOdd(1, 1.0))
	assert.False(t, p.UpdatePendingOdd(1, math.NaN()))
	assert.False(t, p.UpdatePendingOdd(-1, 2))
	assert.False(t, p.UpdatePendingOdd(7, 2))

	_, err = p.ResolveStep(OutcomeLost)
	require.NoError(t, err)
	assert.False(t, p.UpdatePendingOdd(0, 3.0), "settled legs cannot be re-quoted")

	before := p.Balance
	s, err := p.ResolveStep(OutcomeWon)
	require.NoError(t, err)
	assert.InDelta(t, before+stake*1.2, p.Balance, 1e-9)
	assert.Equal(t, 2.2, s.Odd)
}

func TestPlan_ResumesFromJSON(t *testing.T) {
	p, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	_, err = p.ResolveStep(OutcomeLost)
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var restored Plan
	require.NoError(t, json.Unmarshal(data, &restored))

	_, err = p.ResolveStep(OutcomeWon)
	require.NoError(t, err)
	_, err = restored.ResolveStep(OutcomeWon)
	require.NoError(t, err)
	assert.Equal(t, p.Balance, restored.Balance)
	assert.Equal(t, p.Cursor, restored.Cursor)
	assert.Equal(t, p.Steps, restored.Steps)
}

func TestPlan_CloneIsIndependent(t *testing.T) {
	p, err := BuildPlan(scenarioA())
	require.NoError(t, err)
	c := p.Clone()
	_, err = c.ResolveStep(OutcomeWon)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Steps[0].Status)
	assert.Equal(t, 0, p.Cursor)
}

func TestParseOutcome(t *testing.T) {
	for in, want := range map[string]Outcome{"W": OutcomeWon, " won ": OutcomeWon, "loss": OutcomeLost, "l": OutcomeLost} {
		got, err := ParseOutcome(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutcome("void")
	assert.Error(t, err)
}

func TestBuildPlan_HugeBetCount(t *testing.T) {
	cfg := Config{
		InitialBankroll:    100,
		PlannedBetCount:    MaxPlannedBetCount,
		TargetProfitFactor: 0.5,
		WinProbability:     0.5,
		OddsSequence:       []float64{1.5},
	}
	p, err := BuildPlan(cfg)
	require.NoError(t, err)
	assert.True(t, p.Exhausted)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, 100.0, p.Steps[0].Stake)
	assert.LessOrEqual(t, cap(p.Steps), stepPrealloc)

	cfg.PlannedBetCount = MaxPlannedBetCount + 1
	_, err = BuildPlan(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
