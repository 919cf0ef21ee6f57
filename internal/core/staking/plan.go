package staking

import (
	"fmt"
	"math"
)

const (
	// MaxPlannedBetCount bounds the schedule length so a plan always fits in memory.
	MaxPlannedBetCount = 1 << 20

	stepPrealloc = 1024
)

// Validate checks every field of the config against its domain.
func (c Config) Validate() error {
	switch {
	case !finite(c.InitialBankroll) || c.InitialBankroll <= 0:
		return fmt.Errorf("%w: initial bankroll must be positive, got %v", ErrInvalidConfiguration, c.InitialBankroll)
	case c.PlannedBetCount < 1:
		return fmt.Errorf("%w: planned bet count must be at least 1, got %d", ErrInvalidConfiguration, c.PlannedBetCount)
	case c.PlannedBetCount > MaxPlannedBetCount:
		return fmt.Errorf("%w: planned bet count %d exceeds %d", ErrInvalidConfiguration, c.PlannedBetCount, MaxPlannedBetCount)
	case !finite(c.TargetProfitFactor) || c.TargetProfitFactor <= 0:
		return fmt.Errorf("%w: target profit factor must be positive, got %v", ErrInvalidConfiguration, c.TargetProfitFactor)
	case !finite(c.WinProbability) || c.WinProbability <= 0 || c.WinProbability > 1:
		return fmt.Errorf("%w: win probability must be in (0,1], got %v", ErrInvalidConfiguration, c.WinProbability)
	case len(c.OddsSequence) == 0:
		return fmt.Errorf("%w: odds sequence is empty", ErrInvalidConfiguration)
	case !c.TargetMode.valid():
		return fmt.Errorf("%w: unknown target mode %q", ErrInvalidConfiguration, c.TargetMode)
	}
	for i, o := range c.OddsSequence {
		if !finite(o) || o <= 1 {
			return fmt.Errorf("%w: odd #%d must be greater than 1, got %v", ErrInvalidConfiguration, i, o)
		}
	}
	return nil
}

// BuildPlan sizes every stake of the schedule up front.
//
// The scaling factor is anchored on the first quoted odd raised to the
// planned bet count; each step then takes factor*(odd-1) spread over the
// slots still left, capped by whatever bankroll construction has not yet
// committed. If the bankroll is used up before N steps are laid out the plan
// is returned with Exhausted set and fewer steps.
func BuildPlan(cfg Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.OddsSequence = append([]float64(nil), cfg.OddsSequence...)
	if cfg.TargetMode == "" {
		cfg.TargetMode = TargetFraction
	}

	n := cfg.PlannedBetCount
	factor := (cfg.InitialBankroll * cfg.TargetProfitFactor) / math.Pow(cfg.OddsSequence[0]-1, float64(n))

	p := &Plan{
		Config:  cfg,
		Steps:   make([]Step, 0, min(n, stepPrealloc)),
		Balance: cfg.InitialBankroll,
	}

	remaining := cfg.InitialBankroll
	for i := 0; i < n; i++ {
		if remaining <= 0 {
			p.Exhausted = true
			break
		}
		odd := cfg.oddAt(i)
		raw := factor * (odd - 1) / float64(n-i)
		if math.IsNaN(raw) || raw < 0 {
			raw = 0
		}
		stake := math.Min(raw, remaining)

		p.Steps = append(p.Steps, Step{
			Index:         i,
			Odd:           odd,
			Stake:         stake,
			BalanceBefore: remaining,
			Status:        StatusPending,
		})
		remaining -= stake
	}

	return p, nil
}

// Done reports whether the plan accepts no further resolutions.
func (p *Plan) Done() bool {
	return p.Termination != TerminationNone || p.Cursor >= len(p.Steps)
}

// Current returns the step at the cursor, if it is still pending.
func (p *Plan) Current() (Step, bool) {
	if p.Done() || p.Steps[p.Cursor].Status != StatusPending {
		return Step{}, false
	}
	return p.Steps[p.Cursor], true
}

// Pending counts steps that have not been settled yet.
func (p *Plan) Pending() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StatusPending {
			n++
		}
	}
	return n
}

// ResolveStep settles the step at the cursor and returns it.
//
// The new balance is carried forward onto every later pending step; their
// stakes stay as built. After the update the plan terminates on depletion
// (balance <= 0, remaining steps become Depleted), on reaching the target,
// or when the cursor runs off the end.
func (p *Plan) ResolveStep(outcome Outcome) (Step, error) {
	if outcome != OutcomeWon && outcome != OutcomeLost {
		return Step{}, fmt.Errorf("unknown outcome %q", outcome)
	}
	if _, ok := p.Current(); !ok {
		return Step{}, fmt.Errorf("%w: cursor=%d steps=%d termination=%q", ErrNoPendingStep, p.Cursor, len(p.Steps), p.Termination)
	}

	s := &p.Steps[p.Cursor]
	var balance float64
	if outcome == OutcomeWon {
		balance = s.BalanceBefore + s.Stake*(s.Odd-1)
		s.Status = StatusWon
	} else {
		balance = s.BalanceBefore - s.Stake
		s.Status = StatusLost
	}
	resolved := *s

	for i := p.Cursor + 1; i < len(p.Steps); i++ {
		if p.Steps[i].Status == StatusPending {
			p.Steps[i].BalanceBefore = balance
		}
	}
	p.Cursor++
	p.Balance = balance

	switch {
	case balance <= 0:
		p.Termination = TerminationDepleted
		for i := p.Cursor; i < len(p.Steps); i++ {
			if p.Steps[i].Status == StatusPending {
				p.Steps[i].Status = StatusDepleted
			}
		}
	case balance >= p.Config.Target():
		p.Termination = TerminationTargetReached
	case p.Cursor >= len(p.Steps):
		p.Termination = TerminationCompleted
	}

	return resolved, nil
}

// UpdatePendingOdd re-quotes a step that has not settled yet. Anything else
// (settled step, out-of-range index, finished plan, odd <= 1) is a no-op and
// reports false.
func (p *Plan) UpdatePendingOdd(index int, odd float64) bool {
	if p.Done() || index < 0 || index >= len(p.Steps) {
		return false
	}
	if p.Steps[index].Status != StatusPending || !finite(odd) || odd <= 1 {
		return false
	}
	p.Steps[index].Odd = odd
	return true
}

// Clone returns a deep copy that shares no slices with p.
func (p *Plan) Clone() *Plan {
	c := *p
	c.Config.OddsSequence = append([]float64(nil), p.Config.OddsSequence...)
	c.Steps = make([]Step, len(p.Steps))
	copy(c.Steps, p.Steps)
	return &c
}

// Profit is the carried balance relative to the starting bankroll.
func (p *Plan) Profit() float64 {
	return p.Balance - p.Config.InitialBankroll
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
