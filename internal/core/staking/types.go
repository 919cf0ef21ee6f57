package staking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned by BuildPlan for a config outside its domain.
	ErrInvalidConfiguration = errors.New("invalid staking configuration")
	// ErrNoPendingStep is returned when a plan has nothing left to resolve.
	ErrNoPendingStep = errors.New("no pending step")
)

// Status is the lifecycle state of a single BetStep.
type Status string

const (
	StatusPending  Status = "pending"
	StatusWon      Status = "won"
	StatusLost     Status = "lost"
	StatusDepleted Status = "depleted" // terminal, never left once entered
)

// Outcome is the settlement result fed to ResolveStep.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// ParseOutcome accepts "won"/"win"/"w" and "lost"/"loss"/"l" in any case.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "won", "win", "w":
		return OutcomeWon, nil
	case "lost", "loss", "lose", "l":
		return OutcomeLost, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// TargetMode selects how TargetProfitFactor is read by the stop condition.
// Stake sizing always treats the factor as a plain multiplier.
type TargetMode string

const (
	// TargetFraction stops once balance >= bankroll * (1 + factor).
	TargetFraction TargetMode = "fraction"
	// TargetPercent stops once balance >= bankroll * (1 + factor/100).
	// Kept for compatibility with plans sized by the legacy tracker UI.
	TargetPercent TargetMode = "percent"
)

func (m TargetMode) valid() bool {
	return m == "" || m == TargetFraction || m == TargetPercent
}

// Termination records why a plan stopped accepting resolutions.
type Termination string

const (
	TerminationNone          Termination = ""
	TerminationCompleted     Termination = "completed"
	TerminationDepleted      Termination = "depleted"
	TerminationTargetReached Termination = "target_reached"
)

// Config is the immutable input of a staking plan.
type Config struct {
	InitialBankroll    float64    `json:"initial_bankroll"`
	PlannedBetCount    int        `json:"planned_bet_count"`
	TargetProfitFactor float64    `json:"target_profit_factor"`
	WinProbability     float64    `json:"win_probability"` // informational, not used for sizing
	OddsSequence       []float64  `json:"odds_sequence"`
	TargetMode         TargetMode `json:"target_mode,omitempty"`
}

// oddAt returns the planned odd for step i, reusing the last quoted odd
// once the sequence runs out.
func (c Config) oddAt(i int) float64 {
	if i < len(c.OddsSequence) {
		return c.OddsSequence[i]
	}
	return c.OddsSequence[len(c.OddsSequence)-1]
}

// Target returns the balance at which the plan counts as successful.
func (c Config) Target() float64 {
	if c.TargetMode == TargetPercent {
		return c.InitialBankroll * (1 + c.TargetProfitFactor/100)
	}
	return c.InitialBankroll * (1 + c.TargetProfitFactor)
}

// Step is one planned bet.
type Step struct {
	Index         int     `json:"index"`
	Odd           float64 `json:"odd"`
	Stake         float64 `json:"stake"`
	BalanceBefore float64 `json:"balance_before"`
	Status        Status  `json:"status"`
}

// Plan is a built staking schedule plus its resolution cursor. A Plan is not
// safe for concurrent mutation; callers serialize ResolveStep and
// UpdatePendingOdd on the same instance.
type Plan struct {
	Config      Config      `json:"config"`
	Steps       []Step      `json:"steps"`
	Cursor      int         `json:"cursor"`
	Balance     float64     `json:"balance"`
	Exhausted   bool        `json:"exhausted"` // construction stopped before PlannedBetCount steps
	Termination Termination `json:"termination,omitempty"`
}
