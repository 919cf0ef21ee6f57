package events

import (
	"github.com/charleschow/bankroll-calc/internal/core/matchprob"
	"github.com/charleschow/bankroll-calc/internal/core/staking"
)

// PlanEvent carries a full plan snapshot. Published on build, on
// termination and on deletion (Plan is nil for deletions).
type PlanEvent struct {
	Plan *staking.Plan `json:"plan,omitempty"`
}

// StepResolvedEvent is published after every successful resolution.
type StepResolvedEvent struct {
	Step        staking.Step        `json:"step"`
	Balance     float64             `json:"balance"`
	Cursor      int                 `json:"cursor"`
	Termination staking.Termination `json:"termination,omitempty"`
}

// OddUpdatedEvent is published when a pending leg is re-quoted.
type OddUpdatedEvent struct {
	Index int     `json:"index"`
	Odd   float64 `json:"odd"`
}

// MatchComputedEvent is published for every match model evaluation served
// by the API.
type MatchComputedEvent struct {
	Input   matchprob.MatchInput   `json:"input"`
	Outcome matchprob.MatchOutcome `json:"outcome"`
}
