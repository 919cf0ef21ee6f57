package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/charleschow/bankroll-calc/internal/core/matchprob"
	"github.com/charleschow/bankroll-calc/internal/core/staking"
)

type StakingLimits struct {
	MaxPlannedBets        int                `yaml:"max_planned_bets"`
	MaxBankroll           float64            `yaml:"max_bankroll"`
	DefaultTargetMode     staking.TargetMode `yaml:"default_target_mode"`
	DefaultWinProbability float64            `yaml:"default_win_probability"`
}

type MatchLimits struct {
	MaxGoals      int `yaml:"max_goals"`
	InferMaxGoals int `yaml:"infer_max_goals"`
}

// Limits bounds what the API accepts on top of the engine's own domain checks.
type Limits struct {
	Staking StakingLimits `yaml:"staking"`
	Match   MatchLimits   `yaml:"match"`
}

func DefaultLimits() Limits {
	return Limits{
		Staking: StakingLimits{
			MaxPlannedBets:        200,
			MaxBankroll:           1e9,
			DefaultTargetMode:     staking.TargetFraction,
			DefaultWinProbability: 0.5,
		},
		Match: MatchLimits{
			MaxGoals:      matchprob.DefaultMaxGoals,
			InferMaxGoals: 12,
		},
	}
}

// LoadLimits reads the YAML limits file. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return limits, nil
	}
	if err != nil {
		return Limits{}, fmt.Errorf("read limits: %w", err)
	}

	if err := yaml.Unmarshal(data, &limits); err != nil {
		return Limits{}, fmt.Errorf("parse limits: %w", err)
	}
	if err := limits.Validate(); err != nil {
		return Limits{}, fmt.Errorf("limits %s: %w", path, err)
	}
	return limits, nil
}

func (l Limits) Validate() error {
	switch {
	case l.Staking.MaxPlannedBets < 1:
		return fmt.Errorf("staking.max_planned_bets must be >= 1, got %d", l.Staking.MaxPlannedBets)
	case l.Staking.MaxBankroll <= 0:
		return fmt.Errorf("staking.max_bankroll must be positive, got %v", l.Staking.MaxBankroll)
	case l.Staking.DefaultTargetMode != staking.TargetFraction && l.Staking.DefaultTargetMode != staking.TargetPercent:
		return fmt.Errorf("staking.default_target_mode must be %q or %q, got %q",
			staking.TargetFraction, staking.TargetPercent, l.Staking.DefaultTargetMode)
	case l.Staking.DefaultWinProbability <= 0 || l.Staking.DefaultWinProbability > 1:
		return fmt.Errorf("staking.default_win_probability must be in (0,1], got %v", l.Staking.DefaultWinProbability)
	case l.Match.MaxGoals < 0 || l.Match.MaxGoals > matchprob.MaxGoalsLimit:
		return fmt.Errorf("match.max_goals must be in [0,%d], got %d", matchprob.MaxGoalsLimit, l.Match.MaxGoals)
	case l.Match.InferMaxGoals < 0 || l.Match.InferMaxGoals > matchprob.MaxGoalsLimit:
		return fmt.Errorf("match.infer_max_goals must be in [0,%d], got %d", matchprob.MaxGoalsLimit, l.Match.InferMaxGoals)
	}
	return nil
}
