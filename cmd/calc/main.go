package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charleschow/bankroll-calc/internal/config"
	"github.com/charleschow/bankroll-calc/internal/core/display"
	"github.com/charleschow/bankroll-calc/internal/core/matchprob"
	"github.com/charleschow/bankroll-calc/internal/core/odds"
	"github.com/charleschow/bankroll-calc/internal/core/staking"
)

const usage = `usage: calc <command> [flags]

commands:
  masaniello   build a staking plan and optionally settle it (-resolve WWL)
  poisson      1X2 split and goal curves from two expected-goal rates
  implied      back out expected-goal rates from 1X2 odds, then run poisson
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	// an unset LIMITS_PATH falls back to the built-in defaults
	limits, err := config.LoadLimits(os.Getenv("LIMITS_PATH"))
	if err != nil {
		fmt.Fprintf(stderr, "limits: %v\n", err)
		return 1
	}

	var cmdErr error
	switch args[0] {
	case "masaniello":
		cmdErr = runMasaniello(args[1:], limits, stdout, stderr)
	case "poisson":
		cmdErr = runPoisson(args[1:], limits, stdout, stderr)
	case "implied":
		cmdErr = runImplied(args[1:], limits, stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if errors.Is(cmdErr, flag.ErrHelp) {
		return 0
	}
	if cmdErr != nil {
		fmt.Fprintf(stderr, "calc %s: %v\n", args[0], cmdErr)
		return 1
	}
	return 0
}

func runMasaniello(args []string, limits config.Limits, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("masaniello", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bankroll := fs.Float64("bankroll", 100, "initial bankroll")
	n := fs.Int("n", 3, "planned number of bets")
	tpf := fs.Float64("target", 0.5, "target profit factor")
	p := fs.Float64("p", limits.Staking.DefaultWinProbability, "per-bet win probability")
	oddsText := fs.String("odds", "2.0", "decimal odds, space or ; separated (\"2.0 1,85; 2.5\")")
	mode := fs.String("mode", string(limits.Staking.DefaultTargetMode), "target mode: fraction or percent")
	resolve := fs.String("resolve", "", "outcomes to apply in order, W or L per step (e.g. WWL)")
	asJSON := fs.Bool("json", false, "print the plan as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *n > limits.Staking.MaxPlannedBets {
		return fmt.Errorf("-n %d exceeds the limit of %d planned bets", *n, limits.Staking.MaxPlannedBets)
	}

	plan, err := staking.BuildPlan(staking.Config{
		InitialBankroll:    *bankroll,
		PlannedBetCount:    *n,
		TargetProfitFactor: *tpf,
		WinProbability:     *p,
		OddsSequence:       odds.ParseList(*oddsText),
		TargetMode:         staking.TargetMode(*mode),
	})
	if err != nil {
		return err
	}

	for i, r := range strings.ToUpper(*resolve) {
		var outcome staking.Outcome
		switch r {
		case 'W':
			outcome = staking.OutcomeWon
		case 'L':
			outcome = staking.OutcomeLost
		default:
			return fmt.Errorf("-resolve: position %d: want W or L, got %q", i, r)
		}
		if _, err := plan.ResolveStep(outcome); err != nil {
			return fmt.Errorf("-resolve: position %d: %w", i, err)
		}
	}

	if *asJSON {
		return writeJSON(stdout, plan)
	}
	return display.WritePlan(stdout, "", plan)
}

func runPoisson(args []string, limits config.Limits, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("poisson", flag.ContinueOnError)
	fs.SetOutput(stderr)
	home := fs.Float64("home", 1.5, "home expected goals")
	away := fs.Float64("away", 1.2, "away expected goals")
	maxGoals := fs.Int("max", limits.Match.MaxGoals, "per-team goal truncation")
	asJSON := fs.Bool("json", false, "print the outcome as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := matchprob.MatchInput{LambdaHome: *home, LambdaAway: *away}
	return printOutcome(stdout, in, *maxGoals, *asJSON)
}

func runImplied(args []string, limits config.Limits, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("implied", flag.ContinueOnError)
	fs.SetOutput(stderr)
	home := fs.Float64("home", 0, "home win decimal odds")
	draw := fs.Float64("draw", 0, "draw decimal odds")
	away := fs.Float64("away", 0, "away win decimal odds")
	total := fs.Float64("total", 0, "expected total goals (overrides -under/-over)")
	under := fs.Float64("under", 0, "under 2.5 decimal odds")
	over := fs.Float64("over", 0, "over 2.5 decimal odds")
	maxGoals := fs.Int("max", limits.Match.MaxGoals, "per-team goal truncation")
	asJSON := fs.Bool("json", false, "print the outcome as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pH, pD, pA, err := odds.RemoveVig3(*home, *draw, *away)
	if err != nil {
		return err
	}

	g0 := 2.5
	switch {
	case *total > 0:
		g0 = *total
	case *under > 0 || *over > 0:
		pUnder, _, err := odds.RemoveVig2(*under, *over)
		if err != nil {
			return err
		}
		g0 = odds.InferTotalFromUnder25(pUnder)
	}

	in, err := matchprob.InferLambdas(matchprob.ThreeWay{Home: pH, Draw: pD, Away: pA}, g0, limits.Match.InferMaxGoals)
	if err != nil {
		return err
	}
	if !*asJSON {
		fmt.Fprintf(stdout, "margin %.2f%%  |  fair 1X2 %.2f%% / %.2f%% / %.2f%%  |  G0=%.2f\n",
			odds.Overround(*home, *draw, *away)*100, pH*100, pD*100, pA*100, g0)
	}
	return printOutcome(stdout, in, *maxGoals, *asJSON)
}

func printOutcome(w io.Writer, in matchprob.MatchInput, maxGoals int, asJSON bool) error {
	out, err := matchprob.ComputeMatchOutcome(in, maxGoals)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, struct {
			Input   matchprob.MatchInput   `json:"input"`
			Outcome matchprob.MatchOutcome `json:"outcome"`
		}{in, out})
	}
	return display.WriteMatch(w, in, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
