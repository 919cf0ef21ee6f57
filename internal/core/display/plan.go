package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/charleschow/bankroll-calc/internal/core/staking"
)

const (
	dividerHeavy = "========================================================================"
	dividerLight = "~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~"
)

// money renders a currency amount with two decimals, half away from zero.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func signedMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

// WritePlan renders a staking plan as a step table with a summary header.
func WritePlan(w io.Writer, id string, p *staking.Plan) error {
	cfg := p.Config

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", dividerHeavy)
	if id != "" {
		fmt.Fprintf(&b, "  Masaniello plan %s\n", id)
	} else {
		fmt.Fprintf(&b, "  Masaniello plan\n")
	}
	fmt.Fprintf(&b, "    %-28s%s\n", "Bankroll:", money(cfg.InitialBankroll))
	fmt.Fprintf(&b, "    %-28s%d planned  |  %d built  |  p(win) %.2f\n",
		"Bets:", cfg.PlannedBetCount, len(p.Steps), cfg.WinProbability)
	fmt.Fprintf(&b, "    %-28s%s  (%s, factor %v)\n", "Target:", money(cfg.Target()), cfg.TargetMode, cfg.TargetProfitFactor)
	if p.Exhausted {
		fmt.Fprintf(&b, "    %-28s%s\n", "Warning:", "bankroll exhausted before every bet was sized")
	}
	fmt.Fprintf(&b, "%s\n", dividerLight)

	fmt.Fprintf(&b, "    %4s  %8s  %12s  %14s  %-8s\n", "#", "Odd", "Stake", "Balance before", "Status")
	for _, s := range p.Steps {
		marker := " "
		if s.Index == p.Cursor && s.Status == staking.StatusPending && !p.Done() {
			marker = ">"
		}
		fmt.Fprintf(&b, "  %s %4d  %8.2f  %12s  %14s  %-8s\n",
			marker, s.Index+1, s.Odd, money(s.Stake), money(s.BalanceBefore), s.Status)
	}

	fmt.Fprintf(&b, "%s\n", dividerLight)
	fmt.Fprintf(&b, "    %-28s%s  (%s)\n", "Balance:", money(p.Balance), signedMoney(p.Profit()))
	state := "in progress"
	if p.Termination != staking.TerminationNone {
		state = string(p.Termination)
	}
	fmt.Fprintf(&b, "    %-28s%s  |  %d pending\n", "State:", state, p.Pending())
	fmt.Fprintf(&b, "%s\n", dividerHeavy)

	_, err := io.WriteString(w, b.String())
	return err
}
