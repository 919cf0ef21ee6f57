package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charleschow/bankroll-calc/internal/core/matchprob"
)

// WriteMatch renders a match outcome: the 1X2 split, fair odds, the most
// likely scoreline and both truncated goal curves side by side.
func WriteMatch(w io.Writer, in matchprob.MatchInput, out matchprob.MatchOutcome) error {
	home, draw, away := out.FairOdds()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", dividerHeavy)
	fmt.Fprintf(&b, "  Poisson match model  (xG %.2f vs %.2f, up to %d goals)\n",
		in.LambdaHome, in.LambdaAway, out.Home.MaxGoals())
	fmt.Fprintf(&b, "    %28s%10s%10s%10s\n", "", "HOME", "DRAW", "AWAY")
	fmt.Fprintf(&b, "    %-28s%9.2f%%%9.2f%%%9.2f%%\n", "Probability:", out.HomeWinPct, out.DrawPct, out.AwayWinPct)
	fmt.Fprintf(&b, "    %-28s%10s%10s%10s\n", "Fair odds:", fmtOdd(home), fmtOdd(draw), fmtOdd(away))
	fmt.Fprintf(&b, "    %-28s%s\n", "Most likely score:", out.MostLikelyScore)
	fmt.Fprintf(&b, "    %-28s%.2f%%\n", "Over 2.5:", out.OverProbability(2.5))
	fmt.Fprintf(&b, "%s\n", dividerLight)

	fmt.Fprintf(&b, "    %-6s%12s%12s\n", "Goals", "Home", "Away")
	for k := range out.Home {
		fmt.Fprintf(&b, "    %-6d%11.2f%%%11.2f%%\n", k, out.Home[k]*100, out.Away[k]*100)
	}
	fmt.Fprintf(&b, "    %-6s%11.2f%%%11.2f%%\n", "kept", out.Home.Mass()*100, out.Away.Mass()*100)
	fmt.Fprintf(&b, "%s\n", dividerHeavy)

	_, err := io.WriteString(w, b.String())
	return err
}

func fmtOdd(o float64) string {
	if o <= 0 {
		return "—"
	}
	return fmt.Sprintf("%.2f", o)
}
