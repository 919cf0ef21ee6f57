package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charleschow/bankroll-calc/internal/core/display"
	"github.com/charleschow/bankroll-calc/internal/core/session"
)

func main() {
	n := flag.Int("n", 10, "number of recent sessions to display")
	dbPath := flag.String("db", "data/sessions.db", "path to the session store")
	id := flag.String("id", "", "print the full plan table of one session")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}

	store, err := session.OpenStore(*dbPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *id != "" {
		sess, err := store.Load(*id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		display.WritePlan(os.Stdout, sess.ID, sess.Plan)
		return
	}

	sessions, err := store.Recent(*n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Println("(no sessions)")
		return
	}

	fmt.Printf("=== Staking sessions (%s) ===\n", *dbPath)
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tupdated\tbankroll\tbalance\tstep\tstate")
	fmt.Fprintln(w, "----\t----\t----\t----\t----\t----")
	for _, s := range sessions {
		p := s.Plan
		state := string(p.Termination)
		if state == "" {
			state = "open"
		}
		if p.Exhausted {
			state += " (exhausted)"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%d/%d\t%s\n",
			s.ID, s.UpdatedAt.Local().Format(time.DateTime),
			p.Config.InitialBankroll, p.Balance, p.Cursor, len(p.Steps), state)
	}
	w.Flush()
}
