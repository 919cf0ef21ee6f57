package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charleschow/bankroll-calc/internal/events"
)

const oddUpdateThrottle = 2 * time.Second

// Observer prints bus events for a watcher terminal. Re-quotes of the same
// session arriving within oddUpdateThrottle of the last printed one are
// dropped.
type Observer struct {
	out io.Writer

	mu      sync.Mutex
	lastOdd map[string]time.Time
	now     func() time.Time
}

func NewObserver(out io.Writer) *Observer {
	return &Observer{
		out:     out,
		lastOdd: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Attach subscribes the observer to every event type on bus.
func (o *Observer) Attach(bus *events.Bus) {
	bus.SubscribeAll(o.OnEvent)
}

func (o *Observer) OnEvent(evt events.Event) error {
	if evt.Type == events.EventOddUpdated && o.throttled(evt.SessionID) {
		return nil
	}

	ts := evt.Timestamp.Local().Format("3:04:05.000 PM")
	var b strings.Builder

	switch p := evt.Payload.(type) {
	case events.PlanEvent:
		if p.Plan == nil {
			fmt.Fprintf(&b, "\n[%s %s]  session %s\n", strings.ToUpper(string(evt.Type)), ts, evt.SessionID)
			break
		}
		fmt.Fprintf(&b, "\n[%s %s]\n", strings.ToUpper(string(evt.Type)), ts)
		if err := WritePlan(&b, evt.SessionID, p.Plan); err != nil {
			return err
		}
	case events.StepResolvedEvent:
		fmt.Fprintf(&b, "\n[STEP %s]  session %s  #%d @ %.2f  stake %s  %s  ->  balance %s",
			ts, evt.SessionID, p.Step.Index+1, p.Step.Odd, money(p.Step.Stake), p.Step.Status, money(p.Balance))
		if p.Termination != "" {
			fmt.Fprintf(&b, "  (%s)", p.Termination)
		}
		b.WriteString("\n")
	case events.OddUpdatedEvent:
		fmt.Fprintf(&b, "\n[ODD %s]  session %s  #%d -> %.2f\n", ts, evt.SessionID, p.Index+1, p.Odd)
	case events.MatchComputedEvent:
		fmt.Fprintf(&b, "\n[MATCH %s]\n", ts)
		if err := WriteMatch(&b, p.Input, p.Outcome); err != nil {
			return err
		}
	default:
		return fmt.Errorf("display: unhandled payload %T for %s", evt.Payload, evt.Type)
	}

	_, err := io.WriteString(o.out, b.String())
	return err
}

func (o *Observer) throttled(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	if last, ok := o.lastOdd[sessionID]; ok && now.Sub(last) < oddUpdateThrottle {
		return true
	}
	o.lastOdd[sessionID] = now
	return false
}
