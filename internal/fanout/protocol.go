package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charleschow/bankroll-calc/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		SessionID: evt.SessionID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		SessionID: env.SessionID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventPlanBuilt, events.EventPlanTerminated, events.EventPlanDeleted:
		var pe events.PlanEvent
		if err := json.Unmarshal(env.Payload, &pe); err != nil {
			return evt, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		evt.Payload = pe
	case events.EventStepResolved:
		var sr events.StepResolvedEvent
		if err := json.Unmarshal(env.Payload, &sr); err != nil {
			return evt, fmt.Errorf("unmarshal step_resolved: %w", err)
		}
		evt.Payload = sr
	case events.EventOddUpdated:
		var ou events.OddUpdatedEvent
		if err := json.Unmarshal(env.Payload, &ou); err != nil {
			return evt, fmt.Errorf("unmarshal odd_updated: %w", err)
		}
		evt.Payload = ou
	case events.EventMatchComputed:
		var mc events.MatchComputedEvent
		if err := json.Unmarshal(env.Payload, &mc); err != nil {
			return evt, fmt.Errorf("unmarshal match_computed: %w", err)
		}
		evt.Payload = mc
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}
