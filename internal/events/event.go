package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus.
// Every domain event (plan built, step resolved, match computed) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	SessionID string // empty for stateless calculations
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Staking session events
	EventPlanBuilt      EventType = "plan_built"
	EventStepResolved   EventType = "step_resolved"
	EventOddUpdated     EventType = "odd_updated"
	EventPlanTerminated EventType = "plan_terminated"
	EventPlanDeleted    EventType = "plan_deleted"
	// Match model events
	EventMatchComputed EventType = "match_computed"
)

var AllTypes = []EventType{
	EventPlanBuilt,
	EventStepResolved,
	EventOddUpdated,
	EventPlanTerminated,
	EventPlanDeleted,
	EventMatchComputed,
}

// New stamps a fresh ID and timestamp on an event.
func New(t EventType, sessionID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
