package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/charleschow/bankroll-calc/internal/core/staking"
	"github.com/charleschow/bankroll-calc/internal/events"
	"github.com/charleschow/bankroll-calc/internal/telemetry"
)

// Persister is the durable side of the manager. *Store implements it.
type Persister interface {
	Save(Session) error
	Load(id string) (Session, error)
	Delete(id string) error
}

type entry struct {
	mu      sync.Mutex
	sess    Session
	deleted bool // set under mu once Delete has removed the session
}

// Manager owns the live staking sessions. Every mutation of a session runs
// under that session's lock, is applied to a copy of the plan, persisted,
// and only then becomes visible. Sessions not in memory are loaded from the
// persister once, however many callers ask for them concurrently.
type Manager struct {
	store Persister
	bus   *events.Bus

	mu       sync.Mutex
	sessions map[string]*entry
	loads    singleflight.Group
}

// NewManager creates a manager. A nil store keeps sessions in memory only.
func NewManager(store Persister, bus *events.Bus) *Manager {
	return &Manager{
		store:    store,
		bus:      bus,
		sessions: make(map[string]*entry),
	}
}

// Create builds a plan from cfg and registers it under a fresh ID.
func (m *Manager) Create(cfg staking.Config) (Session, error) {
	plan, err := staking.BuildPlan(cfg)
	if err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Plan:      plan,
	}
	if err := m.persist(sess); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = &entry{sess: sess}
	telemetry.Metrics.ActiveSessions.Set(int64(len(m.sessions)))
	m.mu.Unlock()

	telemetry.Metrics.PlansBuilt.Inc()
	if plan.Exhausted {
		telemetry.Metrics.PlansExhausted.Inc()
	}
	telemetry.Infof("session %s: built %d-step plan  bankroll=%.2f  target=%.2f  exhausted=%v",
		sess.ID, len(plan.Steps), plan.Config.InitialBankroll, plan.Config.Target(), plan.Exhausted)

	m.publish(events.EventPlanBuilt, sess.ID, events.PlanEvent{Plan: plan.Clone()})
	return snapshot(sess), nil
}

// Get returns a copy of the session.
func (m *Manager) Get(id string) (Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return snapshot(e.sess), nil
}

// Resolve settles the current step of a session.
func (m *Manager) Resolve(id string, outcome staking.Outcome) (Session, staking.Step, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Session{}, staking.Step{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return Session{}, staking.Step{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := e.sess
	next.Plan = e.sess.Plan.Clone()
	step, err := next.Plan.ResolveStep(outcome)
	if err != nil {
		return Session{}, staking.Step{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	if err := m.persist(next); err != nil {
		return Session{}, staking.Step{}, err
	}
	e.sess = next

	telemetry.Metrics.StepsResolved.Inc()
	m.publish(events.EventStepResolved, id, events.StepResolvedEvent{
		Step:        step,
		Balance:     next.Plan.Balance,
		Cursor:      next.Plan.Cursor,
		Termination: next.Plan.Termination,
	})
	if next.Plan.Termination != staking.TerminationNone {
		telemetry.Metrics.PlansTerminated.Inc()
		telemetry.Infof("session %s: %s  balance=%.2f  profit=%.2f",
			id, next.Plan.Termination, next.Plan.Balance, next.Plan.Profit())
		m.publish(events.EventPlanTerminated, id, events.PlanEvent{Plan: next.Plan.Clone()})
	}
	return snapshot(next), step, nil
}

// UpdateOdd re-quotes a pending step. The bool reports whether the plan
// changed; a rejected update is not an error.
func (m *Manager) UpdateOdd(id string, index int, odd float64) (Session, bool, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Session{}, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return Session{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := e.sess
	next.Plan = e.sess.Plan.Clone()
	if !next.Plan.UpdatePendingOdd(index, odd) {
		return snapshot(e.sess), false, nil
	}
	next.UpdatedAt = time.Now().UTC()
	if err := m.persist(next); err != nil {
		return Session{}, false, err
	}
	e.sess = next

	telemetry.Metrics.OddsUpdated.Inc()
	m.publish(events.EventOddUpdated, id, events.OddUpdatedEvent{Index: index, Odd: odd})
	return snapshot(next), true, nil
}

// Delete drops a session from memory and from the persister. It waits for
// any mutation in progress on the session so that save cannot resurrect it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	e, cached := m.sessions[id]
	m.mu.Unlock()

	if cached {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.deleted {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}

	if m.store != nil {
		if err := m.store.Delete(id); err != nil {
			return err
		}
	} else if !cached {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	m.mu.Lock()
	if cached {
		e.deleted = true
		if m.sessions[id] == e {
			delete(m.sessions, id)
		}
	}
	telemetry.Metrics.ActiveSessions.Set(int64(len(m.sessions)))
	m.mu.Unlock()

	m.publish(events.EventPlanDeleted, id, events.PlanEvent{})
	return nil
}

// Len is the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return e, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	v, err, _ := m.loads.Do(id, func() (any, error) {
		sess, err := m.store.Load(id)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if e, ok := m.sessions[id]; ok {
			return e, nil
		}
		e := &entry{sess: sess}
		m.sessions[id] = e
		telemetry.Metrics.ActiveSessions.Set(int64(len(m.sessions)))
		telemetry.Debugf("session %s: loaded from store  cursor=%d", id, sess.Plan.Cursor)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry), nil
}

func (m *Manager) persist(sess Session) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(sess)
}

func (m *Manager) publish(t events.EventType, id string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.New(t, id, payload))
}

func snapshot(s Session) Session {
	s.Plan = s.Plan.Clone()
	return s
}
