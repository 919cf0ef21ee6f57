package telemetry

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Counter struct {
	val atomic.Int64
}

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

type Gauge struct {
	val atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.val.Store(v) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

// LatencyTracker keeps the most recent maxKeep samples.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	maxKeep int
}

func NewLatencyTracker(maxKeep int) *LatencyTracker {
	return &LatencyTracker{maxKeep: maxKeep}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > lt.maxKeep {
		lt.samples = lt.samples[len(lt.samples)-lt.maxKeep:]
	}
}

func (lt *LatencyTracker) P50() time.Duration { return lt.percentile(0.50) }
func (lt *LatencyTracker) P99() time.Duration { return lt.percentile(0.99) }

func (lt *LatencyTracker) percentile(p float64) time.Duration {
	lt.mu.Lock()
	sorted := make([]time.Duration, len(lt.samples))
	copy(sorted, lt.samples)
	lt.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// Metrics is the global metrics registry.
var Metrics = struct {
	PlansBuilt       Counter
	PlansExhausted   Counter
	PlansTerminated  Counter
	StepsResolved    Counter
	OddsUpdated      Counter
	MatchesComputed  Counter
	RequestsRejected Counter
	ActiveSessions   Gauge
	FanoutClients    Gauge
	RequestLatency   *LatencyTracker
}{
	RequestLatency: NewLatencyTracker(1000),
}

// Snapshot is the JSON shape served on /metrics.
type Snapshot struct {
	PlansBuilt       int64  `json:"plans_built"`
	PlansExhausted   int64  `json:"plans_exhausted"`
	PlansTerminated  int64  `json:"plans_terminated"`
	StepsResolved    int64  `json:"steps_resolved"`
	OddsUpdated      int64  `json:"odds_updated"`
	MatchesComputed  int64  `json:"matches_computed"`
	RequestsRejected int64  `json:"requests_rejected"`
	ActiveSessions   int64  `json:"active_sessions"`
	FanoutClients    int64  `json:"fanout_clients"`
	LatencyP50       string `json:"latency_p50"`
	LatencyP99       string `json:"latency_p99"`
}

func TakeSnapshot() Snapshot {
	return Snapshot{
		PlansBuilt:       Metrics.PlansBuilt.Value(),
		PlansExhausted:   Metrics.PlansExhausted.Value(),
		PlansTerminated:  Metrics.PlansTerminated.Value(),
		StepsResolved:    Metrics.StepsResolved.Value(),
		OddsUpdated:      Metrics.OddsUpdated.Value(),
		MatchesComputed:  Metrics.MatchesComputed.Value(),
		RequestsRejected: Metrics.RequestsRejected.Value(),
		ActiveSessions:   Metrics.ActiveSessions.Value(),
		FanoutClients:    Metrics.FanoutClients.Value(),
		LatencyP50:       Metrics.RequestLatency.P50().String(),
		LatencyP99:       Metrics.RequestLatency.P99().String(),
	}
}
