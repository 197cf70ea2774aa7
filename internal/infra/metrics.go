package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	cyclesCompleted   atomic.Uint64
	cyclesFailed      atomic.Uint64
	snapshotsAppended atomic.Uint64
	bandTransitions   atomic.Uint64
	triggersDropped   atomic.Uint64

	// Cycle latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeClients atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordCycle records a completed refresh cycle with its duration.
func (m *Metrics) RecordCycle(latencyNs int64) {
	m.cyclesCompleted.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordCycleFailed records a cycle that aborted with an error status.
func (m *Metrics) RecordCycleFailed() {
	m.cyclesFailed.Add(1)
}

// RecordSnapshot records one snapshot appended to the history.
func (m *Metrics) RecordSnapshot() {
	m.snapshotsAppended.Add(1)
}

// RecordTransition records a doctrine band transition.
func (m *Metrics) RecordTransition() {
	m.bandTransitions.Add(1)
}

// RecordTriggerDropped records a refresh trigger dropped because a cycle
// was already in flight.
func (m *Metrics) RecordTriggerDropped() {
	m.triggersDropped.Add(1)
}

// IncrementClients increments connected websocket clients by 1.
func (m *Metrics) IncrementClients() {
	m.activeClients.Add(1)
}

// DecrementClients decrements connected websocket clients by 1.
func (m *Metrics) DecrementClients() {
	m.activeClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CyclesCompleted   uint64    `json:"cycles_completed"`
	CyclesFailed      uint64    `json:"cycles_failed"`
	SnapshotsAppended uint64    `json:"snapshots_appended"`
	BandTransitions   uint64    `json:"band_transitions"`
	TriggersDropped   uint64    `json:"triggers_dropped"`
	AvgCycleNs        int64     `json:"avg_cycle_ns"`
	ActiveClients     int32     `json:"active_clients"`
	Timestamp         time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		CyclesCompleted:   m.cyclesCompleted.Load(),
		CyclesFailed:      m.cyclesFailed.Load(),
		SnapshotsAppended: m.snapshotsAppended.Load(),
		BandTransitions:   m.bandTransitions.Load(),
		TriggersDropped:   m.triggersDropped.Load(),
		AvgCycleNs:        avgLatency,
		ActiveClients:     m.activeClients.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.cyclesCompleted.Store(0)
	m.cyclesFailed.Store(0)
	m.snapshotsAppended.Store(0)
	m.bandTransitions.Store(0)
	m.triggersDropped.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.activeClients.Store(0)
}
