package infra

import (
	"testing"
)

func TestMetrics_RecordCycle(t *testing.T) {
	m := &Metrics{}

	m.RecordCycle(1000)
	m.RecordCycle(2000)
	m.RecordCycle(3000)

	snap := m.Snapshot()

	if snap.CyclesCompleted != 3 {
		t.Errorf("Expected 3 cycles, got %d", snap.CyclesCompleted)
	}

	// Average latency: (1000 + 2000 + 3000) / 3 = 2000
	if snap.AvgCycleNs != 2000 {
		t.Errorf("Expected avg cycle latency 2000, got %d", snap.AvgCycleNs)
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := &Metrics{}

	m.RecordCycleFailed()
	m.RecordSnapshot()
	m.RecordSnapshot()
	m.RecordTransition()
	m.RecordTriggerDropped()

	snap := m.Snapshot()
	if snap.CyclesFailed != 1 {
		t.Errorf("Expected 1 failed cycle, got %d", snap.CyclesFailed)
	}
	if snap.SnapshotsAppended != 2 {
		t.Errorf("Expected 2 snapshots, got %d", snap.SnapshotsAppended)
	}
	if snap.BandTransitions != 1 {
		t.Errorf("Expected 1 transition, got %d", snap.BandTransitions)
	}
	if snap.TriggersDropped != 1 {
		t.Errorf("Expected 1 dropped trigger, got %d", snap.TriggersDropped)
	}
}

func TestMetrics_Clients(t *testing.T) {
	m := &Metrics{}

	m.IncrementClients()
	m.IncrementClients()
	m.IncrementClients()

	snap := m.Snapshot()
	if snap.ActiveClients != 3 {
		t.Errorf("Expected 3 clients, got %d", snap.ActiveClients)
	}

	m.DecrementClients()
	snap = m.Snapshot()
	if snap.ActiveClients != 2 {
		t.Errorf("Expected 2 clients, got %d", snap.ActiveClients)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordCycle(1000)
	m.RecordCycleFailed()
	m.IncrementClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.CyclesCompleted != 0 {
		t.Error("Expected 0 cycles after reset")
	}
	if snap.CyclesFailed != 0 {
		t.Error("Expected 0 failures after reset")
	}
	if snap.ActiveClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
}
