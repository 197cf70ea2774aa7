package domain

import "testing"

func TestMigrate_LegacyPlaceholder(t *testing.T) {
	t.Run("version 0 placeholder is replaced with defaults", func(t *testing.T) {
		s := AppState{
			Holdings:       legacyPlaceholderHoldings,
			Snapshots:      []Snapshot{},
			RefreshMinutes: 15,
		}
		if !s.Migrate() {
			t.Fatal("expected migration to report a change")
		}
		if s.Holdings != (Holdings{}) {
			t.Errorf("expected placeholder holdings replaced, got %+v", s.Holdings)
		}
		if s.Version != StateVersion {
			t.Errorf("expected version stamped to %d, got %d", StateVersion, s.Version)
		}
	})

	t.Run("version 0 custom holdings are trusted", func(t *testing.T) {
		h := Holdings{BTC: 1, SilverOz: 80, GoldOz: 1}
		s := AppState{Holdings: h, Snapshots: []Snapshot{}, RefreshMinutes: 15}
		s.Migrate()
		if s.Holdings != h {
			t.Errorf("custom holdings must survive migration, got %+v", s.Holdings)
		}
	})

	t.Run("current version placeholder triple is a real user edit", func(t *testing.T) {
		s := AppState{
			Version:        StateVersion,
			Holdings:       legacyPlaceholderHoldings,
			Snapshots:      []Snapshot{},
			RefreshMinutes: 15,
		}
		if s.Migrate() {
			t.Fatal("expected no change for already-versioned state")
		}
		if s.Holdings != legacyPlaceholderHoldings {
			t.Error("the heuristic must not run again once the version marker exists")
		}
	})
}

func TestMigrate_Normalization(t *testing.T) {
	t.Run("non-positive refresh interval falls back to default", func(t *testing.T) {
		s := AppState{Version: StateVersion, Snapshots: []Snapshot{}, RefreshMinutes: 0}
		s.Migrate()
		if s.RefreshMinutes != DefaultState().RefreshMinutes {
			t.Errorf("expected default interval, got %d", s.RefreshMinutes)
		}
	})

	t.Run("oversized history is trimmed from the front", func(t *testing.T) {
		snaps := make([]Snapshot, MaxSnapshots+5)
		for i := range snaps {
			snaps[i] = Snapshot{TS: int64(i)}
		}
		s := AppState{Version: StateVersion, Snapshots: snaps, RefreshMinutes: 15}
		s.Migrate()
		if len(s.Snapshots) != MaxSnapshots {
			t.Fatalf("expected %d snapshots, got %d", MaxSnapshots, len(s.Snapshots))
		}
		if s.Snapshots[0].TS != 5 {
			t.Errorf("expected oldest entries dropped, first TS=%d", s.Snapshots[0].TS)
		}
	})
}

func TestClone_Independence(t *testing.T) {
	gold := 1900.0
	s := AppState{
		Version:        StateVersion,
		Snapshots:      []Snapshot{{TS: 1}},
		ManualGoldUsd:  &gold,
		RefreshMinutes: 15,
	}

	c := s.Clone()
	c.Snapshots[0].TS = 99
	*c.ManualGoldUsd = 1.0

	if s.Snapshots[0].TS != 1 {
		t.Error("clone shares the snapshot slice")
	}
	if *s.ManualGoldUsd != 1900.0 {
		t.Error("clone shares the override pointer")
	}
}
