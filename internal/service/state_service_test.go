package service

import (
	"path/filepath"
	"testing"

	"gsr_go/internal/domain"
	"gsr_go/internal/infra/storage"
)

func setupStore(t *testing.T) *storage.Storage {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test storage: %v", err)
	}
	return store
}

func setupService(t *testing.T) (*StateService, *storage.Storage) {
	t.Helper()
	store := setupStore(t)
	svc, err := NewStateService(store)
	if err != nil {
		t.Fatalf("failed to create state service: %v", err)
	}
	return svc, store
}

func TestStateService_RoundTrip(t *testing.T) {
	svc, store := setupService(t)

	h := domain.Holdings{BTC: 0.5, SilverOz: 100, GoldOz: 2}
	if err := svc.UpdateHoldings(h); err != nil {
		t.Fatalf("UpdateHoldings failed: %v", err)
	}
	if err := svc.SetOverrides(fp(1900), fp(24)); err != nil {
		t.Fatalf("SetOverrides failed: %v", err)
	}
	if err := svc.SetRefreshMinutes(30); err != nil {
		t.Fatalf("SetRefreshMinutes failed: %v", err)
	}
	if _, err := svc.ApplyCycle(domain.Snapshot{TS: 1, Gsr: 80}, "gt80"); err != nil {
		t.Fatalf("ApplyCycle failed: %v", err)
	}

	// A fresh service over the same store must see identical state.
	reloaded, err := NewStateService(store)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got := reloaded.State()

	if got.Holdings != h {
		t.Errorf("holdings: expected %+v, got %+v", h, got.Holdings)
	}
	if got.ManualGoldUsd == nil || *got.ManualGoldUsd != 1900 {
		t.Errorf("manual gold: expected 1900, got %v", got.ManualGoldUsd)
	}
	if got.ManualSilverUsd == nil || *got.ManualSilverUsd != 24 {
		t.Errorf("manual silver: expected 24, got %v", got.ManualSilverUsd)
	}
	if got.RefreshMinutes != 30 {
		t.Errorf("refresh minutes: expected 30, got %d", got.RefreshMinutes)
	}
	if len(got.Snapshots) != 1 || got.Snapshots[0].TS != 1 {
		t.Errorf("snapshots: expected one with TS=1, got %+v", got.Snapshots)
	}
	if got.LastBandID != "gt80" {
		t.Errorf("last band: expected gt80, got %q", got.LastBandID)
	}
}

func TestStateService_SetRefreshMinutes_RejectsNonPositive(t *testing.T) {
	svc, _ := setupService(t)
	if err := svc.SetRefreshMinutes(0); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := svc.SetRefreshMinutes(-5); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestStateService_ApplyCycle_Transitions(t *testing.T) {
	svc, _ := setupService(t)

	t.Run("first-ever classification is a transition", func(t *testing.T) {
		transition, err := svc.ApplyCycle(domain.Snapshot{TS: 1}, "gt80")
		if err != nil {
			t.Fatalf("ApplyCycle failed: %v", err)
		}
		if !transition {
			t.Error("first classification must report a transition")
		}
	})

	t.Run("same band is not a transition", func(t *testing.T) {
		transition, _ := svc.ApplyCycle(domain.Snapshot{TS: 2}, "gt80")
		if transition {
			t.Error("unchanged band must not report a transition")
		}
	})

	t.Run("band change is a transition", func(t *testing.T) {
		transition, _ := svc.ApplyCycle(domain.Snapshot{TS: 3}, "70-80")
		if !transition {
			t.Error("band change must report a transition")
		}
		if svc.State().LastBandID != "70-80" {
			t.Errorf("last band not updated: %q", svc.State().LastBandID)
		}
	})

	t.Run("unclassifiable cycle keeps the previous band", func(t *testing.T) {
		transition, _ := svc.ApplyCycle(domain.Snapshot{TS: 4}, "")
		if transition {
			t.Error("missing band must not report a transition")
		}
		if svc.State().LastBandID != "70-80" {
			t.Errorf("last band must survive an unclassifiable cycle: %q", svc.State().LastBandID)
		}
	})
}

func TestStateService_BoundedHistory(t *testing.T) {
	store := setupStore(t)

	// Seed a full window directly in the store.
	seeded := domain.DefaultState()
	seeded.Snapshots = make([]domain.Snapshot, domain.MaxSnapshots)
	for i := range seeded.Snapshots {
		seeded.Snapshots[i] = domain.Snapshot{TS: int64(i)}
	}
	if err := store.SaveState(seeded); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	svc, err := NewStateService(store)
	if err != nil {
		t.Fatalf("NewStateService failed: %v", err)
	}

	// The 1001st append drops exactly the oldest.
	if _, err := svc.ApplyCycle(domain.Snapshot{TS: 9999}, "gt80"); err != nil {
		t.Fatalf("ApplyCycle failed: %v", err)
	}

	snaps := svc.State().Snapshots
	if len(snaps) != domain.MaxSnapshots {
		t.Fatalf("expected %d snapshots, got %d", domain.MaxSnapshots, len(snaps))
	}
	if snaps[0].TS != 1 {
		t.Errorf("expected oldest snapshot dropped, first TS=%d", snaps[0].TS)
	}
	if snaps[len(snaps)-1].TS != 9999 {
		t.Errorf("expected newest snapshot last, got TS=%d", snaps[len(snaps)-1].TS)
	}
}

func TestStateService_ClearSnapshots_Idempotent(t *testing.T) {
	svc, _ := setupService(t)

	if err := svc.UpdateHoldings(domain.Holdings{BTC: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ApplyCycle(domain.Snapshot{TS: 1}, "gt80"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.ClearSnapshots(); err != nil {
			t.Fatalf("ClearSnapshots #%d failed: %v", i+1, err)
		}
		st := svc.State()
		if len(st.Snapshots) != 0 {
			t.Errorf("clear #%d: expected empty history, got %d", i+1, len(st.Snapshots))
		}
		if st.Holdings.BTC != 1 {
			t.Errorf("clear #%d: holdings must be untouched", i+1)
		}
		if st.LastBandID != "gt80" {
			t.Errorf("clear #%d: last band must be untouched, got %q", i+1, st.LastBandID)
		}
	}
}

func TestStateService_Reset(t *testing.T) {
	svc, store := setupService(t)

	svc.UpdateHoldings(domain.Holdings{BTC: 1})
	svc.ApplyCycle(domain.Snapshot{TS: 1}, "gt80")

	if err := svc.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	st := svc.State()
	if st.Holdings != (domain.Holdings{}) || len(st.Snapshots) != 0 || st.LastBandID != "" {
		t.Errorf("expected defaults after reset, got %+v", st)
	}

	// The durable copy is gone too.
	loaded, err := store.LoadState()
	if err != nil {
		t.Fatalf("LoadState after reset failed: %v", err)
	}
	if loaded.Holdings != (domain.Holdings{}) || len(loaded.Snapshots) != 0 {
		t.Errorf("expected default state on disk after reset, got %+v", loaded)
	}
}
