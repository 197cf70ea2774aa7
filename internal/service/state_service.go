package service

import (
	"fmt"
	"log/slog"
	"sync"

	"gsr_go/internal/domain"
)

// StateStore is the durable surface behind the state container: a single
// keyed blob with get/set/delete semantics.
type StateStore interface {
	// LoadState returns the stored aggregate, or defaults when the key is
	// missing or the stored blob is malformed.
	LoadState() (domain.AppState, error)
	SaveState(domain.AppState) error
	DeleteState() error
}

// StateService owns the AppState aggregate. Every mutation path (holdings
// edit, override edit, refresh result, clear, reset) goes through its
// read-modify-write methods, and each mutation is persisted synchronously
// before returning, so the in-memory copy and the durable copy never
// diverge. Readers always get copies.
type StateService struct {
	mu    sync.RWMutex
	state domain.AppState
	store StateStore
}

// NewStateService loads the persisted aggregate, runs load-time migration
// and re-persists if the migration changed anything.
func NewStateService(store StateStore) (*StateService, error) {
	state, err := store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	if state.Migrate() {
		slog.Info("Persisted state migrated", slog.Int("version", state.Version))
		if err := store.SaveState(state); err != nil {
			return nil, fmt.Errorf("save migrated state: %w", err)
		}
	}

	return &StateService{state: state, store: store}, nil
}

// State returns a deep copy of the current aggregate.
func (s *StateService) State() domain.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// UpdateHoldings replaces the holdings and persists.
func (s *StateService) UpdateHoldings(h domain.Holdings) error {
	return s.mutate(func(st *domain.AppState) {
		st.Holdings = h
	})
}

// SetOverrides replaces the manual metals fallbacks and persists. A nil
// value clears that override.
func (s *StateService) SetOverrides(goldUsd, silverUsd *float64) error {
	return s.mutate(func(st *domain.AppState) {
		st.ManualGoldUsd = goldUsd
		st.ManualSilverUsd = silverUsd
	})
}

// SetRefreshMinutes updates the auto-refresh cadence and persists.
func (s *StateService) SetRefreshMinutes(minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("refresh interval must be a positive number of minutes, got %d", minutes)
	}
	return s.mutate(func(st *domain.AppState) {
		st.RefreshMinutes = minutes
	})
}

// ApplyCycle lands a successful cycle's result: the snapshot is appended
// (evicting the oldest above the cap) and the band ID is recorded in the
// same mutation, so the two never land in separate persists. It reports
// whether the band changed — a first-ever classification counts as a
// transition.
func (s *StateService) ApplyCycle(snap domain.Snapshot, bandID string) (transition bool, err error) {
	err = s.mutate(func(st *domain.AppState) {
		transition = bandID != "" && bandID != st.LastBandID
		if bandID != "" {
			st.LastBandID = bandID
		}
		st.Snapshots = append(st.Snapshots, snap)
		if len(st.Snapshots) > domain.MaxSnapshots {
			st.Snapshots = st.Snapshots[len(st.Snapshots)-domain.MaxSnapshots:]
		}
	})
	return transition, err
}

// ClearSnapshots empties the history without touching holdings, overrides
// or the last band ID. Idempotent.
func (s *StateService) ClearSnapshots() error {
	return s.mutate(func(st *domain.AppState) {
		st.Snapshots = []domain.Snapshot{}
	})
}

// Reset discards the persisted blob and reverts the in-memory aggregate to
// defaults, mirroring a first run.
func (s *StateService) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteState(); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	s.state = domain.DefaultState()
	return nil
}

// mutate applies fn to the latest in-memory value under the write lock and
// persists the result synchronously.
func (s *StateService) mutate(fn func(*domain.AppState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	if err := s.store.SaveState(s.state); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
