package domain

// MaxSnapshots bounds the history to a sliding window of the most recent
// cycles; the oldest entry is evicted first.
const MaxSnapshots = 1000

// StateVersion is the current persisted-state schema version. Version 0
// (a blob written before the marker existed) triggers the one-time
// legacy-default migration on load.
const StateVersion = 1

// Holdings are the user's asset quantities. No unit validation is enforced
// beyond the type; negative values simply produce negative valuations.
type Holdings struct {
	BTC      float64 `json:"btc"`
	SilverOz float64 `json:"silverOz"`
	GoldOz   float64 `json:"goldOz"`
}

// legacyPlaceholderHoldings is the historical default triple that early
// builds shipped as example data. A version-0 state carrying exactly this
// triple was never customized by the user.
var legacyPlaceholderHoldings = Holdings{BTC: 0.20619573, SilverOz: 167, GoldOz: 1.1}

// Snapshot is one immutable record of a completed valuation cycle.
type Snapshot struct {
	TS int64 `json:"ts"` // epoch milliseconds

	BtcUsd    float64 `json:"btcUsd"`
	GoldUsd   float64 `json:"goldUsd"`
	SilverUsd float64 `json:"silverUsd"`
	Gsr       float64 `json:"gsr"`

	BtcValueUsd    float64 `json:"btcValueUsd"`
	GoldValueUsd   float64 `json:"goldValueUsd"`
	SilverValueUsd float64 `json:"silverValueUsd"`

	PortfolioUsd      float64 `json:"portfolioUsd"`
	PortfolioGoldEqOz float64 `json:"portfolioGoldEqOz"`
}

// AppState is the process-wide persisted aggregate. It is owned exclusively
// by the state container; everything handed out of the container is a copy.
type AppState struct {
	Version   int        `json:"version"`
	Holdings  Holdings   `json:"holdings"`
	Snapshots []Snapshot `json:"snapshots"`

	// LastBandID is the doctrine band of the most recent classified cycle.
	// A stale ID from a since-reconfigured table is tolerated, not an error.
	LastBandID string `json:"lastBandId,omitempty"`

	// Manual fallbacks used only when no live metals source resolves.
	ManualGoldUsd   *float64 `json:"manualGoldUsd,omitempty"`
	ManualSilverUsd *float64 `json:"manualSilverUsd,omitempty"`

	RefreshMinutes int `json:"refreshMinutes"`
}

// DefaultState returns a fresh default aggregate.
func DefaultState() AppState {
	return AppState{
		Version:        StateVersion,
		Holdings:       Holdings{},
		Snapshots:      []Snapshot{},
		RefreshMinutes: 15,
	}
}

// Migrate normalizes a freshly loaded state in place: it substitutes
// defaults for out-of-range fields and, for pre-versioned blobs, replaces
// the legacy placeholder holdings with current defaults. Returns true if
// anything changed and the state should be re-persisted.
func (s *AppState) Migrate() bool {
	changed := false

	if s.Version < StateVersion {
		if s.Version == 0 && s.Holdings == legacyPlaceholderHoldings {
			s.Holdings = Holdings{}
		}
		s.Version = StateVersion
		changed = true
	}

	if s.RefreshMinutes < 1 {
		s.RefreshMinutes = DefaultState().RefreshMinutes
		changed = true
	}
	if s.Snapshots == nil {
		s.Snapshots = []Snapshot{}
		changed = true
	}
	if len(s.Snapshots) > MaxSnapshots {
		s.Snapshots = s.Snapshots[len(s.Snapshots)-MaxSnapshots:]
		changed = true
	}

	return changed
}

// Clone returns a deep copy; the snapshot slice is never shared.
func (s AppState) Clone() AppState {
	out := s
	out.Snapshots = make([]Snapshot, len(s.Snapshots))
	copy(out.Snapshots, s.Snapshots)
	if s.ManualGoldUsd != nil {
		v := *s.ManualGoldUsd
		out.ManualGoldUsd = &v
	}
	if s.ManualSilverUsd != nil {
		v := *s.ManualSilverUsd
		out.ManualSilverUsd = &v
	}
	return out
}
