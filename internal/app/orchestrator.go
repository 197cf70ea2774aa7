package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gsr_go/internal/domain"
	"gsr_go/internal/infra"
	"gsr_go/internal/service"
)

// CyclePhase names the step a refresh cycle is currently in.
type CyclePhase string

const (
	PhaseIdle           CyclePhase = "idle"
	PhaseFetchingBtc    CyclePhase = "fetching_btc"
	PhaseFetchingMetals CyclePhase = "fetching_metals"
	PhaseResolving      CyclePhase = "resolving"
	PhaseValuating      CyclePhase = "valuating"
	PhasePersisting     CyclePhase = "persisting"
)

const (
	statusFetching      = "Fetching prices..."
	statusUpdated       = "Updated."
	statusMissingMetals = "Missing gold/silver live prices. Set manual fallback or configure a GoldAPI key."
	statusReset         = "Local state reset."
)

// View is the combined engine output handed to the presentation layer: the
// latest resolved live prices, the classified band, the last cycle's status
// and the full snapshot history for charting.
type View struct {
	Phase  CyclePhase `json:"phase"`
	Status string     `json:"status"`

	Live domain.ResolvedPrices `json:"live"`
	Gsr  *float64              `json:"gsr"`
	Band *domain.DoctrineBand  `json:"band"`

	Holdings        domain.Holdings   `json:"holdings"`
	ManualGoldUsd   *float64          `json:"manualGoldUsd,omitempty"`
	ManualSilverUsd *float64          `json:"manualSilverUsd,omitempty"`
	RefreshMinutes  int               `json:"refreshMinutes"`
	Snapshots       []domain.Snapshot `json:"snapshots"`
}

// Orchestrator drives one refresh cycle at a time: oracle fetch, resolve,
// classify, value, persist. It owns the cycle cadence (startup, fixed
// timer, manual trigger) and guarantees that no failure escapes as a panic;
// every outcome lands in a status string.
type Orchestrator struct {
	btcSource     domain.BtcSource
	metalsSources []domain.MetalsSource // rank order: primary first
	bands         []domain.DoctrineBand
	states        *service.StateService
	metrics       *infra.Metrics

	mu     sync.RWMutex
	phase  CyclePhase
	status string
	live   domain.ResolvedPrices

	inFlight   atomic.Bool
	manualCh   chan struct{}
	intervalCh chan int

	// onCycle, when set, receives the fresh view after every completed
	// cycle attempt (success or failure).
	onCycle func(View)
}

// NewOrchestrator wires the cycle driver.
func NewOrchestrator(btc domain.BtcSource, metals []domain.MetalsSource, states *service.StateService) *Orchestrator {
	return &Orchestrator{
		btcSource:     btc,
		metalsSources: metals,
		bands:         domain.DefaultBands(),
		states:        states,
		metrics:       infra.GlobalMetrics,
		phase:         PhaseIdle,
		status:        "Initializing...",
		manualCh:      make(chan struct{}),
		intervalCh:    make(chan int, 1),
	}
}

// OnCycle registers the post-cycle hook (e.g., the websocket broadcast).
func (o *Orchestrator) OnCycle(fn func(View)) {
	o.onCycle = fn
}

// Run drives the cycle cadence until ctx is cancelled: once immediately,
// then on a ticker of max(1, refreshMinutes) minutes, plus any manual
// trigger. Interval changes swap the ticker atomically; two tickers never
// run at once.
func (o *Orchestrator) Run(ctx context.Context) {
	o.RunCycle(ctx)

	ticker := time.NewTicker(refreshPeriod(o.states.State().RefreshMinutes))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Refresh loop stopped")
			return
		case <-ticker.C:
			o.RunCycle(ctx)
		case <-o.manualCh:
			o.RunCycle(ctx)
		case minutes := <-o.intervalCh:
			ticker.Stop()
			ticker = time.NewTicker(refreshPeriod(minutes))
			slog.Info("Refresh interval rescheduled", slog.Int("minutes", minutes))
		}
	}
}

// TriggerNow requests an immediate refresh. If a cycle is already in
// flight the trigger is dropped rather than queued; the caller learns
// whether it was accepted.
func (o *Orchestrator) TriggerNow() bool {
	select {
	case o.manualCh <- struct{}{}:
		return true
	default:
		o.metrics.RecordTriggerDropped()
		slog.Debug("Manual refresh dropped, cycle already in flight")
		return false
	}
}

// Reschedule swaps the refresh timer to the given cadence. The latest
// request wins if several arrive before the loop picks one up.
func (o *Orchestrator) Reschedule(minutes int) {
	for {
		select {
		case o.intervalCh <- minutes:
			return
		default:
			select {
			case <-o.intervalCh:
			default:
			}
		}
	}
}

// NoteStateReset records the reset outcome in the user-visible status.
func (o *Orchestrator) NoteStateReset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = statusReset
	o.live = domain.ResolvedPrices{}
}

// View assembles the current outbound state for the presentation layer.
// The displayed GSR and band derive from the latest resolved live prices,
// which already include any manual fallback.
func (o *Orchestrator) View() View {
	o.mu.RLock()
	phase, status, live := o.phase, o.status, o.live
	o.mu.RUnlock()

	st := o.states.State()

	v := View{
		Phase:           phase,
		Status:          status,
		Live:            live,
		Holdings:        st.Holdings,
		ManualGoldUsd:   st.ManualGoldUsd,
		ManualSilverUsd: st.ManualSilverUsd,
		RefreshMinutes:  st.RefreshMinutes,
		Snapshots:       st.Snapshots,
	}

	if gsr := domain.ComputeGSR(live.GoldUsd, live.SilverUsd); gsr != nil {
		v.Gsr = gsr
		v.Band = domain.Classify(*gsr, o.bands)
	}
	return v
}

// RunCycle executes one full refresh cycle. A second invocation while one
// is in flight is dropped. Never panics outward; every failure path ends
// in a status string with state untouched or partially updated per the
// error taxonomy.
func (o *Orchestrator) RunCycle(ctx context.Context) {
	if !o.inFlight.CompareAndSwap(false, true) {
		o.metrics.RecordTriggerDropped()
		slog.Debug("Refresh cycle dropped, another is in flight")
		return
	}
	defer o.inFlight.Store(false)
	defer o.setPhase(PhaseIdle)
	defer o.notify()

	start := time.Now()
	o.setPhase(PhaseFetchingBtc)
	o.setStatus(statusFetching)

	// BTC has no fallback; its failure aborts before any state mutation.
	btcUsd, err := o.btcSource.BtcUsd(ctx)
	if err != nil {
		o.setStatus(fmt.Sprintf("Error fetching BTC price: %v", err))
		o.metrics.RecordCycleFailed()
		slog.Warn("Cycle aborted on BTC fetch", slog.Any("error", err))
		return
	}

	o.setPhase(PhaseFetchingMetals)
	outcomes := o.fetchMetals(ctx)

	o.setPhase(PhaseResolving)
	st := o.states.State()
	prices := service.Resolve(btcUsd, outcomes, st.ManualGoldUsd, st.ManualSilverUsd)
	ts := time.Now().UnixMilli()

	o.mu.Lock()
	o.live = prices
	o.mu.Unlock()

	gsr := domain.ComputeGSR(prices.GoldUsd, prices.SilverUsd)
	if !prices.MetalsComplete() || gsr == nil || *prices.GoldUsd == 0 {
		// Degrading, not fatal: live BTC price still updated, no snapshot.
		o.setStatus(statusMissingMetals)
		o.metrics.RecordCycleFailed()
		return
	}

	o.setPhase(PhaseValuating)
	snap := service.BuildSnapshot(ts, st.Holdings, btcUsd, *prices.GoldUsd, *prices.SilverUsd, *gsr)

	band := domain.Classify(*gsr, o.bands)
	bandID := ""
	if band != nil {
		bandID = band.ID
	}

	o.setPhase(PhasePersisting)
	transition, err := o.states.ApplyCycle(snap, bandID)
	if err != nil {
		o.setStatus(fmt.Sprintf("Error persisting snapshot: %v", err))
		o.metrics.RecordCycleFailed()
		slog.Error("Cycle result not persisted", slog.Any("error", err))
		return
	}
	o.metrics.RecordSnapshot()

	if transition {
		o.metrics.RecordTransition()
		o.setStatus(fmt.Sprintf("ALERT: GSR entered %s → %s", band.Label, band.Action))
		slog.Info("Band transition",
			slog.String("band", band.ID),
			slog.String("severity", string(band.Severity)),
			slog.Float64("gsr", *gsr))
	} else {
		o.setStatus(statusUpdated)
	}

	o.metrics.RecordCycle(time.Since(start).Nanoseconds())
	slog.Info("Refresh cycle completed",
		slog.Float64("gsr", *gsr),
		slog.Float64("portfolio_usd", snap.PortfolioUsd),
		slog.Duration("took", time.Since(start)))
}

// fetchMetals queries all ranked metals sources concurrently and returns
// their outcomes in rank order. Failures are not surfaced as cycle errors;
// they are tagged for diagnostics and the resolver falls through.
func (o *Orchestrator) fetchMetals(ctx context.Context) []service.MetalsOutcome {
	outcomes := make([]service.MetalsOutcome, len(o.metalsSources))

	var wg sync.WaitGroup
	for i, src := range o.metalsSources {
		wg.Add(1)
		go func(i int, src domain.MetalsSource) {
			defer wg.Done()
			quote, err := src.GoldSilverUsd(ctx)
			outcomes[i] = service.MetalsOutcome{Source: src.Name(), Quote: quote, Err: err}
		}(i, src)
	}
	wg.Wait()

	for _, out := range outcomes {
		switch {
		case out.Err == nil:
		case errors.Is(out.Err, domain.ErrUnconfigured):
			slog.Debug("Metals source unconfigured", slog.String("source", out.Source))
		default:
			slog.Warn("Metals source failed, falling through",
				slog.String("source", out.Source),
				slog.Bool("transient", domain.IsTransient(out.Err)),
				slog.Any("error", out.Err))
		}
	}
	return outcomes
}

func (o *Orchestrator) setPhase(p CyclePhase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

func (o *Orchestrator) setStatus(s string) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
}

func (o *Orchestrator) notify() {
	if o.onCycle != nil {
		o.onCycle(o.View())
	}
}

func refreshPeriod(minutes int) time.Duration {
	if minutes < 1 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
