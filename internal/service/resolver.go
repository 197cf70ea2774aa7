package service

import (
	"gsr_go/internal/domain"
)

// MetalsOutcome is the result of querying one ranked metals source: either
// a quote or the error that source produced (including domain.ErrUnconfigured).
type MetalsOutcome struct {
	Source string
	Quote  *domain.MetalsQuote
	Err    error
}

// Resolve merges ranked live metals outcomes with manual overrides into the
// cycle's authoritative price set. Fallback precedence per asset: first
// successful live source in rank order, else the manual override, else
// absent. Errored or unconfigured sources are skipped silently; the caller
// owns surfacing the tagged outcomes to diagnostics.
//
// BTC has no fallback chain. The caller aborts the cycle on a BTC failure
// before Resolve is reached, so btcUsd arrives already resolved.
//
// Resolve is a pure function of its inputs; nothing is cached across cycles.
func Resolve(btcUsd float64, metals []MetalsOutcome, manualGold, manualSilver *float64) domain.ResolvedPrices {
	prices := domain.ResolvedPrices{BtcUsd: &btcUsd}
	prices.GoldUsd = resolveOne(metals, manualGold, func(q *domain.MetalsQuote) float64 { return q.GoldUsd })
	prices.SilverUsd = resolveOne(metals, manualSilver, func(q *domain.MetalsQuote) float64 { return q.SilverUsd })
	return prices
}

// resolveOne walks the fallback chain for a single asset. A live value must
// be positive to count; a source that answered with a zero or negative price
// is treated the same as one that failed.
func resolveOne(metals []MetalsOutcome, manual *float64, pick func(*domain.MetalsQuote) float64) *float64 {
	for _, out := range metals {
		if out.Err != nil || out.Quote == nil {
			continue
		}
		if v := pick(out.Quote); v > 0 {
			return &v
		}
	}
	if manual != nil {
		v := *manual
		return &v
	}
	return nil
}
