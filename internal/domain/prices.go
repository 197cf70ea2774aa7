package domain

import "context"

// MetalsQuote is one source's gold and silver quote pair, USD per troy ounce.
type MetalsQuote struct {
	GoldUsd   float64 `json:"goldUsd"`
	SilverUsd float64 `json:"silverUsd"`
}

// ResolvedPrices is the authoritative price set for one refresh cycle,
// merged from live sources and manual overrides. A nil field means no
// source in the fallback chain produced a value. Never persisted on its
// own; it only survives inside a Snapshot.
type ResolvedPrices struct {
	BtcUsd    *float64 `json:"btcUsd"`
	GoldUsd   *float64 `json:"goldUsd"`
	SilverUsd *float64 `json:"silverUsd"`
}

// MetalsComplete reports whether both metals resolved, the precondition for
// valuation and snapshot creation.
func (p ResolvedPrices) MetalsComplete() bool {
	return p.GoldUsd != nil && p.SilverUsd != nil
}

// BtcSource supplies a live BTC/USD price. There is no fallback for BTC;
// a failure here is fatal to the refresh cycle.
type BtcSource interface {
	BtcUsd(ctx context.Context) (float64, error)
}

// MetalsSource supplies live gold and silver USD prices. Returning
// ErrUnconfigured means the source has no credentials (distinct from a
// transient failure); the resolver treats both identically for fallback.
type MetalsSource interface {
	Name() string
	GoldSilverUsd(ctx context.Context) (*MetalsQuote, error)
}
