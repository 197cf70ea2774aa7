package service

import (
	"gsr_go/internal/domain"
)

// BuildSnapshot values the holdings at the resolved prices and assembles the
// immutable record for one completed cycle.
//
// The gold-equivalent total normalizes all three asset classes into ounces
// of gold: silver converts at the current GSR (not a fixed historical
// ratio) and BTC converts via its USD value divided by the current gold
// price, so the metric is ratio-sensitive in real time.
//
// Precondition: goldUsd, silverUsd and gsr are resolved and non-zero; the
// orchestrator skips snapshot creation entirely when the metals are not
// fully priced.
func BuildSnapshot(ts int64, h domain.Holdings, btcUsd, goldUsd, silverUsd, gsr float64) domain.Snapshot {
	btcValue := h.BTC * btcUsd
	goldValue := h.GoldOz * goldUsd
	silverValue := h.SilverOz * silverUsd

	return domain.Snapshot{
		TS:             ts,
		BtcUsd:         btcUsd,
		GoldUsd:        goldUsd,
		SilverUsd:      silverUsd,
		Gsr:            gsr,
		BtcValueUsd:    btcValue,
		GoldValueUsd:   goldValue,
		SilverValueUsd: silverValue,
		PortfolioUsd:   btcValue + goldValue + silverValue,
		PortfolioGoldEqOz: h.GoldOz +
			h.SilverOz/gsr +
			btcValue/goldUsd,
	}
}
