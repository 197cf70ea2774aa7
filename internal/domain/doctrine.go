package domain

import "math"

// Severity ranks how loudly a band should be surfaced to the user.
type Severity string

const (
	SeverityNone  Severity = "none"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityAlert Severity = "alert"
)

// DoctrineBand is one labeled range of GSR values with a recommended action.
// Min is inclusive, Max is exclusive; a nil bound is open on that side.
type DoctrineBand struct {
	ID       string   `json:"id"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Label    string   `json:"label"`
	Action   string   `json:"action"`
	Severity Severity `json:"severity"`
}

// Contains reports whether gsr falls inside the band's half-open range.
func (b *DoctrineBand) Contains(gsr float64) bool {
	if b.Min != nil && gsr < *b.Min {
		return false
	}
	if b.Max != nil && gsr >= *b.Max {
		return false
	}
	return true
}

// DefaultBands is the curated doctrine table, ordered from high GSR to low.
// Order matters: Classify returns the first match.
func DefaultBands() []DoctrineBand {
	return []DoctrineBand{
		{ID: "gt80", Min: f(80), Label: "> 80", Action: "Rotate GOLD → SILVER (20–40% of gold)", Severity: SeverityInfo},
		{ID: "70-80", Min: f(70), Max: f(80), Label: "70–80", Action: "Accumulate silver slowly (cash only)", Severity: SeverityInfo},
		{ID: "60-70", Min: f(60), Max: f(70), Label: "60–70", Action: "HOLD", Severity: SeverityNone},
		{ID: "55-60", Min: f(55), Max: f(60), Label: "55–60", Action: "HOLD / Prep mentally", Severity: SeverityNone},
		{ID: "50-55", Min: f(50), Max: f(55), Label: "50–55", Action: "NO new silver buys", Severity: SeverityWarn},
		{ID: "45-50", Min: f(45), Max: f(50), Label: "45–50", Action: "Rotate 20–30% SILVER → GOLD", Severity: SeverityWarn},
		{ID: "40-45", Min: f(40), Max: f(45), Label: "40–45", Action: "Rotate 40–60% SILVER → GOLD", Severity: SeverityAlert},
		{ID: "lt40", Max: f(40), Label: "< 40", Action: "Rotate 60–80% SILVER → GOLD (keep tail)", Severity: SeverityAlert},
	}
}

func f(v float64) *float64 { return &v }

// ComputeGSR returns goldUsd/silverUsd, or nil when the ratio is not
// representable: either input absent, silver zero, or a non-finite result.
// A zero gold price yields a valid ratio of zero.
func ComputeGSR(goldUsd, silverUsd *float64) *float64 {
	if goldUsd == nil || silverUsd == nil {
		return nil
	}
	if *silverUsd == 0 {
		return nil
	}
	gsr := *goldUsd / *silverUsd
	if math.IsNaN(gsr) || math.IsInf(gsr, 0) {
		return nil
	}
	return &gsr
}

// Classify scans bands in table order and returns the first one containing
// gsr, or nil if none match. Table order is the tie-break for overlapping
// ranges. Classify holds no memory of prior calls; transition detection
// belongs to the caller.
func Classify(gsr float64, bands []DoctrineBand) *DoctrineBand {
	for i := range bands {
		if bands[i].Contains(gsr) {
			return &bands[i]
		}
	}
	return nil
}
