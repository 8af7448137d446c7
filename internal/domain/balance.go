package domain

// Balances holds the base and quote asset balances on the spot venue.
// Which variant is read depends on the caller: order sizing uses free
// balances, hedge discrepancy uses total (free+locked) balances.
type Balances struct {
	Base  float64
	Quote float64
}

// Position is the signed open position on the hedge venue.
// Negative means short; the controller targets base + position ≈ 0.
type Position struct {
	Size float64
}

// MarketLimits describes the hedge venue's market constraints used for
// order quantization and minimum-size gating.
type MarketLimits struct {
	MinOrderSize float64
	StepSize     float64
	TickSize     float64
}
