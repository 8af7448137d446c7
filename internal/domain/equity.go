package domain

// EquitySample is one append-only record of total account equity across both
// venues. PnL fields are nil for the first sample of a stream; afterwards
// PnlThisTrade is relative to the previous sample and PnlOverall relative to
// the first.
type EquitySample struct {
	ID             string    `json:"id"`
	Timestamp      int64     `json:"timestamp"`
	TotalEquity    float64   `json:"total_equity"`
	Liquidity      float64   `json:"liquidity"`
	SpotLastTrade  LastTrade `json:"spot_last_trade"`
	HedgeLastTrade LastTrade `json:"hedge_last_trade"`
	PnlThisTrade   *float64  `json:"pnl_this_trade"`
	PnlOverall     *float64  `json:"pnl_overall"`
}

// ComputeEquity marks the spot balances to the reference price and adds the
// hedge venue's self-reported account equity (which already marks its own
// position to market).
func ComputeEquity(balances Balances, referencePrice, hedgeEquity float64) float64 {
	return balances.Base*referencePrice + balances.Quote + hedgeEquity
}
