package engine

import "github.com/alanyoungcy/hedgebot/internal/domain"

// SizerConfig holds the balance- and risk-bound sizing parameters.
type SizerConfig struct {
	// AccountRatio is the fraction of total base-equivalent equity allowed
	// per order (0.1 = 10%).
	AccountRatio float64
	// Haircut is the multiplicative safety margin applied to the final
	// amount so that price movement between calculation and submission
	// cannot exhaust the balance.
	Haircut float64
	// NotionalPad inflates the venue's minimum notional slightly so that a
	// price move does not push an order below the venue's floor.
	NotionalPad float64
}

// SizeRequest carries the candidate from the walker together with the venue
// constraints it must be clamped against.
type SizeRequest struct {
	Side          domain.Side
	Price         float64
	CandidateSize float64
	Free          domain.Balances
	// MinNotionalQuote is the spot venue's minimum order value in quote
	// units; 0 when the venue enforces none.
	MinNotionalQuote float64
	// MinOrderSize is the hedge venue's minimum order size in base units.
	MinOrderSize float64
}

// SizeResult is the clamped amount plus the floors it was gated against.
type SizeResult struct {
	Amount float64
	// MinNotionalBase is the spot minimum notional translated to base
	// units (padded).
	MinNotionalBase float64
	// OK is true when the amount clears both venue minimums and the order
	// should be submitted.
	OK bool
}

// Size clamps the walker's candidate size to what the free balances and the
// account risk ratio allow:
//
//	amount = min(candidate, affordable, max(minNotional, totalBase*ratio)) * haircut
//
// where affordable is quote/price for buys and base for sells. Amounts below
// either venue minimum are not errors; they are simply no opportunity.
func (c SizerConfig) Size(req SizeRequest) SizeResult {
	if req.Price <= 0 || req.CandidateSize <= 0 {
		return SizeResult{}
	}

	quoteAsBase := req.Free.Quote / req.Price
	totalBase := req.Free.Base + quoteAsBase

	affordable := quoteAsBase
	if req.Side == domain.SideSell {
		affordable = req.Free.Base
	}

	minNotional := 0.0
	if req.MinNotionalQuote > 0 {
		minNotional = req.MinNotionalQuote / req.Price * c.NotionalPad
	}

	cap := totalBase * c.AccountRatio
	if minNotional > cap {
		cap = minNotional
	}

	amount := req.CandidateSize
	if affordable < amount {
		amount = affordable
	}
	if cap < amount {
		amount = cap
	}
	amount *= c.Haircut

	ok := amount > req.MinOrderSize && amount > minNotional
	return SizeResult{
		Amount:          amount,
		MinNotionalBase: minNotional,
		OK:              ok,
	}
}
