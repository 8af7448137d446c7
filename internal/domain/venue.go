package domain

import "context"

// SpotVenue is the capability interface for the venue carrying the resting
// order leg. Implementations are thin I/O wrappers; all calls are synchronous
// round-trips and every snapshot is fetched fresh.
type SpotVenue interface {
	// Name identifies the venue in logs.
	Name() string
	// Orderbook returns a fresh snapshot of the configured market.
	Orderbook(ctx context.Context) (OrderbookSnapshot, error)
	// FreeBalances returns the available base/quote balances.
	FreeBalances(ctx context.Context) (Balances, error)
	// TotalBalances returns free+locked base/quote balances.
	TotalBalances(ctx context.Context) (Balances, error)
	// OpenOrders lists resting orders for one side. At most one open order
	// per side is assumed.
	OpenOrders(ctx context.Context, side Side) ([]RestingOrder, error)
	// PostOrder submits a limit order. A zero existingID creates a new
	// order; a non-zero existingID replaces the identified order; size 0
	// cancels it. The returned id is the venue-assigned id of the
	// resulting order, or zero for a cancel.
	PostOrder(ctx context.Context, side Side, price, size float64, existingID int64) (int64, error)
	// MinNotional returns the venue's minimum order value in quote units.
	MinNotional(ctx context.Context) (float64, error)
	// LastTrade returns the most recent own fill, or a zero value.
	LastTrade(ctx context.Context) (LastTrade, error)
}

// HedgeVenue is the capability interface for the venue carrying the offsetting
// position (a perpetual-futures account in the original deployment).
type HedgeVenue interface {
	Name() string
	Orderbook(ctx context.Context) (OrderbookSnapshot, error)
	// Position returns the signed open position for the configured market.
	Position(ctx context.Context) (Position, error)
	// AccountEquity returns the venue's own mark-to-market account value.
	AccountEquity(ctx context.Context) (float64, error)
	// Limits returns the market's order-size constraints.
	Limits() MarketLimits
	// MarketBuy and MarketSell submit marketable orders with a protective
	// limit price.
	MarketBuy(ctx context.Context, price, size float64) error
	MarketSell(ctx context.Context, price, size float64) error
	// TrailingVolume returns the 30-day maker+taker volume in quote units.
	TrailingVolume(ctx context.Context) (float64, error)
	LastTrade(ctx context.Context) (LastTrade, error)
}
