package domain

import "time"

// Side indicates whether an order buys or sells the base asset.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderKind selects the quoting style of the spot leg.
type OrderKind string

const (
	// OrderKindMaker rests behind the touch and waits to be filled.
	OrderKindMaker OrderKind = "maker"
	// OrderKindTaker crosses the book and executes immediately.
	OrderKindTaker OrderKind = "taker"
)

// RestingOrder is an open limit order (or offer) on the spot venue. The ID is
// the only piece of state that survives across ticks: resubmitting with the
// same ID replaces the order, and resubmitting with size 0 cancels it.
type RestingOrder struct {
	ID    int64
	Side  Side
	Price float64
	Size  float64
}

// LastTrade is the most recent fill on a venue for the configured market.
// A zero value means the venue reported no trades.
type LastTrade struct {
	Time   time.Time `json:"time"`
	Side   string    `json:"side"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
}

// IsZero reports whether no trade has been observed.
func (t LastTrade) IsZero() bool {
	return t.Time.IsZero() && t.Price == 0 && t.Amount == 0
}
