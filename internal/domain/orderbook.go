package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is a full snapshot of bids and asks for a market, pulled
// fresh on every poll. Bids are sorted best-first (descending price), asks
// best-first (ascending price). Snapshots are never cached across ticks.
type OrderbookSnapshot struct {
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// BestBid returns the top bid level, or a zero level when the book side is empty.
func (s OrderbookSnapshot) BestBid() PriceLevel {
	if len(s.Bids) == 0 {
		return PriceLevel{}
	}
	return s.Bids[0]
}

// BestAsk returns the top ask level, or a zero level when the book side is empty.
func (s OrderbookSnapshot) BestAsk() PriceLevel {
	if len(s.Asks) == 0 {
		return PriceLevel{}
	}
	return s.Asks[0]
}

// Mid returns the midmarket price, or 0 when either side of the book is empty.
func (s OrderbookSnapshot) Mid() float64 {
	if len(s.Bids) == 0 || len(s.Asks) == 0 {
		return 0
	}
	return (s.Bids[0].Price + s.Asks[0].Price) / 2
}

// Empty reports whether either side of the book has no levels.
func (s OrderbookSnapshot) Empty() bool {
	return len(s.Bids) == 0 || len(s.Asks) == 0
}
