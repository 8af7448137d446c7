package engine

import (
	"math"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// UnboundedSize is the sentinel returned by Walk for a maker quote resting
// behind the first qualifying level: it is not immediately marketable, so its
// fill potential is treated as effectively unlimited.
const UnboundedSize = 1e9

// Walk scans one side of the spot venue's book against a reference price from
// the hedge venue and returns the executable (price, size) pair.
//
// Side and order kind together select which list is scanned: a taker buy and
// a maker sell execute against asks, a maker buy and a taker sell against
// bids. The walk proceeds from the best level and accumulates size while the
// level's spread against referencePrice clears the side's threshold (with
// extraMargin applied against the trade). Because the book is price-sorted,
// qualification is monotonic: the walk stops at the first disqualifying level
// and never inspects deeper ones.
//
// Returns (0, 0) when no level qualifies.
func Walk(
	book domain.OrderbookSnapshot,
	side domain.Side,
	kind domain.OrderKind,
	referencePrice float64,
	thresholds Thresholds,
	extraMargin float64,
) (price, size float64) {
	if referencePrice <= 0 {
		return 0, 0
	}

	var levels []domain.PriceLevel
	if (side == domain.SideBuy && kind == domain.OrderKindTaker) ||
		(side == domain.SideSell && kind == domain.OrderKindMaker) {
		levels = book.Asks
	} else {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return 0, 0
	}

	best := levels[0].Price
	for _, lvl := range levels {
		spread := Spread(lvl.Price, referencePrice)
		var qualifies bool
		if side == domain.SideBuy {
			qualifies = thresholds.BuyQualifies(spread - extraMargin)
		} else {
			qualifies = thresholds.SellQualifies(spread + extraMargin)
		}
		if !qualifies {
			break
		}
		price = lvl.Price
		size += lvl.Size
		// A maker quote behind the first qualifying level cannot be hit
		// immediately, so available size is no constraint.
		if kind == domain.OrderKindMaker && math.Abs(price-best) > extraMargin {
			return price, UnboundedSize
		}
	}
	return price, size
}
