package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func levels(pairs ...[2]float64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, domain.PriceLevel{Price: p[0], Size: p[1]})
	}
	return out
}

func TestWalkTakerBuyAccumulatesQualifyingAsks(t *testing.T) {
	book := domain.OrderbookSnapshot{
		Asks: levels([2]float64{99.5, 1}, [2]float64{99.7, 2}, [2]float64{99.8, 3}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	price, size := Walk(book, domain.SideBuy, domain.OrderKindTaker, 100, th, 0)

	// 99.5 and 99.7 clear the -0.25% threshold, 99.8 does not.
	assert.Equal(t, 99.7, price)
	assert.Equal(t, 3.0, size)
}

func TestWalkStopsAtFirstDisqualifyingLevel(t *testing.T) {
	// The level behind the first disqualifying one would qualify if it
	// were inspected; the walk must never reach it.
	book := domain.OrderbookSnapshot{
		Asks: levels([2]float64{99.5, 1}, [2]float64{99.9, 2}, [2]float64{99.0, 50}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	price, size := Walk(book, domain.SideBuy, domain.OrderKindTaker, 100, th, 0)

	assert.Equal(t, 99.5, price)
	assert.Equal(t, 1.0, size)
}

func TestWalkSideSelectsBookList(t *testing.T) {
	book := domain.OrderbookSnapshot{
		Bids: levels([2]float64{100.6, 4}),
		Asks: levels([2]float64{101.0, 9}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	// Taker sell executes against bids.
	price, size := Walk(book, domain.SideSell, domain.OrderKindTaker, 100, th, 0)
	assert.Equal(t, 100.6, price)
	assert.Equal(t, 4.0, size)

	// Maker sell rests among asks.
	price, size = Walk(book, domain.SideSell, domain.OrderKindMaker, 100, th, 0)
	assert.Equal(t, 101.0, price)
	assert.Equal(t, 9.0, size)
}

func TestWalkMakerUnboundedBehindFirstQualifyingLevel(t *testing.T) {
	book := domain.OrderbookSnapshot{
		Asks: levels([2]float64{100, 5}, [2]float64{100.9, 5}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	// Both asks qualify for a maker sell; once the walk moves more than
	// extraMargin away from the best level the quote is not marketable
	// and size is unbounded.
	price, size := Walk(book, domain.SideSell, domain.OrderKindMaker, 100, th, 0.01)

	assert.Equal(t, 100.9, price)
	assert.Equal(t, UnboundedSize, size)
}

func TestWalkMakerSentinelNeverFiresAtBestLevel(t *testing.T) {
	book := domain.OrderbookSnapshot{
		Asks: levels([2]float64{100, 5}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	price, size := Walk(book, domain.SideSell, domain.OrderKindMaker, 100, th, 0.01)

	assert.Equal(t, 100.0, price)
	assert.Equal(t, 5.0, size)
}

func TestWalkNoQualifyingLevels(t *testing.T) {
	book := domain.OrderbookSnapshot{
		Asks: levels([2]float64{100.5, 5}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	price, size := Walk(book, domain.SideBuy, domain.OrderKindTaker, 100, th, 0)

	assert.Zero(t, price)
	assert.Zero(t, size)
}

func TestWalkEmptyBookAndBadReference(t *testing.T) {
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	price, size := Walk(domain.OrderbookSnapshot{}, domain.SideBuy, domain.OrderKindTaker, 100, th, 0)
	assert.Zero(t, price)
	assert.Zero(t, size)

	book := domain.OrderbookSnapshot{Asks: levels([2]float64{99, 1})}
	price, size = Walk(book, domain.SideBuy, domain.OrderKindTaker, 0, th, 0)
	assert.Zero(t, price)
	assert.Zero(t, size)
}

func TestWalkAccumulationIsMonotonic(t *testing.T) {
	book := domain.OrderbookSnapshot{
		Asks: levels([2]float64{99.1, 1}, [2]float64{99.2, 2}, [2]float64{99.3, 3}, [2]float64{99.4, 4}),
	}
	th := Thresholds{Buy: -0.0025, Sell: 0.0025}

	// Walking progressively truncated books yields non-decreasing sizes.
	var prev float64
	for n := 1; n <= len(book.Asks); n++ {
		sub := domain.OrderbookSnapshot{Asks: book.Asks[:n]}
		_, size := Walk(sub, domain.SideBuy, domain.OrderKindTaker, 100, th, 0)
		assert.GreaterOrEqual(t, size, prev)
		prev = size
	}
}
