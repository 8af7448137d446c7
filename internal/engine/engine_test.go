package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func newEvalTestEngine(spot *fakeSpot, hedge *fakeHedge) *Engine {
	return New(spot, hedge, Config{
		OrderKind:    domain.OrderKindTaker,
		Thresholds:   Thresholds{Buy: -0.0025, Sell: 0.0025},
		AccountRatio: 0.1,
		Haircut:      0.99,
		NotionalPad:  1.01,
	}, &fakeSink{}, nil, discardLogger())
}

func TestEvaluateTickPlacesBuyOrder(t *testing.T) {
	spot := &fakeSpot{
		book: domain.OrderbookSnapshot{
			Asks: levels([2]float64{99.5, 1}, [2]float64{99.7, 2}),
			Bids: levels([2]float64{99.4, 1}),
		},
		free:        domain.Balances{Base: 0, Quote: 1000},
		minNotional: 10,
		open:        map[domain.Side][]domain.RestingOrder{},
	}
	hedge := &fakeHedge{
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 5}),
			Asks: levels([2]float64{100.1, 5}),
		},
		limits: domain.MarketLimits{MinOrderSize: 0.1},
	}
	e := newEvalTestEngine(spot, hedge)

	require.NoError(t, e.EvaluateTick(context.Background()))

	// Only the buy side qualifies; the sell side has no open orders to
	// cancel, so exactly one submission happens.
	require.Len(t, spot.posts, 1)
	p := spot.posts[0]
	assert.Equal(t, domain.SideBuy, p.Side)
	assert.Equal(t, 99.7, p.Price)
	assert.Positive(t, p.Size)
	assert.Zero(t, p.ID)

	st, _ := e.Lifecycle().State(domain.SideBuy)
	assert.Equal(t, SideResting, st)
}

func TestEvaluateTickCancelsWhenOpportunityGone(t *testing.T) {
	spot := &fakeSpot{
		book: domain.OrderbookSnapshot{
			// Asks far above the reference: nothing qualifies.
			Asks: levels([2]float64{105, 1}),
			Bids: levels([2]float64{104, 1}),
		},
		free: domain.Balances{Base: 10, Quote: 1000},
		open: map[domain.Side][]domain.RestingOrder{
			domain.SideBuy: {{ID: 42, Side: domain.SideBuy, Price: 99, Size: 1}},
		},
	}
	hedge := &fakeHedge{
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 5}),
			Asks: levels([2]float64{100.1, 5}),
		},
	}
	e := newEvalTestEngine(spot, hedge)

	require.NoError(t, e.EvaluateTick(context.Background()))

	// Exactly one cancel: the zero-size resubmit at the open buy id.
	require.Len(t, spot.posts, 1)
	assert.Equal(t, int64(42), spot.posts[0].ID)
	assert.Zero(t, spot.posts[0].Size)
}

func TestEvaluateTickEmptyHedgeBookDrivesIdle(t *testing.T) {
	spot := &fakeSpot{
		book: domain.OrderbookSnapshot{
			Asks: levels([2]float64{99.5, 1}),
			Bids: levels([2]float64{99.4, 1}),
		},
		open: map[domain.Side][]domain.RestingOrder{
			domain.SideBuy:  {{ID: 8, Side: domain.SideBuy}},
			domain.SideSell: {{ID: 9, Side: domain.SideSell}},
		},
	}
	hedge := &fakeHedge{} // empty book: no reference price
	e := newEvalTestEngine(spot, hedge)

	require.NoError(t, e.EvaluateTick(context.Background()))

	// Both sides cancelled, one resubmit each.
	require.Len(t, spot.posts, 2)
	assert.Zero(t, spot.posts[0].Size)
	assert.Zero(t, spot.posts[1].Size)
}

func TestEvaluateTickBelowMinimumsTakesNoAction(t *testing.T) {
	spot := &fakeSpot{
		book: domain.OrderbookSnapshot{
			Asks: levels([2]float64{99.5, 1}),
			Bids: levels([2]float64{99.4, 1}),
		},
		free:        domain.Balances{Base: 0, Quote: 5},
		minNotional: 10,
		open:        map[domain.Side][]domain.RestingOrder{},
	}
	hedge := &fakeHedge{
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 5}),
			Asks: levels([2]float64{100.1, 5}),
		},
		limits: domain.MarketLimits{MinOrderSize: 0.1},
	}
	e := newEvalTestEngine(spot, hedge)

	require.NoError(t, e.EvaluateTick(context.Background()))
	assert.Empty(t, spot.posts)
}

func TestEvaluateTickTracksLiquidity(t *testing.T) {
	spot := &fakeSpot{
		book: domain.OrderbookSnapshot{
			Asks: levels([2]float64{99.5, 1}, [2]float64{99.7, 2}),
			Bids: levels([2]float64{99.4, 1}),
		},
		free:        domain.Balances{Base: 0, Quote: 1000},
		minNotional: 10,
		open:        map[domain.Side][]domain.RestingOrder{},
	}
	hedge := &fakeHedge{
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 0.25}),
			Asks: levels([2]float64{100.1, 5}),
		},
		limits: domain.MarketLimits{MinOrderSize: 0.1},
	}
	e := newEvalTestEngine(spot, hedge)

	require.NoError(t, e.EvaluateTick(context.Background()))

	// Liquidity is the lesser of the hedge top-level size and the sized
	// amount; here the hedge top bid (0.25) is the binding constraint.
	assert.InDelta(t, 0.25, e.takeLiquidity(), 1e-9)
}
