package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

func newHedgeTestEngine(spot *fakeSpot, hedge *fakeHedge, sink *fakeSink) *Engine {
	return New(spot, hedge, Config{
		Thresholds:  Thresholds{Buy: -0.0025, Sell: 0.0025},
		OrderKind:   domain.OrderKindTaker,
		MaxSlippage: 0.01,
		SettleDelay: 0,
	}, sink, nil, discardLogger())
}

func TestHedgeTickIncreasesHedge(t *testing.T) {
	spot := &fakeSpot{
		total: domain.Balances{Base: 37, Quote: 100},
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{99.9, 1}),
			Asks: levels([2]float64{100.1, 1}),
		},
	}
	hedge := &fakeHedge{
		pos:    domain.Position{Size: -10},
		equity: 500,
		limits: domain.MarketLimits{MinOrderSize: 15, StepSize: 10},
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 3}),
			Asks: levels([2]float64{100.2, 3}),
		},
	}
	sink := &fakeSink{}
	e := newHedgeTestEngine(spot, hedge, sink)

	require.NoError(t, e.HedgeTick(context.Background()))

	// 37 + (-10) = 27, floored to step 10 => 20, which clears min 15.
	assert.InDelta(t, 20.0, e.Discrepancy(), 1e-9)
	require.Len(t, hedge.markets, 1)
	assert.Equal(t, domain.SideSell, hedge.markets[0].Side)
	assert.InDelta(t, 20.0, hedge.markets[0].Size, 1e-9)
	assert.InDelta(t, 100*(1-0.01), hedge.markets[0].Price, 1e-9)

	// An equity sample is recorded after the adjustment:
	// 37*100 (mid) + 100 + 500 = 4300.
	require.Len(t, sink.appends, 1)
	assert.InDelta(t, 4300.0, sink.appends[0].Equity, 1e-9)
}

func TestHedgeTickDecreasesHedge(t *testing.T) {
	spot := &fakeSpot{
		total: domain.Balances{Base: 2, Quote: 100},
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{99.9, 1}),
			Asks: levels([2]float64{100.1, 1}),
		},
	}
	hedge := &fakeHedge{
		pos:    domain.Position{Size: -30},
		limits: domain.MarketLimits{MinOrderSize: 15, StepSize: 10},
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 3}),
			Asks: levels([2]float64{100.2, 3}),
		},
	}
	sink := &fakeSink{}
	e := newHedgeTestEngine(spot, hedge, sink)

	require.NoError(t, e.HedgeTick(context.Background()))

	// 2 + (-30) = -28, floored toward negative infinity => -30.
	assert.InDelta(t, -30.0, e.Discrepancy(), 1e-9)
	require.Len(t, hedge.markets, 1)
	assert.Equal(t, domain.SideBuy, hedge.markets[0].Side)
	assert.InDelta(t, 30.0, hedge.markets[0].Size, 1e-9)
	assert.InDelta(t, 100.2*(1+0.01), hedge.markets[0].Price, 1e-9)
}

func TestHedgeTickNotifiesAdjustment(t *testing.T) {
	spot := &fakeSpot{
		total: domain.Balances{Base: 37, Quote: 100},
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{99.9, 1}),
			Asks: levels([2]float64{100.1, 1}),
		},
	}
	hedge := &fakeHedge{
		pos:    domain.Position{Size: -10},
		limits: domain.MarketLimits{MinOrderSize: 15, StepSize: 10},
		book: domain.OrderbookSnapshot{
			Bids: levels([2]float64{100, 3}),
			Asks: levels([2]float64{100.2, 3}),
		},
	}
	alerts := &fakeAlerts{}
	e := newHedgeTestEngine(spot, hedge, &fakeSink{}).WithAlerts(alerts)

	require.NoError(t, e.HedgeTick(context.Background()))

	require.Len(t, alerts.calls, 1)
	assert.Equal(t, "hedge_adjusted", alerts.calls[0].Event)
	assert.Equal(t, "sell", alerts.calls[0].Side)
	assert.InDelta(t, 20.0, alerts.calls[0].Size, 1e-9)
	assert.InDelta(t, 99.0, alerts.calls[0].Price, 1e-9)
}

func TestHedgeTickWithinToleranceDoesNothing(t *testing.T) {
	spot := &fakeSpot{total: domain.Balances{Base: 12, Quote: 0}}
	hedge := &fakeHedge{
		pos:    domain.Position{Size: -10},
		limits: domain.MarketLimits{MinOrderSize: 15, StepSize: 10},
	}
	sink := &fakeSink{}
	e := newHedgeTestEngine(spot, hedge, sink)

	require.NoError(t, e.HedgeTick(context.Background()))

	assert.Empty(t, hedge.markets)
	assert.Empty(t, sink.appends)
}

func TestHedgeTickRefreshesHaltFlag(t *testing.T) {
	spot := &fakeSpot{}
	hedge := &fakeHedge{
		limits: domain.MarketLimits{MinOrderSize: 15, StepSize: 10},
		volume: 150_000,
	}
	sink := &fakeSink{}
	e := New(spot, hedge, Config{
		VolumeCeiling: 100_000,
		OrderKind:     domain.OrderKindTaker,
	}, sink, nil, discardLogger())

	require.NoError(t, e.HedgeTick(context.Background()))
	assert.True(t, e.Halted())

	// A halted engine places no orders on the next evaluate tick.
	require.NoError(t, e.EvaluateTick(context.Background()))
	assert.Empty(t, spot.posts)

	hedge.volume = 50_000
	require.NoError(t, e.HedgeTick(context.Background()))
	assert.False(t, e.Halted())
}
