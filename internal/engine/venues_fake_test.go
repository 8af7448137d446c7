package engine

import (
	"context"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// postCall records one PostOrder invocation on the fake spot venue.
type postCall struct {
	Side  domain.Side
	Price float64
	Size  float64
	ID    int64
}

type fakeSpot struct {
	book        domain.OrderbookSnapshot
	free, total domain.Balances
	open        map[domain.Side][]domain.RestingOrder
	minNotional float64
	last        domain.LastTrade
	posts       []postCall
	ackID       int64
}

func (f *fakeSpot) Name() string { return "fakespot" }

func (f *fakeSpot) Orderbook(context.Context) (domain.OrderbookSnapshot, error) {
	return f.book, nil
}

func (f *fakeSpot) FreeBalances(context.Context) (domain.Balances, error) {
	return f.free, nil
}

func (f *fakeSpot) TotalBalances(context.Context) (domain.Balances, error) {
	return f.total, nil
}

func (f *fakeSpot) OpenOrders(_ context.Context, side domain.Side) ([]domain.RestingOrder, error) {
	return f.open[side], nil
}

func (f *fakeSpot) PostOrder(_ context.Context, side domain.Side, price, size float64, existingID int64) (int64, error) {
	f.posts = append(f.posts, postCall{Side: side, Price: price, Size: size, ID: existingID})
	if size == 0 {
		return 0, nil
	}
	return f.ackID, nil
}

func (f *fakeSpot) MinNotional(context.Context) (float64, error) {
	return f.minNotional, nil
}

func (f *fakeSpot) LastTrade(context.Context) (domain.LastTrade, error) {
	return f.last, nil
}

// marketCall records one market order on the fake hedge venue.
type marketCall struct {
	Side  domain.Side
	Price float64
	Size  float64
}

type fakeHedge struct {
	book    domain.OrderbookSnapshot
	pos     domain.Position
	equity  float64
	limits  domain.MarketLimits
	volume  float64
	last    domain.LastTrade
	markets []marketCall
}

func (f *fakeHedge) Name() string { return "fakehedge" }

func (f *fakeHedge) Orderbook(context.Context) (domain.OrderbookSnapshot, error) {
	return f.book, nil
}

func (f *fakeHedge) Position(context.Context) (domain.Position, error) {
	return f.pos, nil
}

func (f *fakeHedge) AccountEquity(context.Context) (float64, error) {
	return f.equity, nil
}

func (f *fakeHedge) Limits() domain.MarketLimits { return f.limits }

func (f *fakeHedge) MarketBuy(_ context.Context, price, size float64) error {
	f.markets = append(f.markets, marketCall{Side: domain.SideBuy, Price: price, Size: size})
	return nil
}

func (f *fakeHedge) MarketSell(_ context.Context, price, size float64) error {
	f.markets = append(f.markets, marketCall{Side: domain.SideSell, Price: price, Size: size})
	return nil
}

func (f *fakeHedge) TrailingVolume(context.Context) (float64, error) {
	return f.volume, nil
}

func (f *fakeHedge) LastTrade(context.Context) (domain.LastTrade, error) {
	return f.last, nil
}

// alertCall records one event handed to the fake alert sink.
type alertCall struct {
	Event string
	Asset string
	Side  string
	Size  float64
	Price float64
}

type fakeAlerts struct {
	calls []alertCall
}

func (f *fakeAlerts) OrderPlaced(_ context.Context, asset, side string, price, amount float64) error {
	f.calls = append(f.calls, alertCall{Event: "order_placed", Asset: asset, Side: side, Size: amount, Price: price})
	return nil
}

func (f *fakeAlerts) HedgeAdjusted(_ context.Context, asset, side string, size, price float64) error {
	f.calls = append(f.calls, alertCall{Event: "hedge_adjusted", Asset: asset, Side: side, Size: size, Price: price})
	return nil
}

// appendCall records one equity sample handed to the fake sink.
type appendCall struct {
	Equity    float64
	Liquidity float64
}

type fakeSink struct {
	appends []appendCall
}

func (f *fakeSink) Append(_ context.Context, equity, liquidity float64, _, _ domain.LastTrade) (domain.EquitySample, error) {
	f.appends = append(f.appends, appendCall{Equity: equity, Liquidity: liquidity})
	return domain.EquitySample{TotalEquity: equity, Liquidity: liquidity}, nil
}
