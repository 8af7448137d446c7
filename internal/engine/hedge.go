package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// HedgeTick runs one rebalancing pass: it reads the spot base balance and the
// hedge position, quantizes the discrepancy to the hedge venue's step size,
// and issues a market order when the discrepancy clears the minimum order
// size. After an adjustment it records an equity sample and waits a fixed
// settle delay before returning, so the next tick reads a settled position.
func (e *Engine) HedgeTick(ctx context.Context) error {
	pos, err := e.hedge.Position(ctx)
	if err != nil {
		return fmt.Errorf("engine: hedge position: %w", err)
	}
	balances, err := e.spot.TotalBalances(ctx)
	if err != nil {
		return fmt.Errorf("engine: total balances: %w", err)
	}

	limits := e.hedge.Limits()
	discrepancy := balances.Base + pos.Size
	if limits.StepSize > 0 {
		// Floor toward negative infinity, so negative discrepancies
		// round further negative.
		discrepancy = math.Floor(discrepancy/limits.StepSize) * limits.StepSize
	}

	e.mu.Lock()
	e.discrepancy = discrepancy
	e.mu.Unlock()
	if e.status != nil {
		if err := e.status.SetDiscrepancy(ctx, discrepancy); err != nil {
			e.logger.DebugContext(ctx, "status sink update failed", slog.String("error", err.Error()))
		}
	}

	switch {
	case discrepancy > limits.MinOrderSize:
		if err := e.increaseHedge(ctx, discrepancy, balances); err != nil {
			return err
		}
	case discrepancy < -limits.MinOrderSize:
		if err := e.decreaseHedge(ctx, -discrepancy, balances); err != nil {
			return err
		}
	}

	return e.refreshHaltFlag(ctx)
}

// increaseHedge sells size units on the hedge venue at a protective limit of
// bestBid*(1-maxSlippage): marketable, but bounded against adverse execution.
func (e *Engine) increaseHedge(ctx context.Context, size float64, balances domain.Balances) error {
	e.logger.InfoContext(ctx, "hedge needs increasing", slog.Float64("units", size))
	book, err := e.hedge.Orderbook(ctx)
	if err != nil {
		return fmt.Errorf("engine: hedge orderbook: %w", err)
	}
	bid := book.BestBid()
	if bid.Price == 0 {
		return domain.ErrEmptyBook
	}
	price := bid.Price * (1 - e.cfg.MaxSlippage)

	e.logger.WarnContext(ctx, "submitting market sell to increase hedge",
		slog.Float64("price", price),
		slog.Float64("size", size),
	)
	if err := e.hedge.MarketSell(ctx, price, size); err != nil {
		return fmt.Errorf("engine: hedge market sell: %w", err)
	}
	e.notifyAdjustment(ctx, string(domain.SideSell), size, price)
	return e.settle(ctx, balances)
}

// decreaseHedge buys size units back at a protective limit of
// bestAsk*(1+maxSlippage).
func (e *Engine) decreaseHedge(ctx context.Context, size float64, balances domain.Balances) error {
	e.logger.InfoContext(ctx, "hedge needs decreasing", slog.Float64("units", size))
	book, err := e.hedge.Orderbook(ctx)
	if err != nil {
		return fmt.Errorf("engine: hedge orderbook: %w", err)
	}
	ask := book.BestAsk()
	if ask.Price == 0 {
		return domain.ErrEmptyBook
	}
	price := ask.Price * (1 + e.cfg.MaxSlippage)

	e.logger.WarnContext(ctx, "submitting market buy to decrease hedge",
		slog.Float64("price", price),
		slog.Float64("size", size),
	)
	if err := e.hedge.MarketBuy(ctx, price, size); err != nil {
		return fmt.Errorf("engine: hedge market buy: %w", err)
	}
	e.notifyAdjustment(ctx, string(domain.SideBuy), size, price)
	return e.settle(ctx, balances)
}

// notifyAdjustment reports a filled hedge market order to the alert sink.
func (e *Engine) notifyAdjustment(ctx context.Context, side string, size, price float64) {
	if e.alerts == nil {
		return
	}
	if err := e.alerts.HedgeAdjusted(ctx, e.cfg.Asset, side, size, price); err != nil {
		e.logger.WarnContext(ctx, "hedge alert failed", slog.String("error", err.Error()))
	}
}

// settle records an equity sample after a hedge adjustment and pauses for the
// configured delay so the venue can settle the position before the next read.
// This is a fixed delay, not a poll-until-confirmed loop.
func (e *Engine) settle(ctx context.Context, balances domain.Balances) error {
	if err := e.recordEquity(ctx, balances); err != nil {
		e.logger.ErrorContext(ctx, "equity sample failed", slog.String("error", err.Error()))
	}
	if e.cfg.SettleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.SettleDelay):
		return nil
	}
}

// recordEquity computes total equity across both venues and appends it to the
// sink together with the last trades observed on each venue.
func (e *Engine) recordEquity(ctx context.Context, balances domain.Balances) error {
	book, err := e.spot.Orderbook(ctx)
	if err != nil {
		return fmt.Errorf("engine: spot orderbook: %w", err)
	}
	mid := book.Mid()
	if mid == 0 {
		return domain.ErrEmptyBook
	}
	hedgeEquity, err := e.hedge.AccountEquity(ctx)
	if err != nil {
		return fmt.Errorf("engine: hedge equity: %w", err)
	}
	equity := domain.ComputeEquity(balances, mid, hedgeEquity)
	e.logger.InfoContext(ctx, "total equity", slog.Float64("equity", equity))

	spotLast, err := e.spot.LastTrade(ctx)
	if err != nil {
		e.logger.DebugContext(ctx, "spot last trade unavailable", slog.String("error", err.Error()))
	}
	hedgeLast, err := e.hedge.LastTrade(ctx)
	if err != nil {
		e.logger.DebugContext(ctx, "hedge last trade unavailable", slog.String("error", err.Error()))
	}

	if _, err := e.sink.Append(ctx, equity, e.takeLiquidity(), spotLast, hedgeLast); err != nil {
		return fmt.Errorf("engine: append equity sample: %w", err)
	}
	return nil
}

// refreshHaltFlag updates the trailing-volume halt from the hedge venue's
// reported 30-day volume. A read failure leaves the flag unchanged.
func (e *Engine) refreshHaltFlag(ctx context.Context) error {
	if e.cfg.VolumeCeiling <= 0 {
		return nil
	}
	vol, err := e.hedge.TrailingVolume(ctx)
	if err != nil {
		return fmt.Errorf("engine: trailing volume: %w", err)
	}
	e.setHalted(vol > e.cfg.VolumeCeiling)
	return nil
}
