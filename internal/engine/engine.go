// Package engine implements the cross-venue arbitrage and hedging decision
// logic: walking the spot book for qualifying liquidity, sizing orders against
// balances and risk limits, managing the resting-order lifecycle, and keeping
// the hedge venue's position offsetting the spot exposure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// Config holds the engine's tuning parameters. All values are supplied at
// startup; the engine keeps no hidden process-wide state.
type Config struct {
	Asset       string
	OrderKind   domain.OrderKind
	Thresholds  Thresholds
	ExtraMargin float64

	AccountRatio float64
	Haircut      float64
	NotionalPad  float64

	MaxSlippage float64
	SettleDelay time.Duration

	// VolumeCeiling halts order placement when the hedge venue's 30-day
	// trailing volume exceeds it. Zero disables the halt.
	VolumeCeiling float64

	DryRun bool
}

// EquitySink receives a computed equity figure after each hedge adjustment
// and turns it into a persisted sample.
type EquitySink interface {
	Append(ctx context.Context, equity, liquidity float64, spotLast, hedgeLast domain.LastTrade) (domain.EquitySample, error)
}

// StatusSink receives live engine state for monitoring. Implementations must
// be non-blocking best-effort; errors are logged and dropped.
type StatusSink interface {
	SetDiscrepancy(ctx context.Context, discrepancy float64) error
}

// AlertSink receives operator-facing trade events: a resting order placed on
// the spot venue, a market order adjusting the hedge. Implementations are
// best-effort; errors are logged and dropped.
type AlertSink interface {
	OrderPlaced(ctx context.Context, asset, side string, price, amount float64) error
	HedgeAdjusted(ctx context.Context, asset, side string, size, price float64) error
}

// Engine evaluates spread opportunities on the spot venue and rebalances the
// hedge venue. It is driven by two scheduler tasks: EvaluateTick (order
// placement) and HedgeTick (position rebalancing).
type Engine struct {
	spot   domain.SpotVenue
	hedge  domain.HedgeVenue
	cfg    Config
	sizer  SizerConfig
	life   *Lifecycle
	sink   EquitySink
	status StatusSink
	alerts AlertSink
	logger *slog.Logger

	mu          sync.Mutex
	liquidity   float64
	halted      bool
	discrepancy float64
}

// New creates an Engine. sink is required; status may be nil.
func New(spot domain.SpotVenue, hedge domain.HedgeVenue, cfg Config, sink EquitySink, status StatusSink, logger *slog.Logger) *Engine {
	return &Engine{
		spot:  spot,
		hedge: hedge,
		cfg:   cfg,
		sizer: SizerConfig{
			AccountRatio: cfg.AccountRatio,
			Haircut:      cfg.Haircut,
			NotionalPad:  cfg.NotionalPad,
		},
		life:   NewLifecycle(spot, cfg.DryRun, logger),
		sink:   sink,
		status: status,
		logger: logger.With(slog.String("component", "engine")),
	}
}

// Lifecycle exposes the resting-order state machine for status reporting.
func (e *Engine) Lifecycle() *Lifecycle { return e.life }

// WithAlerts attaches an alert sink for trade notifications and returns the
// engine for chaining.
func (e *Engine) WithAlerts(a AlertSink) *Engine {
	e.alerts = a
	e.life.asset = e.cfg.Asset
	e.life.alerts = a
	return e
}

// Halted reports whether order placement is suspended by the trailing-volume
// ceiling.
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// Discrepancy returns the last computed net unhedged exposure.
func (e *Engine) Discrepancy() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.discrepancy
}

// EvaluateTick runs one evaluate-and-order pass: the buy side then the sell
// side, each against a fresh pair of orderbook snapshots. Returning an error
// abandons the tick; the scheduler logs it and keeps the schedule.
func (e *Engine) EvaluateTick(ctx context.Context) error {
	if e.Halted() {
		e.logger.WarnContext(ctx, "trading halted: trailing volume ceiling exceeded",
			slog.Float64("ceiling", e.cfg.VolumeCeiling),
		)
		return nil
	}
	if err := e.evaluateSide(ctx, domain.SideBuy); err != nil {
		return err
	}
	return e.evaluateSide(ctx, domain.SideSell)
}

// evaluateSide computes the candidate (price, size) for one side, clamps it,
// and either places/replaces the resting order or cancels any open ones.
func (e *Engine) evaluateSide(ctx context.Context, side domain.Side) error {
	open, err := e.spot.OpenOrders(ctx, side)
	if err != nil {
		return fmt.Errorf("engine: open orders %s: %w", side, err)
	}

	ref, err := e.hedgeReference(ctx, side)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBook) {
			// Data inconsistency: no reference price means no
			// opportunity, so drive the side to idle.
			return e.life.Cancel(ctx, side, open)
		}
		return err
	}

	book, err := e.spot.Orderbook(ctx)
	if err != nil {
		return fmt.Errorf("engine: spot orderbook: %w", err)
	}

	price, candidate := Walk(book, side, e.cfg.OrderKind, ref.Price, e.cfg.Thresholds, e.cfg.ExtraMargin)
	if price == 0 || candidate == 0 {
		return e.life.Cancel(ctx, side, open)
	}

	free, err := e.spot.FreeBalances(ctx)
	if err != nil {
		return fmt.Errorf("engine: free balances: %w", err)
	}
	minNotional, err := e.spot.MinNotional(ctx)
	if err != nil {
		return fmt.Errorf("engine: min notional: %w", err)
	}

	res := e.sizer.Size(SizeRequest{
		Side:             side,
		Price:            price,
		CandidateSize:    candidate,
		Free:             free,
		MinNotionalQuote: minNotional,
		MinOrderSize:     e.hedge.Limits().MinOrderSize,
	})

	e.setLiquidity(min(ref.Size, res.Amount))

	e.logger.InfoContext(ctx, "opportunity evaluated",
		slog.String("side", string(side)),
		slog.Float64("spread_pct", Spread(price, ref.Price)*100),
		slog.Float64("price", price),
		slog.Float64("amount", res.Amount),
	)

	if !res.OK {
		// Below venue minimums: not an error, simply no action.
		return nil
	}
	return e.life.Place(ctx, side, price, res.Amount, open)
}

// hedgeReference returns the hedge venue's top level opposing the given spot
// side: the best bid for buys (the hedge will sell into bids) and the best ask
// for sells.
func (e *Engine) hedgeReference(ctx context.Context, side domain.Side) (domain.PriceLevel, error) {
	book, err := e.hedge.Orderbook(ctx)
	if err != nil {
		return domain.PriceLevel{}, fmt.Errorf("engine: hedge orderbook: %w", err)
	}
	var lvl domain.PriceLevel
	if side == domain.SideBuy {
		lvl = book.BestBid()
	} else {
		lvl = book.BestAsk()
	}
	if lvl.Price == 0 {
		return domain.PriceLevel{}, domain.ErrEmptyBook
	}
	return lvl, nil
}

func (e *Engine) setLiquidity(v float64) {
	e.mu.Lock()
	e.liquidity = v
	e.mu.Unlock()
}

func (e *Engine) takeLiquidity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liquidity
}

func (e *Engine) setHalted(h bool) {
	e.mu.Lock()
	e.halted = h
	e.mu.Unlock()
}
