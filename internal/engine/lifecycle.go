package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/hedgebot/internal/domain"
)

// cancelPrice is the placeholder limit price used on zero-size resubmits.
// The venue ignores the price of a cancellation; it only needs the id.
const cancelPrice = 1

// SideState is the lifecycle state of one side's resting order.
type SideState string

const (
	SideIdle    SideState = "idle"
	SideResting SideState = "resting"
)

// Lifecycle drives the Idle → Resting → Idle state machine for resting orders
// on the spot venue, one instance per engine. Repricing is replace-on-every-
// tick: while an opportunity persists, each tick resubmits at the freshly
// computed price and size using the open order's id, which the venue treats
// as an atomic replace. Cancellation is a zero-size resubmit at the open id.
type Lifecycle struct {
	venue  domain.SpotVenue
	dryRun bool
	asset  string
	alerts AlertSink
	logger *slog.Logger

	mu     sync.Mutex
	states map[domain.Side]SideState
	ids    map[domain.Side]int64
}

// NewLifecycle creates a Lifecycle for the given spot venue. When dryRun is
// true, decisions are logged but no orders are submitted.
func NewLifecycle(venue domain.SpotVenue, dryRun bool, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		venue:  venue,
		dryRun: dryRun,
		logger: logger.With(slog.String("component", "lifecycle")),
		states: make(map[domain.Side]SideState),
		ids:    make(map[domain.Side]int64),
	}
}

// Place submits (or replaces) the side's resting order at price/amount. The
// first order of open, if any, supplies the id to replace; a zero id creates
// a new order.
func (l *Lifecycle) Place(ctx context.Context, side domain.Side, price, amount float64, open []domain.RestingOrder) error {
	var existingID int64
	if len(open) > 0 {
		existingID = open[0].ID
	}

	if l.dryRun {
		l.logger.InfoContext(ctx, "dry run: would place order",
			slog.String("side", string(side)),
			slog.Float64("price", price),
			slog.Float64("amount", amount),
			slog.Int64("existing_id", existingID),
		)
		return nil
	}

	id, err := l.venue.PostOrder(ctx, side, price, amount, existingID)
	if err != nil {
		return fmt.Errorf("lifecycle: place %s order: %w", side, err)
	}
	l.setState(side, SideResting, id)
	l.logger.WarnContext(ctx, "order placed",
		slog.String("side", string(side)),
		slog.Float64("price", price),
		slog.Float64("amount", amount),
		slog.Int64("order_id", id),
	)
	if l.alerts != nil {
		if alertErr := l.alerts.OrderPlaced(ctx, l.asset, string(side), price, amount); alertErr != nil {
			l.logger.WarnContext(ctx, "order alert failed", slog.String("error", alertErr.Error()))
		}
	}
	return nil
}

// Cancel drives the side to Idle by resubmitting size 0 at every open order
// id. It issues exactly one cancel per open order and none when the side has
// no open orders.
func (l *Lifecycle) Cancel(ctx context.Context, side domain.Side, open []domain.RestingOrder) error {
	defer l.setState(side, SideIdle, 0)
	if len(open) == 0 {
		return nil
	}
	if l.dryRun {
		l.logger.InfoContext(ctx, "dry run: would cancel orders",
			slog.String("side", string(side)),
			slog.Int("count", len(open)),
		)
		return nil
	}
	for _, o := range open {
		if _, err := l.venue.PostOrder(ctx, side, cancelPrice, 0, o.ID); err != nil {
			return fmt.Errorf("lifecycle: cancel %s order %d: %w", side, o.ID, err)
		}
		l.logger.InfoContext(ctx, "order cancelled",
			slog.String("side", string(side)),
			slog.Int64("order_id", o.ID),
		)
	}
	return nil
}

// OpenOrderIDs returns the last known order id per side with a resting order.
func (l *Lifecycle) OpenOrderIDs() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int64, len(l.states))
	for side, st := range l.states {
		if st == SideResting {
			out[string(side)] = l.ids[side]
		}
	}
	return out
}

// State returns the current state and last known order id for a side.
func (l *Lifecycle) State(side domain.Side) (SideState, int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.states[side]
	if !ok {
		st = SideIdle
	}
	return st, l.ids[side]
}

func (l *Lifecycle) setState(side domain.Side, st SideState, id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[side] = st
	l.ids[side] = id
}
