// Package notify fans operator alerts out to Telegram and Discord. Events can
// be filtered by type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Event types emitted by the bot.
const (
	EventHedgeAdjusted = "hedge_adjusted"
	EventOrderPlaced   = "order_placed"
	EventHalt          = "halt"
	EventError         = "error"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders, filtered by an
// allowed set of event types. An empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders. Only
// events whose type appears in the events slice are forwarded by Notify; an
// empty slice allows all event types.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders if the event type passes the
// filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// OrderPlaced reports a resting limit order submitted on the spot venue.
func (n *Notifier) OrderPlaced(ctx context.Context, asset, side string, price, amount float64) error {
	return n.Notify(ctx, EventOrderPlaced,
		fmt.Sprintf("Order placed: %s", asset),
		fmt.Sprintf("%s %v @ %v", side, amount, price),
	)
}

// HedgeAdjusted reports a completed hedge market order.
func (n *Notifier) HedgeAdjusted(ctx context.Context, asset, side string, size, price float64) error {
	return n.Notify(ctx, EventHedgeAdjusted,
		fmt.Sprintf("Hedge adjusted: %s", asset),
		fmt.Sprintf("%s %v @ %v", side, size, price),
	)
}

// Halted reports that order placement stopped because the trailing volume
// ceiling was reached.
func (n *Notifier) Halted(ctx context.Context, asset string, volume, ceiling float64) error {
	return n.Notify(ctx, EventHalt,
		fmt.Sprintf("Trading halted: %s", asset),
		fmt.Sprintf("30d volume %.0f exceeds ceiling %.0f", volume, ceiling),
	)
}

// Error reports an operational failure worth waking someone up for.
func (n *Notifier) Error(ctx context.Context, title string, err error) error {
	return n.Notify(ctx, EventError, title, err.Error())
}

// dispatch sends to every sender; one sender failing does not prevent
// delivery to the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
