package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/engine"
	"github.com/alanyoungcy/hedgebot/internal/ledger"
	"github.com/alanyoungcy/hedgebot/internal/server/ws"
)

// Recorder appends equity samples to the ledger and fans them out to the
// optional mirrors: Postgres, the Redis status cache and stream, and the
// WebSocket hub. Mirror failures are logged and never fail the append; the
// ledger write is the only one that matters.
type Recorder struct {
	ledger   *ledger.Ledger
	store    domain.EquityStore
	status   domain.StatusCache
	bus      domain.EquityBus
	hub      *ws.Hub
	instance int
	asset    string
	logger   *slog.Logger

	mu   sync.Mutex
	last domain.EquitySample
	has  bool
}

var _ engine.EquitySink = (*Recorder)(nil)

// NewRecorder creates a Recorder. Everything but the ledger may be nil.
func NewRecorder(l *ledger.Ledger, instance int, asset string, logger *slog.Logger) *Recorder {
	return &Recorder{
		ledger:   l,
		instance: instance,
		asset:    asset,
		logger:   logger.With(slog.String("component", "recorder")),
	}
}

// WithStore attaches the Postgres mirror.
func (r *Recorder) WithStore(s domain.EquityStore) *Recorder {
	r.store = s
	return r
}

// WithStatusCache attaches the Redis status cache.
func (r *Recorder) WithStatusCache(c domain.StatusCache) *Recorder {
	r.status = c
	return r
}

// WithBus attaches the Redis equity stream.
func (r *Recorder) WithBus(b domain.EquityBus) *Recorder {
	r.bus = b
	return r
}

// WithHub attaches the WebSocket hub.
func (r *Recorder) WithHub(h *ws.Hub) *Recorder {
	r.hub = h
	return r
}

// Append records one sample and mirrors it.
func (r *Recorder) Append(ctx context.Context, equity, liquidity float64, spotLast, hedgeLast domain.LastTrade) (domain.EquitySample, error) {
	sample, err := r.ledger.Append(ctx, equity, liquidity, spotLast, hedgeLast)
	if err != nil {
		return domain.EquitySample{}, err
	}

	r.mu.Lock()
	r.last = sample
	r.has = true
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Insert(ctx, r.instance, r.asset, sample); err != nil {
			r.logger.WarnContext(ctx, "postgres mirror failed", slog.String("error", err.Error()))
		}
	}
	if r.status != nil {
		if err := r.status.SetSample(ctx, r.instance, r.asset, sample); err != nil {
			r.logger.WarnContext(ctx, "status cache update failed", slog.String("error", err.Error()))
		}
	}
	if r.bus != nil {
		if err := r.bus.Publish(ctx, r.instance, r.asset, sample); err != nil {
			r.logger.WarnContext(ctx, "equity bus publish failed", slog.String("error", err.Error()))
		}
	}
	if r.hub != nil {
		r.hub.Broadcast(sample)
	}

	return sample, nil
}

// Last returns the most recent sample recorded in this process.
func (r *Recorder) Last() (domain.EquitySample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.has
}

// discrepancySink adapts the Redis status cache to the engine's status hook
// for one stream.
type discrepancySink struct {
	cache    domain.StatusCache
	instance int
	asset    string
}

var _ engine.StatusSink = (*discrepancySink)(nil)

func (d *discrepancySink) SetDiscrepancy(ctx context.Context, discrepancy float64) error {
	return d.cache.SetDiscrepancy(ctx, d.instance, d.asset, discrepancy)
}
