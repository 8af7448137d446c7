package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/hedgebot/internal/blob/s3"
	"github.com/alanyoungcy/hedgebot/internal/domain"
	"github.com/alanyoungcy/hedgebot/internal/engine"
	"github.com/alanyoungcy/hedgebot/internal/ledger"
	"github.com/alanyoungcy/hedgebot/internal/scheduler"
	"github.com/alanyoungcy/hedgebot/internal/server"
	"github.com/alanyoungcy/hedgebot/internal/server/handler"
	"github.com/alanyoungcy/hedgebot/internal/server/ws"
	"github.com/alanyoungcy/hedgebot/internal/venue/binance"
	"github.com/alanyoungcy/hedgebot/internal/venue/dydx"
)

// TradeMode runs the live trading loop: the spot and hedge venue adapters,
// the decision engine driven by the scheduler's evaluate and hedge tasks, the
// equity ledger with its mirrors, the optional archiver, and the monitoring
// server.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	return a.runEngine(ctx, deps, false)
}

// MonitorMode runs the same loop with order submission disabled: every
// decision is computed and logged, nothing reaches the venues' order
// endpoints. Equity samples still flow to the ledger and mirrors.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	return a.runEngine(ctx, deps, true)
}

func (a *App) runEngine(ctx context.Context, deps *Dependencies, dryRun bool) error {
	a.logger.InfoContext(ctx, "starting engine",
		slog.String("mode", a.cfg.Mode),
		slog.Bool("dry_run", dryRun),
		slog.String("asset", a.cfg.Spot.BaseAsset),
		slog.Int("instance", a.cfg.Engine.Instance),
	)

	g, ctx := errgroup.WithContext(ctx)

	// Venue adapters.
	spot := binance.New(binance.Config{
		BaseURL:         a.cfg.Spot.BaseURL,
		APIKey:          a.cfg.Spot.APIKey,
		APISecret:       a.cfg.Spot.APISecret,
		Symbol:          a.cfg.Spot.Symbol,
		BaseAsset:       a.cfg.Spot.BaseAsset,
		QuoteAsset:      a.cfg.Spot.QuoteAsset,
		Precision:       a.cfg.Spot.Precision,
		PostCallDelay:   a.cfg.Spot.PostCallDelay.Duration,
		ReserveBase:     a.cfg.Spot.ReserveBase,
		ReservePerEntry: a.cfg.Spot.ReservePerEntry,
		ReservePerOrder: a.cfg.Spot.ReservePerOrder,
	}, a.logger)

	hedge, err := dydx.New(ctx, dydx.Config{
		BaseURL:       a.cfg.Hedge.BaseURL,
		APIKey:        a.cfg.Hedge.APIKey,
		APISecret:     a.cfg.Hedge.APISecret,
		Passphrase:    a.cfg.Hedge.Passphrase,
		Market:        a.cfg.Hedge.Market,
		LimitFee:      a.cfg.Hedge.LimitFee,
		OrderExpiry:   a.cfg.Hedge.OrderExpiry.Duration,
		PostCallDelay: a.cfg.Hedge.PostCallDelay.Duration,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("app: hedge venue: %w", err)
	}

	// Equity ledger and recorder.
	led, err := ledger.Open(a.cfg.Ledger.Dir, a.cfg.Engine.Instance, a.cfg.Spot.BaseAsset, a.logger)
	if err != nil {
		return fmt.Errorf("app: open ledger: %w", err)
	}
	a.closers = append(a.closers, func() { _ = led.Close() })

	recorder := NewRecorder(led, a.cfg.Engine.Instance, a.cfg.Spot.BaseAsset, a.logger)
	if deps.EquityStore != nil {
		recorder.WithStore(deps.EquityStore)
	}
	if deps.StatusCache != nil {
		recorder.WithStatusCache(deps.StatusCache)
	}
	if deps.EquityBus != nil {
		recorder.WithBus(deps.EquityBus)
	}

	var hub *ws.Hub
	if a.cfg.Server.Enabled {
		hub = ws.NewHub(a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
		// With Redis the hub is fed from the equity stream, which also carries
		// samples appended by other instances. Without it, feed it directly.
		if deps.EquityBus != nil {
			g.Go(func() error {
				return deps.EquityBus.Subscribe(ctx, hub.Broadcast)
			})
		} else {
			recorder.WithHub(hub)
		}
	}

	var status engine.StatusSink
	if deps.StatusCache != nil {
		status = &discrepancySink{
			cache:    deps.StatusCache,
			instance: a.cfg.Engine.Instance,
			asset:    a.cfg.Spot.BaseAsset,
		}
	}

	eng := engine.New(spot, hedge, engine.Config{
		Asset:     a.cfg.Spot.BaseAsset,
		OrderKind: domain.OrderKind(strings.ToLower(a.cfg.Engine.OrderKind)),
		Thresholds: engine.Thresholds{
			Buy:  a.cfg.Engine.BuySpread,
			Sell: a.cfg.Engine.SellSpread,
		},
		ExtraMargin:   a.cfg.Engine.ExtraMargin,
		AccountRatio:  a.cfg.Engine.AccountRatio,
		Haircut:       a.cfg.Engine.Haircut,
		NotionalPad:   a.cfg.Engine.NotionalPad,
		MaxSlippage:   a.cfg.Engine.MaxSlippage,
		SettleDelay:   a.cfg.Engine.SettleDelay.Duration,
		VolumeCeiling: a.cfg.Engine.VolumeCeiling,
		DryRun:        dryRun,
	}, recorder, status, a.logger).WithAlerts(deps.Notifier)

	// Scheduler: the evaluate task places and replaces spot orders, the hedge
	// task rebalances the perp position and watches the volume halt.
	sched := scheduler.New(a.logger)
	sched.Add(scheduler.Task{
		Name:     "evaluate",
		Interval: a.cfg.Engine.EvalInterval.Duration,
		Run:      eng.EvaluateTick,
	})
	sched.Add(scheduler.Task{
		Name:     "hedge",
		Interval: a.cfg.Engine.HedgeInterval.Duration,
		Run:      a.watchHalt(eng, hedge, deps),
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})

	// Ledger archival to object storage.
	if deps.BlobWriter != nil {
		arch := s3blob.NewArchiver(
			deps.BlobWriter,
			led.Path(),
			a.cfg.Engine.Instance,
			a.cfg.Spot.BaseAsset,
			a.cfg.Ledger.ArchiveInterval.Duration,
			a.logger,
		)
		g.Go(func() error {
			return arch.RunLoop(ctx)
		})
	}

	// Monitoring server.
	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, eng, sched, recorder, hub)
	}

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		_ = deps.Notifier.Error(context.WithoutCancel(ctx), "engine stopped", err)
	}
	return err
}

// watchHalt wraps the hedge tick and sends a notification when the
// trailing-volume halt flips on.
func (a *App) watchHalt(eng *engine.Engine, hedge domain.HedgeVenue, deps *Dependencies) func(ctx context.Context) error {
	var mu sync.Mutex
	var wasHalted bool

	return func(ctx context.Context) error {
		err := eng.HedgeTick(ctx)

		halted := eng.Halted()
		mu.Lock()
		transitioned := halted && !wasHalted
		wasHalted = halted
		mu.Unlock()

		if transitioned {
			vol, volErr := hedge.TrailingVolume(ctx)
			if volErr != nil {
				vol = 0
			}
			if notifyErr := deps.Notifier.Halted(ctx, a.cfg.Spot.BaseAsset, vol, a.cfg.Engine.VolumeCeiling); notifyErr != nil {
				a.logger.WarnContext(ctx, "halt notification failed", slog.String("error", notifyErr.Error()))
			}
		}
		return err
	}
}

// startServer builds the monitoring surface and manages its lifecycle inside
// the errgroup: Start blocks in one goroutine, a second one shuts the server
// down when the group's context is cancelled.
func (a *App) startServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	eng *engine.Engine,
	sched *scheduler.Scheduler,
	recorder *Recorder,
	hub *ws.Hub,
) {
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(
			a.cfg.Mode,
			a.cfg.Engine.Instance,
			a.cfg.Spot.BaseAsset,
			eng,
			eng.Lifecycle(),
			sched,
			recorder,
		),
	}
	if deps.EquityStore != nil {
		handlers.Equity = handler.NewEquityHandler(
			deps.EquityStore,
			a.cfg.Engine.Instance,
			a.cfg.Spot.BaseAsset,
			a.logger,
		)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
