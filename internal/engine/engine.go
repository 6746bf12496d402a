package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
	"github.com/TroExol/LDmarket/internal/pricing"
)

// stallGuard escalates a second-factor lockout exactly once. Every
// trading action reports its errors here; the first second-factor error
// after a successful action fires the urgent notification, repeats stay
// quiet until an action succeeds again.
type stallGuard struct {
	notifier ports.Notifier
	log      *slog.Logger

	mu      sync.Mutex
	stalled bool
}

func newStallGuard(notifier ports.Notifier, log *slog.Logger) *stallGuard {
	return &stallGuard{notifier: notifier, log: log}
}

func (g *stallGuard) observe(ctx context.Context, err error) {
	if !errors.Is(err, ports.ErrSecondFactor) {
		return
	}
	g.mu.Lock()
	alreadyStalled := g.stalled
	g.stalled = true
	g.mu.Unlock()
	if alreadyStalled {
		return
	}
	g.log.Error("second factor required, trading stalled")
	if nerr := g.notifier.Urgent(ctx, "second factor required: trading is stalled until you re-authenticate"); nerr != nil {
		g.log.Error("urgent notify failed", "error", nerr)
	}
}

func (g *stallGuard) clear() {
	g.mu.Lock()
	g.stalled = false
	g.mu.Unlock()
}

// Options holds the engine loop intervals and run flags.
type Options struct {
	CreateInterval   time.Duration
	RepriceInterval  time.Duration
	BookkeepInterval time.Duration
	DryRun           bool
}

// Engine wires the event loop and the periodic passes together and runs
// them under one context.
type Engine struct {
	buyer      *Buyer
	orders     *OrderManager
	bookkeeper *Bookkeeper
	feed       ports.PriceFeed
	log        *slog.Logger
	opts       Options
}

// New assembles the trading engine from its collaborators.
func New(gate *Gate, trader ports.Trader, market ports.MarketData, cache *pricing.Cache, feed ports.PriceFeed, notifications ports.Notifications, storage ports.TradeStorage, notifier ports.Notifier, settings ports.SettingsSource, log *slog.Logger, opts Options) *Engine {
	stall := newStallGuard(notifier, log)
	return &Engine{
		buyer:      NewBuyer(gate, trader, market, cache, notifier, settings, stall, log.With("loop", "buy"), opts.DryRun),
		orders:     NewOrderManager(gate, trader, notifier, settings, stall, log.With("loop", "orders"), opts.DryRun),
		bookkeeper: NewBookkeeper(notifications, storage, notifier, settings, log.With("loop", "bookkeeping")),
		feed:       feed,
		log:        log,
		opts:       opts,
	}
}

// Run starts the price feed, the buy handler and the periodic passes,
// and blocks until the context is cancelled. A failed pass is logged
// and the ticker keeps going; nothing short of cancellation stops a
// loop.
func (e *Engine) Run(ctx context.Context) error {
	events := make(chan domain.PriceEvent, 64)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.feed.Run(ctx, events); err != nil && ctx.Err() == nil {
			e.log.Error("price feed stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.buyer.Run(ctx, events)
	}()

	e.runLoop(ctx, &wg, "order-create", e.opts.CreateInterval, e.orders.CreatePass)
	e.runLoop(ctx, &wg, "order-reprice", e.opts.RepriceInterval, e.orders.RepricePass)
	e.runLoop(ctx, &wg, "bookkeeping", e.opts.BookkeepInterval, e.bookkeeper.Pass)

	wg.Wait()
	return ctx.Err()
}

// runLoop runs pass immediately and then on every tick. Pass errors are
// logged and swallowed so one bad cycle never kills the loop.
func (e *Engine) runLoop(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, pass func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if err := pass(ctx); err != nil && ctx.Err() == nil {
			e.log.Error("pass failed", "loop", name, "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := pass(ctx); err != nil && ctx.Err() == nil {
					e.log.Error("pass failed", "loop", name, "error", err)
				}
			}
		}
	}()
}
