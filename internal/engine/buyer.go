package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
	"github.com/TroExol/LDmarket/internal/pricing"
)

// resellDelay is how long to wait after an instant buy before listing
// the item back for sale. The marketplace needs a moment to settle the
// transaction into the inventory.
const resellDelay = 5 * time.Second

// Buyer reacts to price-change events: when a listing drops below the
// fair price by enough margin, it buys instantly and relists at the
// fair price after a short delay.
type Buyer struct {
	gate     *Gate
	trader   ports.Trader
	market   ports.MarketData
	cache    *pricing.Cache
	notifier ports.Notifier
	settings ports.SettingsSource
	stall    *stallGuard
	log      *slog.Logger

	delay  time.Duration
	dryRun bool
}

// NewBuyer builds the instant buy-resell handler.
func NewBuyer(gate *Gate, trader ports.Trader, market ports.MarketData, cache *pricing.Cache, notifier ports.Notifier, settings ports.SettingsSource, stall *stallGuard, log *slog.Logger, dryRun bool) *Buyer {
	return &Buyer{
		gate:     gate,
		trader:   trader,
		market:   market,
		cache:    cache,
		notifier: notifier,
		settings: settings,
		stall:    stall,
		log:      log,
		delay:    resellDelay,
		dryRun:   dryRun,
	}
}

// Run consumes price events until the context is cancelled. Each event
// is handled in isolation; a failed buy is reported and dropped, never
// retried.
func (b *Buyer) Run(ctx context.Context, events <-chan domain.PriceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			b.handle(ctx, ev)
		}
	}
}

func (b *Buyer) handle(ctx context.Context, ev domain.PriceEvent) {
	if !b.settings.Current().BuyEnabled {
		return
	}
	if ev.BestOrderID == "" {
		return
	}

	// The event means the book moved; drop the stale snapshot.
	b.cache.InvalidateBook(ev.ItemID)

	name, err := b.market.FetchItemName(ctx, ev.ItemID)
	if err != nil {
		b.log.Warn("item name fetch failed", "item_id", ev.ItemID, "error", err)
		return
	}

	item := domain.Item{ID: ev.ItemID, Name: name, Price: ev.Price, BestOrderID: ev.BestOrderID}
	decision := b.gate.Evaluate(ctx, Candidate{Item: item, Mode: domain.ModeBuy})
	if err := b.notifier.Decision(ctx, decision); err != nil {
		b.log.Warn("decision notify failed", "error", err)
	}
	if !decision.Accepted {
		return
	}

	if b.dryRun {
		b.log.Info("dry run: would buy", "item", item.Name, "price", item.Price, "resell", decision.Price)
		return
	}

	transactionItemID, err := b.trader.InstantBuy(ctx, item.BestOrderID, item.Price)
	if err != nil {
		b.stall.observe(ctx, err)
		b.log.Warn("instant buy failed", "item", item.Name, "price", item.Price, "error", err)
		return
	}
	b.stall.clear()
	b.cache.DebitBalance(item.Price)
	b.log.Info("bought", "item", item.Name, "price", item.Price, "resell", decision.Price)

	b.scheduleResell(ctx, item, transactionItemID, decision.Price)
}

// scheduleResell lists the bought item at the fair price after the
// settle delay. It runs in its own goroutine so the event loop keeps
// draining the feed.
func (b *Buyer) scheduleResell(ctx context.Context, item domain.Item, transactionItemID string, price float64) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.delay):
		}
		if err := b.trader.ListForSale(ctx, transactionItemID, price); err != nil {
			b.stall.observe(ctx, err)
			b.log.Warn("sell listing failed", "item", item.Name, "price", price, "error", err)
			return
		}
		b.stall.clear()
		b.log.Info("listed for sale", "item", item.Name, "price", price)
	}()
}
