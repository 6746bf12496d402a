package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

// Bookkeeper turns marketplace notifications into trade history rows.
// Buys and sells are recorded from the marketplace's own notifications
// rather than from our submissions, so fills that happen while the
// agent is down are still accounted for on the next pass.
type Bookkeeper struct {
	source   ports.Notifications
	storage  ports.TradeStorage
	notifier ports.Notifier
	settings ports.SettingsSource
	log      *slog.Logger
}

// NewBookkeeper builds the notification bookkeeper.
func NewBookkeeper(source ports.Notifications, storage ports.TradeStorage, notifier ports.Notifier, settings ports.SettingsSource, log *slog.Logger) *Bookkeeper {
	return &Bookkeeper{
		source:   source,
		storage:  storage,
		notifier: notifier,
		settings: settings,
		log:      log,
	}
}

// Pass fetches pending notifications, records them and acknowledges the
// batch. Notifications arrive newest first; they are applied oldest
// first so a buy lands before the sale that closes it.
func (b *Bookkeeper) Pass(ctx context.Context) error {
	pending, err := b.source.FetchNotifications(ctx)
	if err != nil {
		return fmt.Errorf("engine.Bookkeeper: fetch notifications: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	for i := len(pending) - 1; i >= 0; i-- {
		b.apply(ctx, pending[i])
	}

	if err := b.source.AckNotifications(ctx, pending[0].ID); err != nil {
		return fmt.Errorf("engine.Bookkeeper: ack notifications: %w", err)
	}
	return nil
}

func (b *Bookkeeper) apply(ctx context.Context, n domain.MarketNotification) {
	switch n.Kind {
	case domain.NotificationBought:
		b.applyBuy(ctx, n)
	case domain.NotificationSold:
		b.applySell(ctx, n)
	default:
		b.log.Debug("notification ignored", "kind", n.Kind, "item", n.ItemName)
	}
}

func (b *Bookkeeper) applyBuy(ctx context.Context, n domain.MarketNotification) {
	rec := domain.BuyRecord{
		ID:       uuid.New().String(),
		ItemID:   n.ItemID,
		ItemName: n.ItemName,
		BoughtAt: n.At,
		PriceBuy: n.Price,
	}
	if err := b.storage.SaveBuy(ctx, rec); err != nil {
		b.log.Error("save buy failed", "item", n.ItemName, "error", err)
		return
	}
	if err := b.notifier.Bought(ctx, rec); err != nil {
		b.log.Warn("buy notify failed", "error", err)
	}
}

func (b *Bookkeeper) applySell(ctx context.Context, n domain.MarketNotification) {
	s := b.settings.Current()

	// The notification carries the net credit; recover the gross
	// listing price by undoing the commission.
	gross := n.Price
	if s.CommissionPct < 100 {
		gross = n.Price / (1 - s.CommissionPct/100)
	}

	priceBuy, matched, err := b.storage.MarkSold(ctx, n.ItemID, n.At)
	if err != nil {
		b.log.Error("mark sold failed", "item", n.ItemName, "error", err)
		return
	}
	if !matched {
		// Sold something we never recorded buying; keep the sell row
		// anyway so revenue totals stay honest.
		b.log.Warn("sale without matching buy", "item", n.ItemName)
	}

	rec := domain.SellRecord{
		ID:        uuid.New().String(),
		ItemID:    n.ItemID,
		ItemName:  n.ItemName,
		SoldAt:    n.At,
		PriceBuy:  priceBuy,
		PriceSell: gross,
	}
	if err := b.storage.SaveSell(ctx, rec); err != nil {
		b.log.Error("save sell failed", "item", n.ItemName, "error", err)
		return
	}
	if err := b.notifier.Sold(ctx, rec, rec.Profit(s.CommissionPct)); err != nil {
		b.log.Warn("sell notify failed", "error", err)
	}
}
