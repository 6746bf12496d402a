package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/time/rate"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

// OrderManager runs the two standing-order passes: creating new orders
// from catalog scans and repricing the ones already open.
type OrderManager struct {
	gate     *Gate
	trader   ports.Trader
	notifier ports.Notifier
	settings ports.SettingsSource
	stall    *stallGuard
	log      *slog.Logger

	// pace spreads candidate evaluations one second apart, as courtesy
	// to the marketplace API.
	pace   *rate.Limiter
	dryRun bool
}

// NewOrderManager builds the standing-order manager.
func NewOrderManager(gate *Gate, trader ports.Trader, notifier ports.Notifier, settings ports.SettingsSource, stall *stallGuard, log *slog.Logger, dryRun bool) *OrderManager {
	return &OrderManager{
		gate:     gate,
		trader:   trader,
		notifier: notifier,
		settings: settings,
		stall:    stall,
		log:      log,
		pace:     rate.NewLimiter(rate.Limit(1), 1),
		dryRun:   dryRun,
	}
}

// CreatePass scans the catalog and places standing orders on items that
// clear the gate, until the account's open-order cap is reached. A
// failure fetching the top-level lists aborts the pass; the caller's
// ticker reschedules it regardless.
func (m *OrderManager) CreatePass(ctx context.Context) error {
	s := m.settings.Current()
	if !s.OrderEnabled {
		return nil
	}

	open, err := m.trader.FetchOpenOrders(ctx, s.MaxOrders)
	if err != nil {
		m.stall.observe(ctx, err)
		return fmt.Errorf("engine.CreatePass: fetch open orders: %w", err)
	}
	slots := s.MaxOrders - open.Count
	if slots <= 0 {
		return nil
	}

	filter := catalogBand(s)
	for page := 1; page <= s.MaxPages; page++ {
		cat, err := m.trader.FetchCatalogPage(ctx, filter, page)
		if err != nil {
			m.stall.observe(ctx, err)
			return fmt.Errorf("engine.CreatePass: fetch catalog page %d: %w", page, err)
		}
		for _, item := range cat.Items {
			if err := m.pace.Wait(ctx); err != nil {
				return err
			}
			decision := m.gate.Evaluate(ctx, Candidate{
				Item:       item,
				Mode:       domain.ModeOrder,
				OpenOrders: open.Orders,
			})
			if err := m.notifier.Decision(ctx, decision); err != nil {
				m.log.Warn("decision notify failed", "error", err)
			}
			if !decision.Accepted {
				continue
			}
			if m.dryRun {
				m.log.Info("dry run: would place order", "item", item.Name, "price", decision.Price)
				continue
			}
			if err := m.trader.PlaceOrder(ctx, item.ID, 1, decision.Price); err != nil {
				m.stall.observe(ctx, err)
				m.log.Warn("place order failed", "item", item.Name, "price", decision.Price, "error", err)
				continue
			}
			m.stall.clear()
			m.log.Info("order placed", "item", item.Name, "price", decision.Price)
			// Track it locally so the rest of the pass sees the item as
			// already ordered without refetching.
			open.Orders = append(open.Orders, domain.StandingOrder{
				ItemID: item.ID, ItemName: item.Name, Price: decision.Price,
			})
			slots--
			if slots <= 0 {
				return nil
			}
		}
		if !cat.HasNext {
			break
		}
	}
	return nil
}

// RepricePass re-evaluates every open standing order. Orders are
// cancelled when the mode is disabled or the item stopped being
// profitable, and cancel-and-replaced when the target bid moved.
func (m *OrderManager) RepricePass(ctx context.Context) error {
	s := m.settings.Current()

	open, err := m.trader.FetchOpenOrders(ctx, 0)
	if err != nil {
		m.stall.observe(ctx, err)
		return fmt.Errorf("engine.RepricePass: fetch open orders: %w", err)
	}

	for _, order := range open.Orders {
		if err := m.pace.Wait(ctx); err != nil {
			return err
		}
		if !s.OrderEnabled {
			m.cancel(ctx, order, "order mode disabled")
			continue
		}

		item := domain.Item{ID: order.ItemID, Name: order.ItemName, Popularity: order.Popularity}
		decision := m.gate.Evaluate(ctx, Candidate{
			Item:        item,
			Mode:        domain.ModeOrder,
			OpenOrders:  open.Orders,
			SkipOrderID: order.ID,
		})

		// Our own bid is part of the book. When we already lead, the
		// ladder's target lands one step above our price: nothing to do.
		if decision.Accepted && (priceEq(decision.Price, order.Price) || priceEq(decision.Price, order.Price+bidStep)) {
			continue
		}

		if !decision.Accepted {
			m.cancel(ctx, order, string(decision.Reason))
			continue
		}
		if m.dryRun {
			m.log.Info("dry run: would reprice", "item", order.ItemName, "from", order.Price, "to", decision.Price)
			continue
		}
		if !m.cancel(ctx, order, "repricing") {
			continue
		}
		if err := m.trader.PlaceOrder(ctx, order.ItemID, 1, decision.Price); err != nil {
			m.stall.observe(ctx, err)
			m.log.Warn("replace order failed", "item", order.ItemName, "price", decision.Price, "error", err)
			continue
		}
		m.stall.clear()
		m.log.Info("order repriced", "item", order.ItemName, "from", order.Price, "to", decision.Price)
	}
	return nil
}

func (m *OrderManager) cancel(ctx context.Context, order domain.StandingOrder, why string) bool {
	if m.dryRun {
		m.log.Info("dry run: would cancel order", "item", order.ItemName, "reason", why)
		return false
	}
	if err := m.trader.CancelOrder(ctx, order.ID); err != nil {
		m.stall.observe(ctx, err)
		m.log.Warn("cancel order failed", "item", order.ItemName, "error", err)
		return false
	}
	m.stall.clear()
	m.log.Info("order cancelled", "item", order.ItemName, "reason", why)
	return true
}

// catalogBand derives the catalog price filter from the order cost
// bounds. Both bounds shift up past the cost range because the bid
// lands below the listed price by commission plus margin.
func catalogBand(s domain.Settings) ports.CatalogFilter {
	return ports.CatalogFilter{
		PriceMin: math.Floor(listedFor(s.MinCostOrder, s)),
		PriceMax: math.Ceil(listedFor(s.MaxCostOrder, s)),
		OnSale:   true,
	}
}

// listedFor translates an order cost into the listed price whose bid
// would land at that cost.
func listedFor(cost float64, s domain.Settings) float64 {
	margin := (s.CommissionPct + s.MinProfitFor(domain.ModeOrder, cost)) / 100
	if margin >= 1 {
		return cost
	}
	return cost / (1 - margin)
}

func priceEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
