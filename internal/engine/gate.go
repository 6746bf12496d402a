package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
	"github.com/TroExol/LDmarket/internal/pricing"
)

// bidStep is the minimum price increment for standing-order bids.
const bidStep = 0.01

// Candidate is one item under evaluation.
type Candidate struct {
	Item domain.Item
	Mode domain.Mode

	// OpenOrders is the account's unfinished standing orders, used in
	// Order mode to reject items we already bid on. SkipOrderID excludes
	// one order from that check so the repricing pass can re-evaluate
	// its own order.
	OpenOrders  []domain.StandingOrder
	SkipOrderID string
}

// PositionCounter reports how many recorded buys of an item are still
// unsold. The trade storage satisfies it.
type PositionCounter interface {
	OpenCount(ctx context.Context, itemID int64) (int, error)
}

// Gate runs the admission checks over a candidate, cheapest first. Each
// check short-circuits with a reject reason; only a candidate that
// clears all of them comes back accepted with its resulting price.
type Gate struct {
	settings  ports.SettingsSource
	cache     *pricing.Cache
	estimator *pricing.Estimator
	inventory ports.Inventory
	positions PositionCounter
	log       *slog.Logger
}

// NewGate builds the admission gate. positions may be nil, which skips
// the local open-position pre-check.
func NewGate(settings ports.SettingsSource, cache *pricing.Cache, estimator *pricing.Estimator, inventory ports.Inventory, positions PositionCounter, log *slog.Logger) *Gate {
	return &Gate{
		settings:  settings,
		cache:     cache,
		estimator: estimator,
		inventory: inventory,
		positions: positions,
		log:       log,
	}
}

// Evaluate decides whether the candidate is worth trading. A network
// failure on any required fetch rejects the candidate; it never
// propagates, so one broken item cannot sink a whole pass.
func (g *Gate) Evaluate(ctx context.Context, c Candidate) domain.Decision {
	s := g.settings.Current()
	item := c.Item

	if s.Blacklisted(item.Name) {
		return domain.Reject(item, c.Mode, domain.RejectBlacklisted, "")
	}

	if c.Mode == domain.ModeOrder {
		for _, o := range c.OpenOrders {
			if o.ItemID == item.ID && o.ID != c.SkipOrderID {
				return domain.Reject(item, c.Mode, domain.RejectAlreadyOrdered, o.ID)
			}
		}
	}

	fair, err := g.estimator.FairPrice(ctx, item.ID, s.DaysSells, s)
	if err != nil {
		if !errors.Is(err, pricing.ErrUnavailable) {
			g.log.Warn("fair price fetch failed", "item_id", item.ID, "error", err)
		}
		return domain.Reject(item, c.Mode, domain.RejectPriceUnavailable, err.Error())
	}

	// Buy pays the listed price; Order bids via the price ladder.
	price := item.Price
	var book domain.OrderBook
	bookLoaded := false
	if c.Mode == domain.ModeOrder {
		book, err = g.cache.OrderBook(ctx, item.ID)
		if err != nil {
			g.log.Warn("order book fetch failed", "item_id", item.ID, "error", err)
			return domain.Reject(item, c.Mode, domain.RejectPriceUnavailable, err.Error())
		}
		bookLoaded = true
		var ok bool
		price, ok = BidPrice(fair, book, s)
		if !ok {
			return domain.Reject(item, c.Mode, domain.RejectNoViableBid, "")
		}
	}

	minProfit := s.MinProfitFor(c.Mode, price)
	profit, ok := domain.ProfitPercent(price, fair, s.CommissionPct)
	if !ok || profit < minProfit {
		return domain.Reject(item, c.Mode, domain.RejectLowProfit,
			fmt.Sprintf("profit %.0f%% < min %.0f%%", profit, minProfit))
	}

	minCost, maxCost := s.MinCostBuy, s.MaxCostBuy
	if c.Mode == domain.ModeOrder {
		minCost, maxCost = s.MinCostOrder, s.MaxCostOrder
	}
	if price < minCost || price > maxCost {
		return domain.Reject(item, c.Mode, domain.RejectOutOfRange,
			fmt.Sprintf("price %.2f outside [%.2f, %.2f]", price, minCost, maxCost))
	}
	balance, err := g.cache.Balance(ctx)
	if err != nil {
		g.log.Warn("balance fetch failed", "error", err)
		return domain.Reject(item, c.Mode, domain.RejectOutOfRange, err.Error())
	}
	if price > balance {
		return domain.Reject(item, c.Mode, domain.RejectOutOfRange,
			fmt.Sprintf("price %.2f > balance %.2f", price, balance))
	}

	maxSame := s.MaxSameItemsToBuy
	if c.Mode == domain.ModeOrder {
		maxSame = s.MaxSameItemsToOrder
	}
	// Our own bookkeeping already knows about unsold buys; checking it
	// first saves the paginated inventory walk when we are clearly full.
	if g.positions != nil {
		open, err := g.positions.OpenCount(ctx, item.ID)
		if err != nil {
			g.log.Warn("open position count failed", "item_id", item.ID, "error", err)
		} else if open >= maxSame {
			return domain.Reject(item, c.Mode, domain.RejectOverExposed,
				fmt.Sprintf("%d open positions, max %d", open, maxSame))
		}
	}
	held, err := g.heldCount(ctx, item.ID)
	if err != nil {
		g.log.Warn("exposure count failed", "item_id", item.ID, "error", err)
		return domain.Reject(item, c.Mode, domain.RejectOverExposed, err.Error())
	}
	if held >= maxSame {
		return domain.Reject(item, c.Mode, domain.RejectOverExposed,
			fmt.Sprintf("%d already held, max %d", held, maxSame))
	}

	if s.MaxNotProfitOrders > 0 {
		if !bookLoaded {
			book, err = g.cache.OrderBook(ctx, item.ID)
			if err != nil {
				g.log.Warn("order book fetch failed", "item_id", item.ID, "error", err)
				return domain.Reject(item, c.Mode, domain.RejectSaturatedBook, err.Error())
			}
		}
		if n := notProfitCount(book, price, minProfit, s.CommissionPct); n > s.MaxNotProfitOrders {
			return domain.Reject(item, c.Mode, domain.RejectSaturatedBook,
				fmt.Sprintf("%d unprofitable offers, max %d", n, s.MaxNotProfitOrders))
		}
	}

	if c.Mode == domain.ModeBuy {
		// The resale listing goes up at the fair price.
		return domain.Accept(item, c.Mode, fair)
	}
	return domain.Accept(item, c.Mode, price)
}

// BidPrice computes the standing-order bid from the fair price and the
// current bids. With no competition the bid leaves room for commission
// plus margin under the fair price; otherwise it tries to top the best
// bids by one step, walking at most the top three and giving up at any
// bid with standing quantity of two or more.
func BidPrice(fair float64, book domain.OrderBook, s domain.Settings) (float64, bool) {
	if len(book.Buying) == 0 {
		minProfit := s.MinProfitFor(domain.ModeOrder, fair)
		price := fair * (1 - s.CommissionPct/100 - minProfit/100)
		return math.Floor(price*100) / 100, true
	}
	top := book.Buying
	if len(top) > 3 {
		top = top[:3]
	}
	for i, bid := range top {
		// A bid with standing quantity gets re-topped the moment we beat
		// it: past the best bid, that ends the walk before pricing the
		// rung at all.
		if i > 0 && bid.Count >= 2 {
			break
		}
		price := bid.Price + bidStep
		if p, ok := domain.ProfitPercent(price, fair, s.CommissionPct); ok && p >= s.MinProfitFor(domain.ModeOrder, price) {
			return price, true
		}
		if bid.Count >= 2 {
			break
		}
	}
	return 0, false
}

// notProfitCount sums the quantities of sell offers that would not be
// profitable to flip at the candidate price. An offer whose profit
// cannot be computed counts as not profitable.
func notProfitCount(book domain.OrderBook, price, minProfit, commissionPct float64) int {
	total := 0
	for _, offer := range book.Selling {
		p, ok := domain.ProfitPercent(price, offer.Price, commissionPct)
		if !ok || p < minProfit {
			total += offer.Count
		}
	}
	return total
}

// heldCount walks the paginated sell listings and inventory and counts
// how many copies of the item the account already holds.
func (g *Gate) heldCount(ctx context.Context, itemID int64) (int, error) {
	total := 0
	for _, fetch := range []func(context.Context, int) ([]int64, bool, error){
		g.inventory.FetchOnSaleItemIDs,
		g.inventory.FetchInventoryItemIDs,
	} {
		for page := 1; ; page++ {
			ids, hasNext, err := fetch(ctx, page)
			if err != nil {
				return 0, fmt.Errorf("engine.heldCount: %w", err)
			}
			for _, id := range ids {
				if id == itemID {
					total++
				}
			}
			if !hasNext {
				break
			}
		}
	}
	return total, nil
}
