package engine

import (
	"context"
	"sync"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

// Fakes compartidos por los tests del paquete.

type placedOrder struct {
	ItemID int64
	Price  float64
}

type fakeTrader struct {
	mu sync.Mutex

	open    domain.OpenOrders
	openErr error
	catalog []domain.CatalogPage

	txID   string
	buyErr error

	bought    []placedOrder
	listings  []placedOrder
	placed    []placedOrder
	cancelled []string
}

func (f *fakeTrader) FetchCatalogPage(ctx context.Context, filter ports.CatalogFilter, page int) (domain.CatalogPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page > len(f.catalog) {
		return domain.CatalogPage{}, nil
	}
	return f.catalog[page-1], nil
}

func (f *fakeTrader) FetchOpenOrders(ctx context.Context, limit int) (domain.OpenOrders, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return domain.OpenOrders{}, f.openErr
	}
	return f.open, nil
}

func (f *fakeTrader) InstantBuy(ctx context.Context, orderID string, price float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buyErr != nil {
		return "", f.buyErr
	}
	f.bought = append(f.bought, placedOrder{Price: price})
	return f.txID, nil
}

func (f *fakeTrader) ListForSale(ctx context.Context, transactionItemID string, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = append(f.listings, placedOrder{Price: price})
	return nil
}

func (f *fakeTrader) PlaceOrder(ctx context.Context, itemID int64, quantity int, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, placedOrder{ItemID: itemID, Price: price})
	return nil
}

func (f *fakeTrader) CancelOrder(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	decisions []domain.Decision
	bought    []domain.BuyRecord
	sold      []domain.SellRecord
	urgent    []string
}

func (f *fakeNotifier) Decision(ctx context.Context, d domain.Decision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, d)
	return nil
}

func (f *fakeNotifier) Bought(ctx context.Context, rec domain.BuyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bought = append(f.bought, rec)
	return nil
}

func (f *fakeNotifier) Sold(ctx context.Context, rec domain.SellRecord, profit float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sold = append(f.sold, rec)
	return nil
}

func (f *fakeNotifier) Urgent(ctx context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urgent = append(f.urgent, msg)
	return nil
}

type fakeStorage struct {
	mu    sync.Mutex
	buys  []domain.BuyRecord
	sells []domain.SellRecord
}

func (f *fakeStorage) SaveBuy(ctx context.Context, rec domain.BuyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buys = append(f.buys, rec)
	return nil
}

func (f *fakeStorage) MarkSold(ctx context.Context, itemID int64, soldAt time.Time) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.buys {
		if f.buys[i].ItemID == itemID && !f.buys[i].Sold {
			f.buys[i].Sold = true
			return f.buys[i].PriceBuy, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeStorage) SaveSell(ctx context.Context, rec domain.SellRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sells = append(f.sells, rec)
	return nil
}

func (f *fakeStorage) OpenCount(ctx context.Context, itemID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.buys {
		if b.ItemID == itemID && !b.Sold {
			n++
		}
	}
	return n, nil
}

func (f *fakeStorage) Buys(ctx context.Context, since time.Time) ([]domain.BuyRecord, error) {
	return f.buys, nil
}

func (f *fakeStorage) Sells(ctx context.Context, since time.Time) ([]domain.SellRecord, error) {
	return f.sells, nil
}

func (f *fakeStorage) Stats(ctx context.Context) (domain.TradeStats, error) {
	return domain.TradeStats{}, nil
}

func (f *fakeStorage) Close() error { return nil }
