package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

// TTLs de cada clase de dato. El historial de ventas cambia despacio,
// el libro de órdenes no.
const (
	historyTTL = 2 * time.Hour
	bookTTL    = time.Minute
	balanceTTL = 10 * time.Minute
)

type historyEntry struct {
	history   domain.SalesHistory
	fetchedAt time.Time
}

type bookEntry struct {
	book      domain.OrderBook
	fetchedAt time.Time
}

type balanceEntry struct {
	amount    float64
	fetchedAt time.Time
	known     bool
}

// Cache envuelve un ports.MarketData con caché por TTL. Las peticiones
// concurrentes por la misma clave se colapsan en una sola llamada HTTP
// vía singleflight, de forma que una ráfaga de eventos de precio sobre
// el mismo item no multiplica el tráfico.
type Cache struct {
	market ports.MarketData
	now    func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	histories map[int64]historyEntry
	books     map[int64]bookEntry
	balance   balanceEntry
}

// NewCache crea la caché sobre el cliente de mercado dado.
func NewCache(market ports.MarketData) *Cache {
	return &Cache{
		market:    market,
		now:       time.Now,
		histories: make(map[int64]historyEntry),
		books:     make(map[int64]bookEntry),
	}
}

// SalesHistory devuelve el historial de ventas del item, refrescándolo
// si el dato cacheado superó su TTL.
func (c *Cache) SalesHistory(ctx context.Context, itemID int64) (domain.SalesHistory, error) {
	c.mu.Lock()
	if e, ok := c.histories[itemID]; ok && c.now().Sub(e.fetchedAt) < historyTTL {
		c.mu.Unlock()
		return e.history, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("history:%d", itemID), func() (any, error) {
		h, err := c.market.FetchSalesHistory(ctx, itemID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.histories[itemID] = historyEntry{history: h, fetchedAt: c.now()}
		c.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return domain.SalesHistory{}, fmt.Errorf("pricing.SalesHistory: %w", err)
	}
	return v.(domain.SalesHistory), nil
}

// OrderBook devuelve el libro de órdenes del item.
func (c *Cache) OrderBook(ctx context.Context, itemID int64) (domain.OrderBook, error) {
	c.mu.Lock()
	if e, ok := c.books[itemID]; ok && c.now().Sub(e.fetchedAt) < bookTTL {
		c.mu.Unlock()
		return e.book, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("book:%d", itemID), func() (any, error) {
		b, err := c.market.FetchOrderBook(ctx, itemID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.books[itemID] = bookEntry{book: b, fetchedAt: c.now()}
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("pricing.OrderBook: %w", err)
	}
	return v.(domain.OrderBook), nil
}

// InvalidateBook descarta el libro cacheado de un item. Se llama al
// recibir un evento de precio, que implica que el libro cambió.
func (c *Cache) InvalidateBook(itemID int64) {
	c.mu.Lock()
	delete(c.books, itemID)
	c.mu.Unlock()
}

// Balance devuelve el saldo disponible. Si el refresco falla y hay un
// valor anterior, devuelve ese último valor conocido: un fallo puntual
// del endpoint de saldo no debe parar el ciclo de evaluación.
func (c *Cache) Balance(ctx context.Context) (float64, error) {
	c.mu.Lock()
	if c.balance.known && c.now().Sub(c.balance.fetchedAt) < balanceTTL {
		amount := c.balance.amount
		c.mu.Unlock()
		return amount, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("balance", func() (any, error) {
		amount, err := c.market.FetchBalance(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.balance = balanceEntry{amount: amount, fetchedAt: c.now(), known: true}
		c.mu.Unlock()
		return amount, nil
	})
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.balance.known {
			return c.balance.amount, nil
		}
		return 0, fmt.Errorf("pricing.Balance: %w", err)
	}
	return v.(float64), nil
}

// DebitBalance descuenta del saldo cacheado el importe de una compra
// recién ejecutada, sin esperar al próximo refresco.
func (c *Cache) DebitBalance(amount float64) {
	c.mu.Lock()
	if c.balance.known {
		c.balance.amount -= amount
	}
	c.mu.Unlock()
}
