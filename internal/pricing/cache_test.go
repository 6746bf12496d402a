package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TroExol/LDmarket/internal/domain"
)

type fakeMarket struct {
	mu           sync.Mutex
	historyCalls int
	bookCalls    int
	balanceCalls int

	history    domain.SalesHistory
	book       domain.OrderBook
	balance    float64
	balanceErr error
}

func (f *fakeMarket) FetchSalesHistory(ctx context.Context, itemID int64) (domain.SalesHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return f.history, nil
}

func (f *fakeMarket) FetchOrderBook(ctx context.Context, itemID int64) (domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls++
	return f.book, nil
}

func (f *fakeMarket) FetchBalance(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeMarket) FetchItemName(ctx context.Context, itemID int64) (string, error) {
	return "", nil
}

// fixedClock permite avanzar el tiempo a mano en los tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(market *fakeMarket) (*Cache, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(market)
	c.now = clock.Now
	return c, clock
}

func TestCacheSalesHistoryTTL(t *testing.T) {
	market := &fakeMarket{history: domain.SalesHistory{
		ByWeek: []domain.SalesPoint{{Price: 10, CountSales: 3}},
	}}
	cache, clock := newTestCache(market)
	ctx := context.Background()

	_, err := cache.SalesHistory(ctx, 42)
	require.NoError(t, err)
	_, err = cache.SalesHistory(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, market.historyCalls, "segunda lectura debe servirse de caché")

	clock.Advance(2*time.Hour + time.Second)
	_, err = cache.SalesHistory(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, market.historyCalls, "tras el TTL debe refrescar")
}

func TestCacheOrderBookInvalidate(t *testing.T) {
	market := &fakeMarket{book: domain.OrderBook{
		Buying: []domain.BookEntry{{Count: 1, Price: 5}},
	}}
	cache, _ := newTestCache(market)
	ctx := context.Background()

	_, err := cache.OrderBook(ctx, 7)
	require.NoError(t, err)
	_, err = cache.OrderBook(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, market.bookCalls)

	cache.InvalidateBook(7)
	_, err = cache.OrderBook(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, market.bookCalls, "la invalidación fuerza un refresco")
}

func TestCacheBalanceFallback(t *testing.T) {
	market := &fakeMarket{balance: 250}
	cache, clock := newTestCache(market)
	ctx := context.Background()

	got, err := cache.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got)

	// El refresco falla pero queda el último valor conocido.
	market.mu.Lock()
	market.balanceErr = errors.New("boom")
	market.mu.Unlock()
	clock.Advance(11 * time.Minute)

	got, err = cache.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got)
}

func TestCacheBalanceErrorWithoutFallback(t *testing.T) {
	market := &fakeMarket{balanceErr: errors.New("boom")}
	cache, _ := newTestCache(market)

	_, err := cache.Balance(context.Background())
	require.Error(t, err)
}

func TestCacheDebitBalance(t *testing.T) {
	market := &fakeMarket{balance: 100}
	cache, _ := newTestCache(market)
	ctx := context.Background()

	_, err := cache.Balance(ctx)
	require.NoError(t, err)

	cache.DebitBalance(30)
	got, err := cache.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 70.0, got)
	assert.Equal(t, 1, market.balanceCalls, "el débito no debe disparar un refresco")
}
