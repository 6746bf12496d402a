package lootdog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "sessionid=abc", "csrf-token"), srv
}

func TestFetchSalesHistory(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/42/average_price_stats/", r.URL.Path)
		assert.Equal(t, "RUB", r.URL.Query().Get("currency"))
		w.Write([]byte(`{
			"by_all_time": [{"point": 1700000000, "count_sales": 2, "price": 90.5}],
			"by_week": [{"point": 1717000000, "count_sales": 3, "price": 100}]
		}`))
	}))
	defer srv.Close()

	h, err := client.FetchSalesHistory(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, h.ByAllTime, 1)
	assert.Equal(t, 90.5, h.ByAllTime[0].Price)
	assert.Equal(t, int64(1700000000), h.ByAllTime[0].Point.Unix())
	require.Len(t, h.ByWeek, 1)
	assert.Equal(t, 3, h.ByWeek[0].CountSales)
	assert.Empty(t, h.ByMonth)
}

func TestFetchOrderBook(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/42/depth_of_market_stats/", r.URL.Path)
		w.Write([]byte(`{
			"selling": [{"number": 3, "percent": 40, "price": {"currency": "RUB", "amount": 120.5}}],
			"buying": [{"number": 1, "percent": 60, "price": {"currency": "RUB", "amount": 80}}]
		}`))
	}))
	defer srv.Close()

	book, err := client.FetchOrderBook(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, book.Selling, 1)
	assert.Equal(t, domain.BookEntry{Count: 3, Price: 120.5}, book.Selling[0])
	require.Len(t, book.Buying, 1)
	assert.Equal(t, domain.BookEntry{Count: 1, Price: 80}, book.Buying[0])
}

func TestFetchBalance(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/current_user/", r.URL.Path)
		assert.Equal(t, "sessionid=abc", r.Header.Get("Cookie"))
		w.Write([]byte(`{"balance": {"currency": "RUB", "amount": 1234.56}}`))
	}))
	defer srv.Close()

	balance, err := client.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1234.56, balance)
}

func TestInstantBuySendsForm(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/instant_buy/", r.URL.Path)
		assert.Equal(t, "csrf-token", r.Header.Get("X-CSRFToken"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "best-1", r.PostForm.Get("order"))
		assert.Equal(t, "70.00", r.PostForm.Get("buy_price"))
		assert.Equal(t, "false", r.PostForm.Get("is_gift"))
		w.Write([]byte(`{"transaction": {"item": {"id": 98765}}}`))
	}))
	defer srv.Close()

	txID, err := client.InstantBuy(context.Background(), "best-1", 70)
	require.NoError(t, err)
	assert.Equal(t, "98765", txID)
}

func TestSecondFactorDetection(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code": "SecondFactorNeeded", "detail": "confirm via phone"}`))
	}))
	defer srv.Close()

	_, err := client.InstantBuy(context.Background(), "best-1", 70)
	require.ErrorIs(t, err, ports.ErrSecondFactor)
}

func TestPlainForbiddenIsNotSecondFactor(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code": "PermissionDenied"}`))
	}))
	defer srv.Close()

	_, err := client.FetchBalance(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSecondFactor)
}

func TestRetryOnServerError(t *testing.T) {
	calls := 0
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"balance": {"amount": 10}}`))
	}))
	defer srv.Close()

	balance, err := client.FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, balance)
	assert.Equal(t, 2, calls)
}

func TestFetchCatalogPage(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "popular", q.Get("sorting"))
		assert.Equal(t, "1", q.Get("on_sale"))
		assert.Equal(t, "10.00", q.Get("price_min"))
		assert.Equal(t, "500.00", q.Get("price_max"))
		assert.Equal(t, "2", q.Get("page"))
		w.Write([]byte(`{
			"next": "https://example.test/api/products?page=3",
			"results": [{"id": 42, "name": "Ancient Relic", "popularity": 9, "price": {"amount": 99.9}}]
		}`))
	}))
	defer srv.Close()

	page, err := client.FetchCatalogPage(context.Background(), ports.CatalogFilter{
		PriceMin: 10, PriceMax: 500, OnSale: true,
	}, 2)
	require.NoError(t, err)
	assert.True(t, page.HasNext)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.Item{ID: 42, Name: "Ancient Relic", Popularity: 9, Price: 99.9}, page.Items[0])
}

func TestFetchOpenOrders(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/buybooks/", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("is_finished"))
		w.Write([]byte(`{
			"next": null,
			"count": 1,
			"results": [{
				"id": "ord-1", "product_id": 42,
				"product": {"id": 42, "name": "Ancient Relic", "popularity": 5},
				"price": {"amount": 60.5}
			}]
		}`))
	}))
	defer srv.Close()

	open, err := client.FetchOpenOrders(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, open.Count)
	require.Len(t, open.Orders, 1)
	assert.Equal(t, domain.StandingOrder{
		ID: "ord-1", ItemID: 42, ItemName: "Ancient Relic", Popularity: 5, Price: 60.5,
	}, open.Orders[0])
}

func TestFetchNotifications(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications/", r.URL.Path)
		w.Write([]byte(`{
			"results": [{
				"id": "n-1", "kind": "ocompleted",
				"added": {"date": "2025-06-01T12:00:00Z"},
				"params": {
					"product": {"id": 42, "name": "Ancient Relic"},
					"price_caption": {"amount": 70}
				}
			}]
		}`))
	}))
	defer srv.Close()

	got, err := client.FetchNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.NotificationBought, got[0].Kind)
	assert.Equal(t, int64(42), got[0].ItemID)
	assert.Equal(t, 70.0, got[0].Price)
	assert.Equal(t, 2025, got[0].At.Year())
}

func TestFetchItemNameCached(t *testing.T) {
	calls := 0
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"id": 42, "name": "Ancient Relic", "popularity": 7}`))
	}))
	defer srv.Close()

	for i := 0; i < 3; i++ {
		name, err := client.FetchItemName(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "Ancient Relic", name)
	}
	assert.Equal(t, 1, calls, "el nombre se cachea sin expiración")
}
