package lootdog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TroExol/LDmarket/internal/domain"
)

var upgrader = websocket.Upgrader{}

// centrifugoStub completa el handshake connect/subscribe, emite un cambio
// de precio y cierra.
func centrifugoStub(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil || cmd.Method != "connect" {
			return
		}
		if err := conn.WriteJSON(map[string]any{"method": "connect", "body": map[string]any{}}); err != nil {
			return
		}
		if err := conn.ReadJSON(&cmd); err != nil || cmd.Method != "subscribe" {
			return
		}
		conn.WriteJSON(map[string]any{
			"method": "message",
			"body": map[string]any{
				"data": map[string]any{
					"type":          "product_price_changed",
					"product":       42,
					"best_order_id": "ord-1",
					"price":         map[string]any{"RU": map[string]any{"RUB": map[string]any{"amount": 70.5}}},
				},
			},
		})
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListenSubscribesAndDelivers(t *testing.T) {
	srv := httptest.NewServer(centrifugoStub(t))
	defer srv.Close()

	f := NewFeed(wsURL(srv), "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	events := make(chan domain.PriceEvent, 4)

	subscribed, err := f.listen(context.Background(), events)
	assert.True(t, subscribed, "la sesión llegó a suscribirse: el backoff debe resetear")
	assert.Error(t, err, "el cierre del servidor rompe la lectura")

	select {
	case ev := <-events:
		assert.Equal(t, int64(42), ev.ItemID)
		assert.Equal(t, "ord-1", ev.BestOrderID)
		assert.InDelta(t, 70.5, ev.Price, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("no price event delivered")
	}
}

func TestListenNotSubscribedOnEarlyClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	f := NewFeed(wsURL(srv), "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	events := make(chan domain.PriceEvent, 1)

	subscribed, err := f.listen(context.Background(), events)
	assert.False(t, subscribed)
	require.Error(t, err)
}
