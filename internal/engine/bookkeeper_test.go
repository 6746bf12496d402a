package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TroExol/LDmarket/internal/domain"
)

type fakeNotifications struct {
	mu      sync.Mutex
	pending []domain.MarketNotification
	acked   []string
}

func (f *fakeNotifications) FetchNotifications(ctx context.Context) ([]domain.MarketNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeNotifications) AckNotifications(ctx context.Context, newestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, newestID)
	f.pending = nil
	return nil
}

func newTestBookkeeper(source *fakeNotifications, storage *fakeStorage, notifier *fakeNotifier) *Bookkeeper {
	s := gateSettings()
	return NewBookkeeper(source, storage, notifier, &fakeSettings{s: s}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBookkeeperRecordsBuyThenSell(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeNotifications{pending: []domain.MarketNotification{
		// Más reciente primero: la venta llegó después de la compra.
		{ID: "n-2", Kind: domain.NotificationSold, ItemID: 42, ItemName: "Ancient Relic", Price: 85, At: at.Add(time.Hour)},
		{ID: "n-1", Kind: domain.NotificationBought, ItemID: 42, ItemName: "Ancient Relic", Price: 70, At: at},
	}}
	storage := &fakeStorage{}
	notifier := &fakeNotifier{}
	bk := newTestBookkeeper(source, storage, notifier)

	require.NoError(t, bk.Pass(context.Background()))

	require.Len(t, storage.buys, 1)
	assert.Equal(t, 70.0, storage.buys[0].PriceBuy)
	assert.True(t, storage.buys[0].Sold)

	require.Len(t, storage.sells, 1)
	sell := storage.sells[0]
	assert.Equal(t, 70.0, sell.PriceBuy)
	// 85 netos con 15% de comisión: el listado fue a 100.
	assert.InDelta(t, 100.0, sell.PriceSell, 1e-9)

	assert.Equal(t, []string{"n-2"}, source.acked)
	assert.Len(t, notifier.bought, 1)
	assert.Len(t, notifier.sold, 1)
}

func TestBookkeeperSellWithoutBuy(t *testing.T) {
	source := &fakeNotifications{pending: []domain.MarketNotification{
		{ID: "n-1", Kind: domain.NotificationSold, ItemID: 42, ItemName: "Ancient Relic", Price: 85, At: time.Now()},
	}}
	storage := &fakeStorage{}
	bk := newTestBookkeeper(source, storage, &fakeNotifier{})

	require.NoError(t, bk.Pass(context.Background()))

	// La venta se registra igualmente, con compra desconocida a cero.
	require.Len(t, storage.sells, 1)
	assert.Equal(t, 0.0, storage.sells[0].PriceBuy)
}

func TestBookkeeperIgnoresUnknownKinds(t *testing.T) {
	source := &fakeNotifications{pending: []domain.MarketNotification{
		{ID: "n-1", Kind: "promo", ItemName: "Ancient Relic"},
	}}
	storage := &fakeStorage{}
	bk := newTestBookkeeper(source, storage, &fakeNotifier{})

	require.NoError(t, bk.Pass(context.Background()))
	assert.Empty(t, storage.buys)
	assert.Empty(t, storage.sells)
	assert.Equal(t, []string{"n-1"}, source.acked)
}

func TestBookkeeperNoopOnEmpty(t *testing.T) {
	source := &fakeNotifications{}
	bk := newTestBookkeeper(source, &fakeStorage{}, &fakeNotifier{})

	require.NoError(t, bk.Pass(context.Background()))
	assert.Empty(t, source.acked)
}
