package ports

import (
	"context"
	"errors"

	"github.com/TroExol/LDmarket/internal/domain"
)

// ErrSecondFactor señala que el marketplace exige re-autenticación por
// segundo factor. Bloquea todas las acciones posteriores hasta que un
// humano intervenga, así que se escala por el canal urgente del Notifier,
// no solo al log.
var ErrSecondFactor = errors.New("second factor authentication required")

// MarketData obtiene los datos de mercado que alimentan la evaluación.
// La implementación es el cliente HTTP del marketplace.
type MarketData interface {
	// FetchSalesHistory devuelve las series de ventas de un item.
	FetchSalesHistory(ctx context.Context, itemID int64) (domain.SalesHistory, error)

	// FetchOrderBook devuelve el snapshot del libro de un item.
	FetchOrderBook(ctx context.Context, itemID int64) (domain.OrderBook, error)

	// FetchBalance devuelve el saldo disponible de la cuenta.
	FetchBalance(ctx context.Context) (float64, error)

	// FetchItemName resuelve el nombre de un item por id.
	FetchItemName(ctx context.Context, itemID int64) (string, error)
}

// CatalogFilter son los filtros de la consulta de catálogo.
type CatalogFilter struct {
	PriceMin float64
	PriceMax float64
	OnSale   bool
}

// Trader ejecuta acciones de trading contra el marketplace.
type Trader interface {
	// FetchCatalogPage devuelve una página del catálogo ordenado por popularidad.
	FetchCatalogPage(ctx context.Context, filter CatalogFilter, page int) (domain.CatalogPage, error)

	// FetchOpenOrders devuelve las órdenes en reposo no finalizadas de la cuenta.
	FetchOpenOrders(ctx context.Context, limit int) (domain.OpenOrders, error)

	// InstantBuy compra la oferta de venta identificada por orderID.
	// Devuelve el id del item de la transacción, necesario para listarlo.
	InstantBuy(ctx context.Context, orderID string, price float64) (transactionItemID string, err error)

	// ListForSale publica un item comprado a la venta al precio dado.
	ListForSale(ctx context.Context, transactionItemID string, price float64) error

	// PlaceOrder crea una orden de compra en reposo.
	PlaceOrder(ctx context.Context, itemID int64, quantity int, price float64) error

	// CancelOrder retira una orden en reposo.
	CancelOrder(ctx context.Context, orderID string) error
}

// Inventory pagina los items de la cuenta para el check de exposición.
type Inventory interface {
	// FetchOnSaleItemIDs devuelve los product ids de los listados activos.
	FetchOnSaleItemIDs(ctx context.Context, page int) (ids []int64, hasNext bool, err error)

	// FetchInventoryItemIDs devuelve los product ids del inventario restante.
	FetchInventoryItemIDs(ctx context.Context, page int) (ids []int64, hasNext bool, err error)
}

// Notifications poll-ea las notificaciones del marketplace para el bookkeeping.
type Notifications interface {
	// FetchNotifications devuelve las notificaciones pendientes, más reciente primero.
	FetchNotifications(ctx context.Context) ([]domain.MarketNotification, error)

	// AckNotifications marca como leídas todas hasta newestID inclusive.
	AckNotifications(ctx context.Context, newestID string) error
}
