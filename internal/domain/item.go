package domain

import "time"

// Item es un candidato de trade. Se construye fresco por cada evaluación
// (desde un evento del websocket, una fila del catálogo o un ordered
// existente) y nunca se persiste — solo los resultados de trades.
type Item struct {
	ID         int64
	Name       string  // usado por el blacklist
	Popularity int     // score de popularidad del marketplace
	Price      float64 // mejor ask para modo Buy, precio candidato para modo Order
	BestOrderID string // ID de la venta más barata, necesario para instant buy
}

// SalesPoint es un bucket de la historia de ventas: count ventas a un
// precio en un instante.
type SalesPoint struct {
	Point      time.Time
	CountSales int
	Price      float64
}

// SalesHistory son las tres series temporales de ventas de un item.
// Los buckets pueden tener huecos (hueco = cero ventas), así que "el item
// es nuevo" se infiere del punto más antiguo disponible, no de la longitud.
type SalesHistory struct {
	ByAllTime []SalesPoint
	ByMonth   []SalesPoint
	ByWeek    []SalesPoint
}

// WeeklySalesCount suma las ventas del bucket semanal.
func (h SalesHistory) WeeklySalesCount() int {
	var count int
	for _, p := range h.ByWeek {
		count += p.CountSales
	}
	return count
}

// FirstSaleAt devuelve el punto más antiguo de la serie all-time.
// ok=false si no hay ventas registradas.
func (h SalesHistory) FirstSaleAt() (time.Time, bool) {
	if len(h.ByAllTime) == 0 {
		return time.Time{}, false
	}
	return h.ByAllTime[0].Point, true
}

// BookEntry es un nivel del libro de órdenes: count órdenes a un precio.
type BookEntry struct {
	Count int
	Price float64
}

// OrderBook es el snapshot del libro de un item.
type OrderBook struct {
	Selling []BookEntry // ofertas de venta, precio ascendente
	Buying  []BookEntry // pujas de compra, precio descendente
}

// BestBid devuelve la mejor puja de compra. ok=false con lado vacío.
func (b OrderBook) BestBid() (BookEntry, bool) {
	if len(b.Buying) == 0 {
		return BookEntry{}, false
	}
	return b.Buying[0], true
}

// StandingOrder es una orden de compra limitada en reposo, re-cotizada
// periódicamente para mantenerse competitiva.
type StandingOrder struct {
	ID         string
	ItemID     int64
	ItemName   string
	Popularity int
	Price      float64
}

// PriceEvent es un cambio de precio notificado por el feed del marketplace.
type PriceEvent struct {
	ItemID      int64
	Price       float64
	BestOrderID string
}

// CatalogPage es una página del catálogo de items en venta.
type CatalogPage struct {
	Items   []Item
	HasNext bool
}

// OpenOrders es la lista de órdenes abiertas de la cuenta.
type OpenOrders struct {
	Orders []StandingOrder
	Count  int // total de órdenes abiertas según el marketplace
}

// NotificationKind clasifica las notificaciones del marketplace que nos
// interesan para el bookkeeping.
type NotificationKind string

const (
	NotificationBought NotificationKind = "ocompleted" // compra completada
	NotificationSold   NotificationKind = "osold"      // venta completada
)

// MarketNotification es una notificación de compra/venta del marketplace.
type MarketNotification struct {
	ID       string
	Kind     NotificationKind
	ItemID   int64
	ItemName string
	Price    float64 // precio de compra, o neto recibido tras comisión en ventas
	At       time.Time
}
