package ports

import (
	"context"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
)

// TradeStorage persiste el historial de compras y ventas.
type TradeStorage interface {
	// SaveBuy registra una compra ejecutada.
	SaveBuy(ctx context.Context, rec domain.BuyRecord) error

	// MarkSold marca como vendida la compra abierta más antigua del item
	// y devuelve su precio de compra. ok es false si no hay ninguna.
	MarkSold(ctx context.Context, itemID int64, soldAt time.Time) (priceBuy float64, ok bool, err error)

	// SaveSell registra una venta completada.
	SaveSell(ctx context.Context, rec domain.SellRecord) error

	// OpenCount devuelve cuántas compras del item siguen sin vender.
	OpenCount(ctx context.Context, itemID int64) (int, error)

	// Buys devuelve las compras registradas desde la fecha dada.
	Buys(ctx context.Context, since time.Time) ([]domain.BuyRecord, error)

	// Sells devuelve las ventas registradas desde la fecha dada.
	Sells(ctx context.Context, since time.Time) ([]domain.SellRecord, error)

	// Stats agrega el historial completo.
	Stats(ctx context.Context) (domain.TradeStats, error)

	// Close libera la conexión subyacente.
	Close() error
}
