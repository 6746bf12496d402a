package ports

import (
	"context"

	"github.com/TroExol/LDmarket/internal/domain"
)

// Notifier publica el resultado de las evaluaciones y los eventos de trading.
type Notifier interface {
	// Decision informa el veredicto de una evaluación, aceptada o no.
	Decision(ctx context.Context, d domain.Decision) error

	// Bought informa una compra ejecutada.
	Bought(ctx context.Context, rec domain.BuyRecord) error

	// Sold informa una venta completada con su beneficio neto.
	Sold(ctx context.Context, rec domain.SellRecord, profit float64) error

	// Urgent escala una condición que exige intervención humana,
	// como el bloqueo por segundo factor.
	Urgent(ctx context.Context, msg string) error
}
