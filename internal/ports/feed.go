package ports

import (
	"context"

	"github.com/TroExol/LDmarket/internal/domain"
)

// PriceFeed entrega eventos de cambio de precio en tiempo real.
// La implementación websocket reconecta sola; Run bloquea hasta que el
// contexto se cancele.
type PriceFeed interface {
	Run(ctx context.Context, events chan<- domain.PriceEvent) error
}
