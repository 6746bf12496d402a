package domain

// Mode distingue los dos modos de operación del agente.
type Mode string

const (
	ModeBuy   Mode = "buy"   // compra instantánea + reventa
	ModeOrder Mode = "order" // orden de compra en reposo
)

// RejectReason enumera por qué un candidato no pasó el gate.
type RejectReason string

const (
	RejectBlacklisted      RejectReason = "blacklisted"
	RejectAlreadyOrdered   RejectReason = "already_ordered"
	RejectPriceUnavailable RejectReason = "price_unavailable"
	RejectNoViableBid      RejectReason = "no_viable_bid"
	RejectLowProfit        RejectReason = "low_profit"
	RejectOutOfRange       RejectReason = "out_of_range"
	RejectOverExposed      RejectReason = "over_exposed"
	RejectSaturatedBook    RejectReason = "saturated_book"
)

// Decision es el resultado de evaluar un candidato. Se emite siempre por
// el canal de observabilidad, acepte o no.
type Decision struct {
	ItemID   int64
	ItemName string
	Mode     Mode
	Accepted bool
	Reason   RejectReason // vacío si Accepted
	Detail   string       // contexto legible (profit calculado, límite superado...)
	// Price es el precio resultante: precio de reventa estimado en modo Buy,
	// precio de puja en modo Order. Solo válido si Accepted.
	Price float64
}

// Reject construye una decisión de rechazo.
func Reject(item Item, mode Mode, reason RejectReason, detail string) Decision {
	return Decision{
		ItemID:   item.ID,
		ItemName: item.Name,
		Mode:     mode,
		Reason:   reason,
		Detail:   detail,
	}
}

// Accept construye una decisión de aceptación con el precio resultante.
func Accept(item Item, mode Mode, price float64) Decision {
	return Decision{
		ItemID:   item.ID,
		ItemName: item.Name,
		Mode:     mode,
		Accepted: true,
		Price:    price,
	}
}
