package domain

import "time"

// BuyRecord es una compra registrada por el bookkeeping. PriceSell y Sold
// se rellenan cuando el marketplace notifica la reventa.
type BuyRecord struct {
	ID        string // uuid local
	ItemID    int64
	ItemName  string
	BoughtAt  time.Time
	PriceBuy  float64
	PriceSell float64
	Sold      bool
}

// SellRecord es una reventa completada, emparejada con su compra.
type SellRecord struct {
	ID        string // uuid local
	ItemID    int64
	ItemName  string
	SoldAt    time.Time
	PriceBuy  float64
	PriceSell float64 // precio bruto, antes de comisión
}

// Profit devuelve el beneficio neto de la reventa tras la comisión dada.
func (s SellRecord) Profit(commissionPct float64) float64 {
	return s.PriceSell*(1-commissionPct/100) - s.PriceBuy
}

// TradeStats son los agregados del histórico para el informe.
type TradeStats struct {
	TotalBuys     int
	TotalSells    int
	OpenPositions int // compras aún sin revender
	SpentTotal    float64
	RevenueGross  float64 // suma de precios de venta brutos
}
