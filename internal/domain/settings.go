package domain

import "strings"

// Settings es el snapshot de configuración viva del trader. Es un value
// object plano: el core lo relee en cada uso a través de
// ports.SettingsSource, nunca lo cachea en el arranque.
type Settings struct {
	// Comisión del marketplace en %.
	CommissionPct float64

	// Guardas de la estimación de precio justo.
	DaysWent             int // edad mínima del item en el marketplace (días)
	MinSalesByWeek       int // ventas semanales mínimas para considerar el item líquido
	CountSalesByThreeDays int // umbral de ventas en 3 días que estrecha la ventana
	DaysSells            int // ventana de media por defecto (días)

	// Modo compra instantánea.
	BuyEnabled          bool
	MinCostBuy          float64
	MaxCostBuy          float64
	MaxSameItemsToBuy   int
	BuyTiers            TierTable

	// Modo órdenes en reposo.
	OrderEnabled        bool
	MinCostOrder        float64
	MaxCostOrder        float64
	MaxSameItemsToOrder int
	OrderTiers          TierTable
	MaxOrders           int // órdenes abiertas máximas de la cuenta
	MaxPages            int // páginas de catálogo a escanear por pasada

	// Saturación del libro: máximo de ofertas no rentables toleradas.
	// 0 desactiva el check.
	MaxNotProfitOrders int

	// Blacklist por substring del nombre (case-sensitive).
	Blacklist []string
}

// MinProfitFor devuelve el profit mínimo del modo dado para un precio.
func (s Settings) MinProfitFor(mode Mode, price float64) float64 {
	if mode == ModeOrder {
		return s.OrderTiers.MinProfit(price)
	}
	return s.BuyTiers.MinProfit(price)
}

// Blacklisted devuelve true si el nombre contiene algún término vetado.
// El match es substring case-sensitive, igual que en el marketplace.
func (s Settings) Blacklisted(name string) bool {
	for _, term := range s.Blacklist {
		if term != "" && strings.Contains(name, term) {
			return true
		}
	}
	return false
}
