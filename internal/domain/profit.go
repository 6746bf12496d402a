package domain

import "math"

// ProfitPercent calcula el profit en % de comprar a buy y revender a sell,
// descontando la comisión del marketplace. ok=false si el resultado no es
// finito (buy = 0) — el caller debe tratarlo como "no evaluable", nunca
// como profit cero.
func ProfitPercent(buy, sell, commissionPct float64) (float64, bool) {
	profit := math.Round(((sell*(1-commissionPct/100) - buy) / buy) * 100)
	if math.IsNaN(profit) || math.IsInf(profit, 0) {
		return 0, false
	}
	return profit, true
}

// Tier es un escalón de la tabla de profit mínimo: aplica a precios ≤ UpTo.
type Tier struct {
	UpTo    float64 `yaml:"up_to"`
	Percent float64 `yaml:"percent"`
}

// TierTable mapea rangos de precio a profit mínimo requerido (%).
// Es una función escalonada: el primer tier cuyo UpTo cubre el precio gana;
// el último tier actúa de catch-all para precios por encima de todos.
type TierTable []Tier

// MinProfit devuelve el profit mínimo requerido para un precio dado.
// Con tabla vacía devuelve 0 (sin requisito).
func (t TierTable) MinProfit(price float64) float64 {
	if len(t) == 0 {
		return 0
	}
	for _, tier := range t[:len(t)-1] {
		if price <= tier.UpTo {
			return tier.Percent
		}
	}
	return t[len(t)-1].Percent
}
