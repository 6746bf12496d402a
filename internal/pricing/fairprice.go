package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
)

// ErrUnavailable indica que no se puede estimar un precio justo para el
// item: historial demasiado corto, volumen semanal insuficiente o ventana
// sin ventas. No es un fallo de red; el llamador descarta el candidato.
var ErrUnavailable = errors.New("fair price unavailable")

// narrowWindow es la ventana corta que se aplica cuando la liquidez
// reciente es alta y los precios de los últimos días dominan.
const narrowWindow = 3

// Estimator calcula el precio justo de venta de un item a partir de su
// historial de ventas cacheado.
type Estimator struct {
	cache *Cache
	now   func() time.Time
}

// NewEstimator crea el estimador sobre la caché de mercado dada.
func NewEstimator(cache *Cache) *Estimator {
	return &Estimator{cache: cache, now: time.Now}
}

// FairPrice estima el precio justo del item sobre una ventana de
// windowDays días. Devuelve ErrUnavailable cuando el historial no
// permite una estimación fiable; cualquier otro error es de red.
func (e *Estimator) FairPrice(ctx context.Context, itemID int64, windowDays int, s domain.Settings) (float64, error) {
	history, err := e.cache.SalesHistory(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("pricing.FairPrice: %w", err)
	}

	first, ok := history.FirstSaleAt()
	if !ok {
		return 0, ErrUnavailable
	}
	now := e.now()
	// Item demasiado nuevo: el historial corto infla la media.
	if now.Sub(first) < time.Duration(s.DaysWent)*24*time.Hour {
		return 0, ErrUnavailable
	}
	if history.WeeklySalesCount() < s.MinSalesByWeek {
		return 0, ErrUnavailable
	}

	days := windowDays
	if s.CountSalesByThreeDays > 0 &&
		countSalesSince(history.ByWeek, now.AddDate(0, 0, -narrowWindow)) > s.CountSalesByThreeDays {
		days = narrowWindow
	}

	prices := expandPrices(seriesFor(history, days), now.AddDate(0, 0, -days))
	if len(prices) == 0 {
		return 0, ErrUnavailable
	}

	trimmed := domain.RemoveOutliers(prices)
	mean := domain.Mean(trimmed)
	fair := mean - domain.ConfidenceInterval(trimmed, mean)
	if math.IsNaN(fair) || math.IsInf(fair, 0) {
		return 0, ErrUnavailable
	}
	return fair, nil
}

// seriesFor elige la serie con la resolución justa para la ventana.
func seriesFor(h domain.SalesHistory, days int) []domain.SalesPoint {
	switch {
	case days <= 7:
		return h.ByWeek
	case days <= 31:
		return h.ByMonth
	default:
		return h.ByAllTime
	}
}

func countSalesSince(points []domain.SalesPoint, since time.Time) int {
	total := 0
	for _, p := range points {
		if !p.Point.Before(since) {
			total += p.CountSales
		}
	}
	return total
}

// expandPrices convierte los buckets {precio, ventas} dentro de la
// ventana en una secuencia de precios individuales, repitiendo cada
// precio tantas veces como ventas tuvo.
func expandPrices(points []domain.SalesPoint, since time.Time) []float64 {
	var prices []float64
	for _, p := range points {
		if p.Point.Before(since) {
			continue
		}
		for i := 0; i < p.CountSales; i++ {
			prices = append(prices, p.Price)
		}
	}
	return prices
}
