package lootdog

import (
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
)

// Conversión de tipos wire a tipos de dominio.

func toDomainPoints(points []salesPoint) []domain.SalesPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]domain.SalesPoint, len(points))
	for i, p := range points {
		out[i] = domain.SalesPoint{
			Point:      time.Unix(p.Point, 0),
			CountSales: p.CountSales,
			Price:      p.Price,
		}
	}
	return out
}

func toDomainHistory(r historyResponse) domain.SalesHistory {
	return domain.SalesHistory{
		ByAllTime: toDomainPoints(r.ByAllTime),
		ByMonth:   toDomainPoints(r.ByMonth),
		ByWeek:    toDomainPoints(r.ByWeek),
	}
}

func toDomainLevels(levels []bookLevel) []domain.BookEntry {
	if len(levels) == 0 {
		return nil
	}
	out := make([]domain.BookEntry, len(levels))
	for i, l := range levels {
		out[i] = domain.BookEntry{Count: l.Number, Price: l.Price.Amount}
	}
	return out
}

func toDomainBook(r depthResponse) domain.OrderBook {
	return domain.OrderBook{
		Selling: toDomainLevels(r.Selling),
		Buying:  toDomainLevels(r.Buying),
	}
}

func toDomainCatalog(r catalogResponse) domain.CatalogPage {
	page := domain.CatalogPage{HasNext: r.hasNext()}
	for _, it := range r.Results {
		page.Items = append(page.Items, domain.Item{
			ID:         it.ID,
			Name:       it.Name,
			Popularity: it.Popularity,
			Price:      it.Price.Amount,
		})
	}
	return page
}

func toDomainOrders(r buyBooksResponse) domain.OpenOrders {
	out := domain.OpenOrders{Count: r.Count}
	for _, o := range r.Results {
		out.Orders = append(out.Orders, domain.StandingOrder{
			ID:         o.ID,
			ItemID:     o.ProductID,
			ItemName:   o.Product.Name,
			Popularity: o.Product.Popularity,
			Price:      o.Price.Amount,
		})
	}
	return out
}

func toDomainNotification(n notification) domain.MarketNotification {
	at, err := time.Parse(time.RFC3339, n.Added.Date)
	if err != nil {
		at = time.Time{}
	}
	return domain.MarketNotification{
		ID:       n.ID,
		Kind:     domain.NotificationKind(n.Kind),
		ItemID:   n.Params.Product.ID,
		ItemName: n.Params.Product.Name,
		Price:    n.Params.PriceCaption.Amount,
		At:       at,
	}
}
