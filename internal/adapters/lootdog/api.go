package lootdog

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

// Implementación de los puertos de mercado sobre la API de LootDog.

// FetchSalesHistory devuelve las series de ventas del item.
func (c *Client) FetchSalesHistory(ctx context.Context, itemID int64) (domain.SalesHistory, error) {
	var resp historyResponse
	path := fmt.Sprintf("/api/products/%d/average_price_stats/", itemID)
	query := url.Values{
		"format":   {"json"},
		"id":       {strconv.FormatInt(itemID, 10)},
		"currency": {"RUB"},
	}
	if err := c.get(ctx, path, query, &resp); err != nil {
		return domain.SalesHistory{}, fmt.Errorf("lootdog.FetchSalesHistory: %w", err)
	}
	return toDomainHistory(resp), nil
}

// FetchOrderBook devuelve el libro de compra/venta del item.
func (c *Client) FetchOrderBook(ctx context.Context, itemID int64) (domain.OrderBook, error) {
	var resp depthResponse
	path := fmt.Sprintf("/api/products/%d/depth_of_market_stats/", itemID)
	query := url.Values{
		"format":   {"json"},
		"id":       {strconv.FormatInt(itemID, 10)},
		"currency": {"RUB"},
	}
	if err := c.get(ctx, path, query, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("lootdog.FetchOrderBook: %w", err)
	}
	return toDomainBook(resp), nil
}

// FetchBalance devuelve el saldo disponible de la cuenta.
func (c *Client) FetchBalance(ctx context.Context) (float64, error) {
	var resp currentUserResponse
	if err := c.get(ctx, "/api/current_user/", url.Values{"format": {"json"}}, &resp); err != nil {
		return 0, fmt.Errorf("lootdog.FetchBalance: %w", err)
	}
	return resp.Balance.Amount, nil
}

// FetchItemName resuelve el nombre del item, cacheado sin expiración.
func (c *Client) FetchItemName(ctx context.Context, itemID int64) (string, error) {
	c.nameMu.Lock()
	if name, ok := c.names[itemID]; ok {
		c.nameMu.Unlock()
		return name, nil
	}
	c.nameMu.Unlock()

	var resp productInfo
	path := fmt.Sprintf("/api/products/%d/", itemID)
	query := url.Values{"format": {"json"}, "id": {strconv.FormatInt(itemID, 10)}}
	if err := c.get(ctx, path, query, &resp); err != nil {
		return "", fmt.Errorf("lootdog.FetchItemName: %w", err)
	}

	c.nameMu.Lock()
	c.names[itemID] = resp.Name
	c.nameMu.Unlock()
	return resp.Name, nil
}

// FetchCatalogPage devuelve una página del catálogo ordenado por
// popularidad, filtrado a la banda de precios dada.
func (c *Client) FetchCatalogPage(ctx context.Context, filter ports.CatalogFilter, page int) (domain.CatalogPage, error) {
	query := url.Values{
		"format":  {"json"},
		"sorting": {"popular"},
		"page":    {strconv.Itoa(page)},
		"limit":   {"72"},
	}
	if filter.OnSale {
		query.Set("on_sale", "1")
	}
	if filter.PriceMin > 0 {
		query.Set("price_min", formatPrice(filter.PriceMin))
	}
	if filter.PriceMax > 0 {
		query.Set("price_max", formatPrice(filter.PriceMax))
	}

	var resp catalogResponse
	if err := c.get(ctx, "/api/products", query, &resp); err != nil {
		return domain.CatalogPage{}, fmt.Errorf("lootdog.FetchCatalogPage: %w", err)
	}
	return toDomainCatalog(resp), nil
}

// FetchOpenOrders devuelve las órdenes en reposo no finalizadas.
func (c *Client) FetchOpenOrders(ctx context.Context, limit int) (domain.OpenOrders, error) {
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{
		"format":      {"json"},
		"page":        {"1"},
		"limit":       {strconv.Itoa(limit)},
		"sorting":     {"date"},
		"is_finished": {"false"},
	}
	var resp buyBooksResponse
	if err := c.get(ctx, "/api/buybooks/", query, &resp); err != nil {
		return domain.OpenOrders{}, fmt.Errorf("lootdog.FetchOpenOrders: %w", err)
	}
	return toDomainOrders(resp), nil
}

// InstantBuy compra la oferta identificada por orderID al precio dado.
func (c *Client) InstantBuy(ctx context.Context, orderID string, price float64) (string, error) {
	form := url.Values{
		"order":     {orderID},
		"buy_price": {formatPrice(price)},
		"source":    {"buying.popular"},
		"is_gift":   {"false"},
	}
	var resp instantBuyResponse
	if err := c.postForm(ctx, "/api/instant_buy/", form, &resp); err != nil {
		return "", fmt.Errorf("lootdog.InstantBuy: %w", err)
	}
	return resp.Transaction.Item.ID.String(), nil
}

// ListForSale publica el item comprado a la venta.
func (c *Client) ListForSale(ctx context.Context, transactionItemID string, price float64) error {
	form := url.Values{
		"is_buy":    {"false"},
		"item":      {transactionItemID},
		"price_val": {formatPrice(price)},
	}
	if err := c.postForm(ctx, "/api/orders/", form, nil); err != nil {
		return fmt.Errorf("lootdog.ListForSale: %w", err)
	}
	return nil
}

// PlaceOrder crea una orden de compra en reposo.
func (c *Client) PlaceOrder(ctx context.Context, itemID int64, quantity int, price float64) error {
	form := url.Values{
		"product_id": {strconv.FormatInt(itemID, 10)},
		"quantity":   {strconv.Itoa(quantity)},
		"price_val":  {formatPrice(price)},
		"is_gift":    {"false"},
	}
	if err := c.postForm(ctx, "/api/buybooks/", form, nil); err != nil {
		return fmt.Errorf("lootdog.PlaceOrder: %w", err)
	}
	return nil
}

// CancelOrder retira una orden en reposo.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	form := url.Values{"id_slug": {orderID}}
	if err := c.postForm(ctx, "/api/buybooks/close/", form, nil); err != nil {
		return fmt.Errorf("lootdog.CancelOrder: %w", err)
	}
	return nil
}

// FetchOnSaleItemIDs devuelve los product ids de los listados activos.
func (c *Client) FetchOnSaleItemIDs(ctx context.Context, page int) ([]int64, bool, error) {
	query := url.Values{
		"format":  {"json"},
		"is_buy":  {"0"},
		"kind":    {""},
		"sorting": {"date"},
		"page":    {strconv.Itoa(page)},
		"limit":   {"20"},
	}
	var resp inventoryResponse
	if err := c.get(ctx, "/api/orders/", query, &resp); err != nil {
		return nil, false, fmt.Errorf("lootdog.FetchOnSaleItemIDs: %w", err)
	}
	return productIDs(resp.Results), resp.hasNext(), nil
}

// FetchInventoryItemIDs devuelve los product ids del inventario restante.
func (c *Client) FetchInventoryItemIDs(ctx context.Context, page int) ([]int64, bool, error) {
	query := url.Values{
		"format": {"json"},
		"status": {"remaining"},
		"limit":  {"35"},
		"page":   {strconv.Itoa(page)},
	}
	var resp inventoryResponse
	if err := c.get(ctx, "/api/user_inventory/", query, &resp); err != nil {
		return nil, false, fmt.Errorf("lootdog.FetchInventoryItemIDs: %w", err)
	}
	return productIDs(resp.Results), resp.hasNext(), nil
}

// FetchNotifications devuelve las notificaciones pendientes, más
// reciente primero.
func (c *Client) FetchNotifications(ctx context.Context) ([]domain.MarketNotification, error) {
	query := url.Values{
		"format": {"json"},
		"hidden": {"0"},
		"limit":  {"40"},
	}
	var resp notificationsResponse
	if err := c.get(ctx, "/api/notifications/", query, &resp); err != nil {
		return nil, fmt.Errorf("lootdog.FetchNotifications: %w", err)
	}
	out := make([]domain.MarketNotification, 0, len(resp.Results))
	for _, n := range resp.Results {
		out = append(out, toDomainNotification(n))
	}
	return out, nil
}

// AckNotifications marca como leídas todas hasta newestID inclusive.
func (c *Client) AckNotifications(ctx context.Context, newestID string) error {
	form := url.Values{"newest_id": {newestID}}
	if err := c.postForm(ctx, "/api/notifications/close_notification_all/", form, nil); err != nil {
		return fmt.Errorf("lootdog.AckNotifications: %w", err)
	}
	return nil
}

func productIDs(entries []inventoryEntry) []int64 {
	if len(entries) == 0 {
		return nil
	}
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Product.ID
	}
	return out
}

// formatPrice formatea un precio con dos decimales, como espera la API.
func formatPrice(p float64) string {
	return strconv.FormatFloat(math.Round(p*100)/100, 'f', 2, 64)
}
