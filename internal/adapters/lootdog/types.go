package lootdog

import (
	"encoding/json"
	"strings"
)

// Tipos wire de la API de LootDog.

type money struct {
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
	Caption  string  `json:"caption"`
}

// salesPoint es un bucket de ventas: fecha, nº de ventas y precio.
type salesPoint struct {
	Point      int64   `json:"point"` // unix segundos
	CountSales int     `json:"count_sales"`
	Price      float64 `json:"price"`
}

type historyResponse struct {
	ByAllTime []salesPoint `json:"by_all_time"`
	ByMonth   []salesPoint `json:"by_month"`
	ByWeek    []salesPoint `json:"by_week"`
}

// bookLevel es un nivel del libro de órdenes.
type bookLevel struct {
	Number  int     `json:"number"` // cantidad acumulada en el nivel
	Percent float64 `json:"percent"`
	Price   money   `json:"price"`
}

type depthResponse struct {
	Selling []bookLevel `json:"selling"`
	Buying  []bookLevel `json:"buying"`
}

type currentUserResponse struct {
	Balance money `json:"balance"`
}

type productInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Popularity int    `json:"popularity"`
}

type catalogItem struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Popularity int    `json:"popularity"`
	Price      money  `json:"price"`
}

// pagedResponse agrupa los campos de paginación comunes.
// next puede ser una URL, un número de página o null.
type pagedResponse struct {
	Next  json.RawMessage `json:"next"`
	Count int             `json:"count"`
}

func (p pagedResponse) hasNext() bool {
	s := strings.TrimSpace(string(p.Next))
	return s != "" && s != "null" && s != "false"
}

type catalogResponse struct {
	pagedResponse
	Results []catalogItem `json:"results"`
}

// buyBookOrder es una orden de compra en reposo de la cuenta.
type buyBookOrder struct {
	ID        string      `json:"id"`
	ProductID int64       `json:"product_id"`
	Product   productInfo `json:"product"`
	Price     money       `json:"price"`
}

type buyBooksResponse struct {
	pagedResponse
	Results []buyBookOrder `json:"results"`
}

// inventoryEntry es una fila de inventario o de listado propio.
type inventoryEntry struct {
	Product productInfo `json:"product"`
}

type inventoryResponse struct {
	pagedResponse
	Results []inventoryEntry `json:"results"`
}

type instantBuyResponse struct {
	Transaction struct {
		Item struct {
			ID json.Number `json:"id"`
		} `json:"item"`
	} `json:"transaction"`
}

// notification es una notificación del marketplace. El precio llega en
// params.price_caption; en las ventas es el neto ya sin comisión.
type notification struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Added struct {
		Date string `json:"date"`
	} `json:"added"`
	Params struct {
		Product      productInfo `json:"product"`
		PriceCaption money       `json:"price_caption"`
	} `json:"params"`
}

type notificationsResponse struct {
	pagedResponse
	Results []notification `json:"results"`
}
