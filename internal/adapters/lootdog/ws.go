package lootdog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TroExol/LDmarket/internal/domain"
)

const (
	defaultWSURL = "wss://lootdog.io/connection/websocket"

	priceChannel = "public:broadcast"

	pingInterval = 30 * time.Second
	readTimeout  = 3 * pingInterval

	reconnectMin = time.Second
	reconnectMax = time.Minute
)

// Feed escucha los cambios de precio del marketplace por websocket
// (protocolo Centrifugo: connect, subscribe al canal público, ping cada
// 30s). Reconecta solo con backoff exponencial y jitter.
type Feed struct {
	url   string
	token string
	log   *slog.Logger
}

// NewFeed crea el feed de precios. Si wsURL está vacío usa el de
// producción.
func NewFeed(wsURL, token string, log *slog.Logger) *Feed {
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	return &Feed{url: wsURL, token: token, log: log}
}

type wsCommand struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
	UID    string `json:"uid"`
}

type wsReply struct {
	Method string          `json:"method"`
	Body   json.RawMessage `json:"body"`
}

// wsPriceBody es el cuerpo de un mensaje de canal con cambio de precio.
type wsPriceBody struct {
	BestOrderID string `json:"best_order_id"`
	Data        struct {
		Type        string `json:"type"`
		Product     int64  `json:"product"`
		BestOrderID string `json:"best_order_id"`
		Price       struct {
			RU struct {
				RUB struct {
					Amount float64 `json:"amount"`
				} `json:"RUB"`
			} `json:"RU"`
		} `json:"price"`
	} `json:"data"`
}

// Run mantiene la conexión viva hasta que el contexto se cancele. Los
// eventos con best_order_id vacío se descartan: sin oferta no hay nada
// que comprar.
func (f *Feed) Run(ctx context.Context, events chan<- domain.PriceEvent) error {
	backoff := reconnectMin
	for {
		subscribed, err := f.listen(ctx, events)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Una sesión que llegó a suscribirse resetea el backoff: la
		// siguiente caída no paga por las anteriores.
		if subscribed {
			backoff = reconnectMin
		}
		f.log.Warn("price feed disconnected", "error", err, "retry_in", backoff)

		jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// listen lleva una conexión desde el dial hasta que se rompe. Devuelve
// subscribed=true si el handshake llegó a completar la suscripción.
func (f *Feed) listen(ctx context.Context, events chan<- domain.PriceEvent) (subscribed bool, err error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(cmd wsCommand) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(cmd)
	}

	if err := send(wsCommand{
		Method: "connect",
		Params: map[string]string{
			"user":      "",
			"info":      "",
			"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
			"token":     f.token,
		},
		UID: "1",
	}); err != nil {
		return false, fmt.Errorf("connect frame: %w", err)
	}

	// Cierra la conexión cuando el contexto cae, para desbloquear el
	// ReadMessage de abajo.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		uid := 3
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(wsCommand{Method: "ping", UID: strconv.Itoa(uid)}); err != nil {
					return
				}
				uid++
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return subscribed, fmt.Errorf("read: %w", err)
		}

		var reply wsReply
		if err := json.Unmarshal(raw, &reply); err != nil {
			f.log.Debug("unparseable frame", "error", err)
			continue
		}

		switch reply.Method {
		case "connect":
			if err := send(wsCommand{
				Method: "subscribe",
				Params: map[string]string{"channel": priceChannel},
				UID:    "2",
			}); err != nil {
				return false, fmt.Errorf("subscribe frame: %w", err)
			}
			subscribed = true
			f.log.Info("price feed connected", "channel", priceChannel)
		case "message":
			f.dispatch(reply.Body, events)
		}
	}
}

func (f *Feed) dispatch(body json.RawMessage, events chan<- domain.PriceEvent) {
	var msg wsPriceBody
	if err := json.Unmarshal(body, &msg); err != nil {
		f.log.Debug("unparseable channel message", "error", err)
		return
	}
	if msg.Data.Type != "product_price_changed" {
		return
	}
	bestOrderID := msg.Data.BestOrderID
	if bestOrderID == "" {
		bestOrderID = msg.BestOrderID
	}
	if bestOrderID == "" {
		return
	}

	ev := domain.PriceEvent{
		ItemID:      msg.Data.Product,
		Price:       msg.Data.Price.RU.RUB.Amount,
		BestOrderID: bestOrderID,
	}
	select {
	case events <- ev:
	default:
		// El consumidor va saturado; perder un evento de precio es
		// preferible a bloquear el feed.
		f.log.Warn("price event dropped", "item_id", ev.ItemID)
	}
}
