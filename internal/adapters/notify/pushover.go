package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
)

const defaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Pushover implementa ports.Notifier con notificaciones push. Solo
// empuja eventos que merecen el móvil: compras, ventas y alertas. Las
// decisiones rechazadas no generan push.
type Pushover struct {
	http   *http.Client
	apiURL string
	token  string
	user   string
	title  string
}

// NewPushover crea el notificador con las credenciales de la app.
func NewPushover(token, user string) *Pushover {
	return &Pushover{
		http:   &http.Client{Timeout: 10 * time.Second},
		apiURL: defaultPushoverURL,
		token:  token,
		user:   user,
		title:  "LDmarket",
	}
}

func (p *Pushover) send(ctx context.Context, message string, priority int, sound string) error {
	form := url.Values{
		"token":   {p.token},
		"user":    {p.user},
		"title":   {p.title},
		"message": {message},
	}
	if priority != 0 {
		form.Set("priority", fmt.Sprintf("%d", priority))
	}
	if sound != "" {
		form.Set("sound", sound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("notify.Pushover: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Pushover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify.Pushover: status %d", resp.StatusCode)
	}
	return nil
}

// Decision empuja solo las aceptaciones.
func (p *Pushover) Decision(ctx context.Context, d domain.Decision) error {
	if !d.Accepted {
		return nil
	}
	return p.send(ctx, fmt.Sprintf("%s %s a %.2f", d.Mode, d.ItemName, d.Price), 0, "")
}

// Bought empuja una compra ejecutada.
func (p *Pushover) Bought(ctx context.Context, rec domain.BuyRecord) error {
	return p.send(ctx, fmt.Sprintf("Compra de %s por %.2f", rec.ItemName, rec.PriceBuy), 0, "")
}

// Sold empuja una venta completada.
func (p *Pushover) Sold(ctx context.Context, rec domain.SellRecord, profit float64) error {
	return p.send(ctx, fmt.Sprintf("Venta de %s: +%.2f netos", rec.ItemName, profit), 0, "cashregister")
}

// Urgent empuja con prioridad alta y sonido distinto: es la vía del
// bloqueo por segundo factor.
func (p *Pushover) Urgent(ctx context.Context, msg string) error {
	return p.send(ctx, msg, 1, "siren")
}
