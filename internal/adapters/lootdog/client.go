package lootdog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/TroExol/LDmarket/internal/ports"
)

const (
	defaultBaseURL = "https://lootdog.io"

	// Techo propio de peticiones a la API. El marketplace no documenta
	// límites; el pacing por candidato vive en el engine.
	apiRatePerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el cliente HTTP de LootDog con rate limiting y retries.
// Se autentica como la sesión del navegador: cookie de sesión más el
// token CSRF en los POST.
type Client struct {
	http      *http.Client
	base      string
	cookie    string
	csrfToken string
	limiter   *rate.Limiter

	// Los nombres de los items no cambian: caché sin expiración.
	nameMu sync.Mutex
	names  map[int64]string
}

// NewClient crea un Client autenticado contra la base dada.
// Si base está vacío, usa la URL de producción.
func NewClient(base, cookie, csrfToken string) *Client {
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		base:      strings.TrimRight(base, "/"),
		cookie:    cookie,
		csrfToken: csrfToken,
		limiter:   rate.NewLimiter(apiRatePerSec, 5),
		names:     make(map[int64]string),
	}
}

// apiError es el cuerpo de error que devuelve la API.
type apiError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		c.authorize(req)
		return c.http.Do(req)
	}, out)
}

// postForm hace un POST form-encoded con el token CSRF.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-CSRFToken", c.csrfToken)
		c.authorize(req)
		return c.http.Do(req)
	}, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
}

// doWithRetry ejecuta la función con backoff exponencial. Un 403 con
// código SecondFactorNeeded no se reintenta: la sesión quedó bloqueada
// hasta que un humano se re-autentique.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusForbidden {
				var apiErr apiError
				if json.Unmarshal(body, &apiErr) == nil && apiErr.Code == "SecondFactorNeeded" {
					return fmt.Errorf("forbidden: %w", ports.ErrSecondFactor)
				}
			}
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
