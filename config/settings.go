package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
)

// Watcher relee el fichero de configuración mientras el trader corre y
// expone la sección de settings como snapshot atómico. El core nunca
// cachea settings: cada decisión llama a Current() y ve la última versión
// guardada en disco.
type Watcher struct {
	path     string
	interval time.Duration
	log      *slog.Logger

	current atomic.Pointer[domain.Settings]
	mtime   time.Time
}

// NewWatcher carga la configuración una vez y devuelve el watcher listo.
// Falla si la primera carga no es válida: arrancar sin settings no tiene
// sentido.
func NewWatcher(path string, interval time.Duration, log *slog.Logger) (*Watcher, error) {
	w := &Watcher{path: path, interval: interval, log: log}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("config.NewWatcher: %w", err)
	}
	s := cfg.TradingSettings()
	w.current.Store(&s)

	if info, err := os.Stat(path); err == nil {
		w.mtime = info.ModTime()
	}
	return w, nil
}

// Current devuelve el último snapshot válido de settings.
func (w *Watcher) Current() domain.Settings {
	return *w.current.Load()
}

// Run sondea el mtime del fichero y recarga cuando cambia. Un fichero
// roto no tumba el trader: se loguea el error y se mantiene el snapshot
// anterior hasta que el fichero vuelva a parsear.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.log.Warn("settings file unavailable", "path", w.path, "err", err)
		return
	}
	if !info.ModTime().After(w.mtime) {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("settings reload failed, keeping previous", "path", w.path, "err", err)
		w.mtime = info.ModTime()
		return
	}

	s := cfg.TradingSettings()
	w.current.Store(&s)
	w.mtime = info.ModTime()
	w.log.Info("settings reloaded", "path", w.path,
		"buy_enabled", s.BuyEnabled, "order_enabled", s.OrderEnabled)
}
