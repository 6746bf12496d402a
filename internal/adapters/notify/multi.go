package notify

import (
	"context"
	"errors"

	"github.com/TroExol/LDmarket/internal/domain"
	"github.com/TroExol/LDmarket/internal/ports"
)

// Multi reparte cada evento a varios notificadores. Los errores se
// juntan; un canal caído no silencia a los demás.
type Multi struct {
	targets []ports.Notifier
}

// NewMulti crea el fan-out sobre los notificadores dados.
func NewMulti(targets ...ports.Notifier) *Multi {
	return &Multi{targets: targets}
}

func (m *Multi) each(fn func(ports.Notifier) error) error {
	var errs []error
	for _, t := range m.targets {
		if err := fn(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Decision(ctx context.Context, d domain.Decision) error {
	return m.each(func(t ports.Notifier) error { return t.Decision(ctx, d) })
}

func (m *Multi) Bought(ctx context.Context, rec domain.BuyRecord) error {
	return m.each(func(t ports.Notifier) error { return t.Bought(ctx, rec) })
}

func (m *Multi) Sold(ctx context.Context, rec domain.SellRecord, profit float64) error {
	return m.each(func(t ports.Notifier) error { return t.Sold(ctx, rec, profit) })
}

func (m *Multi) Urgent(ctx context.Context, msg string) error {
	return m.each(func(t ports.Notifier) error { return t.Urgent(ctx, msg) })
}
