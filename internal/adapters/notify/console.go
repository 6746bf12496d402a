package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TroExol/LDmarket/internal/domain"
)

// Console implementa ports.Notifier escribiendo líneas compactas a
// stdout. Los rechazos se imprimen solo si verbose está activo; en un
// escaneo de catálogo son casi todos los candidatos.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

func (c *Console) stamp() string {
	return time.Now().Format("15:04:05")
}

// Decision imprime el veredicto de una evaluación.
func (c *Console) Decision(_ context.Context, d domain.Decision) error {
	if d.Accepted {
		fmt.Fprintf(c.out, "[%s] %s %q → OK %.2f\n", c.stamp(), d.Mode, d.ItemName, d.Price)
		return nil
	}
	if c.verbose {
		fmt.Fprintf(c.out, "[%s] %s %q → %s %s\n", c.stamp(), d.Mode, d.ItemName, d.Reason, d.Detail)
	}
	return nil
}

// Bought imprime una compra ejecutada.
func (c *Console) Bought(_ context.Context, rec domain.BuyRecord) error {
	fmt.Fprintf(c.out, "[%s] BUY  %q %.2f\n", c.stamp(), rec.ItemName, rec.PriceBuy)
	return nil
}

// Sold imprime una venta completada con su beneficio neto.
func (c *Console) Sold(_ context.Context, rec domain.SellRecord, profit float64) error {
	fmt.Fprintf(c.out, "[%s] SELL %q %.2f → +%.2f\n", c.stamp(), rec.ItemName, rec.PriceSell, profit)
	return nil
}

// Urgent imprime una alerta que exige intervención.
func (c *Console) Urgent(_ context.Context, msg string) error {
	fmt.Fprintf(c.out, "[%s] !!! %s\n", c.stamp(), msg)
	return nil
}
