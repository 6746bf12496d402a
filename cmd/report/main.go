package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/TroExol/LDmarket/config"
	"github.com/TroExol/LDmarket/internal/adapters/storage"
	"github.com/TroExol/LDmarket/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	days := flag.Int("days", 0, "limit to trades from the last N days (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	var since time.Time
	if *days > 0 {
		since = time.Now().AddDate(0, 0, -*days)
	}

	ctx := context.Background()
	commission := cfg.TradingSettings().CommissionPct

	buys, err := store.Buys(ctx, since)
	if err != nil {
		slog.Error("failed to read buys", "err", err)
		os.Exit(1)
	}
	sells, err := store.Sells(ctx, since)
	if err != nil {
		slog.Error("failed to read sells", "err", err)
		os.Exit(1)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		slog.Error("failed to read stats", "err", err)
		os.Exit(1)
	}

	printBuys(buys)
	printSells(sells, commission)
	printSummary(stats, sells, commission)
}

func printBuys(buys []domain.BuyRecord) {
	fmt.Printf("\nBUYS (%d)\n", len(buys))
	if len(buys) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Date", "Item", "Paid", "Status")

	for _, b := range buys {
		status := "open"
		if b.Sold {
			status = "sold"
		}
		table.Append(
			b.BoughtAt.Format("2006-01-02 15:04"),
			b.ItemName,
			fmt.Sprintf("%.2f", b.PriceBuy),
			status,
		)
	}
	table.Render()
}

func printSells(sells []domain.SellRecord, commission float64) {
	fmt.Printf("\nSELLS (%d)\n", len(sells))
	if len(sells) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Date", "Item", "Paid", "Sold gross", "Profit")

	for _, s := range sells {
		table.Append(
			s.SoldAt.Format("2006-01-02 15:04"),
			s.ItemName,
			fmt.Sprintf("%.2f", s.PriceBuy),
			fmt.Sprintf("%.2f", s.PriceSell),
			fmt.Sprintf("%+.2f", s.Profit(commission)),
		)
	}
	table.Render()
}

func printSummary(stats domain.TradeStats, sells []domain.SellRecord, commission float64) {
	var profit float64
	for _, s := range sells {
		profit += s.Profit(commission)
	}

	fmt.Printf("\nSUMMARY\n")
	fmt.Printf("  buys:           %d (%.2f spent)\n", stats.TotalBuys, stats.SpentTotal)
	fmt.Printf("  sells:          %d (%.2f gross)\n", stats.TotalSells, stats.RevenueGross)
	fmt.Printf("  open positions: %d\n", stats.OpenPositions)
	fmt.Printf("  net profit:     %+.2f (commission %.0f%%)\n", profit, commission)
}
