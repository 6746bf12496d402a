package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TroExol/LDmarket/internal/domain"
)

const schema = `
-- Compras ejecutadas. sold pasa a 1 cuando la venta correspondiente llega.
CREATE TABLE IF NOT EXISTS buys (
    id         TEXT PRIMARY KEY,
    item_id    INTEGER  NOT NULL,
    item_name  TEXT     NOT NULL,
    bought_at  DATETIME NOT NULL,
    price_buy  REAL     NOT NULL,
    price_sell REAL     NOT NULL DEFAULT 0,
    sold       INTEGER  NOT NULL DEFAULT 0
);

-- Ventas completadas.
CREATE TABLE IF NOT EXISTS sells (
    id         TEXT PRIMARY KEY,
    item_id    INTEGER  NOT NULL,
    item_name  TEXT     NOT NULL,
    sold_at    DATETIME NOT NULL,
    price_buy  REAL     NOT NULL,
    price_sell REAL     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_buys_item  ON buys(item_id, sold, bought_at);
CREATE INDEX IF NOT EXISTS idx_buys_at    ON buys(bought_at DESC);
CREATE INDEX IF NOT EXISTS idx_sells_at   ON sells(sold_at DESC);
`

// SQLiteStorage implementa ports.TradeStorage usando SQLite (pure Go,
// sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y
// aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveBuy registra una compra ejecutada.
func (s *SQLiteStorage) SaveBuy(ctx context.Context, rec domain.BuyRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO buys (id, item_id, item_name, bought_at, price_buy, price_sell, sold)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ItemID, rec.ItemName, rec.BoughtAt.UTC(), rec.PriceBuy, rec.PriceSell, boolToInt(rec.Sold),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveBuy: %w", err)
	}
	return nil
}

// MarkSold marca como vendida la compra abierta más antigua del item y
// devuelve su precio de compra. ok es false si no hay ninguna.
func (s *SQLiteStorage) MarkSold(ctx context.Context, itemID int64, _ time.Time) (float64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("storage.MarkSold: begin tx: %w", err)
	}
	defer tx.Rollback()

	var id string
	var priceBuy float64
	err = tx.QueryRowContext(ctx,
		`SELECT id, price_buy FROM buys
		 WHERE item_id = ? AND sold = 0
		 ORDER BY bought_at ASC LIMIT 1`,
		itemID,
	).Scan(&id, &priceBuy)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage.MarkSold: query: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE buys SET sold = 1 WHERE id = ?`, id); err != nil {
		return 0, false, fmt.Errorf("storage.MarkSold: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("storage.MarkSold: commit: %w", err)
	}
	return priceBuy, true, nil
}

// SaveSell registra una venta completada.
func (s *SQLiteStorage) SaveSell(ctx context.Context, rec domain.SellRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sells (id, item_id, item_name, sold_at, price_buy, price_sell)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ItemID, rec.ItemName, rec.SoldAt.UTC(), rec.PriceBuy, rec.PriceSell,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveSell: %w", err)
	}
	return nil
}

// OpenCount devuelve cuántas compras del item siguen sin vender.
func (s *SQLiteStorage) OpenCount(ctx context.Context, itemID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM buys WHERE item_id = ? AND sold = 0`, itemID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.OpenCount: %w", err)
	}
	return n, nil
}

// Buys devuelve las compras desde la fecha dada, más reciente primero.
func (s *SQLiteStorage) Buys(ctx context.Context, since time.Time) ([]domain.BuyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, item_name, bought_at, price_buy, price_sell, sold
		 FROM buys WHERE bought_at >= ? ORDER BY bought_at DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.Buys: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BuyRecord
	for rows.Next() {
		var rec domain.BuyRecord
		var sold int
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.ItemName, &rec.BoughtAt, &rec.PriceBuy, &rec.PriceSell, &sold); err != nil {
			return nil, fmt.Errorf("storage.Buys: scan: %w", err)
		}
		rec.Sold = sold == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sells devuelve las ventas desde la fecha dada, más reciente primero.
func (s *SQLiteStorage) Sells(ctx context.Context, since time.Time) ([]domain.SellRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, item_name, sold_at, price_buy, price_sell
		 FROM sells WHERE sold_at >= ? ORDER BY sold_at DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.Sells: query: %w", err)
	}
	defer rows.Close()

	var out []domain.SellRecord
	for rows.Next() {
		var rec domain.SellRecord
		if err := rows.Scan(&rec.ID, &rec.ItemID, &rec.ItemName, &rec.SoldAt, &rec.PriceBuy, &rec.PriceSell); err != nil {
			return nil, fmt.Errorf("storage.Sells: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats agrega el historial completo.
func (s *SQLiteStorage) Stats(ctx context.Context) (domain.TradeStats, error) {
	var stats domain.TradeStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(price_buy), 0),
		       COALESCE(SUM(CASE WHEN sold = 0 THEN 1 ELSE 0 END), 0)
		FROM buys`,
	).Scan(&stats.TotalBuys, &stats.SpentTotal, &stats.OpenPositions)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("storage.Stats: buys: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(price_sell), 0) FROM sells`,
	).Scan(&stats.TotalSells, &stats.RevenueGross)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("storage.Stats: sells: %w", err)
	}
	return stats, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
