package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/cafe-pos/internal/database"
)

type seedItem struct {
	Name     string
	Price    int64
	Category string
}

// DefaultMenu is the starter menu installed into an empty catalog.
var DefaultMenu = []seedItem{
	{"Espresso", 25000, "Coffee"},
	{"Cappuccino", 40000, "Coffee"},
	{"Latte", 45000, "Coffee"},
	{"Americano", 30000, "Coffee"},
	{"Mocha", 50000, "Coffee"},
	{"Macchiato", 42500, "Coffee"},
	{"Flat White", 47500, "Coffee"},
	{"Cold Brew", 35000, "Cold Coffee"},
	{"Iced Latte", 45000, "Cold Coffee"},
	{"Frappuccino", 55000, "Cold Coffee"},
	{"Green Tea Latte", 42500, "Tea"},
	{"Chai Latte", 40000, "Tea"},
}

// SeedMenu installs DefaultMenu when menu_items is empty and reports how
// many rows were inserted. A populated catalog is left alone.
func SeedMenu(ctx context.Context, db *sql.DB) (int, error) {
	inserted := 0

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
			return fmt.Errorf("count menu items: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, item := range DefaultMenu {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO menu_items (name, price, category, created_at, updated_at)
				 VALUES ($1, $2, $3, NOW(), NOW())`,
				item.Name, item.Price, item.Category)
			if err != nil {
				return fmt.Errorf("seed menu item %q: %w", item.Name, err)
			}
			inserted++
		}

		return nil
	})
	if err != nil {
		return 0, storageError("failed to seed menu", err)
	}

	return inserted, nil
}
