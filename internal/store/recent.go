package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/models"
)

const (
	DefaultRecentLimit = 10
	MaxListLimit       = 100
)

// ParseLimit reads a listing limit from a query parameter. Empty input
// yields def; anything that is not an integer in [1, MaxListLimit] is
// rejected rather than clamped.
func ParseLimit(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > MaxListLimit {
		return 0, apperr.Validation(fmt.Sprintf("limit must be an integer between 1 and %d", MaxListLimit))
	}

	return limit, nil
}

// RecentOrders returns the newest orders of any status with their lines
// flattened into "<name> x<quantity>" joined by ", " in name order.
func RecentOrders(ctx context.Context, db *sql.DB, limit int) ([]models.RecentOrder, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, apperr.Validation(fmt.Sprintf("limit must be an integer between 1 and %d", MaxListLimit))
	}

	query := `
		SELECT o.id, o.order_type, o.table_number, o.staff_username, o.total_amount, o.status, o.created_at,
		       COALESCE(string_agg(mi.name || ' x' || oi.quantity, ', ' ORDER BY mi.name, oi.id), '')
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
		GROUP BY o.id
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $1`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, storageError("failed to list recent orders", fmt.Errorf("recent orders: %w", err))
	}
	defer rows.Close()

	orders := make([]models.RecentOrder, 0, limit)
	for rows.Next() {
		var order models.RecentOrder
		var tableNumber sql.NullInt64
		err := rows.Scan(
			&order.ID,
			&order.OrderType,
			&tableNumber,
			&order.StaffUsername,
			&order.TotalAmount,
			&order.Status,
			&order.CreatedAt,
			&order.Items,
		)
		if err != nil {
			return nil, storageError("failed to list recent orders", fmt.Errorf("scan recent order: %w", err))
		}
		order.TableNumber = intPtr(tableNumber)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list recent orders", fmt.Errorf("rows error: %w", err))
	}

	return orders, nil
}
