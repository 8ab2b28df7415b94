package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
)

type CreateOrderRequest struct {
	OrderType     string
	TableNumber   *int
	StaffUsername string
	Items         []OrderItemRequest
}

type OrderItemRequest struct {
	MenuItemID int64
	Quantity   int
	Price      int64
}

// Validate checks the request without touching storage.
func (r CreateOrderRequest) Validate() error {
	if !models.ValidOrderType(r.OrderType) {
		return apperr.Validation("order_type must be one of dine-in, takeaway, delivery")
	}

	if r.OrderType == models.OrderTypeDineIn {
		if r.TableNumber == nil {
			return apperr.Validation("table_number is required for dine-in orders")
		}
		if *r.TableNumber < 1 || *r.TableNumber > math.MaxInt32 {
			return apperr.Validation(fmt.Sprintf("table_number must be between 1 and %d", math.MaxInt32))
		}
	} else if r.TableNumber != nil {
		return apperr.Validation("table_number is only allowed for dine-in orders")
	}

	if strings.TrimSpace(r.StaffUsername) == "" {
		return apperr.Validation("order creator is required")
	}

	if len(r.Items) == 0 {
		return apperr.Validation("items must not be empty")
	}

	var total int64
	for i, item := range r.Items {
		if item.MenuItemID <= 0 {
			return apperr.Validation(fmt.Sprintf("items[%d]: menu item id must be positive", i))
		}
		if item.Quantity < 1 {
			return apperr.Validation(fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		}
		if item.Quantity > math.MaxInt32 {
			return apperr.Validation(fmt.Sprintf("items[%d]: quantity must be at most %d", i, math.MaxInt32))
		}
		if item.Price < 0 {
			return apperr.Validation(fmt.Sprintf("items[%d]: price must not be negative", i))
		}
		if item.Price > 0 && int64(item.Quantity) > (math.MaxInt64-total)/item.Price {
			return apperr.Validation("order total is too large")
		}
		total += int64(item.Quantity) * item.Price
	}

	return nil
}

// Total is the sum of quantity*price over the request's items.
func (r CreateOrderRequest) Total() int64 {
	var total int64
	for _, item := range r.Items {
		total += int64(item.Quantity) * item.Price
	}
	return total
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// CreateOrder stores the order and all of its lines in one transaction.
// The total is always computed here from the lines.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		order = &models.Order{}

		var tableNumber sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_type, table_number, staff_username, total_amount, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 RETURNING id, order_type, table_number, staff_username, total_amount, status, created_at, updated_at`,
			req.OrderType, nullableInt(req.TableNumber), req.StaffUsername, req.Total(), models.OrderStatusPending,
		).Scan(
			&order.ID,
			&order.OrderType,
			&tableNumber,
			&order.StaffUsername,
			&order.TotalAmount,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		order.TableNumber = intPtr(tableNumber)

		for _, item := range req.Items {
			line := models.OrderItem{
				OrderID:  order.ID,
				Quantity: item.Quantity,
				Price:    item.Price,
				Subtotal: int64(item.Quantity) * item.Price,
			}
			menuItemID := item.MenuItemID
			line.MenuItemID = &menuItemID

			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, menu_item_id, quantity, price)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id`,
				order.ID, item.MenuItemID, item.Quantity, item.Price,
			).Scan(&line.ID)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}

			order.Items = append(order.Items, line)
		}

		return nil
	})

	if err != nil {
		return nil, storageError("order could not be saved", err)
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}
	var tableNumber sql.NullInt64

	query := `
		SELECT id, order_type, table_number, staff_username, total_amount, status, created_at, updated_at
		FROM orders
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.OrderType,
		&tableNumber,
		&order.StaffUsername,
		&order.TotalAmount,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("order not found", database.ErrOrderNotFound)
		}
		return nil, storageError("failed to load order", fmt.Errorf("get order: %w", err))
	}
	order.TableNumber = intPtr(tableNumber)

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.menu_item_id, COALESCE(mi.name, ''), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, storageError("failed to load order", fmt.Errorf("get order items: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var menuItemID sql.NullInt64
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&menuItemID,
			&item.Name,
			&item.Quantity,
			&item.Price,
		)
		if err != nil {
			return nil, storageError("failed to load order", fmt.Errorf("scan order item: %w", err))
		}
		if menuItemID.Valid {
			item.MenuItemID = &menuItemID.Int64
		}
		item.Subtotal = int64(item.Quantity) * item.Price
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to load order", fmt.Errorf("rows error: %w", err))
	}

	return order, nil
}

// ListOrdersCursor pages through all orders newest first using keyset
// pagination on (created_at, id).
func ListOrdersCursor(ctx context.Context, db *sql.DB, cursor string, limit int) (*OrderPage, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, apperr.Validation(fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}

	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, apperr.Validation("invalid cursor")
	}

	query := `
		SELECT id, order_type, table_number, staff_username, total_amount, status, created_at, updated_at
		FROM orders
		WHERE $1::bigint = 0 OR (created_at, id) < ($2, $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, after.ID, after.CreatedAt, limit+1)
	if err != nil {
		return nil, storageError("failed to list orders", fmt.Errorf("list orders: %w", err))
	}
	defer rows.Close()

	page := &OrderPage{Orders: make([]models.Order, 0, limit)}
	for rows.Next() {
		var order models.Order
		var tableNumber sql.NullInt64
		err := rows.Scan(
			&order.ID,
			&order.OrderType,
			&tableNumber,
			&order.StaffUsername,
			&order.TotalAmount,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, storageError("failed to list orders", fmt.Errorf("scan order: %w", err))
		}
		order.TableNumber = intPtr(tableNumber)
		page.Orders = append(page.Orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list orders", fmt.Errorf("rows error: %w", err))
	}

	if len(page.Orders) > limit {
		page.Orders = page.Orders[:limit]
		page.HasMore = true
		page.NextCursor = EncodeCursor(cursorAfter(page.Orders[limit-1]))
	}

	return page, nil
}

// UpdateOrderStatus moves a pending order to completed or cancelled. The
// row is locked for the duration of the check so two concurrent
// transitions cannot both succeed.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, status string) (*models.Order, error) {
	if status != models.OrderStatusCompleted && status != models.OrderStatusCancelled {
		return nil, apperr.Validation("status must be completed or cancelled")
	}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("order not found", database.ErrOrderNotFound)
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if current != models.OrderStatusPending {
			return apperr.Conflict(fmt.Sprintf("order is %s, only pending orders can change status", current))
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			status, id)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, storageError("failed to update order status", err)
	}

	return GetOrder(ctx, db, id)
}
