package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/shopspring/decimal"
)

const (
	dateLayout      = "2006-01-02"
	topSellingLimit = 10
	averageDecimals = 2
)

type DailySummaryRequest struct {
	CallerRole string

	// Date is a calendar day as YYYY-MM-DD; empty means today.
	Date string

	// Location defines calendar days and hour-of-day buckets.
	Location *time.Location

	// Now is the reference time for an empty Date.
	Now time.Time
}

// ResolveDay returns the half-open interval [start, end) covering the
// requested calendar day in loc.
func ResolveDay(date string, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	var start time.Time
	if date == "" {
		if now.IsZero() {
			now = time.Now()
		}
		local := now.In(loc)
		start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	} else {
		parsed, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("date must be formatted as YYYY-MM-DD")
		}
		start = parsed
	}

	return start, start.AddDate(0, 0, 1), nil
}

// AverageOrderValue is revenue/orders rounded to two places, or zero when
// there are no orders.
func AverageOrderValue(revenue, orders int64) decimal.Decimal {
	if orders <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(revenue).Div(decimal.NewFromInt(orders)).Round(averageDecimals)
}

type orderStamp struct {
	CreatedAt   time.Time
	TotalAmount int64
}

// BucketHourly groups orders by hour of day in loc. Hours without orders
// are omitted; the result is sorted by hour.
func BucketHourly(stamps []orderStamp, loc *time.Location) []models.HourlySales {
	if loc == nil {
		loc = time.Local
	}

	byHour := make(map[int]*models.HourlySales)
	for _, s := range stamps {
		hour := s.CreatedAt.In(loc).Hour()
		bucket, ok := byHour[hour]
		if !ok {
			bucket = &models.HourlySales{Hour: hour}
			byHour[hour] = bucket
		}
		bucket.Orders++
		bucket.Revenue += s.TotalAmount
	}

	hourly := make([]models.HourlySales, 0, len(byHour))
	for _, bucket := range byHour {
		hourly = append(hourly, *bucket)
	}
	sort.Slice(hourly, func(i, j int) bool { return hourly[i].Hour < hourly[j].Hour })

	return hourly
}

// DailySummary aggregates the completed orders of one calendar day. Only
// admins may read it. The four aggregates are read from one snapshot.
func DailySummary(ctx context.Context, db *sql.DB, req DailySummaryRequest) (*models.DailySummary, error) {
	if req.CallerRole != models.RoleAdmin {
		return nil, apperr.Authorization("admin access required")
	}

	start, end, err := ResolveDay(req.Date, req.Location, req.Now)
	if err != nil {
		return nil, err
	}

	result := &models.DailySummary{
		Date:            start.Format(dateLayout),
		RevenueByType:   make([]models.TypeRevenue, 0),
		TopSellingItems: make([]models.TopSellingItem, 0),
		HourlySales:     make([]models.HourlySales, 0),
	}

	err = database.WithTransaction(ctx, db, database.SnapshotTxOptions(), func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
			 FROM orders
			 WHERE status = $1 AND created_at >= $2 AND created_at < $3`,
			models.OrderStatusCompleted, start, end,
		).Scan(&result.Summary.TotalRevenue, &result.Summary.TotalOrders)
		if err != nil {
			return fmt.Errorf("summarize revenue: %w", err)
		}
		result.Summary.AverageOrderValue = AverageOrderValue(result.Summary.TotalRevenue, result.Summary.TotalOrders)

		if result.RevenueByType, err = revenueByType(ctx, tx, start, end); err != nil {
			return err
		}

		if result.TopSellingItems, err = topSellingItems(ctx, tx, start, end); err != nil {
			return err
		}

		stamps, err := completedOrderStamps(ctx, tx, start, end)
		if err != nil {
			return err
		}
		result.HourlySales = BucketHourly(stamps, start.Location())

		return nil
	})
	if err != nil {
		return nil, storageError("failed to compute statistics", err)
	}

	return result, nil
}

func revenueByType(ctx context.Context, tx *sql.Tx, start, end time.Time) ([]models.TypeRevenue, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT order_type, COALESCE(SUM(total_amount), 0), COUNT(*)
		 FROM orders
		 WHERE status = $1 AND created_at >= $2 AND created_at < $3
		 GROUP BY order_type
		 ORDER BY order_type`,
		models.OrderStatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("revenue by type: %w", err)
	}
	defer rows.Close()

	out := make([]models.TypeRevenue, 0)
	for rows.Next() {
		var tr models.TypeRevenue
		if err := rows.Scan(&tr.OrderType, &tr.Revenue, &tr.Count); err != nil {
			return nil, fmt.Errorf("scan revenue by type: %w", err)
		}
		out = append(out, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

// topSellingItems ranks menu items by quantity sold, ties broken by the
// lower menu item id. Lines whose menu item was deleted are not ranked.
func topSellingItems(ctx context.Context, tx *sql.Tx, start, end time.Time) ([]models.TopSellingItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT mi.id, mi.name, mi.category,
		        SUM(oi.quantity) AS total_quantity,
		        SUM(oi.quantity::bigint * oi.price) AS total_revenue
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN menu_items mi ON mi.id = oi.menu_item_id
		 WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3
		 GROUP BY mi.id, mi.name, mi.category
		 ORDER BY total_quantity DESC, mi.id ASC
		 LIMIT $4`,
		models.OrderStatusCompleted, start, end, topSellingLimit)
	if err != nil {
		return nil, fmt.Errorf("top selling items: %w", err)
	}
	defer rows.Close()

	out := make([]models.TopSellingItem, 0, topSellingLimit)
	for rows.Next() {
		var item models.TopSellingItem
		err := rows.Scan(
			&item.MenuItemID,
			&item.Name,
			&item.Category,
			&item.TotalQuantity,
			&item.TotalRevenue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan top selling item: %w", err)
		}
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return out, nil
}

func completedOrderStamps(ctx context.Context, tx *sql.Tx, start, end time.Time) ([]orderStamp, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT created_at, total_amount
		 FROM orders
		 WHERE status = $1 AND created_at >= $2 AND created_at < $3`,
		models.OrderStatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("hourly sales: %w", err)
	}
	defer rows.Close()

	var stamps []orderStamp
	for rows.Next() {
		var s orderStamp
		if err := rows.Scan(&s.CreatedAt, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan hourly sales: %w", err)
		}
		stamps = append(stamps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stamps, nil
}
