package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type MenuItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MenuItemPatch holds the fields of a partial update; nil means unchanged.
type MenuItemPatch struct {
	Name     *string `json:"name"`
	Price    *int64  `json:"price"`
	Category *string `json:"category"`
}

func (p MenuItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Category == nil
}

type Order struct {
	ID            int64       `json:"id"`
	OrderType     string      `json:"order_type"`
	TableNumber   *int        `json:"table_number"`
	StaffUsername string      `json:"staff_username"`
	TotalAmount   int64       `json:"total_amount"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"order_id"`
	MenuItemID *int64 `json:"menu_item_id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
	Subtotal   int64  `json:"subtotal"`
}

// RecentOrder is one row of the recent-orders listing with its lines
// flattened into a display string.
type RecentOrder struct {
	ID            int64     `json:"id"`
	OrderType     string    `json:"order_type"`
	TableNumber   *int      `json:"table_number"`
	StaffUsername string    `json:"staff_username"`
	TotalAmount   int64     `json:"total_amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	Items         string    `json:"items"`
}

type DailySummary struct {
	Date            string           `json:"date"`
	Summary         RevenueSummary   `json:"summary"`
	RevenueByType   []TypeRevenue    `json:"revenue_by_type"`
	TopSellingItems []TopSellingItem `json:"top_selling_items"`
	HourlySales     []HourlySales    `json:"hourly_sales"`
}

type RevenueSummary struct {
	TotalRevenue      int64           `json:"total_revenue"`
	TotalOrders       int64           `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type TypeRevenue struct {
	OrderType string `json:"order_type"`
	Revenue   int64  `json:"revenue"`
	Count     int64  `json:"count"`
}

type TopSellingItem struct {
	MenuItemID    int64  `json:"menu_item_id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	TotalQuantity int64  `json:"total_quantity"`
	TotalRevenue  int64  `json:"total_revenue"`
}

type HourlySales struct {
	Hour    int   `json:"hour"`
	Orders  int64 `json:"orders"`
	Revenue int64 `json:"revenue"`
}

const (
	OrderTypeDineIn   = "dine-in"
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

func ValidOrderType(t string) bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
