package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(n int) *int { return &n }

func TestCreateOrderRequestValidate(t *testing.T) {
	item := OrderItemRequest{MenuItemID: 1, Quantity: 2, Price: 45000}

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr string
	}{
		{
			name: "valid dine-in",
			req:  CreateOrderRequest{OrderType: "dine-in", TableNumber: table(5), StaffUsername: "staff", Items: []OrderItemRequest{item}},
		},
		{
			name: "valid takeaway",
			req:  CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{item}},
		},
		{
			name:    "unknown type",
			req:     CreateOrderRequest{OrderType: "drive-thru", StaffUsername: "staff", Items: []OrderItemRequest{item}},
			wantErr: "order_type must be one of",
		},
		{
			name:    "dine-in without table",
			req:     CreateOrderRequest{OrderType: "dine-in", StaffUsername: "staff", Items: []OrderItemRequest{item}},
			wantErr: "table_number is required",
		},
		{
			name:    "dine-in with zero table",
			req:     CreateOrderRequest{OrderType: "dine-in", TableNumber: table(0), StaffUsername: "staff", Items: []OrderItemRequest{item}},
			wantErr: "table_number must be between 1 and 2147483647",
		},
		{
			name:    "dine-in with table beyond int4",
			req:     CreateOrderRequest{OrderType: "dine-in", TableNumber: table(math.MaxInt32 + 1), StaffUsername: "staff", Items: []OrderItemRequest{item}},
			wantErr: "table_number must be between 1 and 2147483647",
		},
		{
			name:    "delivery with table",
			req:     CreateOrderRequest{OrderType: "delivery", TableNumber: table(3), StaffUsername: "staff", Items: []OrderItemRequest{item}},
			wantErr: "only allowed for dine-in",
		},
		{
			name:    "missing creator",
			req:     CreateOrderRequest{OrderType: "takeaway", StaffUsername: "  ", Items: []OrderItemRequest{item}},
			wantErr: "creator is required",
		},
		{
			name:    "no items",
			req:     CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff"},
			wantErr: "items must not be empty",
		},
		{
			name:    "zero quantity",
			req:     CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{{MenuItemID: 1, Quantity: 0, Price: 100}}},
			wantErr: "quantity must be at least 1",
		},
		{
			name:    "quantity beyond int4",
			req:     CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{{MenuItemID: 1, Quantity: 3000000000, Price: 100}}},
			wantErr: "items[0]: quantity must be at most 2147483647",
		},
		{
			name: "largest int4 quantity",
			req:  CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{{MenuItemID: 1, Quantity: math.MaxInt32, Price: 100}}},
		},
		{
			name:    "negative price",
			req:     CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{{MenuItemID: 1, Quantity: 1, Price: -1}}},
			wantErr: "price must not be negative",
		},
		{
			name:    "missing menu item id",
			req:     CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{{Quantity: 1, Price: 100}}},
			wantErr: "menu item id must be positive",
		},
		{
			name: "overflowing total",
			req: CreateOrderRequest{OrderType: "takeaway", StaffUsername: "staff", Items: []OrderItemRequest{
				{MenuItemID: 1, Quantity: 2, Price: 1 << 62},
			}},
			wantErr: "too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateOrderRequestTotal(t *testing.T) {
	req := CreateOrderRequest{Items: []OrderItemRequest{
		{MenuItemID: 1, Quantity: 2, Price: 45000},
		{MenuItemID: 2, Quantity: 1, Price: 25000},
		{MenuItemID: 3, Quantity: 3, Price: 0},
	}}

	assert.Equal(t, int64(115000), req.Total())
}

func TestCursorRoundTrip(t *testing.T) {
	want := OrderCursor{CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), ID: 42}

	got, err := DecodeCursor(EncodeCursor(want))
	require.NoError(t, err)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)

	empty, err := DecodeCursor("")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = DecodeCursor("not base64!")
	assert.Error(t, err)

	_, err = DecodeCursor(EncodeCursor(OrderCursor{ID: 7}))
	assert.Error(t, err)
}

func TestParseLimit(t *testing.T) {
	limit, err := ParseLimit("", DefaultRecentLimit)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	limit, err = ParseLimit("3", DefaultRecentLimit)
	require.NoError(t, err)
	assert.Equal(t, 3, limit)

	for _, raw := range []string{"abc", "0", "-5", "101", "2.5"} {
		_, err := ParseLimit(raw, DefaultRecentLimit)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "limit %q", raw)
	}
}

func TestResolveDay(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)

	start, end, err := ResolveDay("2024-03-01", loc, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, loc), end)

	// 20:00 UTC on the 1st is already the 2nd in UTC+7.
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	start, _, err = ResolveDay("", loc, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", start.Format("2006-01-02"))

	for _, bad := range []string{"01-03-2024", "2024-13-01", "yesterday"} {
		_, _, err := ResolveDay(bad, loc, now)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "date %q", bad)
	}
}

func TestAverageOrderValue(t *testing.T) {
	assert.True(t, AverageOrderValue(0, 0).Equal(decimal.Zero))
	assert.Equal(t, "33333.33", AverageOrderValue(100000, 3).String())
	assert.Equal(t, "45000", AverageOrderValue(90000, 2).String())
}

func TestBucketHourly(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	stamps := []orderStamp{
		{CreatedAt: time.Date(2024, 3, 1, 2, 15, 0, 0, time.UTC), TotalAmount: 45000},
		{CreatedAt: time.Date(2024, 3, 1, 1, 59, 0, 0, time.UTC), TotalAmount: 25000},
		{CreatedAt: time.Date(2024, 3, 1, 2, 45, 0, 0, time.UTC), TotalAmount: 30000},
	}

	hourly := BucketHourly(stamps, loc)

	assert.Equal(t, []models.HourlySales{
		{Hour: 8, Orders: 1, Revenue: 25000},
		{Hour: 9, Orders: 2, Revenue: 75000},
	}, hourly)

	empty := BucketHourly(nil, loc)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestValidateMenuCategory(t *testing.T) {
	for raw, want := range map[string]string{
		"  Cold Coffee ": "Cold Coffee",
		"Cà phê":         "Cà phê",
		"Trà sữa\t":      "Trà sữa",
		"☕":              "☕",
	} {
		got, err := validateMenuCategory(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := validateMenuCategory("   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDailySummaryRequiresAdmin(t *testing.T) {
	_, err := DailySummary(context.Background(), nil, DailySummaryRequest{CallerRole: models.RoleStaff})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestUpdateMenuItemRejectsEmptyPatch(t *testing.T) {
	_, err := UpdateMenuItem(context.Background(), nil, 1, models.MenuItemPatch{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
