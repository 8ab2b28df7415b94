package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/safar/cafe-pos/internal/models"
)

// OrderPage is one page of the newest-first order listing. NextCursor is
// empty on the last page.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// OrderCursor is the (created_at, id) key of the last order already seen.
type OrderCursor struct {
	CreatedAt time.Time `json:"t"`
	ID        int64     `json:"id"`
}

func cursorAfter(order models.Order) OrderCursor {
	return OrderCursor{CreatedAt: order.CreatedAt, ID: order.ID}
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by EncodeCursor. The empty string
// decodes to the zero cursor, meaning "start from the newest order".
func DecodeCursor(encoded string) (OrderCursor, error) {
	var cursor OrderCursor
	if encoded == "" {
		return cursor, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return OrderCursor{}, err
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return OrderCursor{}, err
	}
	if cursor.ID <= 0 || cursor.CreatedAt.IsZero() {
		return OrderCursor{}, errors.New("incomplete cursor")
	}
	return cursor, nil
}

func (c OrderCursor) IsZero() bool {
	return c.ID == 0
}
