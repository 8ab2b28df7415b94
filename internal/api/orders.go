package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/store"
)

const defaultOrderPageSize = 20

type createOrderBody struct {
	OrderType   string          `json:"order_type"`
	TableNumber *int            `json:"table_number"`
	Items       []orderItemBody `json:"items"`
	// TotalAmount is accepted for compatibility and never trusted.
	TotalAmount *int64 `json:"total_amount"`
}

// orderItemBody accepts the menu item under either "menu_item_id" or "id".
type orderItemBody struct {
	MenuItemID *int64 `json:"menu_item_id"`
	ID         *int64 `json:"id"`
	Quantity   int    `json:"quantity"`
	Price      *int64 `json:"price"`
}

type updateStatusBody struct {
	Status string `json:"status" binding:"required"`
}

func (b createOrderBody) toRequest(creator string) (store.CreateOrderRequest, error) {
	req := store.CreateOrderRequest{
		OrderType:     b.OrderType,
		TableNumber:   b.TableNumber,
		StaffUsername: creator,
		Items:         make([]store.OrderItemRequest, 0, len(b.Items)),
	}

	for i, item := range b.Items {
		var menuItemID int64
		switch {
		case item.MenuItemID != nil:
			menuItemID = *item.MenuItemID
		case item.ID != nil:
			menuItemID = *item.ID
		default:
			return req, apperr.Validation(fmt.Sprintf("items[%d]: menu_item_id is required", i))
		}
		if item.Price == nil {
			return req, apperr.Validation(fmt.Sprintf("items[%d]: price is required", i))
		}

		req.Items = append(req.Items, store.OrderItemRequest{
			MenuItemID: menuItemID,
			Quantity:   item.Quantity,
			Price:      *item.Price,
		})
	}

	return req, nil
}

func (h *Handler) CreateOrder(c *gin.Context) {
	identity, _ := CurrentIdentity(c)

	var body createOrderBody
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	req, err := body.toRequest(identity.Username)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	order, err := store.CreateOrder(c.Request.Context(), h.DB, req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	if body.TotalAmount != nil && *body.TotalAmount != order.TotalAmount {
		h.Logger.WarnContext(c.Request.Context(), "client total differs from computed total",
			"order_id", order.ID,
			"client_total", *body.TotalAmount,
			"computed_total", order.TotalAmount,
			"request_id", c.GetString(requestIDKey),
		)
	}

	h.Logger.InfoContext(c.Request.Context(), "order created",
		"order_id", order.ID,
		"order_type", order.OrderType,
		"total_amount", order.TotalAmount,
		"staff", order.StaffUsername,
	)

	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"status":       order.Status,
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	limit, err := store.ParseLimit(c.Query("limit"), defaultOrderPageSize)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	page, err := store.ListOrdersCursor(c.Request.Context(), h.DB, c.Query("cursor"), limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) RecentOrders(c *gin.Context) {
	limit, err := store.ParseLimit(c.Query("limit"), store.DefaultRecentLimit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	orders, err := store.RecentOrders(c.Request.Context(), h.DB, limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := parseID(c, "order")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	order, err := store.GetOrder(c.Request.Context(), h.DB, id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := parseID(c, "order")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	var body updateStatusBody
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	order, err := store.UpdateOrderStatus(c.Request.Context(), h.DB, id, body.Status)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	h.Logger.InfoContext(c.Request.Context(), "order status changed",
		"order_id", order.ID,
		"status", order.Status,
	)

	c.JSON(http.StatusOK, order)
}
