package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/store"
)

type createMenuItemBody struct {
	Name     string `json:"name" binding:"required"`
	Price    *int64 `json:"price" binding:"required,min=0"`
	Category string `json:"category" binding:"required"`
}

func (h *Handler) ListMenu(c *gin.Context) {
	items, err := store.ListMenuItems(c.Request.Context(), h.DB, c.Query("category"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	id, err := parseID(c, "menu item")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	item, err := store.GetMenuItem(c.Request.Context(), h.DB, id)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) CreateMenuItem(c *gin.Context) {
	var body createMenuItemBody
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	item, err := store.CreateMenuItem(c.Request.Context(), h.DB, body.Name, *body.Price, body.Category)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, err := parseID(c, "menu item")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	var patch models.MenuItemPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	item, err := store.UpdateMenuItem(c.Request.Context(), h.DB, id, patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, err := parseID(c, "menu item")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	if err := store.DeleteMenuItem(c.Request.Context(), h.DB, id); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
