package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/cafe-pos/internal/store"
)

func (h *Handler) DailyStatistics(c *gin.Context) {
	identity, _ := CurrentIdentity(c)

	summary, err := store.DailySummary(c.Request.Context(), h.DB, store.DailySummaryRequest{
		CallerRole: identity.Role,
		Date:       c.Query("date"),
		Location:   h.Location,
		Now:        h.now(),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
