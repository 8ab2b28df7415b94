package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/database"
)

type loginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	identity, err := h.Verifier.Verify(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		h.Logger.WarnContext(c.Request.Context(), "login failed",
			"username", body.Username,
			"request_id", c.GetString(requestIDKey),
		)
		respondError(c, h.Logger, err)
		return
	}

	token, err := h.Tokens.Issue(identity)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  identity,
		"token": token,
	})
}

// Me returns the identity behind the caller's token.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		respondError(c, h.Logger, apperr.Authentication("token required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}

func (h *Handler) Health(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "down"})
		return
	}

	if err := database.Ping(c.Request.Context(), h.DB, 2*time.Second); err != nil {
		h.Logger.WarnContext(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "db": "up"})
}
