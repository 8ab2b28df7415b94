package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/safar/cafe-pos/internal/auth"
	"github.com/safar/cafe-pos/internal/models"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	DB            *sql.DB
	Verifier      auth.CredentialVerifier
	Tokens        *auth.TokenIssuer
	Authenticator auth.Authenticator
	Location      *time.Location
	Logger        *slog.Logger

	// Now is the clock used for "today"; nil means time.Now.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(RequestID())
	router.Use(RequestLogger(h.Logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		h.Logger.ErrorContext(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"request_id", c.GetString(requestIDKey),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("persistence_error", "internal server error"))
	}))
	router.Use(corsMiddleware(allowedOrigins))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})

	router.GET("/health", h.Health)
	router.POST("/login", h.Login)

	authed := router.Group("/")
	authed.Use(RequireAuth(h.Authenticator, h.Logger))
	{
		authed.GET("/me", h.Me)

		authed.GET("/menu", h.ListMenu)
		authed.GET("/menu/:id", h.GetMenuItem)

		authed.POST("/orders", h.CreateOrder)
		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/recent", h.RecentOrders)
		authed.GET("/orders/:id", h.GetOrder)
		authed.PATCH("/orders/:id/status", h.UpdateOrderStatus)

		admin := authed.Group("/")
		admin.Use(RequireRole(models.RoleAdmin, h.Logger))
		{
			admin.POST("/menu", h.CreateMenuItem)
			admin.PUT("/menu/:id", h.UpdateMenuItem)
			admin.DELETE("/menu/:id", h.DeleteMenuItem)

			admin.GET("/statistics/daily", h.DailyStatistics)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		if len(allowedOrigins) == 0 {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = allowedOrigins
		}
	}

	return cors.New(cfg)
}
