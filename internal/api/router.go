// Package api exposes the reporting services over an authenticated JSON API.
package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every route registered. Report and
// ticket surfaces need a session; exports, watchlists, and cache management
// are admin only.
func NewRouter(handlers *Handlers, authMW *AuthMiddleware) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", handlers.handleHealthz)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/login", handlers.handleLogin)
		apiGroup.POST("/logout", handlers.handleLogout)

		authed := apiGroup.Group("")
		authed.Use(authMW.RequireAuth())
		{
			authed.GET("/reports/monthly", handlers.handleMonthlyReport)
			authed.GET("/tickets", handlers.handleTickets)
			authed.POST("/assistant/chat", handlers.handleAssistantChat)

			admin := authed.Group("")
			admin.Use(authMW.RequireAdmin())
			{
				admin.GET("/exports/xero", handlers.handleXeroExport)
				admin.GET("/watchlists/over-estimate", handlers.handleOverEstimateWatchlist)
				admin.GET("/watchlists/aging", handlers.handleAgingWatchlist)
				admin.POST("/cache/clear", handlers.handleCacheClear)
			}
		}
	}

	return r
}
