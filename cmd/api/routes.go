package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/komiwalnut/haroval/internal/httpapi"
	"github.com/komiwalnut/haroval/pkg/utils"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, sessionMW gin.HandlerFunc, db *sql.DB) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Public: session establishment and shared-deck reads.
	{
		api.POST("/auth/login", h.Login)
		api.POST("/auth/register", h.Register)
		api.POST("/auth/refresh", h.Refresh)
		api.POST("/auth/logout", h.Logout)

		api.GET("/auth/google", h.Google.Begin)
		api.GET("/auth/google/callback", h.Google.Callback)

		api.GET("/shared/:share_id", h.GetSharedDeck)
	}

	// Everything below requires a valid access-token cookie.
	gated := api.Group("")
	gated.Use(sessionMW)
	{
		gated.GET("/auth/me", h.Me)
		gated.PUT("/auth/profile", h.UpdateProfile)

		gated.GET("/dashboard", h.Dashboard)

		gated.POST("/decks", h.CreateDeck)
		gated.GET("/decks", h.ListDecks)
		gated.GET("/decks/:deck_id", h.GetDeck)
		gated.PUT("/decks/:deck_id", h.UpdateDeck)
		gated.DELETE("/decks/:deck_id", h.DeleteDeck)
		gated.POST("/decks/:deck_id/share", h.ShareDeck)
		gated.POST("/decks/:deck_id/unshare", h.UnshareDeck)

		gated.GET("/decks/:deck_id/cards", h.ListCards)
		gated.POST("/decks/:deck_id/cards", h.AddCard)
		gated.PUT("/decks/:deck_id/cards", h.ReplaceCards)

		gated.POST("/shared/:share_id/duplicate", h.DuplicateSharedDeck)
		gated.POST("/shared/:share_id/save", h.SaveSharedDeck)
		gated.GET("/saved-decks", h.ListSavedDecks)
		gated.DELETE("/saved-decks/:deck_id", h.UnsaveDeck)
	}
}
