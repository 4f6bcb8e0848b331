package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clue_backend/internal/http/handlers"
	"clue_backend/internal/http/middleware"
	"clue_backend/internal/service"
	"clue_backend/internal/ws"
)

type Deps struct {
	Lobbies handlers.Lobbies
	// nil - Postgres не настроен
	History     handlers.History
	Engine      ws.Engine
	Hub         *ws.Hub
	Tokens      *service.TokenIssuer
	RateLimiter *middleware.RateLimiter

	AllowedOrigin string
	PublicURL     string
	Version       string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Lobbies, d.History, d.Tokens, d.PublicURL)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": d.Version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", ws.NewWSHandler(d.Hub, d.Engine, d.Tokens, d.AllowedOrigin).HandleWS())

	api := r.Group("/api")
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Middleware())
	}

	api.GET("/history", h.RecentGames)

	lobbies := api.Group("/lobbies")
	{
		lobbies.POST("", h.CreateLobby)
		lobbies.POST("/:id/join", h.JoinLobby)
		lobbies.POST("/:id/character", h.SelectCharacter)
		lobbies.POST("/:id/start", h.StartGame)
		lobbies.POST("/:id/move", h.Move)
		lobbies.POST("/:id/suggest", h.Suggest)
		lobbies.POST("/:id/respond", h.Respond)
		lobbies.POST("/:id/accuse", h.Accuse)
		lobbies.POST("/:id/end-turn", h.EndTurn)

		lobbies.GET("/:id/moves", h.ValidMoves)
		lobbies.GET("/:id/state", h.State)
		lobbies.GET("/:id/hand", h.Hand)
		lobbies.GET("/:id/log", h.LobbyLog)
		lobbies.GET("/:id/qr", h.InviteQR)
	}
}
