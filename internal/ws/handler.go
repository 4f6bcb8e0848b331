package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"clue_backend/internal/game"
	"clue_backend/internal/logger"
)

// TokenParser достает лобби и игрока из токена, выданного при входе
type TokenParser interface {
	Parse(token string) (lobbyID, playerID string, err error)
}

// содержит зависимости для обработки WebSocket
type WSHandler struct {
	Hub           *Hub
	Engine        Engine
	Tokens        TokenParser
	AllowedOrigin string
}

func NewWSHandler(hub *Hub, engine Engine, tokens TokenParser, allowedOrigin string) *WSHandler {
	return &WSHandler{
		Hub:           hub,
		Engine:        engine,
		Tokens:        tokens,
		AllowedOrigin: allowedOrigin,
	}
}

// HandleWS - GET /ws?token=...
func (h *WSHandler) HandleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required", "code": "TOKEN_REQUIRED"})
			return
		}

		lobbyID, playerID, err := h.Tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "INVALID_TOKEN"})
			return
		}

		// игрок должен состоять в лобби до апгрейда соединения
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		view, err := h.Engine.State(ctx, lobbyID, playerID)
		cancel()
		if err != nil {
			var ge *game.Error
			if errors.As(err, &ge) && ge.Kind == game.KindProtocol {
				c.JSON(http.StatusNotFound, gin.H{"error": ge.Message, "code": ge.Code})
				return
			}
			logger.Error("ws: не удалось проверить игрока", "error", err, "lobby_id", lobbyID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
			return
		}

		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if h.AllowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == h.AllowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws: ошибка апгрейда", "error", err)
			return
		}

		client := NewClient(view.ID, playerID, conn, h.Hub, h.Engine)
		logger.Info("ws: игрок подключен", "lobby_id", view.ID, "player_id", playerID)
		go client.Run()
	}
}
