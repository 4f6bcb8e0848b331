package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clue_backend/internal/domain"
	"clue_backend/internal/game"
	"clue_backend/internal/logger"
	"clue_backend/internal/service"
)

// Lobbies - операции лобби, которые отдает REST
type Lobbies interface {
	CreateLobby(ctx context.Context, hostName string) (service.LobbyCreated, error)
	JoinLobby(ctx context.Context, lobbyID, name string) (game.JoinResult, error)
	SelectCharacter(ctx context.Context, lobbyID, playerID, character string) error
	StartGame(ctx context.Context, lobbyID, playerID string) (game.StartResult, error)
	Move(ctx context.Context, lobbyID, playerID, destination string) (game.MoveResult, error)
	Suggest(ctx context.Context, lobbyID, playerID, suspect, weapon string) (game.SuggestResult, error)
	Respond(ctx context.Context, lobbyID, playerID string, index int, card string) (game.RespondResult, error)
	Accuse(ctx context.Context, lobbyID, playerID, suspect, weapon, room string) (game.AccuseResult, error)
	EndTurn(ctx context.Context, lobbyID, playerID string) (string, error)
	ValidMoves(ctx context.Context, lobbyID, playerID string) ([]game.MoveOption, error)
	State(ctx context.Context, lobbyID, playerID string) (game.SessionView, error)
	Hand(ctx context.Context, lobbyID, playerID string) ([]game.Card, error)
	Exists(ctx context.Context, lobbyID string) (bool, error)
}

// History - архив партий, есть только при настроенном Postgres
type History interface {
	RecentGames(ctx context.Context, limit int) ([]*domain.FinishedGame, error)
	LobbyLog(ctx context.Context, lobbyID string, limit int) ([]*domain.GameEvent, error)
}

// Tokens выдает и проверяет токены игроков
type Tokens interface {
	Issue(lobbyID, playerID string) (string, error)
	Parse(token string) (lobbyID, playerID string, err error)
}

type Handler struct {
	Lobbies Lobbies
	History History
	Tokens  Tokens
	// адрес фронта для ссылки-приглашения; пустой - берем хост запроса
	PublicURL string
}

func NewHandler(lobbies Lobbies, history History, tokens Tokens, publicURL string) *Handler {
	return &Handler{Lobbies: lobbies, History: history, Tokens: tokens, PublicURL: publicURL}
}

// player достает игрока из Authorization: Bearer или ?token=.
// Токен выдан на конкретное лобби и к другому не подходит.
func (h *Handler) player(c *gin.Context) (string, bool) {
	raw := c.Query("token")
	if auth := c.GetHeader("Authorization"); auth != "" {
		raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required", "code": "TOKEN_REQUIRED"})
		return "", false
	}

	lobbyID, playerID, err := h.Tokens.Parse(raw)
	if err == nil && lobbyID != service.NormalizeLobbyID(c.Param("id")) {
		err = service.ErrInvalidToken
	}
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return playerID, true
}

// writeError переводит ошибку движка в HTTP статус
func writeError(c *gin.Context, err error) {
	var ge *game.Error
	switch {
	case errors.Is(err, service.ErrServiceClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "UNAVAILABLE"})
		return
	case !errors.As(err, &ge) || ge.Kind == game.KindInvariant:
		logger.WithContext(c.Request.Context()).Error("request failed", "error", err, "path", c.FullPath(), "lobby_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
		return
	}

	status := http.StatusUnprocessableEntity
	if ge.Kind == game.KindProtocol {
		switch ge.Code {
		case game.ErrLobbyNotFound.Code, game.ErrPlayerNotFound.Code:
			status = http.StatusNotFound
		case service.ErrInvalidToken.Code:
			status = http.StatusUnauthorized
		default:
			status = http.StatusConflict
		}
	}
	c.JSON(status, gin.H{"error": ge.Message, "code": ge.Code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "BAD_REQUEST"})
}
