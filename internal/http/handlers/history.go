package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clue_backend/internal/service"
)

const maxHistoryLimit = 100

// GET /api/history?limit= - последние завершенные партии
func (h *Handler) RecentGames(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled", "code": "UNAVAILABLE"})
		return
	}

	games, err := h.History.RecentGames(c.Request.Context(), parseLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// GET /api/lobbies/:id/log?limit= - журнал лобби
func (h *Handler) LobbyLog(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled", "code": "UNAVAILABLE"})
		return
	}

	events, err := h.History.LobbyLog(c.Request.Context(), service.NormalizeLobbyID(c.Param("id")), parseLimit(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		return 20
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
