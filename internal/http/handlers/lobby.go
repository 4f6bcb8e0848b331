package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/lobbies
func (h *Handler) CreateLobby(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	created, err := h.Lobbies.CreateLobby(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.Tokens.Issue(created.LobbyID, created.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"lobby_id":  created.LobbyID,
		"player_id": created.PlayerID,
		"token":     token,
	})
}

// POST /api/lobbies/:id/join
func (h *Handler) JoinLobby(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad request")
		return
	}

	res, err := h.Lobbies.JoinLobby(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.Tokens.Issue(c.Param("id"), res.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player_id": res.PlayerID,
		"players":   res.Players,
		"can_start": res.CanStart,
		"token":     token,
	})
}

// POST /api/lobbies/:id/character
func (h *Handler) SelectCharacter(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}
	var req struct {
		Character string `json:"character_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "character_name is required")
		return
	}

	if err := h.Lobbies.SelectCharacter(c.Request.Context(), c.Param("id"), playerID, req.Character); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /api/lobbies/:id/start, только хост
func (h *Handler) StartGame(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}

	res, err := h.Lobbies.StartGame(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/lobbies/:id/move
func (h *Handler) Move(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}
	var req struct {
		Destination string `json:"destination" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "destination is required")
		return
	}

	res, err := h.Lobbies.Move(c.Request.Context(), c.Param("id"), playerID, req.Destination)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/lobbies/:id/suggest - комната берется из позиции игрока
func (h *Handler) Suggest(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}
	var req struct {
		Suspect string `json:"suspect" binding:"required"`
		Weapon  string `json:"weapon" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "suspect and weapon are required")
		return
	}

	res, err := h.Lobbies.Suggest(c.Request.Context(), c.Param("id"), playerID, req.Suspect, req.Weapon)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/lobbies/:id/respond. Пустая card - нечем опровергнуть.
func (h *Handler) Respond(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}
	var req struct {
		SuggestionIndex *int   `json:"suggestion_idx" binding:"required"`
		Card            string `json:"card"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "suggestion_idx is required")
		return
	}

	res, err := h.Lobbies.Respond(c.Request.Context(), c.Param("id"), playerID, *req.SuggestionIndex, req.Card)
	if err != nil {
		writeError(c, err)
		return
	}
	// показанную карту видит только предположивший, он получает ее через сокет
	c.JSON(http.StatusOK, gin.H{
		"outcome":        res.Outcome,
		"next_responder": res.NextResponder,
		"next_turn":      res.NextTurn,
	})
}

// POST /api/lobbies/:id/accuse
func (h *Handler) Accuse(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}
	var req struct {
		Suspect string `json:"suspect" binding:"required"`
		Weapon  string `json:"weapon" binding:"required"`
		Room    string `json:"room" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "suspect, weapon and room are required")
		return
	}

	res, err := h.Lobbies.Accuse(c.Request.Context(), c.Param("id"), playerID, req.Suspect, req.Weapon, req.Room)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/lobbies/:id/end-turn
func (h *Handler) EndTurn(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}

	next, err := h.Lobbies.EndTurn(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current_player_id": next})
}

// GET /api/lobbies/:id/moves
func (h *Handler) ValidMoves(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}

	moves, err := h.Lobbies.ValidMoves(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": moves})
}

// GET /api/lobbies/:id/state
func (h *Handler) State(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}

	view, err := h.Lobbies.State(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/lobbies/:id/hand
func (h *Handler) Hand(c *gin.Context) {
	playerID, ok := h.player(c)
	if !ok {
		return
	}

	cards, err := h.Lobbies.Hand(c.Request.Context(), c.Param("id"), playerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}
