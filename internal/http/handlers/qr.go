package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"clue_backend/internal/game"
	"clue_backend/internal/service"
)

const qrSize = 320

// GET /api/lobbies/:id/qr - PNG с QR-кодом ссылки-приглашения в лобби
func (h *Handler) InviteQR(c *gin.Context) {
	id := service.NormalizeLobbyID(c.Param("id"))
	ok, err := h.Lobbies.Exists(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, game.ErrLobbyNotFound)
		return
	}

	png, err := qrcode.Encode(h.inviteURL(c, id), qrcode.Medium, qrSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed", "code": "INTERNAL"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) inviteURL(c *gin.Context, lobbyID string) string {
	base := strings.TrimRight(h.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/?lobby=" + url.QueryEscape(lobbyID)
}
