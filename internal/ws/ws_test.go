package ws

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clue_backend/internal/game"
	"clue_backend/internal/service"
	"clue_backend/internal/store"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type env struct {
	svc    *service.LobbyService
	hub    *Hub
	tokens *service.TokenIssuer
	srv    *httptest.Server
	r      *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	svc := service.NewLobbyService(service.Options{
		Store:     store.NewMemoryStore(),
		Publisher: hub,
		NewRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(7, 11))
		},
	})
	t.Cleanup(svc.Close)

	tokens := service.NewTokenIssuer("ws-secret", time.Hour)
	r := gin.New()
	r.GET("/ws", NewWSHandler(hub, svc, tokens, "").HandleWS())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &env{svc: svc, hub: hub, tokens: tokens, srv: srv, r: r}
}

func (e *env) token(t *testing.T, lobbyID, playerID string) string {
	t.Helper()
	tok, err := e.tokens.Issue(lobbyID, playerID)
	require.NoError(t, err)
	return tok
}

func (e *env) dial(t *testing.T, lobbyID, playerID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + e.token(t, lobbyID, playerID)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	// ready приходит после регистрации в хабе
	readUntil(t, conn, MsgReady)
	readUntil(t, conn, MsgState)
	return conn
}

// readUntil читает сообщения до первого сообщения типа typ включительно
func readUntil(t *testing.T, conn *websocket.Conn, typ string) []received {
	t.Helper()
	var out []received
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", typ)
		out = append(out, msg)
		if msg.Type == typ {
			return out
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func count(msgs []received, typ string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

func TestWS_StartRoutesPrivateAndBroadcast(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateLobby(ctx, "Host")
	require.NoError(t, err)
	joined, err := e.svc.JoinLobby(ctx, created.LobbyID, "Guest")
	require.NoError(t, err)
	// третий игрок без сокета: его приватные события просто никому не уходят
	_, err = e.svc.JoinLobby(ctx, created.LobbyID, "Offline")
	require.NoError(t, err)

	host := e.dial(t, created.LobbyID, created.PlayerID)
	guest := e.dial(t, strings.ToLower(created.LobbyID), joined.PlayerID)
	assert.Equal(t, 2, e.hub.ClientCount(created.LobbyID))

	send(t, host, MsgStartGame, nil)

	var started game.GameStartedPayload
	for name, conn := range map[string]*websocket.Conn{"host": host, "guest": guest} {
		msgs := readUntil(t, conn, game.EventGameStarted)
		if count(msgs, game.EventCardsDealt) == 0 {
			msgs = append(msgs, readUntil(t, conn, game.EventCardsDealt)...)
		}
		// следующий ответ на get_my_cards; лишней раздачи до него быть не должно
		send(t, conn, MsgGetMyCards, nil)
		msgs = append(msgs, readUntil(t, conn, MsgYourCards)...)
		assert.Equal(t, 1, count(msgs, game.EventCardsDealt), name)

		for _, m := range msgs {
			switch m.Type {
			case game.EventGameStarted:
				require.NoError(t, json.Unmarshal(m.Payload, &started))
			case MsgYourCards:
				var p struct {
					Cards []game.Card `json:"cards"`
				}
				require.NoError(t, json.Unmarshal(m.Payload, &p))
				assert.Len(t, p.Cards, 6, name)
			}
		}
	}
	require.Len(t, started.TurnOrder, 3)

	// не свой ход - ошибка только отправителю
	waiting := host
	if started.CurrentPlayerID == created.PlayerID {
		waiting = guest
	}
	send(t, waiting, MsgEndTurn, nil)
	msgs := readUntil(t, waiting, MsgError)
	var ep errorPayload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Payload, &ep))
	assert.Equal(t, game.ErrNotYourTurn.Code, ep.Code)
}

func TestWS_BadMessages(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.CreateLobby(context.Background(), "Host")
	require.NoError(t, err)
	conn := e.dial(t, created.LobbyID, created.PlayerID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msgs := readUntil(t, conn, MsgError)
	var ep errorPayload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Payload, &ep))
	assert.Equal(t, "BAD_PAYLOAD", ep.Code)

	send(t, conn, "teleport_me", nil)
	msgs = readUntil(t, conn, MsgError)
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Payload, &ep))
	assert.Equal(t, "UNKNOWN_MESSAGE", ep.Code)

	send(t, conn, MsgSelectCharacter, map[string]string{"character_name": "Mrs. Peacock"})
	msgs = readUntil(t, conn, game.EventCharacterSelected)
	assert.Equal(t, 0, count(msgs, MsgError))
}

func TestWS_ReconnectReplacesClient(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.CreateLobby(context.Background(), "Host")
	require.NoError(t, err)

	first := e.dial(t, created.LobbyID, created.PlayerID)
	_ = e.dial(t, created.LobbyID, created.PlayerID)
	assert.Equal(t, 1, e.hub.ClientCount(created.LobbyID))

	// старое соединение закрывается сервером
	require.NoError(t, first.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHandleWS_Rejects(t *testing.T) {
	e := newEnv(t)
	created, err := e.svc.CreateLobby(context.Background(), "Host")
	require.NoError(t, err)

	foreign, err := service.NewTokenIssuer("other-secret", time.Hour).Issue(created.LobbyID, created.PlayerID)
	require.NoError(t, err)

	cases := []struct {
		name  string
		query string
		code  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"raw player id", "?lobby_id=" + created.LobbyID + "&player_id=" + created.PlayerID, http.StatusUnauthorized},
		{"garbage token", "?token=abc", http.StatusUnauthorized},
		{"foreign key", "?token=" + foreign, http.StatusUnauthorized},
		{"unknown lobby", "?token=" + e.token(t, "ZZZZZZ", created.PlayerID), http.StatusNotFound},
		{"unknown player", "?token=" + e.token(t, created.LobbyID, "x"), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ws"+tc.query, nil)
			e.r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
