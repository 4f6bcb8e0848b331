package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"clue_backend/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	requestTimeout = 5 * time.Second
	sendBuffer     = 256
)

type Client struct {
	LobbyID  string
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte

	Hub    *Hub
	engine Engine
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewClient(lobbyID, playerID string, conn *websocket.Conn, hub *Hub, engine Engine) *Client {
	return &Client{
		LobbyID:  lobbyID,
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Hub:      hub,
		engine:   engine,
		log:      logger.With("lobby_id", lobbyID, "player_id", playerID),
	}
}

// Run регистрирует клиента, отдает приветствие и снимок состояния и читает сокет до закрытия
func (c *Client) Run() {
	go c.writePump()

	c.Hub.Register(c)
	c.reply(Message{Type: MsgReady})

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	if view, err := c.engine.State(ctx, c.LobbyID, c.PlayerID); err == nil {
		c.reply(Message{Type: MsgState, Payload: view})
	}
	cancel()

	c.readPump()
}

// read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws: ошибка чтения", "error", err)
			}
			return
		}
		c.handle(raw)
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn("ws: ошибка записи", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handle разбирает одно входящее сообщение. Паника не должна рвать соединение.
func (c *Client) handle(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("ws: паника при обработке сообщения", "panic", r)
			c.reply(errorMessage(fmt.Errorf("panic: %v", r)))
		}
	}()

	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(errorMessage(errBadPayload))
		return
	}

	ctx, cancel := context.WithTimeout(logger.NewContext(context.Background(), c.log), requestTimeout)
	defer cancel()

	if err := c.dispatch(ctx, msg); err != nil {
		c.log.Debug("ws: сообщение отклонено", "type", msg.Type, "error", err)
		c.reply(errorMessage(err))
	}
}

// dispatch вызывает операцию лобби. Результаты мутаций приходят событиями через Hub.
func (c *Client) dispatch(ctx context.Context, msg inbound) error {
	switch msg.Type {
	case MsgSelectCharacter:
		var p selectCharacterPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return c.engine.SelectCharacter(ctx, c.LobbyID, c.PlayerID, p.Character)

	case MsgStartGame:
		_, err := c.engine.StartGame(ctx, c.LobbyID, c.PlayerID)
		return err

	case MsgMakeMove:
		var p movePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := c.engine.Move(ctx, c.LobbyID, c.PlayerID, p.Destination)
		return err

	case MsgMakeSuggestion:
		var p suggestionPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := c.engine.Suggest(ctx, c.LobbyID, c.PlayerID, p.Suspect, p.Weapon)
		return err

	case MsgDisproveSuggestion:
		var p disprovePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := c.engine.Respond(ctx, c.LobbyID, c.PlayerID, p.SuggestionIndex, p.Card)
		return err

	case MsgMakeAccusation:
		var p accusationPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := c.engine.Accuse(ctx, c.LobbyID, c.PlayerID, p.Suspect, p.Weapon, p.Room)
		return err

	case MsgEndTurn:
		_, err := c.engine.EndTurn(ctx, c.LobbyID, c.PlayerID)
		return err

	case MsgGetValidMoves:
		moves, err := c.engine.ValidMoves(ctx, c.LobbyID, c.PlayerID)
		if err != nil {
			return err
		}
		c.reply(Message{Type: MsgValidMoves, Payload: map[string]any{"moves": moves}})
		return nil

	case MsgGetMyCards:
		cards, err := c.engine.Hand(ctx, c.LobbyID, c.PlayerID)
		if err != nil {
			return err
		}
		c.reply(Message{Type: MsgYourCards, Payload: map[string]any{"cards": cards}})
		return nil
	}
	return errUnknownType
}

func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("ws: marshal error", "error", err, "type", msg.Type)
		return
	}
	c.enqueue(data)
}

// enqueue не блокирует воркер лобби: при переполненном буфере сообщение теряется
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		c.log.Warn("ws: буфер клиента переполнен, сообщение отброшено")
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}
