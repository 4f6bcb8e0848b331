package ws

import (
	"sync"

	"clue_backend/internal/game"
	"clue_backend/internal/logger"
)

// Hub держит комнаты сокетов по лобби и раздает события лобби их клиентам
type Hub struct {
	Rooms map[string]*Room
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Rooms: make(map[string]*Room),
	}
}

// Register добавляет клиента в комнату его лобби. Прежнее соединение того же
// игрока закрывается.
func (h *Hub) Register(c *Client) *Room {
	h.mu.Lock()
	room, ok := h.Rooms[c.LobbyID]
	if !ok {
		room = NewRoom(c.LobbyID)
		h.Rooms[c.LobbyID] = room
	}
	prev := room.add(c)
	h.mu.Unlock()

	if prev != nil {
		logger.Info("ws: заменено соединение игрока", "lobby_id", c.LobbyID, "player_id", c.PlayerID)
		prev.close()
	}
	return room
}

// Unregister убирает клиента; пустая комната удаляется
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.Rooms[c.LobbyID]
	if !ok {
		return
	}
	if left, removed := room.remove(c); removed && left == 0 {
		delete(h.Rooms, c.LobbyID)
		logger.Debug("ws: комната закрыта", "lobby_id", c.LobbyID)
	}
}

// Publish доставляет события: широковещательные - всем в комнате,
// приватные - только адресату.
func (h *Hub) Publish(lobbyID string, events []game.Event) {
	h.mu.RLock()
	room, ok := h.Rooms[lobbyID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	for _, ev := range events {
		msg := Message{Type: ev.Type, Payload: ev.Payload}
		switch ev.Audience {
		case game.AudiencePlayer:
			room.send(ev.PlayerID, msg)
		default:
			room.broadcast(msg)
		}
	}
}

// ClientCount - число подключенных клиентов лобби
func (h *Hub) ClientCount(lobbyID string) int {
	h.mu.RLock()
	room, ok := h.Rooms[lobbyID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	return room.size()
}
