package ws

import (
	"encoding/json"
	"sync"

	"clue_backend/internal/logger"
)

// Room - подключенные клиенты одного лобби
type Room struct {
	ID      string
	Clients map[string]*Client

	mu sync.RWMutex
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Clients: make(map[string]*Client),
	}
}

// add возвращает прежнего клиента того же игрока, если он был
func (r *Room) add(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.Clients[c.PlayerID]
	r.Clients[c.PlayerID] = c
	if prev == c {
		return nil
	}
	return prev
}

// remove удаляет клиента, только если он все еще текущий для игрока
func (r *Room) remove(c *Client) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.Clients[c.PlayerID]; !ok || cur != c {
		return len(r.Clients), false
	}
	delete(r.Clients, c.PlayerID)
	return len(r.Clients), true
}

func (r *Room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Clients)
}

func (r *Room) send(playerID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("ws: marshal error", "error", err, "type", msg.Type)
		return
	}

	r.mu.RLock()
	c, ok := r.Clients[playerID]
	r.mu.RUnlock()

	if !ok {
		logger.Debug("ws: игрок не подключен", "lobby_id", r.ID, "player_id", playerID, "type", msg.Type)
		return
	}
	c.enqueue(data)
}

func (r *Room) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("ws: marshal error", "error", err, "type", msg.Type)
		return
	}

	r.mu.RLock()
	clients := make([]*Client, 0, len(r.Clients))
	for _, c := range r.Clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(data)
	}
}
