package store

import (
	"context"
	"encoding/json"
	"sync"

	"clue_backend/internal/game"
)

// MemoryStore держит снимки в памяти процесса. Используется без Redis и в тестах.
// Записи хранятся в JSON, чтобы загрузка не делила срезы с живой сессией.
type MemoryStore struct {
	mu      sync.RWMutex
	lobbies map[string][]byte
	players map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[string][]byte),
		players: make(map[string]map[string][]byte),
	}
}

func (m *MemoryStore) Save(_ context.Context, rec game.SessionRecord, players []game.PlayerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	byID := make(map[string][]byte, len(players))
	for _, p := range players {
		pr, err := json.Marshal(p)
		if err != nil {
			return err
		}
		byID[p.ID] = pr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lobbies[rec.ID] = raw
	m.players[rec.ID] = byID
	return nil
}

func (m *MemoryStore) Load(_ context.Context, lobbyID string) (*game.SessionRecord, []game.PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, nil, nil
	}
	var rec game.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, err
	}
	players := make([]game.PlayerRecord, 0, len(rec.Order))
	for _, id := range rec.Order {
		pr, ok := m.players[lobbyID][id]
		if !ok {
			return nil, nil, ErrIncomplete
		}
		var p game.PlayerRecord
		if err := json.Unmarshal(pr, &p); err != nil {
			return nil, nil, err
		}
		players = append(players, p)
	}
	return &rec, players, nil
}

func (m *MemoryStore) Exists(_ context.Context, lobbyID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.lobbies[lobbyID]
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lobbies, lobbyID)
	delete(m.players, lobbyID)
	return nil
}
