package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clue_backend/internal/game"
)

// ErrIncomplete - запись лобби есть, но части записей игроков не хватает
var ErrIncomplete = errors.New("lobby snapshot incomplete")

const keyPrefix = "clue:lobby:"

func lobbyKey(id string) string { return keyPrefix + id }

func playerKey(lobbyID, playerID string) string {
	return keyPrefix + lobbyID + ":player:" + playerID
}

// RedisStore хранит снимок сессии отдельным ключом, а каждого игрока своим ключом.
// Все ключи лобби пишутся одной транзакцией и получают одинаковый TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Connect создает клиента и проверяет соединение
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) Save(ctx context.Context, rec game.SessionRecord, players []game.PlayerRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal lobby %s: %w", rec.ID, err)
	}
	encoded := make(map[string][]byte, len(players))
	for _, p := range players {
		pr, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal player %s: %w", p.ID, err)
		}
		encoded[p.ID] = pr
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lobbyKey(rec.ID), raw, s.ttl)
		for id, pr := range encoded {
			pipe.Set(ctx, playerKey(rec.ID, id), pr, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save lobby %s: %w", rec.ID, err)
	}
	return nil
}

// Load возвращает nil-запись, если лобби нет или срок хранения истек
func (s *RedisStore) Load(ctx context.Context, lobbyID string) (*game.SessionRecord, []game.PlayerRecord, error) {
	raw, err := s.rdb.Get(ctx, lobbyKey(lobbyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load lobby %s: %w", lobbyID, err)
	}

	var rec game.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, fmt.Errorf("decode lobby %s: %w", lobbyID, err)
	}
	if len(rec.Order) == 0 {
		return &rec, nil, nil
	}

	keys := make([]string, 0, len(rec.Order))
	for _, id := range rec.Order {
		keys = append(keys, playerKey(lobbyID, id))
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("load players of %s: %w", lobbyID, err)
	}

	players := make([]game.PlayerRecord, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			return nil, nil, fmt.Errorf("player %s of %s: %w", rec.Order[i], lobbyID, ErrIncomplete)
		}
		var p game.PlayerRecord
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, nil, fmt.Errorf("decode player %s: %w", rec.Order[i], err)
		}
		players = append(players, p)
	}
	return &rec, players, nil
}

func (s *RedisStore) Exists(ctx context.Context, lobbyID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, lobbyKey(lobbyID)).Result()
	if err != nil {
		return false, fmt.Errorf("exists lobby %s: %w", lobbyID, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, lobbyID string) error {
	keys := []string{lobbyKey(lobbyID)}
	raw, err := s.rdb.Get(ctx, lobbyKey(lobbyID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("delete lobby %s: %w", lobbyID, err)
	}
	var rec game.SessionRecord
	if err := json.Unmarshal(raw, &rec); err == nil {
		for _, id := range rec.Order {
			keys = append(keys, playerKey(lobbyID, id))
		}
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete lobby %s: %w", lobbyID, err)
	}
	return nil
}
