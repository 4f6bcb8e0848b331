package repository

import (
	"context"
	"encoding/json"

	"clue_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// журнал действий в лобби (таблица game_events)
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// создает новую запись в журнале
func (r *AuditRepository) Create(ctx context.Context, ev *domain.GameEvent) error {
	detailsJSON, err := json.Marshal(ev.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO game_events (lobby_id, player_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, ev.LobbyID, ev.PlayerID, ev.Action, detailsJSON)
	return err
}

// создает запись журнала внутри транзакции
func (r *AuditRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, ev *domain.GameEvent) error {
	detailsJSON, err := json.Marshal(ev.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO game_events (lobby_id, player_id, action, details)
		VALUES ($1, $2, $3, $4)
	`, ev.LobbyID, ev.PlayerID, ev.Action, detailsJSON)
	return err
}

// возвращает журнал лобби в хронологическом порядке
func (r *AuditRepository) GetByLobby(ctx context.Context, lobbyID string, limit int) ([]*domain.GameEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lobby_id, player_id, action, details, created_at
		FROM game_events
		WHERE lobby_id = $1
		ORDER BY created_at, id
		LIMIT $2
	`, lobbyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGameEvents(rows)
}

func scanGameEvents(rows pgx.Rows) ([]*domain.GameEvent, error) {
	var events []*domain.GameEvent
	for rows.Next() {
		var ev domain.GameEvent
		var detailsJSON []byte
		if err := rows.Scan(&ev.ID, &ev.LobbyID, &ev.PlayerID, &ev.Action, &detailsJSON, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &ev.Details); err != nil {
			ev.Details = make(map[string]any)
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}
