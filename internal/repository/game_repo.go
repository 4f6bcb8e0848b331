package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"clue_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// история завершенных партий (таблица games)
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// SaveFinished пишет итог партии и запись game_end в журнал одной транзакцией
func (r *GameRepository) SaveFinished(ctx context.Context, g *domain.FinishedGame, audit *AuditRepository) (int64, error) {
	solutionJSON, err := json.Marshal(g.Solution)
	if err != nil {
		return 0, fmt.Errorf("marshal solution: %w", err)
	}
	playersJSON, err := json.Marshal(g.Players)
	if err != nil {
		return 0, fmt.Errorf("marshal players: %w", err)
	}

	var id int64
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO games (lobby_id, winner_id, winner_name, reason, solution, players,
			                   suggestions, accusations, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, g.LobbyID, g.WinnerID, g.WinnerName, g.Reason, solutionJSON, playersJSON,
			g.Suggestions, g.Accusations, g.StartedAt, g.FinishedAt).Scan(&id)
		if err != nil {
			return err
		}
		if audit == nil {
			return nil
		}
		return audit.CreateWithTx(ctx, tx, &domain.GameEvent{
			LobbyID:  g.LobbyID,
			PlayerID: g.WinnerID,
			Action:   domain.ActionGameEnd,
			Details: map[string]any{
				"game_id": id,
				"reason":  g.Reason,
			},
		})
	})
	if err != nil {
		return 0, fmt.Errorf("save finished game %s: %w", g.LobbyID, err)
	}
	g.ID = id
	return id, nil
}

// возвращает последние завершенные партии
func (r *GameRepository) GetRecent(ctx context.Context, limit int) ([]*domain.FinishedGame, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lobby_id, winner_id, winner_name, reason, solution, players,
		       suggestions, accusations, started_at, finished_at
		FROM games
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*domain.FinishedGame
	for rows.Next() {
		var g domain.FinishedGame
		var solutionJSON, playersJSON []byte
		if err := rows.Scan(&g.ID, &g.LobbyID, &g.WinnerID, &g.WinnerName, &g.Reason, &solutionJSON, &playersJSON,
			&g.Suggestions, &g.Accusations, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(solutionJSON, &g.Solution); err != nil {
			g.Solution = make(map[string]any)
		}
		_ = json.Unmarshal(playersJSON, &g.Players)
		games = append(games, &g)
	}
	return games, rows.Err()
}
