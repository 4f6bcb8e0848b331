package service

import (
	"context"

	"clue_backend/internal/domain"
	"clue_backend/internal/logger"
	"clue_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// пишет журнал действий лобби и историю завершенных партий в Postgres
type HistoryService struct {
	games *repository.GameRepository
	audit *repository.AuditRepository
}

func NewHistoryService(db *pgxpool.Pool) *HistoryService {
	return &HistoryService{
		games: repository.NewGameRepository(db),
		audit: repository.NewAuditRepository(db),
	}
}

// создает новую запись в журнале лобби
func (s *HistoryService) LogEvent(ctx context.Context, lobbyID, playerID, action string, details map[string]any) {
	ev := &domain.GameEvent{
		LobbyID:  lobbyID,
		PlayerID: playerID,
		Action:   action,
		Details:  details,
	}

	if err := s.audit.Create(ctx, ev); err != nil {
		logger.WithContext(ctx).Error("не удалось создать запись журнала", "error", err, "action", action, "lobby_id", lobbyID)
	}
}

// сохраняет итог партии вместе с записью game_end
func (s *HistoryService) SaveFinished(ctx context.Context, g *domain.FinishedGame) {
	id, err := s.games.SaveFinished(ctx, g, s.audit)
	if err != nil {
		logger.Error("не удалось сохранить историю партии", "error", err, "lobby_id", g.LobbyID)
		return
	}
	logger.Info("game history saved", "lobby_id", g.LobbyID, "game_id", id, "winner", g.WinnerID)
}

// возвращает последние завершенные партии
func (s *HistoryService) RecentGames(ctx context.Context, limit int) ([]*domain.FinishedGame, error) {
	return s.games.GetRecent(ctx, limit)
}

// возвращает журнал лобби
func (s *HistoryService) LobbyLog(ctx context.Context, lobbyID string, limit int) ([]*domain.GameEvent, error) {
	return s.audit.GetByLobby(ctx, lobbyID, limit)
}
