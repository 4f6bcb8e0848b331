package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"clue_backend/internal/domain"
	"clue_backend/internal/game"
	"clue_backend/internal/logger"
)

type command struct {
	// контекст вызывающего; проверяется воркером при извлечении из очереди
	ctx   context.Context
	op    string
	apply func(*game.Session) ([]game.Event, error)
	done  chan error
}

type lobby struct {
	id      string
	session *game.Session
	cmds    chan command
	quit    chan struct{}
	// закрывается, когда воркер вышел
	done    chan struct{}
	log     *slog.Logger

	// пишет только воркер
	startedAt time.Time

	active   atomic.Int64
	finished atomic.Int64
}

func newLobby(id string, sess *game.Session, queue int, now time.Time) *lobby {
	l := &lobby{
		id:        id,
		session:   sess,
		cmds:      make(chan command, queue),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		log:       logger.ForLobby(id),
		startedAt: now,
	}
	l.active.Store(now.UnixNano())
	if sess.Status() == game.StatusFinished {
		l.finished.Store(now.UnixNano())
	}
	return l
}

func (l *lobby) lastActive() time.Time { return time.Unix(0, l.active.Load()) }

func (l *lobby) finishedAt() time.Time {
	if n := l.finished.Load(); n != 0 {
		return time.Unix(0, n)
	}
	return time.Time{}
}

// do ставит мутацию в очередь лобби и ждет ответа воркера.
// Пока команда не в очереди, ее можно отменить через ctx. После постановки в очередь
// исход решает только воркер: он либо отбрасывает команду с истекшим ctx, либо
// применяет ее целиком, и do возвращает именно этот исход.
func (s *LobbyService) do(ctx context.Context, lobbyID, op string, fn func(*game.Session) ([]game.Event, error)) error {
	l, err := s.lobby(ctx, lobbyID)
	if err != nil {
		s.opts.Metrics.Observe(op, resultLabel(err), s.opts.Now())
		return err
	}

	cmd := command{ctx: ctx, op: op, apply: fn, done: make(chan error, 1)}
	select {
	case l.cmds <- cmd:
	case <-l.quit:
		return game.ErrLobbyNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-l.done:
		// ответ мог быть отправлен до выхода воркера
		select {
		case err := <-cmd.done:
			return err
		default:
			return game.ErrLobbyNotFound
		}
	}
}

// run - воркер лобби: применяет команды по одной в порядке очереди
func (s *LobbyService) run(l *lobby) {
	defer s.wg.Done()
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case cmd := <-l.cmds:
			// лобби выгружается, оставшиеся команды не применяем
			select {
			case <-l.quit:
				return
			default:
			}
			if err := cmd.ctx.Err(); err != nil {
				s.opts.Metrics.Observe(cmd.op, "canceled", s.opts.Now())
				cmd.done <- err
				continue
			}
			cmd.done <- s.apply(l, cmd)
		}
	}
}

func (s *LobbyService) apply(l *lobby, cmd command) (err error) {
	started := s.opts.Now()
	before := l.session.Status()

	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
			l.log.Error("нарушен инвариант сессии", "op", cmd.op, "error", err)
		}
		s.opts.Metrics.Observe(cmd.op, resultLabel(err), started)
	}()

	events, err := cmd.apply(l.session)
	if err != nil {
		l.log.Debug("operation rejected", "op", cmd.op, "error", err)
		return err
	}

	now := s.opts.Now()
	l.active.Store(now.UnixNano())
	s.persist(l)
	if s.opts.Publisher != nil && len(events) > 0 {
		s.opts.Publisher.Publish(l.id, events)
	}

	after := l.session.Status()
	l.log.Info("lobby updated", "op", cmd.op, "status", after, "events", len(events))

	if before == game.StatusWaiting && after != game.StatusWaiting {
		l.startedAt = now
		rec, _ := l.session.Snapshot()
		s.record(l, rec.Host, domain.ActionGameStart, map[string]any{"turn_order": rec.Order})
	}
	if cmd.op == "accuse" {
		s.recordAccusation(l)
	}
	if before != game.StatusFinished && after == game.StatusFinished {
		l.finished.Store(now.UnixNano())
		s.onFinished(l, now)
	}
	return nil
}

// persist сохраняет снимок. Ошибка хранилища не отменяет уже примененную мутацию.
func (s *LobbyService) persist(l *lobby) {
	if s.opts.Store == nil {
		return
	}
	rec, players := l.session.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.opts.Store.Save(ctx, rec, players); err != nil {
		l.log.Error("не удалось сохранить снимок лобби", "error", err)
	}
}

func (s *LobbyService) record(l *lobby, playerID, action string, details map[string]any) {
	if s.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	s.opts.Recorder.LogEvent(ctx, l.id, playerID, action, details)
}

func (s *LobbyService) recordAccusation(l *lobby) {
	rec, _ := l.session.Snapshot()
	if len(rec.Accusations) == 0 {
		return
	}
	a := rec.Accusations[len(rec.Accusations)-1]
	s.record(l, a.PlayerID, domain.ActionAccusation, map[string]any{
		"suspect": a.Suspect,
		"weapon":  a.Weapon,
		"room":    a.Room,
		"correct": a.Correct,
	})
}

func (s *LobbyService) onFinished(l *lobby, now time.Time) {
	rec, players := l.session.Snapshot()
	s.opts.Metrics.GameFinished(rec.FinishReason)
	l.log.Info("игра завершена", "winner", rec.Winner, "reason", rec.FinishReason)

	if s.opts.Recorder == nil {
		return
	}
	g := &domain.FinishedGame{
		LobbyID: l.id,
		Reason:  rec.FinishReason,
		Solution: map[string]any{
			"suspect": rec.Solution.Suspect,
			"weapon":  rec.Solution.Weapon,
			"room":    rec.Solution.Room,
		},
		Suggestions: len(rec.Suggestions),
		Accusations: len(rec.Accusations),
		StartedAt:   l.startedAt,
		FinishedAt:  now,
	}
	for _, p := range players {
		if p.ID == rec.Winner {
			g.WinnerID, g.WinnerName = p.ID, p.Name
		}
		g.Players = append(g.Players, domain.GamePlayer{
			ID:         p.ID,
			Name:       p.Name,
			Character:  string(p.Character),
			Eliminated: p.Eliminated,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	s.opts.Recorder.SaveFinished(ctx, g)
}

func panicError(r any) error {
	if e, ok := r.(*game.Error); ok {
		return e
	}
	return fmt.Errorf("panic: %v", r)
}

// resultLabel - метка результата для метрик: ok или код ошибки
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var ge *game.Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "error"
}
