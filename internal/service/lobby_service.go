package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clue_backend/internal/domain"
	"clue_backend/internal/game"
	"clue_backend/internal/logger"
	"clue_backend/internal/metrics"
)

// Store - долговременное хранилище снимков лобби
type Store interface {
	Save(ctx context.Context, rec game.SessionRecord, players []game.PlayerRecord) error
	// nil-запись без ошибки - лобби нет
	Load(ctx context.Context, lobbyID string) (*game.SessionRecord, []game.PlayerRecord, error)
	Exists(ctx context.Context, lobbyID string) (bool, error)
	Delete(ctx context.Context, lobbyID string) error
}

// Publisher доставляет события клиентам лобби
type Publisher interface {
	Publish(lobbyID string, events []game.Event)
}

// Recorder пишет журнал действий и историю партий. Ошибки обрабатывает сам.
type Recorder interface {
	LogEvent(ctx context.Context, lobbyID, playerID, action string, details map[string]any)
	SaveFinished(ctx context.Context, g *domain.FinishedGame)
}

const (
	lobbyIDLength   = 6
	lobbyIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultQueue    = 64
	storeTimeout    = 3 * time.Second
)

type Options struct {
	Store     Store
	Publisher Publisher
	Recorder  Recorder
	Metrics   *metrics.Metrics

	// источник случайности для каждой новой или восстановленной сессии
	NewRand func() *rand.Rand

	// завершенные лобби выгружаются из памяти через FinishedTTL,
	// остальные - после IdleTTL без действий (снимок остается в Store)
	FinishedTTL time.Duration
	IdleTTL     time.Duration

	QueueSize int
	Now       func() time.Time
}

// LobbyService - реестр лобби. Мутации одного лобби выполняет его воркер
// строго по одной в порядке поступления, чтения идут напрямую под RLock сессии.
type LobbyService struct {
	opts Options

	mu      sync.Mutex
	lobbies map[string]*lobby
	idRand  *rand.Rand
	closed  bool

	wg sync.WaitGroup
}

type LobbyCreated struct {
	LobbyID  string `json:"lobby_id"`
	PlayerID string `json:"player_id"`
}

func NewLobbyService(opts Options) *LobbyService {
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueue
	}
	if opts.FinishedTTL <= 0 {
		opts.FinishedTTL = 30 * time.Minute
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 6 * time.Hour
	}
	return &LobbyService{
		opts:    opts,
		lobbies: make(map[string]*lobby),
		idRand:  opts.NewRand(),
	}
}

// ---- лобби ----

// CreateLobby создает лобби, хост становится первым игроком
func (s *LobbyService) CreateLobby(ctx context.Context, hostName string) (LobbyCreated, error) {
	started := s.opts.Now()
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		s.opts.Metrics.Observe("create_lobby", resultLabel(game.ErrInvalidName), started)
		return LobbyCreated{}, game.ErrInvalidName
	}

	id, err := s.freeLobbyID(ctx)
	if err != nil {
		s.opts.Metrics.Observe("create_lobby", resultLabel(err), started)
		return LobbyCreated{}, err
	}
	hostID := uuid.NewString()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return LobbyCreated{}, ErrServiceClosed
	}
	sess := game.NewSession(id, hostID, hostName, s.opts.NewRand())
	l := s.register(id, sess)
	s.mu.Unlock()

	s.persist(l)
	s.record(l, hostID, domain.ActionLobbyCreated, map[string]any{"host_name": hostName})
	l.log.Info("лобби создано", "host_id", hostID)
	s.opts.Metrics.Observe("create_lobby", "ok", started)
	return LobbyCreated{LobbyID: id, PlayerID: hostID}, nil
}

// freeLobbyID подбирает id, не занятый ни в памяти, ни в хранилище
func (s *LobbyService) freeLobbyID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		s.mu.Lock()
		buf := make([]byte, lobbyIDLength)
		for i := range buf {
			buf[i] = lobbyIDAlphabet[s.idRand.IntN(len(lobbyIDAlphabet))]
		}
		id := string(buf)
		_, taken := s.lobbies[id]
		s.mu.Unlock()
		if taken {
			continue
		}
		if s.opts.Store != nil {
			exists, err := s.opts.Store.Exists(ctx, id)
			if err != nil {
				return "", err
			}
			if exists {
				continue
			}
		}
		return id, nil
	}
	return "", errors.New("could not allocate lobby id")
}

func (s *LobbyService) JoinLobby(ctx context.Context, lobbyID, name string) (game.JoinResult, error) {
	playerID := uuid.NewString()
	var res game.JoinResult
	err := s.do(ctx, lobbyID, "join", func(sess *game.Session) ([]game.Event, error) {
		r, events, err := sess.Join(playerID, name)
		res = r
		return events, err
	})
	return res, err
}

func (s *LobbyService) SelectCharacter(ctx context.Context, lobbyID, playerID, character string) error {
	return s.do(ctx, lobbyID, "select_character", func(sess *game.Session) ([]game.Event, error) {
		return sess.SelectCharacter(playerID, game.Card(character))
	})
}

func (s *LobbyService) StartGame(ctx context.Context, lobbyID, playerID string) (game.StartResult, error) {
	var res game.StartResult
	err := s.do(ctx, lobbyID, "start", func(sess *game.Session) ([]game.Event, error) {
		r, events, err := sess.Start(playerID)
		res = r
		return events, err
	})
	return res, err
}

// ---- ход игры ----

func (s *LobbyService) Move(ctx context.Context, lobbyID, playerID, destination string) (game.MoveResult, error) {
	var res game.MoveResult
	err := s.do(ctx, lobbyID, "move", func(sess *game.Session) ([]game.Event, error) {
		r, events, err := sess.Move(playerID, destination)
		res = r
		return events, err
	})
	return res, err
}

func (s *LobbyService) Suggest(ctx context.Context, lobbyID, playerID, suspect, weapon string) (game.SuggestResult, error) {
	var res game.SuggestResult
	err := s.do(ctx, lobbyID, "suggest", func(sess *game.Session) ([]game.Event, error) {
		r, events, err := sess.Suggest(playerID, game.Card(suspect), game.Card(weapon))
		res = r
		return events, err
	})
	return res, err
}

// Respond - ответ на предположение; пустая card означает "нечем опровергнуть"
func (s *LobbyService) Respond(ctx context.Context, lobbyID, playerID string, index int, card string) (game.RespondResult, error) {
	var res game.RespondResult
	err := s.do(ctx, lobbyID, "respond", func(sess *game.Session) ([]game.Event, error) {
		r, events, err := sess.Respond(playerID, index, game.Card(card))
		res = r
		return events, err
	})
	return res, err
}

func (s *LobbyService) Accuse(ctx context.Context, lobbyID, playerID, suspect, weapon, room string) (game.AccuseResult, error) {
	var res game.AccuseResult
	err := s.do(ctx, lobbyID, "accuse", func(sess *game.Session) ([]game.Event, error) {
		r, events, err := sess.Accuse(playerID, game.Card(suspect), game.Card(weapon), game.Card(room))
		res = r
		return events, err
	})
	return res, err
}

func (s *LobbyService) EndTurn(ctx context.Context, lobbyID, playerID string) (string, error) {
	var next string
	err := s.do(ctx, lobbyID, "end_turn", func(sess *game.Session) ([]game.Event, error) {
		n, events, err := sess.EndTurn(playerID)
		next = n
		return events, err
	})
	return next, err
}

// ---- чтение ----

func (s *LobbyService) ValidMoves(ctx context.Context, lobbyID, playerID string) ([]game.MoveOption, error) {
	l, err := s.lobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	return l.session.ValidMoves(playerID)
}

func (s *LobbyService) State(ctx context.Context, lobbyID, playerID string) (game.SessionView, error) {
	l, err := s.lobby(ctx, lobbyID)
	if err != nil {
		return game.SessionView{}, err
	}
	return l.session.View(playerID)
}

func (s *LobbyService) Hand(ctx context.Context, lobbyID, playerID string) ([]game.Card, error) {
	l, err := s.lobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	return l.session.Hand(playerID)
}

// Exists сообщает, есть ли лобби в памяти или в хранилище
func (s *LobbyService) Exists(ctx context.Context, lobbyID string) (bool, error) {
	_, err := s.lobby(ctx, lobbyID)
	if errors.Is(err, game.ErrLobbyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LobbyCount - сколько лобби сейчас в памяти
func (s *LobbyService) LobbyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobbies)
}

// ---- реестр ----

// register добавляет лобби и запускает его воркер. Вызывается под s.mu.
func (s *LobbyService) register(id string, sess *game.Session) *lobby {
	now := s.opts.Now()
	l := newLobby(id, sess, s.opts.QueueSize, now)
	s.lobbies[id] = l
	s.wg.Add(1)
	go s.run(l)
	s.opts.Metrics.SetActiveLobbies(len(s.lobbies))
	return l
}

// lobby находит лобби в памяти или лениво поднимает его из хранилища
func (s *LobbyService) lobby(ctx context.Context, lobbyID string) (*lobby, error) {
	id := NormalizeLobbyID(lobbyID)

	s.mu.Lock()
	if l, ok := s.lobbies[id]; ok {
		s.mu.Unlock()
		return l, nil
	}
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrServiceClosed
	}
	if s.opts.Store == nil || len(id) != lobbyIDLength {
		return nil, game.ErrLobbyNotFound
	}

	rec, players, err := s.opts.Store.Load(ctx, id)
	if err != nil {
		logger.WithContext(ctx).Error("не удалось загрузить лобби", "lobby_id", id, "error", err)
		return nil, fmt.Errorf("load lobby %s: %w", id, err)
	}
	if rec == nil {
		return nil, game.ErrLobbyNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lobbies[id]; ok {
		return l, nil
	}
	if s.closed {
		return nil, ErrServiceClosed
	}
	sess, err := game.Restore(*rec, players, s.opts.NewRand())
	if err != nil {
		return nil, err
	}
	l := s.register(id, sess)
	l.log.Info("лобби восстановлено из хранилища", "status", sess.Status())
	return l, nil
}

// Discard удаляет лобби из памяти и из хранилища
func (s *LobbyService) Discard(ctx context.Context, lobbyID string) error {
	id := NormalizeLobbyID(lobbyID)
	s.unload(id)
	if s.opts.Store != nil {
		return s.opts.Store.Delete(ctx, id)
	}
	return nil
}

// unload останавливает воркер, дожидается его выхода и убирает лобби из памяти.
// После возврата ни одна мутация лобби уже не пишет в хранилище.
func (s *LobbyService) unload(id string) bool {
	s.mu.Lock()
	l, ok := s.lobbies[id]
	if ok {
		delete(s.lobbies, id)
		close(l.quit)
	}
	n := len(s.lobbies)
	s.mu.Unlock()
	if !ok {
		return false
	}
	<-l.done
	s.opts.Metrics.SetActiveLobbies(n)
	return true
}

// Cleanup выгружает завершенные и простаивающие лобби, возвращает их число
func (s *LobbyService) Cleanup() int {
	now := s.opts.Now()
	var stale []string

	s.mu.Lock()
	for id, l := range s.lobbies {
		if fin := l.finishedAt(); !fin.IsZero() && now.Sub(fin) >= s.opts.FinishedTTL {
			stale = append(stale, id)
			continue
		}
		if now.Sub(l.lastActive()) >= s.opts.IdleTTL {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if s.unload(id) {
			removed++
		}
	}
	if removed > 0 {
		logger.Info("lobby cleanup", "removed", removed)
	}
	return removed
}

// StartCleanup периодически вызывает Cleanup до отмены ctx
func (s *LobbyService) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Close останавливает все воркеры. Снимки остаются в хранилище.
func (s *LobbyService) Close() {
	s.mu.Lock()
	s.closed = true
	for id, l := range s.lobbies {
		close(l.quit)
		delete(s.lobbies, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.opts.Metrics.SetActiveLobbies(0)
}

// NormalizeLobbyID приводит код лобби к каноническому виду
func NormalizeLobbyID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

var ErrServiceClosed = errors.New("lobby service is shutting down")
