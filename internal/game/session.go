package game

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	MinPlayers = 3
	MaxPlayers = 6
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

const (
	FinishCorrectAccusation = "correct_accusation"
	FinishLastPlayer        = "last_player_standing"
)

type Accusation struct {
	PlayerID string `json:"player_id"`
	Suspect  Card   `json:"suspect"`
	Weapon   Card   `json:"weapon"`
	Room     Card   `json:"room"`
	Correct  bool   `json:"is_correct"`
}

// Session - одна партия от создания лобби до завершения.
// Все мутации идут под mu.Lock, чтение состояния под mu.RLock.
type Session struct {
	mu sync.RWMutex

	id     string
	host   string
	status Status

	players map[string]*Player
	// до старта - порядок входа, после старта - перемешанный порядок ходов
	order []string
	turn  int
	// игрок уже ходил в текущем ходу
	turnMoved bool

	board       *Board
	solution    Solution
	suggestions []Suggestion
	accusations []Accusation
	characters  map[Card]string

	winner       string
	finishReason string

	rng *rand.Rand
}

// NewSession создает лобби в статусе waiting с хостом в качестве первого игрока
func NewSession(id, hostID, hostName string, rng *rand.Rand) *Session {
	s := &Session{
		id:         id,
		host:       hostID,
		status:     StatusWaiting,
		players:    make(map[string]*Player, MaxPlayers),
		board:      NewBoard(),
		characters: make(map[Card]string, len(Suspects)),
		rng:        rng,
	}
	s.players[hostID] = &Player{ID: hostID, Name: hostName}
	s.order = append(s.order, hostID)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Host() string { return s.host }

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Winner возвращает победителя и причину завершения
func (s *Session) Winner() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.winner, s.finishReason
}

func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// CurrentPlayer возвращает id игрока, чей сейчас ход
func (s *Session) CurrentPlayer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusInProgress {
		return ""
	}
	return s.order[s.turn]
}

// ---- лобби ----

type JoinResult struct {
	PlayerID string `json:"player_id"`
	Players  int    `json:"players"`
	CanStart bool   `json:"can_start"`
}

func (s *Session) Join(playerID, name string) (JoinResult, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return JoinResult{}, nil, ErrAlreadyStarted
	}
	if len(s.order) >= MaxPlayers {
		return JoinResult{}, nil, ErrLobbyFull
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return JoinResult{}, nil, ErrInvalidName
	}
	_, exists := s.players[playerID]
	invariant(!exists, "player %s already joined lobby %s", playerID, s.id)

	s.players[playerID] = &Player{ID: playerID, Name: name}
	s.order = append(s.order, playerID)

	res := JoinResult{PlayerID: playerID, Players: len(s.order), CanStart: len(s.order) >= MinPlayers}
	return res, []Event{broadcast(EventLobbyJoined, s.lobbyPayload(playerID))}, nil
}

func (s *Session) lobbyPayload(playerID string) LobbyJoinedPayload {
	list := make([]LobbyPlayer, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		list = append(list, LobbyPlayer{PlayerID: id, Name: p.Name, IsHost: id == s.host, Character: p.Character})
	}
	return LobbyJoinedPayload{
		PlayerID:   playerID,
		Players:    list,
		HostID:     s.host,
		MinPlayers: MinPlayers,
		MaxPlayers: MaxPlayers,
		CanStart:   len(s.order) >= MinPlayers,
	}
}

// SelectCharacter закрепляет персонажа за игроком до старта игры
func (s *Session) SelectCharacter(playerID string, character Card) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return nil, ErrAlreadyStarted
	}
	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if !IsSuspect(character) {
		return nil, ErrUnknownCharacter
	}
	if owner, taken := s.characters[character]; taken && owner != playerID {
		return nil, ErrCharacterTaken
	}

	if p.Character != "" {
		delete(s.characters, p.Character)
	}
	p.Character = character
	s.characters[character] = playerID

	taken := make(map[Card]string, len(s.characters))
	for c, id := range s.characters {
		taken[c] = id
	}
	return []Event{broadcast(EventCharacterSelected, CharacterSelectedPayload{
		PlayerID:  playerID,
		Character: character,
		Taken:     taken,
	})}, nil
}

// ---- старт ----

type StartResult struct {
	Hands         map[string][]Card   `json:"-"`
	TurnOrder     []string            `json:"turn_order"`
	Positions     map[string]Position `json:"positions"`
	Characters    map[string]Card     `json:"characters"`
	CurrentPlayer string              `json:"current_player_id"`
}

// Start переводит лобби в in_progress: перемешивает порядок ходов (один раз за игру),
// вынимает решение, раздает карты, назначает персонажей и ставит всех на старт.
func (s *Session) Start(requesterID string) (StartResult, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return StartResult{}, nil, ErrAlreadyStarted
	}
	if requesterID != s.host {
		return StartResult{}, nil, ErrNotHost
	}
	if len(s.order) < MinPlayers {
		return StartResult{}, nil, ErrTooFewPlayers
	}
	if len(s.order) > MaxPlayers {
		return StartResult{}, nil, ErrTooManyPlayers
	}

	s.rng.Shuffle(len(s.order), func(i, j int) { s.order[i], s.order[j] = s.order[j], s.order[i] })

	deck := NewDeck()
	s.solution = deck.DrawSolution(s.rng)
	hands, err := deck.DealRemaining(s.rng, s.order)
	if err != nil {
		return StartResult{}, nil, err
	}

	s.assignCharacters()

	s.board = NewBoard()
	res := StartResult{
		Hands:      hands,
		TurnOrder:  append([]string(nil), s.order...),
		Positions:  make(map[string]Position, len(s.order)),
		Characters: make(map[string]Card, len(s.order)),
	}
	events := make([]Event, 0, len(s.order)+2)
	for _, id := range s.order {
		p := s.players[id]
		p.Hand = hands[id]
		s.board.PlaceAtStart(id)
		res.Positions[id], _ = s.board.Position(id)
		res.Characters[id] = p.Character
		events = append(events, private(id, EventCardsDealt, CardsDealtPayload{
			Cards:     append([]Card(nil), p.Hand...),
			Character: p.Character,
		}))
	}

	s.status = StatusInProgress
	s.turn = 0
	s.turnMoved = false
	res.CurrentPlayer = s.order[0]

	events = append(events,
		broadcast(EventGameStarted, GameStartedPayload{
			TurnOrder:       res.TurnOrder,
			CurrentPlayerID: res.CurrentPlayer,
			Positions:       s.positions(),
		}),
		s.turnUpdate(),
	)
	return res, events, nil
}

// assignCharacters раздает случайных свободных персонажей тем, кто не выбрал сам
func (s *Session) assignCharacters() {
	var free []Card
	for _, c := range Suspects {
		if _, taken := s.characters[c]; !taken {
			free = append(free, c)
		}
	}
	for _, id := range s.order {
		p := s.players[id]
		if p.Character != "" {
			continue
		}
		invariant(len(free) > 0, "not enough characters available for all players")
		i := s.rng.IntN(len(free))
		p.Character = free[i]
		s.characters[free[i]] = id
		free = append(free[:i], free[i+1:]...)
	}
}

// ---- ходы ----

type MoveResult struct {
	Position         Position    `json:"position"`
	ViaSecretPassage bool        `json:"via_secret_passage"`
	CanSuggest       bool        `json:"can_suggest"`
	Board            BoardRecord `json:"board"`
}

// activePlayer проверяет, что игра идет и ход принадлежит playerID
func (s *Session) activePlayer(playerID string) (*Player, error) {
	switch s.status {
	case StatusWaiting:
		return nil, ErrGameNotStarted
	case StatusFinished:
		return nil, ErrGameFinished
	}
	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if s.order[s.turn] != playerID {
		return nil, ErrNotYourTurn
	}
	if p.Eliminated {
		return nil, ErrPlayerEliminated
	}
	if _, open := s.openSuggestion(); open {
		return nil, ErrSuggestionOpen
	}
	return p, nil
}

func (s *Session) Move(playerID, dest string) (MoveResult, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.activePlayer(playerID)
	if err != nil {
		return MoveResult{}, nil, err
	}
	if s.turnMoved {
		return MoveResult{}, nil, ErrAlreadyMoved
	}

	check := s.board.ValidMove(playerID, p.Character, p.MovedBySuggestion, dest)
	if !check.Allowed {
		return MoveResult{}, nil, ErrInvalidMove
	}

	old, _ := s.board.Position(playerID)
	pos := s.board.MovePlayer(playerID, dest)
	p.MovedBySuggestion = false
	s.turnMoved = true

	res := MoveResult{
		Position:         pos,
		ViaSecretPassage: check.ViaSecretPassage,
		CanSuggest:       pos.Kind == KindRoom,
		Board:            s.board.Record(),
	}
	return res, []Event{broadcast(EventMoveUpdate, MoveUpdatePayload{
		PlayerID:         playerID,
		OldPosition:      old.Location,
		NewPosition:      pos.Location,
		ViaSecretPassage: check.ViaSecretPassage,
		CanSuggest:       res.CanSuggest,
		Positions:        s.positions(),
	})}, nil
}

// ValidMoves - допустимые ходы игрока. Только чтение.
func (s *Session) ValidMoves(playerID string) ([]MoveOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return s.validMoves(p), nil
}

func (s *Session) validMoves(p *Player) []MoveOption {
	if s.status != StatusInProgress || p.Eliminated {
		return []MoveOption{}
	}
	moves := s.board.ValidMoves(p.ID, p.Character, p.MovedBySuggestion)
	if moves == nil {
		moves = []MoveOption{}
	}
	return moves
}

// EndTurn - активный игрок передает ход без предположения
func (s *Session) EndTurn(playerID string) (string, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.activePlayer(playerID); err != nil {
		return "", nil, err
	}
	next := s.advanceTurn()
	return next, []Event{s.turnUpdate()}, nil
}

// advanceTurn передает ход следующему по часовой стрелке не выбывшему игроку
func (s *Session) advanceTurn() string {
	s.players[s.order[s.turn]].MovedBySuggestion = false
	s.turnMoved = false

	n := len(s.order)
	for i := 1; i <= n; i++ {
		idx := (s.turn + i) % n
		if !s.players[s.order[idx]].Eliminated {
			s.turn = idx
			return s.order[idx]
		}
	}
	invariant(false, "no active players left in lobby %s", s.id)
	return ""
}

func (s *Session) turnUpdate() Event {
	cur := s.players[s.order[s.turn]]
	pos, _ := s.board.Position(cur.ID)
	return broadcast(EventTurnUpdate, TurnUpdatePayload{
		PlayerID:   cur.ID,
		ValidMoves: s.validMoves(cur),
		InRoom:     pos.Kind == KindRoom,
		Location:   pos.Location,
	})
}

func (s *Session) positions() []PlayerPosition {
	out := make([]PlayerPosition, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		pos, _ := s.board.Position(id)
		out = append(out, PlayerPosition{
			PlayerID:     id,
			Name:         p.Name,
			Character:    p.Character,
			Position:     pos.Location,
			PositionType: pos.Kind,
			Eliminated:   p.Eliminated,
		})
	}
	return out
}

// ---- предположения ----

type SuggestResult struct {
	Suggestion     Suggestion `json:"suggestion"`
	Teleported     string     `json:"teleported_player_id,omitempty"`
	FirstResponder string     `json:"first_responder,omitempty"`
}

// openSuggestion возвращает индекс предположения, ожидающего ответа
func (s *Session) openSuggestion() (int, bool) {
	if n := len(s.suggestions); n > 0 && s.suggestions[n-1].Pending() {
		return n - 1, true
	}
	return 0, false
}

// Suggest записывает предположение, телепортирует названного подозреваемого
// в комнату предполагающего и начинает опрос.
func (s *Session) Suggest(playerID string, suspect, weapon Card) (SuggestResult, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.activePlayer(playerID)
	if err != nil {
		return SuggestResult{}, nil, err
	}
	pos, _ := s.board.Position(playerID)
	if pos.Kind != KindRoom {
		return SuggestResult{}, nil, ErrNotInRoom
	}
	if !IsSuspect(suspect) || !IsWeapon(weapon) {
		return SuggestResult{}, nil, ErrUnknownCard
	}
	// комната берется из положения игрока, а не от клиента
	roomCard, ok := RoomCardFor(pos.Location)
	invariant(ok, "room %s has no card", pos.Location)

	p.MovedBySuggestion = false

	var teleported string
	if owner, ok := s.characters[suspect]; ok && owner != playerID {
		s.board.Teleport(owner, pos.Location)
		s.players[owner].MovedBySuggestion = true
		teleported = owner
	}

	owner := s.characters[suspect]
	sug := Suggestion{
		Index:       len(s.suggestions),
		SuggesterID: playerID,
		Suspect:     suspect,
		Weapon:      weapon,
		Room:        roomCard,
		Outcome:     OutcomePending,
		Responders:  responderOrder(s.order, s.turn, owner),
	}
	s.suggestions = append(s.suggestions, sug)
	stored := &s.suggestions[sug.Index]

	res := SuggestResult{Teleported: teleported}
	first, waiting := stored.Awaiting()
	if waiting {
		res.FirstResponder = first
	}

	events := []Event{broadcast(EventSuggestionMade, SuggestionMadePayload{
		Suggestion:     stored.Public(),
		Teleported:     teleported,
		NextToDisprove: res.FirstResponder,
		Positions:      s.positions(),
	})}
	if waiting {
		events = append(events, s.disproveRequest(stored, first))
	} else {
		events = append(events, s.exhaust(stored)...)
	}
	res.Suggestion = stored.Public()
	return res, events, nil
}

func (s *Session) disproveRequest(sug *Suggestion, responder string) Event {
	return private(responder, EventDisproveRequest, DisproveRequestPayload{
		SuggestionIndex: sug.Index,
		MatchingCards:   s.players[responder].MatchingCards(sug),
	})
}

type RespondOutcome string

const (
	RespondDisproved RespondOutcome = "disproved"
	RespondNext      RespondOutcome = "next_responder"
	RespondExhausted RespondOutcome = "exhausted"
)

type RespondResult struct {
	Outcome       RespondOutcome `json:"outcome"`
	Suggestion    Suggestion     `json:"suggestion"`
	NextResponder string         `json:"next_responder,omitempty"`
	NextTurn      string         `json:"next_turn,omitempty"`
}

// Respond - ответ опрашиваемого игрока: показать карту (card != "") или
// заявить, что опровергнуть нечем.
func (s *Session) Respond(playerID string, index int, card Card) (RespondResult, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusWaiting:
		return RespondResult{}, nil, ErrGameNotStarted
	case StatusFinished:
		return RespondResult{}, nil, ErrGameFinished
	}
	p, ok := s.players[playerID]
	if !ok {
		return RespondResult{}, nil, ErrPlayerNotFound
	}
	if index < 0 || index >= len(s.suggestions) || !s.suggestions[index].Pending() {
		return RespondResult{}, nil, ErrInvalidSuggestionIndex
	}
	sug := &s.suggestions[index]
	awaiting, _ := sug.Awaiting()
	if awaiting != playerID {
		return RespondResult{}, nil, ErrNotYourTurn
	}

	if card != "" {
		if !p.HasCard(card) {
			return RespondResult{}, nil, ErrCardNotOwned
		}
		if !sug.Names(card) {
			return RespondResult{}, nil, ErrCardMismatch
		}

		sug.Outcome = OutcomeDisproved
		sug.DisprovedBy = playerID
		sug.CardShown = true
		sug.ShownCard = card

		next := s.advanceTurn()
		events := []Event{
			private(sug.SuggesterID, EventCardShown, CardShownPayload{
				SuggestionIndex: index,
				ShownBy:         playerID,
				Card:            card,
			}),
			broadcast(EventSuggestionDisproved, SuggestionDisprovedPayload{
				SuggestionIndex: index,
				DisprovedBy:     playerID,
			}),
			s.turnUpdate(),
		}
		return RespondResult{Outcome: RespondDisproved, Suggestion: sug.Public(), NextTurn: next}, events, nil
	}

	if p.CanDisprove(sug) {
		return RespondResult{}, nil, ErrMustDisprove
	}

	sug.Declined = append(sug.Declined, playerID)
	sug.Asked++

	next, waiting := sug.Awaiting()
	events := []Event{broadcast(EventCannotDisprove, CannotDisprovePayload{
		SuggestionIndex: index,
		PlayerID:        playerID,
		NextToDisprove:  next,
	})}
	if waiting {
		events = append(events, s.disproveRequest(sug, next))
		return RespondResult{Outcome: RespondNext, Suggestion: sug.Public(), NextResponder: next}, events, nil
	}

	events = append(events, s.exhaust(sug)...)
	return RespondResult{Outcome: RespondExhausted, Suggestion: sug.Public(), NextTurn: s.order[s.turn]}, events, nil
}

// exhaust закрывает предположение, которое никто не смог опровергнуть
func (s *Session) exhaust(sug *Suggestion) []Event {
	sug.Outcome = OutcomeNoDisproof
	s.advanceTurn()
	return []Event{
		broadcast(EventSuggestionExhausted, SuggestionExhaustedPayload{SuggestionIndex: sug.Index}),
		s.turnUpdate(),
	}
}

// ---- обвинения ----

type AccuseResult struct {
	Correct  bool      `json:"correct"`
	Winner   string    `json:"winner,omitempty"`
	Solution *Solution `json:"solution,omitempty"`
	NextTurn string    `json:"next_turn,omitempty"`
}

func (s *Session) Accuse(playerID string, suspect, weapon, room Card) (AccuseResult, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.activePlayer(playerID)
	if err != nil {
		return AccuseResult{}, nil, err
	}
	if !IsSuspect(suspect) || !IsWeapon(weapon) || !IsRoomCard(room) {
		return AccuseResult{}, nil, ErrUnknownCard
	}

	correct := s.solution.Matches(suspect, weapon, room)
	s.accusations = append(s.accusations, Accusation{
		PlayerID: playerID,
		Suspect:  suspect,
		Weapon:   weapon,
		Room:     room,
		Correct:  correct,
	})
	events := []Event{broadcast(EventAccusationResult, AccusationResultPayload{
		PlayerID: playerID,
		Suspect:  suspect,
		Weapon:   weapon,
		Room:     room,
		Correct:  correct,
	})}

	if correct {
		events = append(events, s.finish(playerID, FinishCorrectAccusation))
		sol := s.solution
		return AccuseResult{Correct: true, Winner: playerID, Solution: &sol}, events, nil
	}

	p.Eliminated = true
	if active := s.activePlayers(); len(active) == 1 {
		events = append(events, s.finish(active[0], FinishLastPlayer))
		sol := s.solution
		return AccuseResult{Winner: active[0], Solution: &sol}, events, nil
	}

	next := s.advanceTurn()
	events = append(events, s.turnUpdate())
	return AccuseResult{NextTurn: next}, events, nil
}

func (s *Session) activePlayers() []string {
	var out []string
	for _, id := range s.order {
		if !s.players[id].Eliminated {
			out = append(out, id)
		}
	}
	return out
}

func (s *Session) finish(winner, reason string) Event {
	s.status = StatusFinished
	s.winner = winner
	s.finishReason = reason
	return broadcast(EventGameOver, GameOverPayload{Winner: winner, Reason: reason, Solution: s.solution})
}

// ---- представления ----

// Hand - приватная рука игрока
func (s *Session) Hand(playerID string) ([]Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return append([]Card{}, p.Hand...), nil
}

type PlayerView struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Character         Card         `json:"character,omitempty"`
	Location          string       `json:"location,omitempty"`
	Kind              LocationKind `json:"location_kind,omitempty"`
	Eliminated        bool         `json:"eliminated"`
	MovedBySuggestion bool         `json:"moved_by_suggestion"`
	HandSize          int          `json:"hand_size"`
}

type SessionView struct {
	ID               string       `json:"lobby_id"`
	Host             string       `json:"host_id"`
	Status           Status       `json:"status"`
	Players          []PlayerView `json:"players"`
	CurrentPlayer    string       `json:"current_player_id,omitempty"`
	AwaitingResponse string       `json:"awaiting_response_from,omitempty"`
	Suggestions      []Suggestion `json:"suggestions"`
	Accusations      []Accusation `json:"accusations"`
	Winner           string       `json:"winner,omitempty"`
	Solution         *Solution    `json:"solution,omitempty"`
	Hand             []Card       `json:"hand,omitempty"`
	ValidMoves       []MoveOption `json:"valid_moves,omitempty"`
	OccupiedHallways []string     `json:"occupied_hallways"`
}

// View - согласованный снимок состояния глазами viewerID.
// Показанные карты видит только тот, кто делал предположение.
func (s *Session) View(viewerID string) (SessionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	viewer, ok := s.players[viewerID]
	if !ok {
		return SessionView{}, ErrPlayerNotFound
	}

	v := SessionView{
		ID:          s.id,
		Host:        s.host,
		Status:      s.status,
		Players:     make([]PlayerView, 0, len(s.order)),
		Suggestions: make([]Suggestion, 0, len(s.suggestions)),
		Accusations: append([]Accusation{}, s.accusations...),
		Winner:      s.winner,
		Hand:        append([]Card(nil), viewer.Hand...),

		// занятые коридоры закрыты для хода
		OccupiedHallways: s.board.Occupied(),
	}
	for _, id := range s.order {
		p := s.players[id]
		pos, _ := s.board.Position(id)
		v.Players = append(v.Players, PlayerView{
			ID:                id,
			Name:              p.Name,
			Character:         p.Character,
			Location:          pos.Location,
			Kind:              pos.Kind,
			Eliminated:        p.Eliminated,
			MovedBySuggestion: p.MovedBySuggestion,
			HandSize:          len(p.Hand),
		})
	}
	for _, sug := range s.suggestions {
		pub := sug.Public()
		if sug.SuggesterID == viewerID {
			pub.ShownCard = sug.ShownCard
		}
		v.Suggestions = append(v.Suggestions, pub)
	}
	if s.status == StatusInProgress {
		v.CurrentPlayer = s.order[s.turn]
		if idx, open := s.openSuggestion(); open {
			v.AwaitingResponse, _ = s.suggestions[idx].Awaiting()
		}
		if v.CurrentPlayer == viewerID && v.AwaitingResponse == "" && !s.turnMoved {
			v.ValidMoves = s.validMoves(viewer)
		}
	}
	if s.status == StatusFinished {
		sol := s.solution
		v.Solution = &sol
	}
	return v, nil
}
