package game

import (
	"fmt"
	"math/rand/v2"
)

// CharacterRecord - кто занял персонажа
type CharacterRecord struct {
	PlayerID string `json:"player_id,omitempty"`
	Selected bool   `json:"selected"`
}

// SessionRecord - сохраняемое состояние сессии. Игроки хранятся отдельными записями.
type SessionRecord struct {
	ID           string                   `json:"id"`
	Host         string                   `json:"host"`
	Status       Status                   `json:"status"`
	Order        []string                 `json:"order"`
	Turn         int                      `json:"turn"`
	TurnMoved    bool                     `json:"turn_moved"`
	Board        BoardRecord              `json:"board"`
	Solution     Solution                 `json:"solution"`
	Suggestions  []Suggestion             `json:"suggestions"`
	Accusations  []Accusation             `json:"accusations"`
	Characters   map[Card]CharacterRecord `json:"characters"`
	Winner       string                   `json:"winner,omitempty"`
	FinishReason string                   `json:"finish_reason,omitempty"`
}

type PlayerRecord struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Character         Card   `json:"character,omitempty"`
	Hand              []Card `json:"hand"`
	Eliminated        bool   `json:"eliminated"`
	MovedBySuggestion bool   `json:"moved_by_suggestion"`
}

// Snapshot делает согласованный снимок сессии для слоя хранения
func (s *Session) Snapshot() (SessionRecord, []PlayerRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := SessionRecord{
		ID:           s.id,
		Host:         s.host,
		Status:       s.status,
		Order:        append([]string(nil), s.order...),
		Turn:         s.turn,
		TurnMoved:    s.turnMoved,
		Board:        s.board.Record(),
		Solution:     s.solution,
		Suggestions:  make([]Suggestion, 0, len(s.suggestions)),
		Accusations:  append([]Accusation{}, s.accusations...),
		Characters:   make(map[Card]CharacterRecord, len(Suspects)),
		Winner:       s.winner,
		FinishReason: s.finishReason,
	}
	for _, sug := range s.suggestions {
		cp := sug
		cp.Responders = append([]string(nil), sug.Responders...)
		cp.Declined = append([]string(nil), sug.Declined...)
		rec.Suggestions = append(rec.Suggestions, cp)
	}
	for _, c := range Suspects {
		owner, taken := s.characters[c]
		rec.Characters[c] = CharacterRecord{PlayerID: owner, Selected: taken}
	}

	players := make([]PlayerRecord, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		players = append(players, PlayerRecord{
			ID:                p.ID,
			Name:              p.Name,
			Character:         p.Character,
			Hand:              append([]Card{}, p.Hand...),
			Eliminated:        p.Eliminated,
			MovedBySuggestion: p.MovedBySuggestion,
		})
	}
	return rec, players
}

// Restore собирает сессию из сохраненных записей
func Restore(rec SessionRecord, players []PlayerRecord, rng *rand.Rand) (*Session, error) {
	switch rec.Status {
	case StatusWaiting, StatusInProgress, StatusFinished:
	default:
		return nil, corruptRecord("unknown status %q", rec.Status)
	}
	if len(rec.Order) == 0 {
		return nil, corruptRecord("lobby %s has no players", rec.ID)
	}
	if rec.Turn < 0 || rec.Turn >= len(rec.Order) {
		return nil, corruptRecord("turn index %d out of range", rec.Turn)
	}

	board, err := boardFromRecord(rec.Board)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:           rec.ID,
		host:         rec.Host,
		status:       rec.Status,
		players:      make(map[string]*Player, len(players)),
		order:        append([]string(nil), rec.Order...),
		turn:         rec.Turn,
		turnMoved:    rec.TurnMoved,
		board:        board,
		solution:     rec.Solution,
		suggestions:  append([]Suggestion(nil), rec.Suggestions...),
		accusations:  append([]Accusation(nil), rec.Accusations...),
		characters:   make(map[Card]string, len(Suspects)),
		winner:       rec.Winner,
		finishReason: rec.FinishReason,
		rng:          rng,
	}
	for _, pr := range players {
		s.players[pr.ID] = &Player{
			ID:                pr.ID,
			Name:              pr.Name,
			Character:         pr.Character,
			Hand:              append([]Card(nil), pr.Hand...),
			Eliminated:        pr.Eliminated,
			MovedBySuggestion: pr.MovedBySuggestion,
		}
	}
	for _, id := range s.order {
		if _, ok := s.players[id]; !ok {
			return nil, corruptRecord("player %s missing from records", id)
		}
	}
	for c, cr := range rec.Characters {
		if cr.Selected {
			s.characters[c] = cr.PlayerID
		}
	}
	for i, sug := range s.suggestions {
		if sug.Index != i {
			return nil, corruptRecord("suggestion at position %d has index %d", i, sug.Index)
		}
	}
	return s, nil
}

func corruptRecord(format string, args ...any) error {
	return &Error{Kind: KindInvariant, Code: "CORRUPT_RECORD", Message: fmt.Sprintf(format, args...)}
}
