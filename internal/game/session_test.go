package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seat struct {
	id        string
	character Card
	hand      []Card
	pos       Position
}

func inRoom(room string) Position { return Position{Location: room, Kind: KindRoom} }
func inHallway(h string) Position { return Position{Location: h, Kind: KindHallway} }
func atStart() Position           { return Position{Location: LocationStart, Kind: KindStart} }

// buildSession собирает идущую партию с заданным порядком ходов, руками и позициями
func buildSession(t *testing.T, sol Solution, seats ...seat) *Session {
	t.Helper()

	rec := SessionRecord{
		ID:         "TEST01",
		Host:       seats[0].id,
		Status:     StatusInProgress,
		Board:      NewBoard().Record(),
		Solution:   sol,
		Characters: map[Card]CharacterRecord{},
	}
	var players []PlayerRecord
	for _, s := range seats {
		rec.Order = append(rec.Order, s.id)
		rec.Board.Positions[s.id] = s.pos
		switch s.pos.Kind {
		case KindRoom:
			rec.Board.Rooms[s.pos.Location] = append(rec.Board.Rooms[s.pos.Location], s.id)
		case KindHallway:
			rec.Board.Hallways[s.pos.Location] = s.id
		}
		rec.Characters[s.character] = CharacterRecord{PlayerID: s.id, Selected: true}
		players = append(players, PlayerRecord{ID: s.id, Name: "name-" + s.id, Character: s.character, Hand: s.hand})
	}

	sess, err := Restore(rec, players, testRNG(5))
	require.NoError(t, err)
	return sess
}

var testSolution = Solution{Suspect: "Professor Plum", Weapon: "Candlestick", Room: "Study"}

// A в кухне, B управляет Miss Scarlet, у C есть Rope
func scenarioABC(t *testing.T) *Session {
	return buildSession(t, testSolution,
		seat{id: "A", character: "Mr. Green", hand: []Card{"Dagger", "Hall", "Lounge", "Mrs. White", "Mrs. Peacock", "Revolver"}, pos: inRoom(RoomKitchen)},
		seat{id: "B", character: "Miss Scarlet", hand: []Card{"Lead Pipe", "Wrench", "Ballroom", "Library", "Conservatory", "Billiard Room"}, pos: atStart()},
		seat{id: "C", character: "Colonel Mustard", hand: []Card{"Rope", "Colonel Mustard", "Dining Room", "Mr. Green", "Miss Scarlet", "Kitchen"}, pos: inHallway("lounge_dining")},
	)
}

func eventsOfType(events []Event, typ string) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestSuggestion_SuspectOwnerAskedFirstThenClockwise(t *testing.T) {
	s := scenarioABC(t)

	res, events, err := s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Suggestion.Index)
	assert.Equal(t, Card("Kitchen"), res.Suggestion.Room)
	assert.Equal(t, "B", res.Teleported)
	assert.Equal(t, "B", res.FirstResponder)
	require.Len(t, eventsOfType(events, EventDisproveRequest), 1)
	assert.Equal(t, "B", eventsOfType(events, EventDisproveRequest)[0].PlayerID)

	// B телепортирован в кухню и получил право остаться
	pos, _ := s.board.Position("B")
	assert.Equal(t, inRoom(RoomKitchen), pos)
	assert.True(t, s.players["B"].MovedBySuggestion)

	r, _, err := s.Respond("B", 0, "")
	require.NoError(t, err)
	assert.Equal(t, RespondNext, r.Outcome)
	assert.Equal(t, "C", r.NextResponder)

	r, events, err = s.Respond("C", 0, "Rope")
	require.NoError(t, err)
	assert.Equal(t, RespondDisproved, r.Outcome)
	assert.Equal(t, "C", r.Suggestion.DisprovedBy)
	assert.True(t, r.Suggestion.CardShown)
	assert.Empty(t, r.Suggestion.ShownCard)
	assert.Equal(t, "B", r.NextTurn)
	assert.Equal(t, "B", s.CurrentPlayer())

	shown := eventsOfType(events, EventCardShown)
	require.Len(t, shown, 1)
	assert.Equal(t, AudiencePlayer, shown[0].Audience)
	assert.Equal(t, "A", shown[0].PlayerID)
	assert.Equal(t, Card("Rope"), shown[0].Payload.(CardShownPayload).Card)

	// в широковещательных событиях карта не раскрывается
	for _, e := range events {
		if e.Audience == AudienceLobby {
			raw, err := json.Marshal(e)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "Rope")
		}
	}
}

func TestSuggestion_NoOwnerStartsAfterSuggester(t *testing.T) {
	s := scenarioABC(t)
	// Mrs. Peacock никому не назначена: опрос начинается с B, затем C
	res, _, err := s.Suggest("A", "Mrs. Peacock", "Wrench")
	require.NoError(t, err)
	assert.Empty(t, res.Teleported)
	assert.Equal(t, "B", res.FirstResponder)
	assert.Equal(t, []string{"B", "C"}, res.Suggestion.Responders)
}

func TestSuggestion_OwnerFirstSkipsOwnerLater(t *testing.T) {
	s := buildSession(t, testSolution,
		seat{id: "A", character: "Mr. Green", pos: inRoom(RoomHall)},
		seat{id: "B", character: "Miss Scarlet", pos: atStart()},
		seat{id: "C", character: "Colonel Mustard", pos: atStart()},
		seat{id: "D", character: "Mrs. White", pos: atStart()},
	)
	res, _, err := s.Suggest("A", "Colonel Mustard", "Rope")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "D"}, res.Suggestion.Responders)
}

func TestRespond_MustDisproveWhenHoldingMatch(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Suggest("A", "Professor Plum", "Candlestick")
	require.NoError(t, err)

	// у B нет Plum/Candlestick/Kitchen
	_, _, err = s.Respond("B", 0, "")
	require.NoError(t, err)

	// у C есть Kitchen - отказаться нельзя
	_, _, err = s.Respond("C", 0, "")
	assert.ErrorIs(t, err, ErrMustDisprove)
}

func TestSuggestion_NoOneCanDisprove(t *testing.T) {
	s := buildSession(t, testSolution,
		seat{id: "A", character: "Mr. Green", hand: []Card{"Study"}, pos: inRoom(RoomStudy)},
		seat{id: "B", character: "Miss Scarlet", hand: []Card{"Rope"}, pos: atStart()},
		seat{id: "C", character: "Colonel Mustard", hand: []Card{"Dagger"}, pos: atStart()},
	)
	_, _, err := s.Suggest("A", "Professor Plum", "Candlestick")
	require.NoError(t, err)

	r, _, err := s.Respond("B", 0, "")
	require.NoError(t, err)
	assert.Equal(t, RespondNext, r.Outcome)

	r, events, err := s.Respond("C", 0, "")
	require.NoError(t, err)
	assert.Equal(t, RespondExhausted, r.Outcome)
	assert.Equal(t, OutcomeNoDisproof, r.Suggestion.Outcome)
	assert.Equal(t, []string{"B", "C"}, r.Suggestion.Declined)
	assert.Equal(t, "B", r.NextTurn)
	assert.Len(t, eventsOfType(events, EventSuggestionExhausted), 1)

	// повторный ответ на закрытое предположение
	_, _, err = s.Respond("C", 0, "")
	assert.ErrorIs(t, err, ErrInvalidSuggestionIndex)
}

func TestSuggestion_RotationTerminatesAndNeverRevisits(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		order := playerIDs(n)
		for suggester := 0; suggester < n; suggester++ {
			for owner := -1; owner < n; owner++ {
				ownerID := ""
				if owner >= 0 {
					ownerID = order[owner]
				}
				got := responderOrder(order, suggester, ownerID)
				require.Len(t, got, n-1)
				seen := map[string]bool{}
				for _, id := range got {
					require.NotEqual(t, order[suggester], id)
					require.False(t, seen[id], "%s asked twice", id)
					seen[id] = true
				}
				if ownerID != "" && owner != suggester {
					require.Equal(t, ownerID, got[0])
				} else {
					require.Equal(t, order[(suggester+1)%n], got[0])
				}
			}
		}
	}
}

func TestRespond_Validation(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)

	_, _, err = s.Respond("C", 0, "Rope")
	assert.ErrorIs(t, err, ErrNotYourTurn, "C is not the current responder")

	_, _, err = s.Respond("B", 3, "")
	assert.ErrorIs(t, err, ErrInvalidSuggestionIndex)

	_, _, err = s.Respond("B", 0, "Rope")
	assert.ErrorIs(t, err, ErrCardNotOwned)

	_, _, err = s.Respond("B", 0, "Wrench")
	assert.ErrorIs(t, err, ErrCardMismatch)

	_, _, err = s.Respond("ghost", 0, "")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	// состояние не изменилось
	assert.True(t, s.suggestions[0].Pending())
	assert.Equal(t, 0, s.suggestions[0].Asked)
}

func TestSuggest_Validation(t *testing.T) {
	s := scenarioABC(t)

	_, _, err := s.Suggest("B", "Miss Scarlet", "Rope")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, _, err = s.Suggest("A", "Rope", "Rope")
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, _, err = s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)

	// пока предположение открыто, остальные действия запрещены
	_, _, err = s.Suggest("A", "Miss Scarlet", "Rope")
	assert.ErrorIs(t, err, ErrSuggestionOpen)
	_, _, err = s.Accuse("A", "Miss Scarlet", "Rope", "Kitchen")
	assert.ErrorIs(t, err, ErrSuggestionOpen)
	_, _, err = s.EndTurn("A")
	assert.ErrorIs(t, err, ErrSuggestionOpen)
}

func TestSuggest_NotInRoom(t *testing.T) {
	s := buildSession(t, testSolution,
		seat{id: "A", character: "Mr. Green", pos: inHallway("study_hall")},
		seat{id: "B", character: "Miss Scarlet", pos: atStart()},
		seat{id: "C", character: "Colonel Mustard", pos: atStart()},
	)
	_, _, err := s.Suggest("A", "Miss Scarlet", "Rope")
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestMove_TurnRules(t *testing.T) {
	s := scenarioABC(t)

	_, _, err := s.Move("B", "hall_lounge")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, _, err = s.Move("A", "study_hall")
	assert.ErrorIs(t, err, ErrInvalidMove)

	res, events, err := s.Move("A", RoomStudy)
	require.NoError(t, err)
	assert.True(t, res.ViaSecretPassage)
	assert.True(t, res.CanSuggest)
	assert.Equal(t, inRoom(RoomStudy), res.Position)
	require.Len(t, events, 1)
	assert.Equal(t, EventMoveUpdate, events[0].Type)

	_, _, err = s.Move("A", "study_hall")
	assert.ErrorIs(t, err, ErrAlreadyMoved)

	_, _, err = s.Suggest("A", "Mrs. White", "Dagger")
	require.NoError(t, err)
}

func TestMove_IntoHallwayCannotSuggest(t *testing.T) {
	s := scenarioABC(t)
	res, _, err := s.Move("A", "ballroom_kitchen")
	require.NoError(t, err)
	assert.False(t, res.CanSuggest)

	_, _, err = s.Suggest("A", "Miss Scarlet", "Rope")
	assert.ErrorIs(t, err, ErrNotInRoom)

	next, _, err := s.EndTurn("A")
	require.NoError(t, err)
	assert.Equal(t, "B", next)
}

func TestMove_OccupiedHallwayRejected(t *testing.T) {
	s := buildSession(t, testSolution,
		seat{id: "A", character: "Mr. Green", pos: inRoom(RoomLounge)},
		seat{id: "B", character: "Miss Scarlet", pos: inHallway("hall_lounge")},
		seat{id: "C", character: "Colonel Mustard", pos: atStart()},
	)
	_, _, err := s.Move("A", "hall_lounge")
	assert.ErrorIs(t, err, ErrInvalidMove)

	moves, err := s.ValidMoves("A")
	require.NoError(t, err)
	var dests []string
	for _, m := range moves {
		dests = append(dests, m.Destination)
	}
	assert.ElementsMatch(t, []string{"lounge_dining", RoomConservatory}, dests)
}

func TestMove_StayAfterTeleport(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)
	_, _, err = s.Respond("B", 0, "")
	require.NoError(t, err)
	_, _, err = s.Respond("C", 0, "Rope")
	require.NoError(t, err)

	// ход B, его перенесли в кухню - можно остаться
	moves, err := s.ValidMoves("B")
	require.NoError(t, err)
	var stay *MoveOption
	for i := range moves {
		if moves[i].StayInRoom {
			stay = &moves[i]
		}
	}
	require.NotNil(t, stay)
	assert.Equal(t, RoomKitchen, stay.Destination)

	res, _, err := s.Move("B", RoomKitchen)
	require.NoError(t, err)
	assert.True(t, res.CanSuggest)
	assert.False(t, s.players["B"].MovedBySuggestion)

	res2, _, err := s.Suggest("B", "Mr. Green", "Wrench")
	require.NoError(t, err)
	assert.Equal(t, "A", res2.Teleported)
	assert.Equal(t, 1, res2.Suggestion.Index)
}

func TestMovedBySuggestion_ClearedAfterOwnTurn(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)
	_, _, err = s.Respond("B", 0, "")
	require.NoError(t, err)
	_, _, err = s.Respond("C", 0, "Rope")
	require.NoError(t, err)

	_, _, err = s.EndTurn("B")
	require.NoError(t, err)
	assert.False(t, s.players["B"].MovedBySuggestion)
}

func TestAccuse_CorrectEndsGame(t *testing.T) {
	s := scenarioABC(t)
	res, events, err := s.Accuse("A", "Professor Plum", "Candlestick", "Study")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "A", res.Winner)
	require.NotNil(t, res.Solution)
	assert.Equal(t, testSolution, *res.Solution)
	assert.Equal(t, StatusFinished, s.Status())

	over := eventsOfType(events, EventGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, AudienceLobby, over[0].Audience)
	assert.Equal(t, testSolution, over[0].Payload.(GameOverPayload).Solution)

	_, _, err = s.Move("B", "hall_lounge")
	assert.ErrorIs(t, err, ErrGameFinished)
}

func TestAccuse_OneFieldMismatchEliminates(t *testing.T) {
	s := scenarioABC(t)
	res, _, err := s.Accuse("A", "Professor Plum", "Candlestick", "Hall")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Empty(t, res.Winner)
	assert.Nil(t, res.Solution)
	assert.Equal(t, "B", res.NextTurn)
	assert.Equal(t, StatusInProgress, s.Status())
	assert.True(t, s.players["A"].Eliminated)
}

func TestAccuse_EliminatedSkippedAndStillAsked(t *testing.T) {
	s := buildSession(t, testSolution,
		seat{id: "A", character: "Mr. Green", hand: []Card{"Wrench"}, pos: atStart()},
		seat{id: "B", character: "Miss Scarlet", hand: []Card{"Rope"}, pos: atStart()},
		seat{id: "C", character: "Colonel Mustard", hand: []Card{"Dagger"}, pos: inRoom(RoomHall)},
		seat{id: "D", character: "Mrs. White", hand: []Card{"Lounge"}, pos: atStart()},
	)
	_, _, err := s.EndTurn("A")
	require.NoError(t, err)
	res, _, err := s.Accuse("B", "Mr. Green", "Rope", "Hall")
	require.NoError(t, err)
	assert.Equal(t, "C", res.NextTurn)

	_, _, err = s.EndTurn("C")
	require.NoError(t, err)
	next, _, err := s.EndTurn("D")
	require.NoError(t, err)
	assert.Equal(t, "A", next)
	next, _, err = s.EndTurn("A")
	require.NoError(t, err)
	assert.Equal(t, "C", next, "eliminated B is skipped")

	// выбывший B все еще опровергает предположения
	sug, _, err := s.Suggest("C", "Mrs. Peacock", "Wrench")
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "A", "B"}, sug.Suggestion.Responders)
	_, _, err = s.Respond("D", 0, "")
	require.NoError(t, err)
	r, _, err := s.Respond("A", 0, "Wrench")
	require.NoError(t, err)
	assert.Equal(t, "D", r.NextTurn)

	// выбывший не может действовать
	for _, act := range []func() error{
		func() error { _, _, err := s.Move("B", "hall_lounge"); return err },
		func() error { _, _, err := s.Suggest("B", "Mr. Green", "Rope"); return err },
		func() error { _, _, err := s.Accuse("B", "Mr. Green", "Rope", "Hall"); return err },
	} {
		assert.ErrorIs(t, act(), ErrNotYourTurn)
	}
	moves, err := s.ValidMoves("B")
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestAccuse_LastPlayerStandingWins(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Accuse("A", "Mr. Green", "Rope", "Hall")
	require.NoError(t, err)
	res, events, err := s.Accuse("B", "Mr. Green", "Rope", "Hall")
	require.NoError(t, err)

	assert.False(t, res.Correct)
	assert.Equal(t, "C", res.Winner)
	assert.Equal(t, StatusFinished, s.Status())
	winner, reason := s.Winner()
	assert.Equal(t, "C", winner)
	assert.Equal(t, FinishLastPlayer, reason)
	assert.Len(t, eventsOfType(events, EventGameOver), 1)
}

func TestAccuse_UnknownCard(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Accuse("A", "Professor Plum", "Candlestick", "Attic")
	assert.ErrorIs(t, err, ErrUnknownCard)
	assert.False(t, s.players["A"].Eliminated)
}

func newLobby(t *testing.T, n int) (*Session, []string) {
	t.Helper()
	s := NewSession("LOBBY1", "host", "Host", testRNG(77))
	ids := []string{"host"}
	for i := 1; i < n; i++ {
		id := fmt.Sprintf("p%d", i)
		_, _, err := s.Join(id, "Player "+id)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return s, ids
}

func TestStart_Rules(t *testing.T) {
	s, _ := newLobby(t, 2)
	_, _, err := s.Start("host")
	assert.ErrorIs(t, err, ErrTooFewPlayers)

	_, _, err = s.Join("p2", "Third")
	require.NoError(t, err)
	_, _, err = s.Start("p1")
	assert.ErrorIs(t, err, ErrNotHost)

	res, events, err := s.Start("host")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"host", "p1", "p2"}, res.TurnOrder)
	assert.Equal(t, res.TurnOrder[0], res.CurrentPlayer)
	for _, id := range res.TurnOrder {
		assert.Equal(t, atStart(), res.Positions[id])
		assert.Len(t, res.Hands[id], 6)
		assert.True(t, IsSuspect(res.Characters[id]))
	}
	assert.Len(t, eventsOfType(events, EventCardsDealt), 3)
	for _, e := range eventsOfType(events, EventCardsDealt) {
		assert.Equal(t, AudiencePlayer, e.Audience)
	}

	_, _, err = s.Start("host")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	_, _, err = s.Join("late", "Late")
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStart_KeepsSelectedCharacters(t *testing.T) {
	s, _ := newLobby(t, 3)
	_, err := s.SelectCharacter("p1", "Mrs. Peacock")
	require.NoError(t, err)

	_, err = s.SelectCharacter("p2", "Mrs. Peacock")
	assert.ErrorIs(t, err, ErrCharacterTaken)
	_, err = s.SelectCharacter("p2", "Rope")
	assert.ErrorIs(t, err, ErrUnknownCharacter)

	res, _, err := s.Start("host")
	require.NoError(t, err)
	assert.Equal(t, Card("Mrs. Peacock"), res.Characters["p1"])

	chars := map[Card]bool{}
	for _, c := range res.Characters {
		assert.False(t, chars[c], "character %s assigned twice", c)
		chars[c] = true
	}
}

func TestJoin_LobbyFull(t *testing.T) {
	s, _ := newLobby(t, MaxPlayers)
	_, _, err := s.Join("p7", "Seventh")
	assert.ErrorIs(t, err, ErrLobbyFull)

	_, _, err = s.Join("p8", "  ")
	assert.ErrorIs(t, err, ErrLobbyFull)
}

func TestJoin_EmptyName(t *testing.T) {
	s, _ := newLobby(t, 1)
	_, _, err := s.Join("p1", "  ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestActions_BeforeStart(t *testing.T) {
	s, _ := newLobby(t, 3)
	_, _, err := s.Move("host", "hall_lounge")
	assert.ErrorIs(t, err, ErrGameNotStarted)
	_, _, err = s.Respond("host", 0, "")
	assert.ErrorIs(t, err, ErrGameNotStarted)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)
	_, _, err = s.Respond("B", 0, "")
	require.NoError(t, err)

	rec, players := s.Snapshot()
	rawRec, err := json.Marshal(rec)
	require.NoError(t, err)
	rawPlayers, err := json.Marshal(players)
	require.NoError(t, err)

	var rec2 SessionRecord
	var players2 []PlayerRecord
	require.NoError(t, json.Unmarshal(rawRec, &rec2))
	require.NoError(t, json.Unmarshal(rawPlayers, &players2))

	restored, err := Restore(rec2, players2, testRNG(1))
	require.NoError(t, err)

	got, gotPlayers := restored.Snapshot()
	assert.Equal(t, rec.Board, got.Board)
	assert.Equal(t, rec.Turn, got.Turn)
	assert.Equal(t, rec.Suggestions, got.Suggestions)
	assert.Equal(t, rec, got)
	assert.Equal(t, players, gotPlayers)

	// восстановленная сессия продолжает опрос с того же места
	r, _, err := restored.Respond("C", 0, "Rope")
	require.NoError(t, err)
	assert.Equal(t, RespondDisproved, r.Outcome)
}

func TestView_HidesShownCardFromOthers(t *testing.T) {
	s := scenarioABC(t)
	_, _, err := s.Suggest("A", "Miss Scarlet", "Rope")
	require.NoError(t, err)
	_, _, err = s.Respond("B", 0, "")
	require.NoError(t, err)
	_, _, err = s.Respond("C", 0, "Rope")
	require.NoError(t, err)

	va, err := s.View("A")
	require.NoError(t, err)
	assert.Equal(t, Card("Rope"), va.Suggestions[0].ShownCard)

	vb, err := s.View("B")
	require.NoError(t, err)
	assert.Empty(t, vb.Suggestions[0].ShownCard)
	assert.Equal(t, "C", vb.Suggestions[0].DisprovedBy)
	assert.Nil(t, vb.Solution)
	assert.Equal(t, "B", vb.CurrentPlayer)
	assert.NotEmpty(t, vb.ValidMoves)
	assert.Equal(t, []string{"lounge_dining"}, vb.OccupiedHallways)
}

func TestSession_ConcurrentMovesIntoSameHallway(t *testing.T) {
	s := scenarioABC(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = s.Move("A", "dining_kitchen")
		}(i)
	}
	// параллельные чтения видят согласованный снимок
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ValidMoves("B")
			_, _ = s.View("C")
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyMoved)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, "A", s.board.HallwayOccupant("dining_kitchen"))
}
