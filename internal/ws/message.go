package ws

import (
	"context"
	"encoding/json"
	"errors"

	"clue_backend/internal/game"
)

// Message - конверт всех сообщений по сокету в обе стороны
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// входящие типы
const (
	MsgSelectCharacter    = "select_character"
	MsgStartGame          = "start_game"
	MsgMakeMove           = "make_move"
	MsgMakeSuggestion     = "make_suggestion"
	MsgDisproveSuggestion = "disprove_suggestion"
	MsgMakeAccusation     = "make_accusation"
	MsgEndTurn            = "end_turn"
	MsgGetValidMoves      = "get_valid_moves"
	MsgGetMyCards         = "get_my_cards"
)

// исходящие ответы конкретному клиенту
const (
	MsgReady      = "ready"
	MsgState      = "state"
	MsgValidMoves = "valid_moves"
	MsgYourCards  = "your_cards"
	MsgError      = "error"
)

type selectCharacterPayload struct {
	Character string `json:"character_name"`
}

type movePayload struct {
	Destination string `json:"destination"`
}

type suggestionPayload struct {
	Suspect string `json:"suspect"`
	Weapon  string `json:"weapon"`
}

// пустая card - нечем опровергнуть
type disprovePayload struct {
	SuggestionIndex int    `json:"suggestion_idx"`
	Card            string `json:"card"`
}

type accusationPayload struct {
	Suspect string `json:"suspect"`
	Weapon  string `json:"weapon"`
	Room    string `json:"room"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Engine - операции лобби, которые вызывает сокет
type Engine interface {
	SelectCharacter(ctx context.Context, lobbyID, playerID, character string) error
	StartGame(ctx context.Context, lobbyID, playerID string) (game.StartResult, error)
	Move(ctx context.Context, lobbyID, playerID, destination string) (game.MoveResult, error)
	Suggest(ctx context.Context, lobbyID, playerID, suspect, weapon string) (game.SuggestResult, error)
	Respond(ctx context.Context, lobbyID, playerID string, index int, card string) (game.RespondResult, error)
	Accuse(ctx context.Context, lobbyID, playerID, suspect, weapon, room string) (game.AccuseResult, error)
	EndTurn(ctx context.Context, lobbyID, playerID string) (string, error)
	ValidMoves(ctx context.Context, lobbyID, playerID string) ([]game.MoveOption, error)
	State(ctx context.Context, lobbyID, playerID string) (game.SessionView, error)
	Hand(ctx context.Context, lobbyID, playerID string) ([]game.Card, error)
}

var errBadPayload = &game.Error{Kind: game.KindValidation, Code: "BAD_PAYLOAD", Message: "malformed message payload"}
var errUnknownType = &game.Error{Kind: game.KindValidation, Code: "UNKNOWN_MESSAGE", Message: "unknown message type"}

func errorMessage(err error) Message {
	var ge *game.Error
	if errors.As(err, &ge) && ge.Kind != game.KindInvariant {
		return Message{Type: MsgError, Payload: errorPayload{Message: ge.Message, Code: ge.Code}}
	}
	return Message{Type: MsgError, Payload: errorPayload{Message: "internal error", Code: "INTERNAL"}}
}

// decode разбирает payload; пустой payload допустим для команд без параметров
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload
	}
	return nil
}
