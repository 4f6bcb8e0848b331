package game

import (
	"errors"
	"fmt"
)

// вид ошибки определяет, как ее обрабатывает вызывающая сторона
type ErrorKind string

const (
	// нарушение протокола: не тот игрок, нет лобби и т.п.
	KindProtocol ErrorKind = "protocol"
	// запрос корректен по протоколу, но недопустим в текущем состоянии
	KindValidation ErrorKind = "validation"
	// внутренняя ошибка, при правильной валидации не должна возникать
	KindInvariant ErrorKind = "invariant"
)

type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func protocolErr(code, msg string) *Error {
	return &Error{Kind: KindProtocol, Code: code, Message: msg}
}

func validationErr(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

var (
	ErrLobbyNotFound    = protocolErr("LOBBY_NOT_FOUND", "lobby not found")
	ErrPlayerNotFound   = protocolErr("PLAYER_NOT_FOUND", "player not found")
	ErrNotYourTurn      = protocolErr("NOT_YOUR_TURN", "not your turn")
	ErrAlreadyStarted   = protocolErr("GAME_IN_PROGRESS", "game already started")
	ErrLobbyFull        = protocolErr("LOBBY_FULL", "lobby is full")
	ErrNotHost          = protocolErr("NOT_HOST", "only the host can start the game")
	ErrTooFewPlayers    = protocolErr("NOT_ENOUGH_PLAYERS", "not enough players to start")
	ErrTooManyPlayers   = protocolErr("TOO_MANY_PLAYERS", "too many players to start")
	ErrGameNotStarted   = protocolErr("GAME_NOT_STARTED", "game has not started")
	ErrGameFinished     = protocolErr("GAME_FINISHED", "game is finished")
	ErrPlayerEliminated = protocolErr("PLAYER_ELIMINATED", "eliminated players cannot act")
	ErrSuggestionOpen   = protocolErr("SUGGESTION_PENDING", "a suggestion is waiting for a response")

	ErrInvalidMove            = validationErr("INVALID_MOVE", "invalid move")
	ErrAlreadyMoved           = validationErr("ALREADY_MOVED", "already moved this turn")
	ErrNotInRoom              = validationErr("NOT_IN_ROOM", "you must be in a room to make a suggestion")
	ErrInvalidSuggestionIndex = validationErr("INVALID_SUGGESTION", "invalid suggestion index")
	ErrCardNotOwned           = validationErr("CARD_NOT_OWNED", "card is not in your hand")
	ErrCardMismatch           = validationErr("CARD_MISMATCH", "card does not match the suggestion")
	ErrMustDisprove           = validationErr("MUST_DISPROVE", "you hold a matching card and must show it")
	ErrUnknownCard            = validationErr("UNKNOWN_CARD", "unknown card")
	ErrUnknownCharacter       = validationErr("UNKNOWN_CHARACTER", "character not found in lobby")
	ErrCharacterTaken         = validationErr("CHARACTER_ALREADY_SELECTED", "character already selected")
	ErrInvalidName            = validationErr("INVALID_NAME", "player name is required")
)

// IsKind сообщает, является ли err доменной ошибкой заданного вида
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// invariant паникует при нарушении внутреннего инварианта движка
func invariant(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(&Error{Kind: KindInvariant, Code: "INVARIANT_VIOLATION", Message: fmt.Sprintf(format, args...)})
}
