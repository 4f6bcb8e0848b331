package game

// Audience - класс доставки события. Движок только решает, кому адресован факт,
// саму доставку выполняет транспорт.
type Audience string

const (
	AudienceLobby  Audience = "lobby"
	AudiencePlayer Audience = "player"
)

const (
	EventLobbyJoined         = "lobby_joined"
	EventCharacterSelected   = "character_selected"
	EventCardsDealt          = "cards_dealt"
	EventGameStarted         = "game_started"
	EventMoveUpdate          = "move_update"
	EventSuggestionMade      = "suggestion_made"
	EventDisproveRequest     = "disprove_request"
	EventCannotDisprove      = "cannot_disprove"
	EventCardShown           = "card_shown"
	EventSuggestionDisproved = "suggestion_disproved"
	EventSuggestionExhausted = "suggestion_exhausted"
	EventAccusationResult    = "accusation_result"
	EventTurnUpdate          = "turn_update"
	EventGameOver            = "game_over"
)

type Event struct {
	Type     string   `json:"type"`
	Audience Audience `json:"-"`
	// получатель для AudiencePlayer
	PlayerID string `json:"-"`
	Payload  any    `json:"payload,omitempty"`
}

func broadcast(eventType string, payload any) Event {
	return Event{Type: eventType, Audience: AudienceLobby, Payload: payload}
}

func private(playerID, eventType string, payload any) Event {
	return Event{Type: eventType, Audience: AudiencePlayer, PlayerID: playerID, Payload: payload}
}

type LobbyPlayer struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"is_host"`
	Character Card   `json:"character,omitempty"`
}

type LobbyJoinedPayload struct {
	PlayerID   string        `json:"player_id"`
	Players    []LobbyPlayer `json:"players"`
	HostID     string        `json:"host_id"`
	MinPlayers int           `json:"min_players"`
	MaxPlayers int           `json:"max_players"`
	CanStart   bool          `json:"can_start"`
}

type CharacterSelectedPayload struct {
	PlayerID  string          `json:"player_id"`
	Character Card            `json:"character_name"`
	Taken     map[Card]string `json:"characters"`
}

type CardsDealtPayload struct {
	Cards     []Card `json:"cards"`
	Character Card   `json:"character"`
}

type PlayerPosition struct {
	PlayerID     string       `json:"player_id"`
	Name         string       `json:"name"`
	Character    Card         `json:"character"`
	Position     string       `json:"position"`
	PositionType LocationKind `json:"position_type"`
	Eliminated   bool         `json:"eliminated"`
}

type GameStartedPayload struct {
	TurnOrder       []string         `json:"turn_order"`
	CurrentPlayerID string           `json:"current_player_id"`
	Positions       []PlayerPosition `json:"player_positions"`
}

type MoveUpdatePayload struct {
	PlayerID         string           `json:"player_id"`
	OldPosition      string           `json:"old_position"`
	NewPosition      string           `json:"new_position"`
	ViaSecretPassage bool             `json:"via_secret_passage"`
	CanSuggest       bool             `json:"can_suggest"`
	Positions        []PlayerPosition `json:"player_positions"`
}

type SuggestionMadePayload struct {
	Suggestion     Suggestion       `json:"suggestion"`
	Teleported     string           `json:"teleported_player_id,omitempty"`
	NextToDisprove string           `json:"next_to_disprove,omitempty"`
	Positions      []PlayerPosition `json:"player_positions"`
}

// только отвечающему: какие его карты подходят
type DisproveRequestPayload struct {
	SuggestionIndex int    `json:"suggestion_idx"`
	MatchingCards   []Card `json:"matching_cards"`
}

type CannotDisprovePayload struct {
	SuggestionIndex int    `json:"suggestion_idx"`
	PlayerID        string `json:"player_id"`
	NextToDisprove  string `json:"next_to_disprove,omitempty"`
}

// только предположившему
type CardShownPayload struct {
	SuggestionIndex int    `json:"suggestion_idx"`
	ShownBy         string `json:"shown_by"`
	Card            Card   `json:"card"`
}

type SuggestionDisprovedPayload struct {
	SuggestionIndex int    `json:"suggestion_idx"`
	DisprovedBy     string `json:"disproved_by"`
}

type SuggestionExhaustedPayload struct {
	SuggestionIndex int `json:"suggestion_idx"`
}

type AccusationResultPayload struct {
	PlayerID string `json:"player_id"`
	Suspect  Card   `json:"suspect"`
	Weapon   Card   `json:"weapon"`
	Room     Card   `json:"room"`
	Correct  bool   `json:"is_correct"`
}

type TurnUpdatePayload struct {
	PlayerID   string       `json:"player_id"`
	ValidMoves []MoveOption `json:"valid_moves"`
	InRoom     bool         `json:"in_room"`
	Location   string       `json:"current_location"`
}

type GameOverPayload struct {
	Winner   string   `json:"winner"`
	Reason   string   `json:"reason"`
	Solution Solution `json:"solution"`
}
