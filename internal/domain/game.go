package domain

import "time"

// FinishedGame - итог партии для истории
type FinishedGame struct {
	ID          int64          `db:"id" json:"id"`
	LobbyID     string         `db:"lobby_id" json:"lobby_id"`
	WinnerID    string         `db:"winner_id" json:"winner_id"`
	WinnerName  string         `db:"winner_name" json:"winner_name"`
	Reason      string         `db:"reason" json:"reason"`
	Solution    map[string]any `db:"solution" json:"solution"`
	Players     []GamePlayer   `db:"players" json:"players"`
	Suggestions int            `db:"suggestions" json:"suggestions"`
	Accusations int            `db:"accusations" json:"accusations"`
	StartedAt   time.Time      `db:"started_at" json:"started_at"`
	FinishedAt  time.Time      `db:"finished_at" json:"finished_at"`
}

type GamePlayer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Character  string `json:"character"`
	Eliminated bool   `json:"eliminated"`
}

// GameEvent - запись журнала важных действий в лобби
type GameEvent struct {
	ID        int64          `db:"id" json:"id"`
	LobbyID   string         `db:"lobby_id" json:"lobby_id"`
	PlayerID  string         `db:"player_id" json:"player_id,omitempty"`
	Action    string         `db:"action" json:"action"`
	Details   map[string]any `db:"details" json:"details"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

const (
	ActionLobbyCreated = "lobby_created"
	ActionGameStart    = "game_start"
	ActionAccusation   = "accusation"
	ActionGameEnd      = "game_end"
)
