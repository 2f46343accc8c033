package types

import (
	"encoding/json"

	"github.com/DoyleJ11/battlebees-backend/internal/engine"
)

// ClientMessage is the frame a client sends: {"event": "...", "data": {...}}.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client -> server events.
const (
	EvtCreateRoom         = "createRoom"
	EvtJoinRoom           = "joinRoom"
	EvtSubmitWord         = "submitWord"
	EvtStartCountdown     = "startCountdown"
	EvtCancelCountdown    = "cancelCountdown"
	EvtReturnToLobby      = "returnToLobby"
	EvtUpdateGameSettings = "updateGameSettings"
)

// Server -> client events.
const (
	EvtJoinConfirmed      = "joinConfirmed"
	EvtRoomError          = "roomError"
	EvtPlayerJoined       = "playerJoined"
	EvtPlayerLeft         = "playerLeft"
	EvtCountdownUpdate    = "countdownUpdate"
	EvtCountdownCancelled = "countdownCancelled"
	EvtGameStarted        = "gameStarted"
	EvtWordAccepted       = "wordAccepted"
	EvtWordError          = "wordError"
	EvtGameOver           = "gameOver"
	EvtGameState          = "gameState"
	// EvtReturnToLobby is also the name of the server's reply.
)

type RoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type SubmitWordRequest struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

type RoomAction struct {
	RoomID string `json:"roomId"`
}

type SettingsRequest struct {
	RoomID   string               `json:"roomId"`
	Settings engine.SettingsPatch `json:"settings"`
}

type JoinConfirmed struct {
	PlayerID     string          `json:"playerId"`
	RoomID       string          `json:"roomId"`
	Letters      []string        `json:"letters"`
	CenterLetter string          `json:"centerLetter"`
	Players      []engine.Player `json:"players"`
	RoomExists   bool            `json:"roomExists"`
}

type PlayersUpdate struct {
	Players []engine.Player `json:"players"`
}

type CountdownUpdate struct {
	TimeLeft int `json:"timeLeft"`
}

type WordAccepted struct {
	Word      string `json:"word"`
	Score     int    `json:"score"`
	IsPangram bool   `json:"isPangram"`
}

type WordError struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

type GameOver struct {
	Winner *engine.Winner `json:"winner"`
}

// GameState is the full room snapshot broadcast after every change.
type GameState struct {
	RoomID          string          `json:"roomId"`
	Letters         []string        `json:"letters"`
	CenterLetter    string          `json:"centerLetter"`
	Players         []engine.Player `json:"players"`
	Phase           engine.Phase    `json:"phase"`
	GameStarted     bool            `json:"gameStarted"`
	GameOver        bool            `json:"gameOver"`
	Winner          *engine.Winner  `json:"winner"`
	CountdownActive bool            `json:"countdownActive"`
	GameSettings    engine.Settings `json:"gameSettings"`
	Pangrams        []string        `json:"pangrams,omitempty"` // only once the game is over
}

func NewGameState(s engine.State) GameState {
	gs := GameState{
		RoomID:          s.RoomID,
		Letters:         s.Letters.Letters,
		CenterLetter:    s.Letters.Center,
		Players:         s.Players,
		Phase:           s.Phase,
		GameStarted:     s.Phase == engine.PhasePlaying || s.Phase == engine.PhaseGameOver,
		GameOver:        s.Phase == engine.PhaseGameOver,
		Winner:          s.Winner,
		CountdownActive: s.Phase == engine.PhaseCountingDown,
		GameSettings:    s.Settings,
	}
	if gs.GameOver {
		gs.Pangrams = s.Letters.Pangrams
	}
	return gs
}
