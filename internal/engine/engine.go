package engine

import (
	"errors"

	"github.com/DoyleJ11/battlebees-backend/internal/letters"
)

var ErrWrongPhase = errors.New("action not allowed in current phase")
var ErrCountdownActive = errors.New("countdown already active")
var ErrNotEnoughPlayers = errors.New("not enough players")
var ErrUnknownPlayer = errors.New("player not in room")
var ErrPlayerExists = errors.New("player already in room")
var ErrInvalidName = errors.New("invalid player name")
var ErrInvalidSettings = errors.New("invalid game settings")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	MinPlayers     = 2
	CountdownStart = 3
	MaxNameLength  = 20
)

type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseCountingDown Phase = "countingDown"
	PhasePlaying      Phase = "playing"
	PhaseGameOver     Phase = "gameOver"
)

type Player struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Score      int      `json:"score"`
	FoundWords []string `json:"foundWords"`

	found map[string]struct{}
}

func (p Player) HasFound(word string) bool {
	_, ok := p.found[word]
	return ok
}

type State struct {
	RoomID       string
	Letters      letters.Set
	Players      []Player // join order
	Settings     Settings
	Phase        Phase
	TimeLeft     int
	Winner       *Winner
	PangramBonus int
}

type CommandType string

const (
	CmdJoin            CommandType = "Join"
	CmdLeave           CommandType = "Leave"
	CmdStartCountdown  CommandType = "StartCountdown"
	CmdCountdownTick   CommandType = "CountdownTick"
	CmdCancelCountdown CommandType = "CancelCountdown"
	CmdAcceptWord      CommandType = "AcceptWord"
	CmdReturnToLobby   CommandType = "ReturnToLobby"
	CmdUpdateSettings  CommandType = "UpdateSettings"
)

/*
	CmdJoin            -> EvtPlayerJoined
	CmdLeave           -> EvtPlayerLeft
	CmdStartCountdown  -> EvtCountdownTicked(3)
	CmdCountdownTick   -> EvtCountdownTicked(2,1,0) then EvtGameStarted
	CmdCancelCountdown -> EvtCountdownCancelled
	CmdAcceptWord      -> EvtWordAccepted [-> EvtGameOver]
	CmdReturnToLobby   -> EvtReturnedToLobby
	CmdUpdateSettings  -> EvtSettingsUpdated

	AcceptWord only runs the local checks. The dictionary lookup happens
	outside the engine and must pass before the command is sent.
*/

type Command struct {
	Type     CommandType
	PlayerID string
	Name     string
	Word     string
	Letters  letters.Set
	Settings SettingsPatch
}

type EventType string

const (
	EvtPlayerJoined       EventType = "PlayerJoined"
	EvtPlayerLeft         EventType = "PlayerLeft"
	EvtCountdownTicked    EventType = "CountdownTicked"
	EvtCountdownCancelled EventType = "CountdownCancelled"
	EvtGameStarted        EventType = "GameStarted"
	EvtWordAccepted       EventType = "WordAccepted"
	EvtGameOver           EventType = "GameOver"
	EvtSettingsUpdated    EventType = "SettingsUpdated"
	EvtReturnedToLobby    EventType = "ReturnedToLobby"
)

type Event struct {
	Type      EventType
	PlayerID  string
	Word      string
	Score     int
	IsPangram bool
	TimeLeft  int
	Winner    *Winner
}

// Apply never modifies s. On error the returned state is s itself.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdJoin:
		name, err := NormalizeName(cmd.Name)
		if err != nil {
			return nil, s, err
		}
		if s.indexOf(cmd.PlayerID) >= 0 {
			return nil, s, ErrPlayerExists
		}
		newState := s.clone()
		newState.Players = append(newState.Players, newPlayer(cmd.PlayerID, name))
		return []Event{{Type: EvtPlayerJoined, PlayerID: cmd.PlayerID}}, newState, nil

	case CmdLeave:
		i := s.indexOf(cmd.PlayerID)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		newState := s.clone()
		newState.Players = append(newState.Players[:i], newState.Players[i+1:]...)
		return []Event{{Type: EvtPlayerLeft, PlayerID: cmd.PlayerID}}, newState, nil

	case CmdStartCountdown:
		switch {
		case s.Phase == PhaseCountingDown:
			return nil, s, ErrCountdownActive
		case s.Phase != PhaseLobby:
			return nil, s, ErrWrongPhase
		case len(s.Players) < MinPlayers:
			return nil, s, ErrNotEnoughPlayers
		}
		newState := s.clone()
		newState.Phase = PhaseCountingDown
		newState.TimeLeft = CountdownStart
		return []Event{{Type: EvtCountdownTicked, TimeLeft: CountdownStart}}, newState, nil

	case CmdCountdownTick:
		if s.Phase != PhaseCountingDown {
			return nil, s, ErrWrongPhase
		}
		newState := s.clone()
		newState.TimeLeft--
		if newState.TimeLeft >= 0 {
			return []Event{{Type: EvtCountdownTicked, TimeLeft: newState.TimeLeft}}, newState, nil
		}
		newState.TimeLeft = 0
		newState.Phase = PhasePlaying
		return []Event{{Type: EvtGameStarted}}, newState, nil

	case CmdCancelCountdown:
		if s.Phase != PhaseCountingDown {
			return nil, s, ErrWrongPhase
		}
		newState := s.clone()
		newState.Phase = PhaseLobby
		newState.TimeLeft = 0
		return []Event{{Type: EvtCountdownCancelled}}, newState, nil

	case CmdAcceptWord:
		word, err := CheckWord(s, cmd.PlayerID, cmd.Word)
		if err != nil {
			return nil, s, err
		}
		newState := s.clone()
		p := &newState.Players[newState.indexOf(cmd.PlayerID)]

		pangram := IsPangram(word, newState.Letters)
		points := WordScore(word, pangram, newState.PangramBonus)
		p.Score += points
		p.FoundWords = append(p.FoundWords, word)
		p.found[word] = struct{}{}

		events := []Event{{
			Type:      EvtWordAccepted,
			PlayerID:  p.ID,
			Word:      word,
			Score:     points,
			IsPangram: pangram,
		}}

		if w := evaluateWin(*p, pangram, newState.Settings); w != nil {
			newState.Phase = PhaseGameOver
			newState.Winner = w
			events = append(events, Event{Type: EvtGameOver, PlayerID: p.ID, Winner: w})
		}
		return events, newState, nil

	case CmdReturnToLobby:
		if s.Phase != PhaseGameOver {
			return nil, s, ErrWrongPhase
		}
		if err := cmd.Letters.Validate(); err != nil {
			return nil, s, err
		}
		newState := s.clone()
		for i := range newState.Players {
			newState.Players[i].reset()
		}
		newState.Letters = cmd.Letters.Clone()
		newState.Winner = nil
		newState.TimeLeft = 0
		newState.Phase = PhaseLobby
		return []Event{{Type: EvtReturnedToLobby}}, newState, nil

	case CmdUpdateSettings:
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		merged, err := s.Settings.Merge(cmd.Settings)
		if err != nil {
			return nil, s, err
		}
		newState := s.clone()
		newState.Settings = merged
		return []Event{{Type: EvtSettingsUpdated, PlayerID: cmd.PlayerID}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}
