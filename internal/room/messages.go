package room

import "github.com/DoyleJ11/battlebees-backend/internal/engine"

type Msg interface{ isRoomMsg() }

// Join adds the connection as a player. Created marks the player who created
// the room; nobody else is told about them yet.
type Join struct {
	ConnID  string
	Name    string
	Created bool
}

func (Join) isRoomMsg() {}

type Leave struct{ ConnID string }

func (Leave) isRoomMsg() {}

type SubmitWord struct {
	ConnID string
	Word   string
}

func (SubmitWord) isRoomMsg() {}

type StartCountdown struct{ ConnID string }

func (StartCountdown) isRoomMsg() {}

type CancelCountdown struct{ ConnID string }

func (CancelCountdown) isRoomMsg() {}

type ReturnToLobby struct{ ConnID string }

func (ReturnToLobby) isRoomMsg() {}

type UpdateSettings struct {
	ConnID string
	Patch  engine.SettingsPatch
}

func (UpdateSettings) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type countdownTick struct{ gen int }

func (countdownTick) isRoomMsg() {}

// wordChecked carries a dictionary result back into the loop. seq must match
// the pending lookup for the connection or the result is dropped.
type wordChecked struct {
	connID string
	word   string
	seq    uint64
	valid  bool
}

func (wordChecked) isRoomMsg() {}

type View struct {
	Version        int
	State          engine.State
	CountdownGen   int
	PendingLookups int
}
