package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/battlebees-backend/internal/types"
)

func decodeFrame(t *testing.T, frame []byte) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &msg))
	return msg.Event, msg.Data
}

func TestGateway_EmitEncodesEnvelope(t *testing.T) {
	g := NewGateway(zaptest.NewLogger(t))
	out := g.Register("c1", 4)

	g.Emit("c1", types.EvtCountdownUpdate, types.CountdownUpdate{TimeLeft: 2})
	g.Emit("ghost", types.EvtCountdownUpdate, types.CountdownUpdate{TimeLeft: 1})

	event, data := decodeFrame(t, <-out)
	assert.Equal(t, types.EvtCountdownUpdate, event)
	assert.JSONEq(t, `{"timeLeft":2}`, string(data))
	assert.Empty(t, out)
}

func TestGateway_EmitRoomExcept(t *testing.T) {
	g := NewGateway(zaptest.NewLogger(t))
	a := g.Register("a", 4)
	b := g.Register("b", 4)
	c := g.Register("c", 4)
	g.JoinGroup("ROOM1", "a")
	g.JoinGroup("ROOM1", "b")
	g.JoinGroup("ROOM2", "c")

	g.EmitRoomExcept("ROOM1", "a", types.EvtGameStarted, nil)

	assert.Empty(t, a)
	assert.Len(t, b, 1)
	assert.Empty(t, c)

	event, data := decodeFrame(t, <-b)
	assert.Equal(t, types.EvtGameStarted, event)
	assert.Empty(t, data)

	g.LeaveGroup("ROOM1", "b")
	g.EmitRoom("ROOM1", types.EvtGameStarted, nil)
	assert.Len(t, a, 1)
	assert.Empty(t, b)
	assert.Equal(t, 1, g.Members("ROOM1"))
}

func TestGateway_DropsSlowConnection(t *testing.T) {
	g := NewGateway(zaptest.NewLogger(t))
	out := g.Register("c1", 1)
	g.JoinGroup("ROOM1", "c1")

	g.EmitRoom("ROOM1", types.EvtGameStarted, nil)
	g.EmitRoom("ROOM1", types.EvtGameStarted, nil) // outbox full
	g.EmitRoom("ROOM1", types.EvtGameStarted, nil) // already dropped

	_, ok := <-out
	assert.True(t, ok, "buffered frame still delivered")
	_, ok = <-out
	assert.False(t, ok, "outbox closed")
}

func TestGateway_UnregisterIsIdempotent(t *testing.T) {
	g := NewGateway(zaptest.NewLogger(t))
	out := g.Register("c1", 1)
	g.JoinGroup("ROOM1", "c1")

	g.Unregister("c1")
	g.Unregister("c1")

	_, ok := <-out
	assert.False(t, ok)
	assert.Zero(t, g.Members("ROOM1"))

	// Late emits for a gone connection are ignored.
	g.Emit("c1", types.EvtGameStarted, nil)
	g.JoinGroup("ROOM1", "c1")
	g.EmitRoom("ROOM1", types.EvtGameStarted, nil)
}
