package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/battlebees-backend/internal/dictionary"
	"github.com/DoyleJ11/battlebees-backend/internal/hub"
	"github.com/DoyleJ11/battlebees-backend/internal/letters"
	"github.com/DoyleJ11/battlebees-backend/internal/room"
	"github.com/DoyleJ11/battlebees-backend/internal/types"
)

type testServer struct {
	srv *httptest.Server
	hub *hub.Hub
	gw  *Gateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zaptest.NewLogger(t)
	gw := NewGateway(log)
	h := hub.NewHub(ctx, hub.Options{
		RoomDeps: room.Deps{
			Transport:    gw,
			Dictionary:   dictionary.NewWordList("BOLD", "BOILED"),
			Letters:      letters.NewCorpus([]letters.Set{letters.Default()}, nil, log),
			Logger:       log,
			TickInterval: 5 * time.Millisecond,
		},
		Logger: log,
	})

	srv := httptest.NewServer(Handler(h, gw, Options{Logger: log}))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, hub: h, gw: gw}
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (s *testServer) dial(t *testing.T) *testClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(s.srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(event string, data any) {
	c.t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(c.t, err)
	frame, err := json.Marshal(types.ClientMessage{Event: event, Data: raw})
	require.NoError(c.t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(c.t, c.conn.Write(ctx, websocket.MessageText, frame))
}

// expect reads frames until one carries event and decodes its data into v.
func (c *testClient) expect(event string, v any) {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		_, frame, err := c.conn.Read(ctx)
		require.NoError(c.t, err, "waiting for %q", event)

		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(c.t, json.Unmarshal(frame, &msg))
		if msg.Event != event {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(msg.Data, v))
		}
		return
	}
}

func TestHandler_CreateAndJoin(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	alice.send(types.EvtCreateRoom, types.RoomRequest{RoomID: "abcde", PlayerName: "Alice"})
	var confirmed types.JoinConfirmed
	alice.expect(types.EvtJoinConfirmed, &confirmed)
	assert.Equal(t, "ABCDE", confirmed.RoomID)
	assert.NotEmpty(t, confirmed.PlayerID)
	assert.Len(t, confirmed.Letters, letters.Size)

	bob.send(types.EvtJoinRoom, types.RoomRequest{RoomID: "ABCDE", PlayerName: "Bob"})
	bob.expect(types.EvtJoinConfirmed, &confirmed)
	assert.Len(t, confirmed.Players, 2)

	var joined types.PlayersUpdate
	alice.expect(types.EvtPlayerJoined, &joined)
	require.Len(t, joined.Players, 2)
	assert.Equal(t, "Bob", joined.Players[1].Name)
}

func TestHandler_RoomErrors(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t)

	var msg string
	c.send(types.EvtJoinRoom, types.RoomRequest{RoomID: "NOPE1", PlayerName: "Alice"})
	c.expect(types.EvtRoomError, &msg)
	assert.Equal(t, "Room not found", msg)

	c.send(types.EvtCreateRoom, types.RoomRequest{RoomID: "ROOM1", PlayerName: "   "})
	c.expect(types.EvtRoomError, &msg)
	assert.Equal(t, "Player name is required", msg)

	other := s.dial(t)
	other.send(types.EvtCreateRoom, types.RoomRequest{RoomID: "ROOM1", PlayerName: "Bob"})
	other.expect(types.EvtJoinConfirmed, nil)
	c.send(types.EvtCreateRoom, types.RoomRequest{RoomID: "room1", PlayerName: "Alice"})
	c.expect(types.EvtRoomError, &msg)
	assert.Equal(t, "Room already exists", msg)
}

func TestHandler_CreateWithoutCode(t *testing.T) {
	s := newTestServer(t)
	c := s.dial(t)

	c.send(types.EvtCreateRoom, types.RoomRequest{PlayerName: "Alice"})
	var confirmed types.JoinConfirmed
	c.expect(types.EvtJoinConfirmed, &confirmed)
	assert.Len(t, confirmed.RoomID, hub.CodeLength)
}

func TestHandler_PlaysAWord(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	alice.send(types.EvtCreateRoom, types.RoomRequest{RoomID: "GAME1", PlayerName: "Alice"})
	alice.expect(types.EvtJoinConfirmed, nil)
	bob.send(types.EvtJoinRoom, types.RoomRequest{RoomID: "GAME1", PlayerName: "Bob"})
	bob.expect(types.EvtJoinConfirmed, nil)

	// Garbage and unknown events are ignored.
	require.NoError(t, alice.conn.Write(context.Background(), websocket.MessageText, []byte("not json")))
	alice.send("danceParty", types.RoomAction{RoomID: "GAME1"})

	alice.send(types.EvtStartCountdown, types.RoomAction{RoomID: "GAME1"})
	var cd types.CountdownUpdate
	bob.expect(types.EvtCountdownUpdate, &cd)
	assert.Equal(t, 3, cd.TimeLeft)
	bob.expect(types.EvtGameStarted, nil)
	alice.expect(types.EvtGameStarted, nil)

	bob.send(types.EvtSubmitWord, types.SubmitWordRequest{RoomID: "GAME1", Word: "bold"})
	var ack types.WordAccepted
	bob.expect(types.EvtWordAccepted, &ack)
	assert.Equal(t, types.WordAccepted{Word: "BOLD", Score: 1}, ack)

	bob.send(types.EvtSubmitWord, types.SubmitWordRequest{RoomID: "GAME1", Word: "BLOB"})
	var werr types.WordError
	bob.expect(types.EvtWordError, &werr)
	assert.Equal(t, "Word not in dictionary!", werr.Message)

	var state types.GameState
	alice.expect(types.EvtGameState, &state)
	assert.True(t, state.GameStarted)
}

func TestHandler_DisconnectLeavesRoom(t *testing.T) {
	s := newTestServer(t)
	alice := s.dial(t)
	bob := s.dial(t)

	alice.send(types.EvtCreateRoom, types.RoomRequest{RoomID: "BYE01", PlayerName: "Alice"})
	alice.expect(types.EvtJoinConfirmed, nil)
	bob.send(types.EvtJoinRoom, types.RoomRequest{RoomID: "BYE01", PlayerName: "Bob"})
	alice.expect(types.EvtPlayerJoined, nil)

	_ = bob.conn.Close(websocket.StatusNormalClosure, "bye")

	var left types.PlayersUpdate
	alice.expect(types.EvtPlayerLeft, &left)
	require.Len(t, left.Players, 1)
	assert.Equal(t, "Alice", left.Players[0].Name)

	_ = alice.conn.Close(websocket.StatusNormalClosure, "bye")
	assert.Eventually(t, func() bool {
		r, err := s.hub.GetRoom(context.Background(), "BYE01")
		return err == nil && r == nil
	}, 2*time.Second, 10*time.Millisecond)
}
