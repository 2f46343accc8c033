package hub

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/battlebees-backend/internal/dictionary"
	"github.com/DoyleJ11/battlebees-backend/internal/engine"
	"github.com/DoyleJ11/battlebees-backend/internal/letters"
	"github.com/DoyleJ11/battlebees-backend/internal/room"
)

type nopTransport struct {
	mu     sync.Mutex
	groups map[string]map[string]bool
}

func (n *nopTransport) Emit(string, string, any)                   {}
func (n *nopTransport) EmitRoom(string, string, any)               {}
func (n *nopTransport) EmitRoomExcept(string, string, string, any) {}

func (n *nopTransport) JoinGroup(roomID, connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.groups == nil {
		n.groups = make(map[string]map[string]bool)
	}
	if n.groups[roomID] == nil {
		n.groups[roomID] = make(map[string]bool)
	}
	n.groups[roomID][connID] = true
}

func (n *nopTransport) LeaveGroup(roomID, connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.groups[roomID], connID)
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return newHubWithBonus(t, nil)
}

func newHubWithBonus(t *testing.T, bonus *int) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zaptest.NewLogger(t)
	return NewHub(ctx, Options{
		RoomDeps: room.Deps{
			Transport:  &nopTransport{},
			Dictionary: dictionary.NewWordList(),
			Letters:    letters.NewCorpus(nil, nil, log),
			Logger:     log,
		},
		PangramBonus: bonus,
		Logger:       log,
	})
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func players(t *testing.T, r *room.Room) []string {
	t.Helper()
	v, err := r.View(testCtx(t))
	require.NoError(t, err)
	ids := make([]string, 0, len(v.State.Players))
	for _, p := range v.State.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

func requireClosed(t *testing.T, r *room.Room) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("room still running")
	}
}

func TestHub_CreateGetSamePointer(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	r1, err := h.CreateRoom(ctx, " zed12 ", "Alice", "c1")
	require.NoError(t, err)
	assert.Equal(t, "ZED12", r1.ID())

	r2, err := h.GetRoom(ctx, "zed12")
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, []string{"c1"}, players(t, r1))
}

func TestHub_CreateExistingFails(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	_, err := h.CreateRoom(ctx, "ABCDE", "Alice", "c1")
	require.NoError(t, err)
	_, err = h.CreateRoom(ctx, "abcde", "Bob", "c2")
	assert.ErrorIs(t, err, ErrRoomExists)
}

func TestHub_JoinMissingFails(t *testing.T) {
	h := newTestHub(t)

	_, err := h.JoinRoom(testCtx(t), "NOPE1", "Alice", "c1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestHub_CreateWithoutCodeGeneratesOne(t *testing.T) {
	h := newTestHub(t)

	r, err := h.CreateRoom(testCtx(t), "", "Alice", "c1")
	require.NoError(t, err)
	assert.Len(t, r.ID(), CodeLength)
}

func TestHub_JoinTwiceIsRejected(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	_, err := h.CreateRoom(ctx, "ROOM1", "Alice", "c1")
	require.NoError(t, err)
	r, err := h.JoinRoom(ctx, "ROOM1", "Alice", "c1")
	assert.ErrorIs(t, err, ErrAlreadyInRoom)
	assert.Equal(t, []string{"c1"}, players(t, r))
}

func TestHub_JoiningAnotherRoomLeavesThePrevious(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	a, err := h.CreateRoom(ctx, "AAAAA", "Alice", "c1")
	require.NoError(t, err)
	b, err := h.CreateRoom(ctx, "BBBBB", "Bob", "c2")
	require.NoError(t, err)
	_, err = h.JoinRoom(ctx, "AAAAA", "Carol", "c3")
	require.NoError(t, err)

	_, err = h.JoinRoom(ctx, "BBBBB", "Alice", "c1")
	require.NoError(t, err)

	assert.Equal(t, []string{"c3"}, players(t, a))
	assert.Equal(t, []string{"c2", "c1"}, players(t, b))
}

func TestHub_LastMemberOutClosesRoom(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	r, err := h.CreateRoom(ctx, "ROOM1", "Alice", "c1")
	require.NoError(t, err)
	_, err = h.JoinRoom(ctx, "ROOM1", "Bob", "c2")
	require.NoError(t, err)

	left, err := h.RemoveConnection(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ROOM1", left)
	assert.Equal(t, []string{"c2"}, players(t, r))

	_, err = h.RemoveConnection(ctx, "c2")
	require.NoError(t, err)
	requireClosed(t, r)

	got, err := h.GetRoom(ctx, "ROOM1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The code is free again.
	_, err = h.CreateRoom(ctx, "ROOM1", "Dave", "c4")
	assert.NoError(t, err)
}

func TestHub_RemoveUnknownConnection(t *testing.T) {
	h := newTestHub(t)

	left, err := h.RemoveConnection(testCtx(t), "ghost")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHub_ListRoomsSorted(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	for i, code := range []string{"CCCCC", "AAAAA", "BBBBB"} {
		_, err := h.CreateRoom(ctx, code, "P", string(rune('a'+i)))
		require.NoError(t, err)
	}

	list, err := h.ListRooms(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"AAAAA", "BBBBB", "CCCCC"}, ids)
}

func TestHub_ShutdownClosesRooms(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	r, err := h.CreateRoom(ctx, "ROOM1", "Alice", "c1")
	require.NoError(t, err)

	h.Inbox() <- ShutdownHub{}
	requireClosed(t, r)

	_, err = h.GetRoom(ctx, "ROOM1")
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		c, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, c, CodeLength)
		for _, r := range c {
			assert.True(t, strings.ContainsRune(codeCharset, r), "unexpected %q", r)
		}
		seen[c] = true
	}
	assert.Greater(t, len(seen), 90)
}

func TestHub_NewCodeIsFree(t *testing.T) {
	h := newTestHub(t)
	ctx := testCtx(t)

	c, err := h.NewCode(ctx)
	require.NoError(t, err)
	r, err := h.GetRoom(ctx, c)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestHub_PangramBonus(t *testing.T) {
	zero, eleven := 0, 11
	tests := []struct {
		name  string
		bonus *int
		want  int
	}{
		{"unset uses default", nil, engine.DefaultPangramBonus},
		{"zero disables bonus", &zero, 0},
		{"explicit", &eleven, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHubWithBonus(t, tt.bonus)
			ctx := testCtx(t)

			r, err := h.CreateRoom(ctx, "ROOM1", "Alice", "c1")
			require.NoError(t, err)
			v, err := r.View(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.State.PangramBonus)
		})
	}
}
