package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/battlebees-backend/internal/dictionary"
	"github.com/DoyleJ11/battlebees-backend/internal/engine"
	"github.com/DoyleJ11/battlebees-backend/internal/hub"
	"github.com/DoyleJ11/battlebees-backend/internal/letters"
	"github.com/DoyleJ11/battlebees-backend/internal/room"
	"github.com/DoyleJ11/battlebees-backend/internal/ws"
)

func newRouter(t *testing.T) (http.Handler, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zaptest.NewLogger(t)
	gw := ws.NewGateway(log)
	h := hub.NewHub(ctx, hub.Options{
		RoomDeps: room.Deps{
			Transport:  gw,
			Dictionary: dictionary.NewWordList(),
			Letters:    letters.NewCorpus(nil, nil, log),
			Logger:     log,
		},
		Logger: log,
	})
	return SetupRoutes(h, gw, Options{Logger: log}), h
}

func TestHealthz(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.WithinDuration(t, time.Now(), body.Timestamp, time.Minute)
}

func TestCreateRoomCode(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Code, hub.CodeLength)
}

func TestDebugRooms(t *testing.T) {
	router, h := newRouter(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := h.CreateRoom(ctx, "ROOM1", "Alice", "c1")
	require.NoError(t, err)
	_, err = h.JoinRoom(ctx, "ROOM1", "Bob", "c2")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/rooms", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int           `json:"count"`
		Rooms []roomSummary `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, roomSummary{
		ID:      "ROOM1",
		Players: []string{"Alice", "Bob"},
		Phase:   engine.PhaseLobby,
	}, body.Rooms[0])
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lobbies", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
