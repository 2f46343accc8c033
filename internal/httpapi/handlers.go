package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/battlebees-backend/internal/engine"
	"github.com/DoyleJ11/battlebees-backend/internal/hub"
)

const requestTimeout = 2 * time.Second

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CreateRoomCode hands out a code no live room uses. The room itself is made
// when a client sends createRoom with it.
func CreateRoomCode(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		code, err := h.NewCode(ctx)
		if err != nil {
			log.Error("generate room code", zap.Error(err))
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}{Status: "ok", Timestamp: time.Now().UTC()})
}

type roomSummary struct {
	ID              string       `json:"id"`
	Players         []string     `json:"players"`
	Phase           engine.Phase `json:"phase"`
	CountdownActive bool         `json:"countdownActive"`
}

func DebugRooms(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		rooms, err := h.ListRooms(ctx)
		if err != nil {
			log.Warn("list rooms", zap.Error(err))
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}

		out := make([]roomSummary, 0, len(rooms))
		for _, rm := range rooms {
			v, err := rm.View(ctx)
			if err != nil {
				// Closed between the listing and now.
				continue
			}
			names := make([]string, 0, len(v.State.Players))
			for _, p := range v.State.Players {
				names = append(names, p.Name)
			}
			out = append(out, roomSummary{
				ID:              rm.ID(),
				Players:         names,
				Phase:           v.State.Phase,
				CountdownActive: v.State.Phase == engine.PhaseCountingDown,
			})
		}
		writeJSON(w, http.StatusOK, struct {
			Count int           `json:"count"`
			Rooms []roomSummary `json:"rooms"`
		}{Count: len(out), Rooms: out})
	}
}
