package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/battlebees-backend/internal/engine"
	"github.com/DoyleJ11/battlebees-backend/internal/hub"
	"github.com/DoyleJ11/battlebees-backend/internal/room"
	"github.com/DoyleJ11/battlebees-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	pingInterval = 25 * time.Second
	readLimit    = 4096
)

// Room error messages sent to the client.
const (
	msgRoomNotFound = "Room not found"
	msgRoomExists   = "Room already exists"
	msgNameRequired = "Player name is required"
	msgServerError  = "Something went wrong, please try again"
)

type Options struct {
	// OriginPatterns are host patterns allowed besides the request's own host.
	OriginPatterns []string
	OutboxSize     int
	RateLimit      rate.Limit
	RateBurst      int
	Logger         *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.RateLimit <= 0 {
		o.RateLimit = 10
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 20
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = DefaultOutboxSize
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func Handler(h *hub.Hub, g *Gateway, opts Options) http.HandlerFunc {
	opts = opts.withDefaults()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(readLimit)

		connID := uuid.NewString()
		log := opts.Logger.With(zap.String("conn", connID))
		out := g.Register(connID, opts.OutboxSize)
		log.Info("connection opened", zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		defer func() {
			// r.Context() may already be done here.
			rmCtx, rmCancel := context.WithTimeout(context.Background(), time.Second)
			defer rmCancel()
			if _, err := h.RemoveConnection(rmCtx, connID); err != nil {
				log.Warn("remove connection", zap.Error(err))
			}
			g.Unregister(connID)
			log.Info("connection closed")
		}()

		// Writer goroutine
		go func() {
			defer cancel()
			for frame := range out {
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Write(wctx, websocket.MessageText, frame)
				wcancel()
				if err != nil {
					return
				}
			}
			// Outbox closed: dropped as slow, or the handler is exiting.
			_ = conn.CloseNow()
		}()

		go keepAlive(ctx, conn, cancel)

		d := &dispatcher{hub: h, gw: g, connID: connID, log: log}
		limiter := rate.NewLimiter(opts.RateLimit, opts.RateBurst)

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}
			if !limiter.Allow() {
				log.Debug("rate limited, dropping message")
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("bad json", zap.Error(err))
				continue
			}
			d.dispatch(ctx, cm)
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, pcancel := context.WithTimeout(ctx, pingInterval)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

type dispatcher struct {
	hub    *hub.Hub
	gw     *Gateway
	connID string
	log    *zap.Logger
}

func (d *dispatcher) dispatch(ctx context.Context, cm types.ClientMessage) {
	switch cm.Event {
	case types.EvtCreateRoom, types.EvtJoinRoom:
		var req types.RoomRequest
		if !d.decode(cm, &req) {
			return
		}
		d.enterRoom(ctx, cm.Event, req)

	case types.EvtSubmitWord:
		var req types.SubmitWordRequest
		if !d.decode(cm, &req) {
			return
		}
		d.toRoom(ctx, req.RoomID, room.SubmitWord{ConnID: d.connID, Word: req.Word})

	case types.EvtStartCountdown, types.EvtCancelCountdown, types.EvtReturnToLobby:
		var req types.RoomAction
		if !d.decode(cm, &req) {
			return
		}
		var msg room.Msg
		switch cm.Event {
		case types.EvtStartCountdown:
			msg = room.StartCountdown{ConnID: d.connID}
		case types.EvtCancelCountdown:
			msg = room.CancelCountdown{ConnID: d.connID}
		default:
			msg = room.ReturnToLobby{ConnID: d.connID}
		}
		d.toRoom(ctx, req.RoomID, msg)

	case types.EvtUpdateGameSettings:
		var req types.SettingsRequest
		if !d.decode(cm, &req) {
			return
		}
		d.toRoom(ctx, req.RoomID, room.UpdateSettings{ConnID: d.connID, Patch: req.Settings})

	default:
		d.log.Debug("unknown event", zap.String("event", cm.Event))
	}
}

func (d *dispatcher) decode(cm types.ClientMessage, v any) bool {
	if len(cm.Data) == 0 {
		d.log.Debug("missing payload", zap.String("event", cm.Event))
		return false
	}
	if err := json.Unmarshal(cm.Data, v); err != nil {
		d.log.Debug("malformed payload", zap.String("event", cm.Event), zap.Error(err))
		return false
	}
	return true
}

func (d *dispatcher) enterRoom(ctx context.Context, event string, req types.RoomRequest) {
	name, err := engine.NormalizeName(req.PlayerName)
	if err != nil {
		d.roomError(msgNameRequired)
		return
	}

	if event == types.EvtCreateRoom {
		_, err = d.hub.CreateRoom(ctx, req.RoomID, name, d.connID)
	} else {
		_, err = d.hub.JoinRoom(ctx, req.RoomID, name, d.connID)
	}

	switch {
	case err == nil:
	case errors.Is(err, hub.ErrRoomNotFound):
		d.roomError(msgRoomNotFound)
	case errors.Is(err, hub.ErrRoomExists):
		d.roomError(msgRoomExists)
	case errors.Is(err, hub.ErrAlreadyInRoom):
		d.log.Debug("already in room", zap.String("room", req.RoomID))
	default:
		d.log.Warn("enter room failed", zap.String("event", event), zap.Error(err))
		d.roomError(msgServerError)
	}
}

func (d *dispatcher) toRoom(ctx context.Context, roomID string, msg room.Msg) {
	r, err := d.hub.GetRoom(ctx, roomID)
	if err != nil {
		d.log.Debug("room lookup failed", zap.Error(err))
		return
	}
	if r == nil {
		d.log.Debug("event for unknown room dropped", zap.String("room", roomID))
		return
	}
	r.Send(msg)
}

func (d *dispatcher) roomError(message string) {
	d.gw.Emit(d.connID, types.EvtRoomError, message)
}
