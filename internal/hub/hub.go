package hub

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/DoyleJ11/battlebees-backend/internal/engine"
	"github.com/DoyleJ11/battlebees-backend/internal/room"
)

var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrAlreadyInRoom = errors.New("connection already in room")
	ErrHubClosed     = errors.New("hub closed")
)

type HubMsg interface{ isHubMsg() }

// CreateRoom makes a new room and joins ConnID to it as the creator. An empty
// Code gets a generated one.
type CreateRoom struct {
	Code   string
	Name   string
	ConnID string
	Reply  chan JoinResult
}

type JoinRoom struct {
	Code   string
	Name   string
	ConnID string
	Reply  chan JoinResult
}

type JoinResult struct {
	Room *room.Room
	Err  error
}

// RemoveConnection detaches the connection from its room. Reply, if set,
// receives the room id it left or "".
type RemoveConnection struct {
	ConnID string
	Reply  chan string
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type ListRooms struct {
	Reply chan []*room.Room
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()       {}
func (JoinRoom) isHubMsg()         {}
func (RemoveConnection) isHubMsg() {}
func (GetRoom) isHubMsg()          {}
func (ListRooms) isHubMsg()        {}
func (ShutdownHub) isHubMsg()      {}

type Options struct {
	RoomDeps room.Deps
	// PangramBonus is added to a pangram's score. Nil means
	// engine.DefaultPangramBonus; zero disables the bonus.
	PangramBonus *int
	Logger       *zap.Logger
}

type entry struct {
	room    *room.Room
	members map[string]struct{}
}

type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*entry
	conns  map[string]string // connID -> room id
	opts   Options
	bonus  int
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	bonus := engine.DefaultPangramBonus
	if opts.PangramBonus != nil && *opts.PangramBonus >= 0 {
		bonus = *opts.PangramBonus
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*entry),
		conns:  make(map[string]string),
		opts:   opts,
		bonus:  bonus,
		log:    opts.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				r, err := h.create(msg)
				msg.Reply <- JoinResult{Room: r, Err: err}

			case JoinRoom:
				r, err := h.join(msg)
				msg.Reply <- JoinResult{Room: r, Err: err}

			case RemoveConnection:
				code := h.detach(msg.ConnID)
				if msg.Reply != nil {
					msg.Reply <- code
				}

			case GetRoom:
				var r *room.Room
				if e := h.rooms[NormalizeCode(msg.Code)]; e != nil {
					r = e.room
				}
				msg.Reply <- r // May be nil

			case ListRooms:
				ids := make([]string, 0, len(h.rooms))
				for id := range h.rooms {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				list := make([]*room.Room, 0, len(ids))
				for _, id := range ids {
					list = append(list, h.rooms[id].room)
				}
				msg.Reply <- list

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(msg CreateRoom) (*room.Room, error) {
	code := NormalizeCode(msg.Code)
	if code == "" {
		c, err := h.freeCode()
		if err != nil {
			return nil, err
		}
		code = c
	}
	if _, exists := h.rooms[code]; exists {
		return nil, fmt.Errorf("create %s: %w", code, ErrRoomExists)
	}
	h.detach(msg.ConnID)

	state := engine.NewState(code, h.opts.RoomDeps.Letters.Draw(), h.bonus)
	r := room.NewRoom(h.ctx, state, h.opts.RoomDeps)
	h.rooms[code] = &entry{room: r, members: map[string]struct{}{msg.ConnID: {}}}
	h.conns[msg.ConnID] = code
	r.Send(room.Join{ConnID: msg.ConnID, Name: msg.Name, Created: true})

	h.log.Info("room created", zap.String("room", code), zap.String("conn", msg.ConnID), zap.Int("rooms", len(h.rooms)))
	return r, nil
}

func (h *Hub) join(msg JoinRoom) (*room.Room, error) {
	code := NormalizeCode(msg.Code)
	e := h.rooms[code]
	if e == nil {
		return nil, fmt.Errorf("join %s: %w", code, ErrRoomNotFound)
	}
	if h.conns[msg.ConnID] == code {
		return e.room, ErrAlreadyInRoom
	}
	h.detach(msg.ConnID)

	e.members[msg.ConnID] = struct{}{}
	h.conns[msg.ConnID] = code
	e.room.Send(room.Join{ConnID: msg.ConnID, Name: msg.Name})
	return e.room, nil
}

// detach removes the connection from its room, closing the room when it was
// the last member.
func (h *Hub) detach(connID string) string {
	code, ok := h.conns[connID]
	if !ok {
		return ""
	}
	delete(h.conns, connID)

	e := h.rooms[code]
	if e == nil {
		return code
	}
	delete(e.members, connID)
	if len(e.members) > 0 {
		e.room.Send(room.Leave{ConnID: connID})
		return code
	}

	delete(h.rooms, code)
	e.room.Send(room.Shutdown{})
	h.log.Info("room closed", zap.String("room", code), zap.Int("rooms", len(h.rooms)))
	return code
}

func (h *Hub) shutdown() {
	for _, e := range h.rooms {
		e.room.Send(room.Shutdown{})
	}
	clear(h.rooms)
	clear(h.conns)
	h.cancel()
}

func (h *Hub) CreateRoom(ctx context.Context, code, name, connID string) (*room.Room, error) {
	reply := make(chan JoinResult, 1)
	if err := h.send(ctx, CreateRoom{Code: code, Name: name, ConnID: connID, Reply: reply}); err != nil {
		return nil, err
	}
	res, err := recv(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	return res.Room, res.Err
}

func (h *Hub) JoinRoom(ctx context.Context, code, name, connID string) (*room.Room, error) {
	reply := make(chan JoinResult, 1)
	if err := h.send(ctx, JoinRoom{Code: code, Name: name, ConnID: connID, Reply: reply}); err != nil {
		return nil, err
	}
	res, err := recv(ctx, h, reply)
	if err != nil {
		return nil, err
	}
	return res.Room, res.Err
}

func (h *Hub) RemoveConnection(ctx context.Context, connID string) (string, error) {
	reply := make(chan string, 1)
	if err := h.send(ctx, RemoveConnection{ConnID: connID, Reply: reply}); err != nil {
		return "", err
	}
	return recv(ctx, h, reply)
}

func (h *Hub) GetRoom(ctx context.Context, code string) (*room.Room, error) {
	reply := make(chan *room.Room, 1)
	if err := h.send(ctx, GetRoom{Code: code, Reply: reply}); err != nil {
		return nil, err
	}
	return recv(ctx, h, reply)
}

func (h *Hub) ListRooms(ctx context.Context) ([]*room.Room, error) {
	reply := make(chan []*room.Room, 1)
	if err := h.send(ctx, ListRooms{Reply: reply}); err != nil {
		return nil, err
	}
	return recv(ctx, h, reply)
}

func (h *Hub) send(ctx context.Context, msg HubMsg) error {
	select {
	case h.inbox <- msg:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recv[T any](ctx context.Context, h *Hub, reply chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		return zero, ErrHubClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
