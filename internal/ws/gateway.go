package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/battlebees-backend/internal/types"
)

const DefaultOutboxSize = 32

type client struct {
	out    chan []byte
	closed bool
}

// Gateway tracks live connections and room groups. It implements
// room.Transport; sends never block, and a connection whose outbox is full is
// dropped.
type Gateway struct {
	mu     sync.Mutex
	conns  map[string]*client
	groups map[string]map[string]struct{}
	log    *zap.Logger
}

func NewGateway(log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		conns:  make(map[string]*client),
		groups: make(map[string]map[string]struct{}),
		log:    log,
	}
}

// Register returns the channel of encoded frames for the connection. It is
// closed when the connection is unregistered or dropped.
func (g *Gateway) Register(connID string, size int) <-chan []byte {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	c := &client{out: make(chan []byte, size)}

	g.mu.Lock()
	defer g.mu.Unlock()
	if old := g.conns[connID]; old != nil {
		g.closeLocked(old)
	}
	g.conns[connID] = c
	return c.out
}

// Unregister is safe to call more than once.
func (g *Gateway) Unregister(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c := g.conns[connID]; c != nil {
		g.closeLocked(c)
		delete(g.conns, connID)
	}
	for roomID, members := range g.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(g.groups, roomID)
		}
	}
}

func (g *Gateway) JoinGroup(roomID, connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.groups[roomID] == nil {
		g.groups[roomID] = make(map[string]struct{})
	}
	g.groups[roomID][connID] = struct{}{}
}

func (g *Gateway) LeaveGroup(roomID, connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	members := g.groups[roomID]
	delete(members, connID)
	if len(members) == 0 {
		delete(g.groups, roomID)
	}
}

func (g *Gateway) Emit(connID, event string, payload any) {
	frame, ok := g.encode(event, payload)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if c := g.conns[connID]; c != nil {
		g.deliverLocked(connID, c, frame)
	}
}

func (g *Gateway) EmitRoom(roomID, event string, payload any) {
	g.EmitRoomExcept(roomID, "", event, payload)
}

func (g *Gateway) EmitRoomExcept(roomID, exceptConnID, event string, payload any) {
	frame, ok := g.encode(event, payload)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for connID := range g.groups[roomID] {
		if connID == exceptConnID {
			continue
		}
		if c := g.conns[connID]; c != nil {
			g.deliverLocked(connID, c, frame)
		}
	}
}

// Members returns the number of connections in the room group.
func (g *Gateway) Members(roomID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.groups[roomID])
}

func (g *Gateway) encode(event string, payload any) ([]byte, bool) {
	frame, err := json.Marshal(types.ServerMessage{Event: event, Data: payload})
	if err != nil {
		g.log.Error("encode frame", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return frame, true
}

func (g *Gateway) deliverLocked(connID string, c *client, frame []byte) {
	if c.closed {
		return
	}
	select {
	case c.out <- frame:
	default:
		// Client is slow/full - drop them.
		g.log.Warn("dropping slow connection", zap.String("conn", connID))
		g.closeLocked(c)
	}
}

func (g *Gateway) closeLocked(c *client) {
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}
