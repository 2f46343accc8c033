package room

// Transport delivers server events to connections. Calls must not block the
// room loop.
type Transport interface {
	Emit(connID, event string, payload any)
	EmitRoom(roomID, event string, payload any)
	EmitRoomExcept(roomID, exceptConnID, event string, payload any)
	JoinGroup(roomID, connID string)
	LeaveGroup(roomID, connID string)
}
