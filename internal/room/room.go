package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/battlebees-backend/internal/dictionary"
	"github.com/DoyleJ11/battlebees-backend/internal/engine"
	"github.com/DoyleJ11/battlebees-backend/internal/letters"
	"github.com/DoyleJ11/battlebees-backend/internal/types"
)

const (
	DefaultTickInterval  = time.Second
	DefaultLookupTimeout = dictionary.DefaultTimeout
)

type Deps struct {
	Transport     Transport
	Dictionary    dictionary.Validator
	Letters       letters.Provider
	Logger        *zap.Logger
	Ticker        TickerFunc
	TickInterval  time.Duration
	LookupTimeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Ticker == nil {
		d.Ticker = NewTicker
	}
	if d.TickInterval <= 0 {
		d.TickInterval = DefaultTickInterval
	}
	if d.LookupTimeout <= 0 {
		d.LookupTimeout = DefaultLookupTimeout
	}
	return d
}

// Room owns one game. Every mutation happens on the loop goroutine.
type Room struct {
	id      string
	inbox   chan Msg
	state   engine.State
	version int
	deps    Deps
	log     *zap.Logger

	cd      countdown
	pending map[string]uint64 // connID -> lookup seq in flight
	seq     uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRoom(parent context.Context, initial engine.State, deps Deps) *Room {
	ctx, cancel := context.WithCancel(parent)
	deps = deps.withDefaults()

	r := &Room{
		id:      initial.RoomID,
		inbox:   make(chan Msg, 256),
		state:   initial,
		deps:    deps,
		log:     deps.Logger.With(zap.String("room", initial.RoomID)),
		pending: make(map[string]uint64),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go r.loop()
	return r
}

func (r *Room) ID() string { return r.id }

// Send queues msg for the loop. It reports false once the room has shut down.
func (r *Room) Send(msg Msg) bool {
	select {
	case <-r.ctx.Done():
		return false
	default:
	}
	select {
	case r.inbox <- msg:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// Done is closed when the loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !r.Send(GetState{Reply: reply}) {
		return View{}, context.Canceled
	}
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		return View{}, context.Canceled
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (r *Room) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				r.handleLeave(msg)
			case SubmitWord:
				r.handleSubmit(msg)
			case wordChecked:
				r.handleWordChecked(msg)
			case StartCountdown:
				r.handleStart(msg)
			case countdownTick:
				r.handleTick(msg)
			case CancelCountdown:
				r.handleCancel(msg)
			case ReturnToLobby:
				r.handleReturn(msg)
			case UpdateSettings:
				r.handleSettings(msg)
			case GetState:
				msg.Reply <- View{
					Version:        r.version,
					State:          r.state,
					CountdownGen:   r.cd.gen,
					PendingLookups: len(r.pending),
				}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) apply(cmd engine.Command) ([]engine.Event, error) {
	events, next, err := engine.Apply(r.state, cmd)
	if err != nil {
		return nil, err
	}
	r.state = next
	r.version++
	return events, nil
}

func (r *Room) isMember(connID string) bool {
	_, ok := r.state.Player(connID)
	return ok
}

func (r *Room) handleJoin(msg Join) {
	if _, err := r.apply(engine.Command{Type: engine.CmdJoin, PlayerID: msg.ConnID, Name: msg.Name}); err != nil {
		r.log.Warn("join rejected", zap.String("conn", msg.ConnID), zap.Error(err))
		return
	}

	tr := r.deps.Transport
	tr.JoinGroup(r.id, msg.ConnID)
	tr.Emit(msg.ConnID, types.EvtJoinConfirmed, types.JoinConfirmed{
		PlayerID:     msg.ConnID,
		RoomID:       r.id,
		Letters:      r.state.Letters.Letters,
		CenterLetter: r.state.Letters.Center,
		Players:      r.state.Players,
		RoomExists:   true,
	})
	if !msg.Created {
		tr.EmitRoomExcept(r.id, msg.ConnID, types.EvtPlayerJoined, types.PlayersUpdate{Players: r.state.Players})
	}
	r.broadcastState()
	r.log.Info("player joined", zap.String("conn", msg.ConnID), zap.Int("players", len(r.state.Players)))
}

func (r *Room) handleLeave(msg Leave) {
	delete(r.pending, msg.ConnID)
	if _, err := r.apply(engine.Command{Type: engine.CmdLeave, PlayerID: msg.ConnID}); err != nil {
		r.log.Debug("leave ignored", zap.String("conn", msg.ConnID), zap.Error(err))
		return
	}

	r.deps.Transport.LeaveGroup(r.id, msg.ConnID)
	r.deps.Transport.EmitRoom(r.id, types.EvtPlayerLeft, types.PlayersUpdate{Players: r.state.Players})
	r.broadcastState()
	r.log.Info("player left", zap.String("conn", msg.ConnID), zap.Int("players", len(r.state.Players)))
}

func (r *Room) handleSubmit(msg SubmitWord) {
	if !r.isMember(msg.ConnID) {
		r.log.Debug("word from non-member dropped", zap.String("conn", msg.ConnID))
		return
	}
	if _, busy := r.pending[msg.ConnID]; busy {
		r.emitWordError(msg.ConnID, engine.NewWordError(engine.ReasonPending))
		return
	}

	word, err := engine.CheckWord(r.state, msg.ConnID, msg.Word)
	if err != nil {
		r.rejectWord(msg.ConnID, err)
		return
	}

	r.seq++
	seq := r.seq
	r.pending[msg.ConnID] = seq
	go r.lookup(msg.ConnID, word, seq)
}

// lookup runs off the loop. The result re-enters through the inbox.
func (r *Room) lookup(connID, word string, seq uint64) {
	ctx, cancel := context.WithTimeout(r.ctx, r.deps.LookupTimeout)
	defer cancel()

	valid := r.deps.Dictionary.IsValidWord(ctx, word)
	r.Send(wordChecked{connID: connID, word: word, seq: seq, valid: valid})
}

func (r *Room) handleWordChecked(msg wordChecked) {
	if seq, ok := r.pending[msg.connID]; !ok || seq != msg.seq {
		r.log.Debug("stale word result dropped", zap.String("conn", msg.connID), zap.String("word", msg.word))
		return
	}
	delete(r.pending, msg.connID)

	if !msg.valid {
		r.emitWordError(msg.connID, engine.NewWordError(engine.ReasonNotAWord))
		return
	}

	// The state may have moved on while the lookup ran, so the local checks
	// run again inside Apply.
	events, err := r.apply(engine.Command{Type: engine.CmdAcceptWord, PlayerID: msg.connID, Word: msg.word})
	if err != nil {
		r.rejectWord(msg.connID, err)
		return
	}

	tr := r.deps.Transport
	for _, e := range events {
		if e.Type == engine.EvtGameOver {
			r.pending = make(map[string]uint64)
			tr.EmitRoom(r.id, types.EvtGameOver, types.GameOver{Winner: e.Winner})
			r.broadcastState()
			r.log.Info("game over", zap.String("winner", e.PlayerID), zap.String("reason", string(e.Winner.Reason)))
			return
		}
	}

	r.broadcastState()
	for _, e := range events {
		if e.Type == engine.EvtWordAccepted {
			tr.Emit(msg.connID, types.EvtWordAccepted, types.WordAccepted{
				Word:      e.Word,
				Score:     e.Score,
				IsPangram: e.IsPangram,
			})
		}
	}
}

func (r *Room) rejectWord(connID string, err error) {
	var werr *engine.WordError
	if errors.As(err, &werr) {
		r.emitWordError(connID, werr)
		return
	}
	r.log.Debug("word dropped", zap.String("conn", connID), zap.Error(err))
}

func (r *Room) emitWordError(connID string, werr *engine.WordError) {
	r.deps.Transport.Emit(connID, types.EvtWordError, types.WordError{
		Message: werr.Message,
		Reason:  string(werr.Reason),
	})
}

func (r *Room) handleStart(msg StartCountdown) {
	if !r.isMember(msg.ConnID) {
		return
	}
	events, err := r.apply(engine.Command{Type: engine.CmdStartCountdown, PlayerID: msg.ConnID})
	if err != nil {
		r.log.Debug("start countdown ignored", zap.String("conn", msg.ConnID), zap.Error(err))
		return
	}

	r.startCountdown()
	r.publishCountdown(events)
	r.broadcastState()
}

func (r *Room) handleTick(msg countdownTick) {
	if msg.gen != r.cd.gen || !r.countdownActive() {
		return
	}
	events, err := r.apply(engine.Command{Type: engine.CmdCountdownTick})
	if err != nil {
		r.stopCountdown()
		r.log.Warn("countdown tick rejected", zap.Error(err))
		return
	}
	r.publishCountdown(events)
}

func (r *Room) publishCountdown(events []engine.Event) {
	tr := r.deps.Transport
	for _, e := range events {
		switch e.Type {
		case engine.EvtCountdownTicked:
			tr.EmitRoom(r.id, types.EvtCountdownUpdate, types.CountdownUpdate{TimeLeft: e.TimeLeft})
		case engine.EvtGameStarted:
			r.stopCountdown()
			tr.EmitRoom(r.id, types.EvtGameStarted, nil)
			r.broadcastState()
			r.log.Info("game started", zap.Int("players", len(r.state.Players)))
		}
	}
}

func (r *Room) handleCancel(msg CancelCountdown) {
	if !r.isMember(msg.ConnID) {
		return
	}
	if _, err := r.apply(engine.Command{Type: engine.CmdCancelCountdown, PlayerID: msg.ConnID}); err != nil {
		r.log.Debug("cancel countdown ignored", zap.String("conn", msg.ConnID), zap.Error(err))
		return
	}

	r.stopCountdown()
	r.deps.Transport.EmitRoom(r.id, types.EvtCountdownCancelled, nil)
	r.broadcastState()
}

func (r *Room) handleReturn(msg ReturnToLobby) {
	if !r.isMember(msg.ConnID) {
		return
	}
	if r.state.Phase != engine.PhaseGameOver {
		r.log.Debug("return to lobby ignored", zap.String("conn", msg.ConnID), zap.String("phase", string(r.state.Phase)))
		return
	}
	if _, err := r.apply(engine.Command{
		Type:     engine.CmdReturnToLobby,
		PlayerID: msg.ConnID,
		Letters:  r.deps.Letters.Draw(),
	}); err != nil {
		r.log.Warn("return to lobby failed", zap.Error(err))
		return
	}

	r.pending = make(map[string]uint64)
	r.deps.Transport.EmitRoom(r.id, types.EvtReturnToLobby, types.NewGameState(r.state))
	r.broadcastState()
	r.log.Info("returned to lobby", zap.String("letters", r.state.Letters.String()))
}

func (r *Room) handleSettings(msg UpdateSettings) {
	if !r.isMember(msg.ConnID) {
		return
	}
	if _, err := r.apply(engine.Command{
		Type:     engine.CmdUpdateSettings,
		PlayerID: msg.ConnID,
		Settings: msg.Patch,
	}); err != nil {
		r.log.Debug("settings update ignored", zap.String("conn", msg.ConnID), zap.Error(err))
		return
	}
	r.broadcastState()
}

func (r *Room) broadcastState() {
	r.deps.Transport.EmitRoom(r.id, types.EvtGameState, types.NewGameState(r.state))
}

func (r *Room) shutdown() {
	r.stopCountdown()
	for _, p := range r.state.Players {
		r.deps.Transport.LeaveGroup(r.id, p.ID)
	}
	r.pending = nil
	r.cancel()
	r.log.Info("room closed")
}
