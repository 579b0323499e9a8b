// Package orch routes inbound connection events. A single goroutine owns
// every session and room: each event is handled to completion, emissions
// included, before the next one is taken off the queue.
package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/djroom/internal/app"
	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("orchestrator stopped")

const defaultQueueSize = 1024

type Config struct {
	Registry  *app.Registry
	Rooms     core.RoomStore
	Policy    app.Policy
	Limiter   *app.JoinRateLimiter
	Now       func() time.Time
	QueueSize int
}

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomStore
	Policy   app.Policy
	Limiter  *app.JoinRateLimiter

	now     func() time.Time
	events  chan event
	stopped chan struct{}
}

type eventKind int

const (
	evConnect eventKind = iota
	evMessage
	evDisconnect
	evQuery
)

type event struct {
	kind  eventKind
	sid   domain.ConnID
	conn  core.SignalConnection
	token string
	in    core.Inbound
	fn    func()
	done  chan struct{}
}

func New(cfg Config) *Orchestrator {
	if cfg.Registry == nil {
		cfg.Registry = app.NewRegistry()
	}
	if cfg.Rooms == nil {
		cfg.Rooms = app.NewRoomManager()
	}
	if cfg.Policy == nil {
		cfg.Policy = app.SimplePolicy{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = defaultQueueSize
	}
	return &Orchestrator{
		Registry: cfg.Registry,
		Rooms:    cfg.Rooms,
		Policy:   cfg.Policy,
		Limiter:  cfg.Limiter,
		now:      cfg.Now,
		events:   make(chan event, cfg.QueueSize),
		stopped:  make(chan struct{}),
	}
}

// Run processes events until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.stopped)
	log.Info().Str("module", "orch").Msg("event loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("event loop stopped")
			return
		case ev := <-o.events:
			o.handle(ev)
		}
	}
}

// Connect registers a new connection. It must be called before the
// connection's first Dispatch.
func (o *Orchestrator) Connect(sid domain.ConnID, conn core.SignalConnection, clientToken string) {
	o.enqueue(event{kind: evConnect, sid: sid, conn: conn, token: clientToken})
}

func (o *Orchestrator) Dispatch(sid domain.ConnID, in core.Inbound) {
	o.enqueue(event{kind: evMessage, sid: sid, in: in})
}

func (o *Orchestrator) Disconnect(sid domain.ConnID) {
	o.enqueue(event{kind: evDisconnect, sid: sid})
}

// Query runs fn on the event loop and waits for it. fn must not block.
func (o *Orchestrator) Query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case o.events <- event{kind: evQuery, fn: fn, done: done}:
	case <-o.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-o.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) PublicRooms(ctx context.Context) ([]domain.RoomSummary, error) {
	var out []domain.RoomSummary
	err := o.Query(ctx, func() { out = o.Rooms.ListPublicRooms() })
	return out, err
}

func (o *Orchestrator) Stats(ctx context.Context) (rooms, clients int, err error) {
	err = o.Query(ctx, func() {
		rooms, _ = o.Rooms.Stats()
		clients = o.Registry.Len()
	})
	return rooms, clients, err
}

func (o *Orchestrator) enqueue(ev event) {
	select {
	case o.events <- ev:
	case <-o.stopped:
		log.Debug().Str("module", "orch").Str("sid", string(ev.sid)).Msg("event after stop dropped")
	}
}

func (o *Orchestrator) handle(ev event) {
	switch ev.kind {
	case evConnect:
		o.Registry.Bind(ev.sid, ev.conn, ev.token)
	case evMessage:
		o.handleMessage(ev.sid, ev.in)
	case evDisconnect:
		o.handleDisconnect(ev.sid)
	case evQuery:
		ev.fn()
		close(ev.done)
	}
}

func (o *Orchestrator) handleMessage(sid domain.ConnID, in core.Inbound) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", in.Event).Msg("event for unknown session")
		return
	}

	if core.RoomScoped(in.Event) {
		roomID, ok := sess.InRoom()
		if !ok {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", in.Event).Msg("room event outside room dropped")
			return
		}
		room, ok := o.Rooms.GetRoom(roomID)
		if !ok {
			log.Error().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(roomID)).Msg("session points at missing room")
			sess.ClearRoom()
			return
		}
		o.handleRoomEvent(sess, room, in)
		return
	}

	switch in.Event {
	case core.EventAddUser:
		o.handleAddUser(sess, in)
	case core.EventGetRooms:
		o.handleGetRooms(sess)
	case core.EventCreateRoom:
		o.handleCreateRoom(sess, in)
	case core.EventJoinRoom:
		o.handleJoinRoom(sess, in)
	case core.EventLeaveRoom:
		o.handleLeaveRoom(sess, in)
	default:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", in.Event).Msg("unknown event")
	}
}

func (o *Orchestrator) handleRoomEvent(sess *domain.Session, room *domain.Room, in core.Inbound) {
	switch in.Event {
	case core.EventNewMessage, core.EventTyping, core.EventStopTyping:
		o.handleChat(sess, room, in)
	case core.EventDrawing:
		o.handleDrawing(sess, room, in)
	case core.EventClearCanvas:
		o.toRoomExcept(room, sess.ID, core.EventClearCanvas, nil)
	case core.EventPlayAudio:
		o.handlePlay(sess, room, in)
	case core.EventPauseAudio:
		o.handlePause(sess, room, in)
	case core.EventSeekAudio:
		o.handleSeek(sess, room, in)
	case core.EventStopAudio:
		o.handleStop(sess, room)
	case core.EventVoiceStart, core.EventVoiceData, core.EventVoiceEnd:
		o.handleVoice(sess, room, in)
	}
}

func (o *Orchestrator) handleDisconnect(sid domain.ConnID) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	// Unbind first so cleanup broadcasts skip the dead transport.
	o.Registry.Unbind(sid)
	if _, in := sess.InRoom(); in {
		o.leaveRoom(sess)
	}
	o.Limiter.Forget(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("username", sess.Username).Msg("disconnected")
}

// Emission. Audiences are computed here; nothing below mutates state except
// a policy kick, which only closes the transport.

func (o *Orchestrator) send(sid domain.ConnID, out core.Outbound) {
	conn, ok := o.Registry.Conn(sid)
	if !ok {
		return
	}
	frame, err := core.Encode(out)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", out.Event).Msg("encode outbound")
		return
	}
	o.deliver(sid, conn, out.Event, frame)
}

func (o *Orchestrator) deliver(sid domain.ConnID, conn core.SignalConnection, event string, frame core.Frame) {
	err := conn.TrySend(frame)
	if err == nil {
		return
	}
	if !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("send failed")
		return
	}
	switch o.Policy.OnBackPressure(event, sid) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("slow consumer kicked")
		conn.Close()
	case app.DropFrame:
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("event", event).Msg("frame dropped")
	case app.NoAction:
	}
}

func (o *Orchestrator) multicast(sids []domain.ConnID, event string, data any) {
	if len(sids) == 0 {
		return
	}
	frame, err := core.Encode(core.Outbound{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode outbound")
		return
	}
	for _, sid := range sids {
		if conn, ok := o.Registry.Conn(sid); ok {
			o.deliver(sid, conn, event, frame)
		}
	}
}

func (o *Orchestrator) toSender(sid domain.ConnID, event string, data any) {
	o.send(sid, core.Outbound{Event: event, Data: data})
}

func (o *Orchestrator) ack(sid domain.ConnID, in core.Inbound, res core.AckResult) {
	if in.Ack == nil {
		return
	}
	o.send(sid, core.Outbound{Event: core.EventAck, Ack: in.Ack, Data: res})
}

func (o *Orchestrator) toRoom(room *domain.Room, event string, data any) {
	o.multicast(memberIDs(room, ""), event, data)
}

func (o *Orchestrator) toRoomExcept(room *domain.Room, except domain.ConnID, event string, data any) {
	o.multicast(memberIDs(room, except), event, data)
}

func (o *Orchestrator) toAll(event string, data any) {
	o.multicast(o.Registry.ConnIDs(), event, data)
}

func memberIDs(room *domain.Room, except domain.ConnID) []domain.ConnID {
	members := room.Members()
	out := make([]domain.ConnID, 0, len(members))
	for _, m := range members {
		if m.ConnID == except {
			continue
		}
		out = append(out, m.ConnID)
	}
	return out
}
