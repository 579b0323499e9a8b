package orch

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/djroom/internal/app"
	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
)

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *uint64         `json:"ack"`
}

type recConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// take returns everything received since the last call.
func (c *recConn) take(t *testing.T) []received {
	t.Helper()
	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()

	out := make([]received, 0, len(frames))
	for _, f := range frames {
		var r received
		require.NoError(t, json.Unmarshal(f, &r))
		out = append(out, r)
	}
	return out
}

func names(rs []received) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Event)
	}
	return out
}

func find(t *testing.T, rs []received, event string, v any) {
	t.Helper()
	for _, r := range rs {
		if r.Event == event {
			require.NoError(t, json.Unmarshal(r.Data, v))
			return
		}
	}
	t.Fatalf("event %q not received, got %v", event, names(rs))
}

type harness struct {
	t     *testing.T
	o     *Orchestrator
	now   time.Time
	conns map[domain.ConnID]*recConn
	ackID uint64
	ids   int
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	h := &harness{t: t, now: epoch, conns: make(map[domain.ConnID]*recConn)}
	clock := func() time.Time { return h.now }
	cfg := Config{
		Registry: app.NewRegistry(),
		Rooms: app.NewRoomManager(
			app.WithClock(clock),
			app.WithIDGenerator(func() domain.RoomID {
				h.ids++
				return domain.RoomID(fmt.Sprintf("room-%d", h.ids))
			}),
		),
		Now: clock,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	h.o = New(cfg)
	return h
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func (h *harness) connect(sid domain.ConnID) *recConn {
	c := &recConn{}
	h.conns[sid] = c
	h.o.handle(event{kind: evConnect, sid: sid, conn: c, token: "token-" + string(sid)})
	return c
}

func (h *harness) login(sid domain.ConnID, username string) *recConn {
	c := h.connect(sid)
	h.emit(sid, core.EventAddUser, username)
	c.take(h.t)
	return c
}

func (h *harness) inbound(event string, data any) core.Inbound {
	h.t.Helper()
	in := core.Inbound{Event: event}
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(h.t, err)
		in.Data = b
	}
	return in
}

// emit sends an event without an ack id.
func (h *harness) emit(sid domain.ConnID, event string, data any) {
	h.o.handle(evMessageFor(sid, h.inbound(event, data)))
}

// request sends an acknowledged event and returns the ack payload.
func (h *harness) request(sid domain.ConnID, event string, data any) core.AckResult {
	h.t.Helper()
	in := h.inbound(event, data)
	h.ackID++
	id := h.ackID
	in.Ack = &id
	h.o.handle(evMessageFor(sid, in))

	c := h.conns[sid]
	c.mu.Lock()
	frames := c.frames
	c.mu.Unlock()
	for _, f := range frames {
		var r received
		require.NoError(h.t, json.Unmarshal(f, &r))
		if r.Event == core.EventAck && r.Ack != nil && *r.Ack == id {
			var res core.AckResult
			require.NoError(h.t, json.Unmarshal(r.Data, &res))
			return res
		}
	}
	h.t.Fatalf("no ack %d for %q", id, event)
	return core.AckResult{}
}

func (h *harness) disconnect(sid domain.ConnID) {
	h.o.handle(event{kind: evDisconnect, sid: sid})
}

func (h *harness) drain() {
	for _, c := range h.conns {
		c.take(h.t)
	}
}

func (h *harness) createRoom(sid domain.ConnID, name string, settings domain.SettingsInput) domain.RoomSummary {
	h.t.Helper()
	res := h.request(sid, core.EventCreateRoom, createRoomPayload{Name: domain.RoomName(name), Settings: settings})
	require.True(h.t, res.Success, res.Error)
	require.NotNil(h.t, res.Room)
	return *res.Room
}

func (h *harness) session(sid domain.ConnID) *domain.Session {
	h.t.Helper()
	s, ok := h.o.Registry.GetSession(sid)
	require.True(h.t, ok)
	return s
}

func (h *harness) room(id domain.RoomID) *domain.Room {
	h.t.Helper()
	r, ok := h.o.Rooms.GetRoom(id)
	require.True(h.t, ok)
	return r
}

func evMessageFor(sid domain.ConnID, in core.Inbound) event {
	return event{kind: evMessage, sid: sid, in: in}
}
