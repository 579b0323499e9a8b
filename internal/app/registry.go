package app

import (
	"sort"

	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	Session     *domain.Session
	Conn        core.SignalConnection
	ClientToken string
}

// Registry maps live connections to their sessions. It is owned by the
// orchestrator's event loop and is not safe for concurrent use.
type Registry struct {
	sessions map[domain.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnID]*sessionEntry),
	}
}

// Bind creates the session for a new connection. Binding an id twice
// replaces the transport but keeps the session.
func (r *Registry) Bind(sid domain.ConnID, conn core.SignalConnection, clientToken string) *domain.Session {
	if e, ok := r.sessions[sid]; ok {
		e.Conn = conn
		log.Warn().Str("module", "app.registry").Str("sid", string(sid)).Msg("rebound session")
		return e.Session
	}
	e := &sessionEntry{
		Session:     domain.NewSession(sid),
		Conn:        conn,
		ClientToken: clientToken,
	}
	r.sessions[sid] = e
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("client", clientToken).Msg("bound session")
	return e.Session
}

func (r *Registry) Unbind(sid domain.ConnID) {
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) GetSession(sid domain.ConnID) (*domain.Session, bool) {
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) Conn(sid domain.ConnID) (core.SignalConnection, bool) {
	if e, ok := r.sessions[sid]; ok && e.Conn != nil {
		return e.Conn, true
	}
	return nil, false
}

// RoomOf returns the room the connection is currently in.
func (r *Registry) RoomOf(sid domain.ConnID) (domain.RoomID, bool) {
	e, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	return e.Session.InRoom()
}

// ConnIDs lists every live connection in a stable order.
func (r *Registry) ConnIDs() []domain.ConnID {
	out := make([]domain.ConnID, 0, len(r.sessions))
	for sid := range r.sessions {
		out = append(out, sid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Len() int { return len(r.sessions) }

func (r *Registry) AuthenticatedCount() int {
	n := 0
	for _, e := range r.sessions {
		if e.Session.Authenticated() {
			n++
		}
	}
	return n
}
