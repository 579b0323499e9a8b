package app

import (
	"sort"
	"time"

	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RoomManager is the in-memory RoomStore. Like the Registry it belongs to
// the event loop and takes no locks.
type RoomManager struct {
	rooms           map[domain.RoomID]*domain.Room
	defaultMaxUsers int
	now             func() time.Time
	newID           func() domain.RoomID
}

var _ core.RoomStore = (*RoomManager)(nil)

type RoomManagerOption func(*RoomManager)

func WithDefaultMaxUsers(n int) RoomManagerOption {
	return func(m *RoomManager) {
		if n > 0 {
			m.defaultMaxUsers = n
		}
	}
}

func WithClock(now func() time.Time) RoomManagerOption {
	return func(m *RoomManager) { m.now = now }
}

func WithIDGenerator(gen func() domain.RoomID) RoomManagerOption {
	return func(m *RoomManager) { m.newID = gen }
}

func NewRoomManager(opts ...RoomManagerOption) *RoomManager {
	m := &RoomManager{
		rooms:           make(map[domain.RoomID]*domain.Room),
		defaultMaxUsers: domain.DefaultMaxUsers,
		now:             time.Now,
		newID:           func() domain.RoomID { return domain.RoomID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RoomManager) CreateRoom(name domain.RoomName, host string, in domain.SettingsInput) *domain.Room {
	id := m.newID()
	for _, taken := m.rooms[id]; taken; _, taken = m.rooms[id] {
		id = m.newID()
	}
	room := domain.NewRoom(id, name, host, in.Resolve(m.defaultMaxUsers), m.now())
	m.rooms[id] = room
	log.Info().
		Str("module", "app.rooms").
		Str("room_id", string(id)).
		Str("name", string(name)).
		Str("host", host).
		Int("max_users", room.Settings.MaxUsers).
		Bool("public", room.Settings.IsPublic).
		Msg("room created")
	return room
}

func (m *RoomManager) GetRoom(id domain.RoomID) (*domain.Room, bool) {
	room, ok := m.rooms[id]
	return room, ok
}

// ListPublicRooms returns public rooms, password protected ones included,
// oldest first.
func (m *RoomManager) ListPublicRooms() []domain.RoomSummary {
	out := make([]domain.RoomSummary, 0, len(m.rooms))
	for _, r := range m.rooms {
		if r.Settings.IsPublic {
			out = append(out, r.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DeleteRoom removes the room. The caller checks that it is empty.
func (m *RoomManager) DeleteRoom(id domain.RoomID) {
	if _, ok := m.rooms[id]; !ok {
		return
	}
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room_id", string(id)).Msg("room deleted")
}

func (m *RoomManager) Stats() (rooms, members int) {
	rooms = len(m.rooms)
	for _, r := range m.rooms {
		members += r.MemberCount()
	}
	return rooms, members
}
