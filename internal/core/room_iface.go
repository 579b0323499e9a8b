package core

import "github.com/dkeye/djroom/internal/domain"

// RoomStore is the registry of active rooms. It never emits events; the
// router decides what to broadcast after calling it.
type RoomStore interface {
	CreateRoom(name domain.RoomName, host string, settings domain.SettingsInput) *domain.Room
	GetRoom(id domain.RoomID) (*domain.Room, bool)
	ListPublicRooms() []domain.RoomSummary
	DeleteRoom(id domain.RoomID)
	Stats() (rooms, members int)
}
