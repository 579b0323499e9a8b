package orch

import (
	"fmt"

	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/rs/zerolog/log"
)

type createRoomPayload struct {
	Name     domain.RoomName      `json:"name"`
	Settings domain.SettingsInput `json:"settings"`
}

type joinRoomPayload struct {
	RoomID   domain.RoomID `json:"roomId"`
	Password string        `json:"password"`
}

type userJoinedPayload struct {
	Username string `json:"username"`
	NumUsers int    `json:"numUsers"`
}

type userLeftPayload struct {
	Username string `json:"username"`
	NumUsers int    `json:"numUsers"`
	NewHost  string `json:"newHost,omitempty"`
}

func (o *Orchestrator) handleCreateRoom(sess *domain.Session, in core.Inbound) {
	if !sess.Authenticated() {
		o.ack(sess.ID, in, core.AckFailure(domain.ErrNotAuthenticated))
		return
	}
	var p createRoomPayload
	if err := in.Bind(&p); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad create room payload")
		o.ack(sess.ID, in, core.AckResult{Error: core.AckInvalidPayload})
		return
	}

	if _, ok := sess.InRoom(); ok {
		o.leaveRoom(sess)
	}

	room := o.Rooms.CreateRoom(p.Name, sess.Username, p.Settings)
	if err := o.joinRoom(sess, room); err != nil {
		// maxUsers is at least one, so the creator always fits.
		log.Error().Err(err).Str("module", "orch").Str("room_id", string(room.ID)).Msg("creator could not join")
		o.Rooms.DeleteRoom(room.ID)
		o.ack(sess.ID, in, core.AckFailure(err))
		return
	}

	summary := room.Summary()
	o.ack(sess.ID, in, core.AckSuccess(&summary))
	o.announceCreated(room)
}

func (o *Orchestrator) handleJoinRoom(sess *domain.Session, in core.Inbound) {
	var p joinRoomPayload
	if err := in.Bind(&p); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad join room payload")
		o.ack(sess.ID, in, core.AckResult{Error: core.AckInvalidPayload})
		return
	}

	room, err := o.admit(sess, p)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Str("room_id", string(p.RoomID)).Msg("join rejected")
		o.ack(sess.ID, in, core.AckFailure(err))
		return
	}

	if current, ok := sess.InRoom(); ok && current == room.ID {
		summary := room.Summary()
		o.ack(sess.ID, in, core.AckSuccess(&summary))
		return
	}

	if _, ok := sess.InRoom(); ok {
		o.leaveRoom(sess)
	}
	if err := o.joinRoom(sess, room); err != nil {
		o.ack(sess.ID, in, core.AckFailure(err))
		return
	}

	summary := room.Summary()
	o.ack(sess.ID, in, core.AckSuccess(&summary))
	o.toRoom(room, core.EventUserJoined, userJoinedPayload{
		Username: sess.Username,
		NumUsers: room.MemberCount(),
	})
	o.toSender(sess.ID, core.EventSyncPlayback, room.Playback.State(o.now()))
	o.announceUpdated(room)
}

// admit checks every precondition of a join without touching state, so a
// rejected join leaves the connection where it was.
func (o *Orchestrator) admit(sess *domain.Session, p joinRoomPayload) (*domain.Room, error) {
	if !sess.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	if !o.Limiter.Allow(sess.ID) {
		return nil, core.ErrTooManyAttempts
	}
	room, ok := o.Rooms.GetRoom(p.RoomID)
	if !ok {
		return nil, fmt.Errorf("join %q: %w", p.RoomID, domain.ErrRoomNotFound)
	}
	if current, ok := sess.InRoom(); ok && current == room.ID {
		return room, nil
	}
	if !room.CheckPassword(p.Password) {
		return nil, fmt.Errorf("join %q: %w", p.RoomID, domain.ErrInvalidPassword)
	}
	if room.IsFull() {
		return nil, fmt.Errorf("join %q: %w", p.RoomID, domain.ErrRoomFull)
	}
	return room, nil
}

func (o *Orchestrator) handleLeaveRoom(sess *domain.Session, in core.Inbound) {
	if _, ok := sess.InRoom(); !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sess.ID)).Msg("leave outside room ignored")
		return
	}
	o.leaveRoom(sess)
	o.ack(sess.ID, in, core.AckResult{Success: true})
}

// joinRoom adds the session to room and points the session at it.
func (o *Orchestrator) joinRoom(sess *domain.Session, room *domain.Room) error {
	if err := room.AddMember(sess.ID, sess.Username, o.now()); err != nil {
		return fmt.Errorf("join %q: %w", room.ID, err)
	}
	sess.AssignRoom(room.ID)
	log.Info().
		Str("module", "orch").
		Str("sid", string(sess.ID)).
		Str("username", sess.Username).
		Str("room_id", string(room.ID)).
		Int("members", room.MemberCount()).
		Msg("joined room")
	return nil
}

// leaveRoom removes the session from its room, deletes the room when it
// empties and tells the remaining members and the lobby.
func (o *Orchestrator) leaveRoom(sess *domain.Session) {
	roomID, ok := sess.InRoom()
	if !ok {
		return
	}
	sess.ClearRoom()

	room, ok := o.Rooms.GetRoom(roomID)
	if !ok {
		log.Error().Str("module", "orch").Str("sid", string(sess.ID)).Str("room_id", string(roomID)).Msg("leave: room missing")
		return
	}
	res := room.RemoveMember(sess.ID)
	log.Info().
		Str("module", "orch").
		Str("sid", string(sess.ID)).
		Str("username", sess.Username).
		Str("room_id", string(roomID)).
		Int("members", room.MemberCount()).
		Bool("host_changed", res.HostChanged).
		Msg("left room")

	if res.Emptied {
		o.Rooms.DeleteRoom(roomID)
		o.announceDeleted(roomID)
		return
	}

	left := userLeftPayload{Username: sess.Username, NumUsers: room.MemberCount()}
	if res.HostChanged {
		left.NewHost = room.Host
	}
	o.toRoom(room, core.EventUserLeft, left)
	o.announceUpdated(room)
}
