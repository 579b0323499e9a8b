package orch

import (
	"errors"

	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/rs/zerolog/log"
)

type loginPayload struct {
	NumUsers int `json:"numUsers"`
}

type roomDeletedPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (o *Orchestrator) handleAddUser(sess *domain.Session, in core.Inbound) {
	var username string
	if err := in.Bind(&username); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad add user payload")
		return
	}
	if err := sess.Authenticate(username); err != nil {
		if errors.Is(err, domain.ErrAlreadyAuthenticated) {
			log.Debug().Str("module", "orch").Str("sid", string(sess.ID)).Msg("add user repeated")
			return
		}
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("add user rejected")
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sess.ID)).Str("username", username).Msg("authenticated")
	o.toSender(sess.ID, core.EventLogin, loginPayload{NumUsers: o.Registry.AuthenticatedCount()})
}

func (o *Orchestrator) handleGetRooms(sess *domain.Session) {
	o.toSender(sess.ID, core.EventRoomsList, o.Rooms.ListPublicRooms())
}

// Lobby broadcasts. Private rooms are never announced; their deletion is,
// since it carries nothing but the id.

func (o *Orchestrator) announceCreated(room *domain.Room) {
	if !room.Settings.IsPublic {
		return
	}
	o.toAll(core.EventRoomCreated, room.Summary())
}

func (o *Orchestrator) announceUpdated(room *domain.Room) {
	if !room.Settings.IsPublic {
		return
	}
	o.toAll(core.EventRoomUpdated, room.Summary())
}

func (o *Orchestrator) announceDeleted(id domain.RoomID) {
	o.toAll(core.EventRoomDeleted, roomDeletedPayload{RoomID: id})
}
