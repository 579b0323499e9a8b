package orch

import (
	"math"

	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/rs/zerolog/log"
)

type chatPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type typingPayload struct {
	Username string `json:"username"`
}

// Stroke is one whiteboard segment in coordinates normalised to 0..1.
type Stroke struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color string  `json:"color"`
}

func (o *Orchestrator) handleChat(sess *domain.Session, room *domain.Room, in core.Inbound) {
	if in.Event != core.EventNewMessage {
		o.toRoomExcept(room, sess.ID, in.Event, typingPayload{Username: sess.Username})
		return
	}
	var text string
	if err := in.Bind(&text); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad message payload")
		return
	}
	o.toRoomExcept(room, sess.ID, core.EventNewMessage, chatPayload{
		Username: sess.Username,
		Message:  text,
	})
}

func (o *Orchestrator) handleDrawing(sess *domain.Session, room *domain.Room, in core.Inbound) {
	var s Stroke
	if err := in.Bind(&s); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad drawing payload")
		return
	}
	s.X0, s.Y0 = clampUnit(s.X0), clampUnit(s.Y0)
	s.X1, s.Y1 = clampUnit(s.X1), clampUnit(s.Y1)
	o.toRoomExcept(room, sess.ID, core.EventDrawing, s)
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
