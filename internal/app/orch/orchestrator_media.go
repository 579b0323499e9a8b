package orch

import (
	"encoding/json"

	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/rs/zerolog/log"
)

type playPayload struct {
	URL string `json:"url"`
}

// UnmarshalJSON accepts either {"url":"..."} or a bare string.
func (p *playPayload) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p.URL = s
		return nil
	}
	type plain playPayload
	return json.Unmarshal(b, (*plain)(p))
}

type positionPayload struct {
	CurrentTime *float64 `json:"currentTime"`
}

type positionRelay struct {
	CurrentTime float64 `json:"currentTime"`
}

type voicePayload struct {
	UserID    domain.ConnID `json:"userId"`
	Username  string        `json:"username,omitempty"`
	AudioData []byte        `json:"audioData,omitempty"`
}

func (o *Orchestrator) handlePlay(sess *domain.Session, room *domain.Room, in core.Inbound) {
	var p playPayload
	if err := in.Bind(&p); err != nil || p.URL == "" {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad play payload")
		return
	}
	room.Playback = domain.OnPlay(p.URL, o.now())
	log.Info().Str("module", "orch").Str("room_id", string(room.ID)).Str("url", p.URL).Msg("playback started")
	o.toRoomExcept(room, sess.ID, core.EventPlayAudio, p)
}

// handlePause uses the reported position. A pause without one freezes the
// clock at the server's own estimate.
func (o *Orchestrator) handlePause(sess *domain.Session, room *domain.Room, in core.Inbound) {
	var p positionPayload
	if err := in.Bind(&p); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad pause payload")
		return
	}
	pos := domain.ElapsedFor(room.Playback, o.now())
	if p.CurrentTime != nil {
		pos = *p.CurrentTime
	}
	room.Playback = domain.OnPause(room.Playback, pos)
	o.toRoomExcept(room, sess.ID, core.EventPauseAudio, positionRelay{CurrentTime: room.Playback.CurrentTime})
}

func (o *Orchestrator) handleSeek(sess *domain.Session, room *domain.Room, in core.Inbound) {
	var p positionPayload
	if err := in.Bind(&p); err != nil || p.CurrentTime == nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad seek payload")
		return
	}
	room.Playback = domain.OnSeek(room.Playback, *p.CurrentTime, o.now())
	o.toRoomExcept(room, sess.ID, core.EventSeekAudio, positionRelay{CurrentTime: domain.ElapsedFor(room.Playback, o.now())})
}

func (o *Orchestrator) handleStop(sess *domain.Session, room *domain.Room) {
	room.Playback = domain.OnStop()
	o.toRoomExcept(room, sess.ID, core.EventStopAudio, nil)
}

// Voice clips are opaque; they are tagged with the sender's connection id
// and relayed.
func (o *Orchestrator) handleVoice(sess *domain.Session, room *domain.Room, in core.Inbound) {
	p := voicePayload{UserID: sess.ID}
	switch in.Event {
	case core.EventVoiceStart:
		p.Username = sess.Username
	case core.EventVoiceData:
		p.AudioData = in.Binary
		if p.AudioData == nil {
			if err := in.Bind(&p.AudioData); err != nil {
				log.Debug().Err(err).Str("module", "orch").Str("sid", string(sess.ID)).Msg("bad voice payload")
				return
			}
		}
		if len(p.AudioData) == 0 {
			return
		}
	}
	o.toRoomExcept(room, sess.ID, in.Event, p)
}
