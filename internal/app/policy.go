package app

import (
	"github.com/dkeye/djroom/internal/core"
	"github.com/dkeye/djroom/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(event string, sid domain.ConnID) BackpressureAction
}

// SimplePolicy drops lossy media frames and kicks a consumer that cannot
// keep up with anything else.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(event string, _ domain.ConnID) BackpressureAction {
	switch event {
	case core.EventVoiceData, core.EventDrawing, core.EventTyping, core.EventStopTyping:
		return DropFrame
	}
	return KickMember
}
