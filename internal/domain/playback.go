package domain

import (
	"math"
	"time"
)

// Playback is a room's shared clock. While Playing, the track position is
// CurrentTime plus the time elapsed since StartedAt; when paused,
// CurrentTime is the absolute position.
type Playback struct {
	URL         *string
	Playing     bool
	CurrentTime float64
	StartedAt   *time.Time
}

// PlaybackState is the wire form of Playback. StartedAt is unix millis.
// Position is the catch-up offset at the moment the state was built.
type PlaybackState struct {
	URL         *string `json:"url"`
	Playing     bool    `json:"playing"`
	CurrentTime float64 `json:"currentTime"`
	StartedAt   *int64  `json:"startedAt"`
	Position    float64 `json:"position"`
}

// OnPlay starts url from zero, discarding any previous position even when
// url is the track already loaded.
func OnPlay(url string, now time.Time) Playback {
	return Playback{
		URL:         &url,
		Playing:     true,
		CurrentTime: 0,
		StartedAt:   &now,
	}
}

// OnPause trusts the reporting client's position.
func OnPause(p Playback, reported float64) Playback {
	p.Playing = false
	p.CurrentTime = clampPosition(reported)
	return p
}

// OnSeek moves the clock so that the elapsed time since StartedAt equals
// reported at now.
func OnSeek(p Playback, reported float64, now time.Time) Playback {
	reported = clampPosition(reported)
	if p.Playing {
		started := now.Add(-secondsToDuration(reported))
		p.StartedAt = &started
		return p
	}
	p.CurrentTime = reported
	return p
}

func OnStop() Playback {
	return Playback{}
}

// ElapsedFor is the position a late joiner seeks to before playing. There is
// no latency or clock skew correction. It never goes below zero.
func ElapsedFor(p Playback, now time.Time) float64 {
	if !p.Playing || p.StartedAt == nil {
		return p.CurrentTime
	}
	d := now.Sub(*p.StartedAt)
	if d < 0 {
		d = 0
	}
	return p.CurrentTime + d.Seconds()
}

func (p Playback) State(now time.Time) PlaybackState {
	st := PlaybackState{
		URL:         p.URL,
		Playing:     p.Playing,
		CurrentTime: p.CurrentTime,
		Position:    ElapsedFor(p, now),
	}
	if p.StartedAt != nil {
		ms := p.StartedAt.UnixMilli()
		st.StartedAt = &ms
	}
	return st
}

func clampPosition(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	return t
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
