package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/djroom/internal/domain"
)

// Inbound is one decoded client event.
//
//	{"event":"join room","data":{"roomId":"..."},"ack":7}
//
// Binary websocket frames become a voice data event with Binary set.
type Inbound struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	Ack    *uint64         `json:"ack,omitempty"`
	Binary []byte          `json:"-"`
}

// Outbound is one server event. Acks carry the request's ack id.
type Outbound struct {
	Event string  `json:"event"`
	Data  any     `json:"data,omitempty"`
	Ack   *uint64 `json:"ack,omitempty"`
}

var ErrBadEnvelope = errors.New("bad envelope")

func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %w", ErrBadEnvelope, err)
	}
	if in.Event == "" {
		return Inbound{}, fmt.Errorf("%w: missing event", ErrBadEnvelope)
	}
	return in, nil
}

// Bind decodes the event payload into v. A missing payload leaves v
// untouched.
func (in Inbound) Bind(v any) error {
	if len(in.Data) == 0 || string(in.Data) == "null" {
		return nil
	}
	return json.Unmarshal(in.Data, v)
}

func Encode(out Outbound) (Frame, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}

// AckResult is the payload of acknowledged room operations.
type AckResult struct {
	Success bool                `json:"success"`
	Room    *domain.RoomSummary `json:"room,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Ack error strings understood by clients.
const (
	AckNotAuthenticated = "Not authenticated"
	AckRoomFull         = "Room is full"
	AckRoomNotFound     = "Room not found"
	AckInvalidPassword  = "Invalid password"
	AckInvalidPayload   = "Invalid payload"
	AckTooManyAttempts  = "Too many join attempts"
)

var ErrTooManyAttempts = errors.New("too many join attempts")

// AckError maps an expected failure onto its client-facing string.
func AckError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return AckNotAuthenticated
	case errors.Is(err, domain.ErrRoomFull):
		return AckRoomFull
	case errors.Is(err, domain.ErrRoomNotFound):
		return AckRoomNotFound
	case errors.Is(err, domain.ErrInvalidPassword):
		return AckInvalidPassword
	case errors.Is(err, ErrTooManyAttempts):
		return AckTooManyAttempts
	default:
		return AckInvalidPayload
	}
}

func AckFailure(err error) AckResult {
	return AckResult{Error: AckError(err)}
}

func AckSuccess(room *domain.RoomSummary) AckResult {
	return AckResult{Success: true, Room: room}
}
