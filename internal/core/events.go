package core

// Inbound events.
const (
	EventAddUser     = "add user"
	EventGetRooms    = "get rooms"
	EventCreateRoom  = "create room"
	EventJoinRoom    = "join room"
	EventLeaveRoom   = "leave room"
	EventNewMessage  = "new message"
	EventTyping      = "typing"
	EventStopTyping  = "stop typing"
	EventDrawing     = "drawing"
	EventClearCanvas = "clear canvas"
	EventPlayAudio   = "play audio"
	EventPauseAudio  = "pause audio"
	EventSeekAudio   = "seek audio"
	EventStopAudio   = "stop audio"
	EventVoiceStart  = "voice start"
	EventVoiceData   = "voice data"
	EventVoiceEnd    = "voice end"
	EventPing        = "ping"
)

// Outbound-only events.
const (
	EventAck          = "ack"
	EventLogin        = "login"
	EventRoomsList    = "rooms list"
	EventRoomCreated  = "room created"
	EventRoomUpdated  = "room updated"
	EventRoomDeleted  = "room deleted"
	EventUserJoined   = "user joined"
	EventUserLeft     = "user left"
	EventSyncPlayback = "sync playback"
	EventPong         = "pong"
)

// RoomScoped reports whether event only makes sense inside a room. Such
// events are dropped silently for connections that are not in one.
func RoomScoped(event string) bool {
	switch event {
	case EventNewMessage, EventTyping, EventStopTyping,
		EventDrawing, EventClearCanvas,
		EventPlayAudio, EventPauseAudio, EventSeekAudio, EventStopAudio,
		EventVoiceStart, EventVoiceData, EventVoiceEnd:
		return true
	}
	return false
}
