package domain

// ConnID identifies one live connection. It is stable for the connection
// lifetime and never reused.
type ConnID string

type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
	InRoom
)

func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case InRoom:
		return "in_room"
	}
	return "unknown"
}

// Session is the server-side identity record of one connection.
// It holds no transport state.
type Session struct {
	ID       ConnID
	Username string
	RoomID   RoomID
}

func NewSession(id ConnID) *Session {
	return &Session{ID: id}
}

func (s *Session) Authenticate(username string) error {
	if s.Username != "" {
		return ErrAlreadyAuthenticated
	}
	if err := ValidateUsername(username); err != nil {
		return err
	}
	s.Username = username
	return nil
}

func (s *Session) Authenticated() bool { return s.Username != "" }

func (s *Session) AssignRoom(id RoomID) { s.RoomID = id }

func (s *Session) ClearRoom() { s.RoomID = "" }

func (s *Session) InRoom() (RoomID, bool) {
	return s.RoomID, s.RoomID != ""
}

func (s *Session) State() SessionState {
	switch {
	case s.RoomID != "":
		return InRoom
	case s.Username != "":
		return Authenticated
	default:
		return Unauthenticated
	}
}
