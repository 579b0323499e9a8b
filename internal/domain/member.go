package domain

import "time"

// Member represents one connection's participation in a room.
type Member struct {
	ConnID   ConnID
	Username string
	JoinedAt time.Time

	// seq orders members with equal JoinedAt by insertion.
	seq uint64
}

// joinedBefore reports whether m joined earlier than o, insertion order
// breaking timestamp ties.
func (m *Member) joinedBefore(o *Member) bool {
	if !m.JoinedAt.Equal(o.JoinedAt) {
		return m.JoinedAt.Before(o.JoinedAt)
	}
	return m.seq < o.seq
}
