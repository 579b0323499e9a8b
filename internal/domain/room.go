package domain

import (
	"sort"
	"time"
)

type (
	RoomName string
	RoomID   string
)

const DefaultMaxUsers = 10

type Settings struct {
	MaxUsers int
	IsPublic bool
	// Password is compared as plain text; nil means the room is open.
	Password *string
}

// SettingsInput is what a creator asks for. Zero values fall back to the
// defaults.
type SettingsInput struct {
	MaxUsers int     `json:"maxUsers"`
	IsPublic *bool   `json:"isPublic"`
	Password *string `json:"password"`
}

// Resolve applies defaults. maxUsers below one is replaced with defaultMax
// and an empty password means no password.
func (in SettingsInput) Resolve(defaultMax int) Settings {
	if defaultMax < 1 {
		defaultMax = DefaultMaxUsers
	}
	s := Settings{MaxUsers: in.MaxUsers, IsPublic: true}
	if s.MaxUsers < 1 {
		s.MaxUsers = defaultMax
	}
	if in.IsPublic != nil {
		s.IsPublic = *in.IsPublic
	}
	if in.Password != nil && *in.Password != "" {
		pw := *in.Password
		s.Password = &pw
	}
	return s
}

// RoomSummary is the only room representation sent to non-members.
type RoomSummary struct {
	ID          RoomID   `json:"id"`
	Name        RoomName `json:"name"`
	Host        string   `json:"host"`
	UserCount   int      `json:"userCount"`
	MaxUsers    int      `json:"maxUsers"`
	IsPublic    bool     `json:"isPublic"`
	HasPassword bool     `json:"hasPassword"`
	CreatedAt   int64    `json:"createdAt"`
}

// RemoveResult tells the caller what follow-up a removal needs.
type RemoveResult struct {
	Removed     *Member
	Emptied     bool
	HostChanged bool
}

// Room holds membership, settings and playback of one room.
// It is not safe for concurrent use; the event loop owns it.
type Room struct {
	ID        RoomID
	Name      RoomName
	Host      string
	CreatedAt time.Time
	Settings  Settings
	Playback  Playback

	members map[ConnID]*Member
	nextSeq uint64
}

func NewRoom(id RoomID, name RoomName, host string, settings Settings, now time.Time) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		Host:      host,
		CreatedAt: now,
		Settings:  settings,
		members:   make(map[ConnID]*Member),
	}
}

func (r *Room) MemberCount() int { return len(r.members) }

func (r *Room) HasMember(conn ConnID) bool {
	_, ok := r.members[conn]
	return ok
}

func (r *Room) Member(conn ConnID) (*Member, bool) {
	m, ok := r.members[conn]
	return m, ok
}

func (r *Room) IsFull() bool { return len(r.members) >= r.Settings.MaxUsers }

func (r *Room) IsHost(username string) bool { return r.Host == username }

func (r *Room) AddMember(conn ConnID, username string, now time.Time) error {
	if r.IsFull() {
		return ErrRoomFull
	}
	r.nextSeq++
	r.members[conn] = &Member{
		ConnID:   conn,
		Username: username,
		JoinedAt: now,
		seq:      r.nextSeq,
	}
	return nil
}

// RemoveMember drops conn from the room. When the host leaves and members
// remain, the member with the earliest JoinedAt becomes host; equal
// timestamps resolve to the earliest insertion.
func (r *Room) RemoveMember(conn ConnID) RemoveResult {
	m, ok := r.members[conn]
	if !ok {
		return RemoveResult{Emptied: len(r.members) == 0}
	}
	delete(r.members, conn)

	res := RemoveResult{Removed: m}
	if len(r.members) == 0 {
		res.Emptied = true
		return res
	}
	if m.Username != r.Host {
		return res
	}

	var oldest *Member
	for _, c := range r.members {
		if oldest == nil || c.joinedBefore(oldest) {
			oldest = c
		}
	}
	if oldest.Username != r.Host {
		r.Host = oldest.Username
		res.HostChanged = true
	}
	return res
}

func (r *Room) CheckPassword(candidate string) bool {
	if r.Settings.Password == nil {
		return true
	}
	return *r.Settings.Password == candidate
}

// Members returns the members ordered by join time.
func (r *Room) Members() []*Member {
	out := make([]*Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].joinedBefore(out[j]) })
	return out
}

func (r *Room) Usernames() []string {
	members := r.Members()
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Username)
	}
	return out
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		Host:        r.Host,
		UserCount:   len(r.members),
		MaxUsers:    r.Settings.MaxUsers,
		IsPublic:    r.Settings.IsPublic,
		HasPassword: r.Settings.Password != nil,
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}
}
