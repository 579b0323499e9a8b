package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestRoom(maxUsers int) *Room {
	return NewRoom("room-1", "Test", "alice", SettingsInput{MaxUsers: maxUsers}.Resolve(DefaultMaxUsers), t0)
}

func TestSettingsInput_Resolve(t *testing.T) {
	yes, no := true, false
	empty, secret := "", "s3cret"

	tests := []struct {
		name string
		in   SettingsInput
		want Settings
	}{
		{
			name: "defaults",
			in:   SettingsInput{},
			want: Settings{MaxUsers: DefaultMaxUsers, IsPublic: true},
		},
		{
			name: "explicit private",
			in:   SettingsInput{MaxUsers: 2, IsPublic: &no},
			want: Settings{MaxUsers: 2, IsPublic: false},
		},
		{
			name: "negative max falls back",
			in:   SettingsInput{MaxUsers: -3, IsPublic: &yes},
			want: Settings{MaxUsers: DefaultMaxUsers, IsPublic: true},
		},
		{
			name: "empty password means none",
			in:   SettingsInput{Password: &empty},
			want: Settings{MaxUsers: DefaultMaxUsers, IsPublic: true},
		},
		{
			name: "password kept",
			in:   SettingsInput{Password: &secret},
			want: Settings{MaxUsers: DefaultMaxUsers, IsPublic: true, Password: &secret},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Resolve(DefaultMaxUsers))
		})
	}
}

func TestRoom_AddMemberCapacity(t *testing.T) {
	r := newTestRoom(2)

	require.NoError(t, r.AddMember("c1", "alice", t0))
	require.NoError(t, r.AddMember("c2", "bob", t0.Add(time.Second)))

	err := r.AddMember("c3", "charlie", t0.Add(2*time.Second))
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, r.MemberCount())
	assert.False(t, r.HasMember("c3"))
}

func TestRoom_RemoveMember(t *testing.T) {
	t.Run("last member empties room", func(t *testing.T) {
		r := newTestRoom(0)
		require.NoError(t, r.AddMember("c1", "alice", t0))

		res := r.RemoveMember("c1")
		assert.True(t, res.Emptied)
		assert.False(t, res.HostChanged)
		require.NotNil(t, res.Removed)
		assert.Equal(t, "alice", res.Removed.Username)
	})

	t.Run("host leaves, earliest joiner takes over", func(t *testing.T) {
		r := newTestRoom(0)
		require.NoError(t, r.AddMember("c1", "alice", t0))
		require.NoError(t, r.AddMember("c3", "charlie", t0.Add(2*time.Second)))
		require.NoError(t, r.AddMember("c2", "bob", t0.Add(time.Second)))

		res := r.RemoveMember("c1")
		assert.False(t, res.Emptied)
		assert.True(t, res.HostChanged)
		assert.Equal(t, "bob", r.Host)
	})

	t.Run("equal timestamps resolve by insertion", func(t *testing.T) {
		r := newTestRoom(0)
		require.NoError(t, r.AddMember("c1", "alice", t0))
		for _, m := range []struct {
			id   ConnID
			name string
		}{{"c4", "dave"}, {"c2", "bob"}, {"c3", "charlie"}} {
			require.NoError(t, r.AddMember(m.id, m.name, t0.Add(time.Second)))
		}

		r.RemoveMember("c1")
		assert.Equal(t, "dave", r.Host)
	})

	t.Run("non-host leaves", func(t *testing.T) {
		r := newTestRoom(0)
		require.NoError(t, r.AddMember("c1", "alice", t0))
		require.NoError(t, r.AddMember("c2", "bob", t0.Add(time.Second)))

		res := r.RemoveMember("c2")
		assert.False(t, res.Emptied)
		assert.False(t, res.HostChanged)
		assert.Equal(t, "alice", r.Host)
	})

	t.Run("unknown member", func(t *testing.T) {
		r := newTestRoom(0)
		require.NoError(t, r.AddMember("c1", "alice", t0))

		res := r.RemoveMember("nope")
		assert.Nil(t, res.Removed)
		assert.False(t, res.Emptied)
		assert.Equal(t, 1, r.MemberCount())
	})
}

func TestRoom_CheckPassword(t *testing.T) {
	open := newTestRoom(0)
	assert.True(t, open.CheckPassword(""))
	assert.True(t, open.CheckPassword("anything"))

	pw := "hunter2"
	locked := NewRoom("r", "Locked", "alice", SettingsInput{Password: &pw}.Resolve(0), t0)
	assert.True(t, locked.CheckPassword("hunter2"))
	assert.False(t, locked.CheckPassword("Hunter2"))
	assert.False(t, locked.CheckPassword(""))
}

func TestRoom_Summary(t *testing.T) {
	pw := "pw"
	r := NewRoom("room-1", "Test", "alice", Settings{MaxUsers: 2, IsPublic: true, Password: &pw}, t0)
	require.NoError(t, r.AddMember("c1", "alice", t0))

	assert.Equal(t, RoomSummary{
		ID:          "room-1",
		Name:        "Test",
		Host:        "alice",
		UserCount:   1,
		MaxUsers:    2,
		IsPublic:    true,
		HasPassword: true,
		CreatedAt:   t0.UnixMilli(),
	}, r.Summary())
}

func TestRoom_Usernames(t *testing.T) {
	r := newTestRoom(0)
	require.NoError(t, r.AddMember("c2", "bob", t0.Add(time.Second)))
	require.NoError(t, r.AddMember("c1", "alice", t0))

	assert.Equal(t, []string{"alice", "bob"}, r.Usernames())
}
