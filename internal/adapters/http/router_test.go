package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/djroom/internal/config"
	"github.com/dkeye/djroom/internal/domain"
)

type fakeLobby struct {
	rooms   []domain.RoomSummary
	clients int
	err     error
}

func (f *fakeLobby) PublicRooms(context.Context) ([]domain.RoomSummary, error) {
	return f.rooms, f.err
}

func (f *fakeLobby) Stats(context.Context) (int, int, error) {
	return len(f.rooms), f.clients, f.err
}

type fakeSignal struct{ hits int }

func (f *fakeSignal) HandleSignal(_ context.Context, c *gin.Context) {
	f.hits++
	c.String(http.StatusTeapot, c.GetString("client_token"))
}

func newTestRouter(l Lobby, s SignalHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Mode: "test", StaticPath: "./testdata", Secret: "test-secret"}
	return SetupRouter(context.Background(), cfg, l, s)
}

func do(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	w := do(newTestRouter(&fakeLobby{}, &fakeSignal{}), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Rooms(t *testing.T) {
	tests := []struct {
		name     string
		lobby    *fakeLobby
		wantCode int
		wantBody string
	}{
		{
			name:     "empty",
			lobby:    &fakeLobby{},
			wantCode: http.StatusOK,
			wantBody: `{"rooms":[]}`,
		},
		{
			name: "one room",
			lobby: &fakeLobby{rooms: []domain.RoomSummary{{
				ID: "r1", Name: "Test", Host: "Alice", UserCount: 1, MaxUsers: 2, IsPublic: true, CreatedAt: 42,
			}}},
			wantCode: http.StatusOK,
			wantBody: `{"rooms":[{"id":"r1","name":"Test","host":"Alice","userCount":1,"maxUsers":2,"isPublic":true,"hasPassword":false,"createdAt":42}]}`,
		},
		{
			name:     "loop stopped",
			lobby:    &fakeLobby{err: errors.New("stopped")},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"error":"unavailable"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newTestRouter(tt.lobby, &fakeSignal{}), "/api/rooms")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRouter_Stats(t *testing.T) {
	l := &fakeLobby{rooms: make([]domain.RoomSummary, 3), clients: 7}
	w := do(newTestRouter(l, &fakeSignal{}), "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]int{"rooms": 3, "clients": 7}, body)
}

func TestRouter_SignalGetsClientToken(t *testing.T) {
	sig := &fakeSignal{}
	w := do(newTestRouter(&fakeLobby{}, sig), "/api/ws")

	assert.Equal(t, 1, sig.hits)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), sessionName+"=")
}
