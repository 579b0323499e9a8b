package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/djroom/internal/config"
	"github.com/dkeye/djroom/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	sessionName     = "DJRoomSessions"
	clientTokenKey  = "ct"
	lobbyQueryLimit = 2 * time.Second
)

// Lobby answers read-only questions about rooms on the event loop.
type Lobby interface {
	PublicRooms(ctx context.Context) ([]domain.RoomSummary, error)
	Stats(ctx context.Context) (rooms, clients int, err error)
}

type SignalHandler interface {
	HandleSignal(ctx context.Context, c *gin.Context)
}

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps a per-browser token in the cookie session.
// It labels connections in logs and is never used as identity.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, lobby Lobby, signal SignalHandler) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	// GET /api/rooms: public rooms, same view as the "rooms list" event
	api.GET("/rooms", func(c *gin.Context) {
		qctx, cancel := context.WithTimeout(c.Request.Context(), lobbyQueryLimit)
		defer cancel()
		rooms, err := lobby.PublicRooms(qctx)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable"})
			return
		}
		if rooms == nil {
			rooms = []domain.RoomSummary{}
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	})

	api.GET("/stats", func(c *gin.Context) {
		qctx, cancel := context.WithTimeout(c.Request.Context(), lobbyQueryLimit)
		defer cancel()
		rooms, clients, err := lobby.Stats(qctx)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("stats")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rooms": rooms, "clients": clients})
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		signal.HandleSignal(ctx, c)
	})

	return r
}
