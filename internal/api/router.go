// Package api exposes the engine's read views and intents over HTTP for a
// local renderer, plus a websocket that pushes engine hooks as they happen.
package api

import (
	"net/http"
	"time"

	"PokerSync/internal/game/engine"
	"PokerSync/internal/websocket"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter hub may be nil, in which case /ws is not mounted. Requests carrying
// an Origin outside allowedOrigins (other than the API's own host) get 403,
// so a foreign page cannot act for the player.
func NewRouter(eng *engine.Engine, hub *websocket.Hub, allowedOrigins []string, logger *log.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(cors.New(corsConfig(allowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewHandler(eng)
	r.GET("/state", h.State)
	r.GET("/timer", h.Timer)
	r.GET("/notices", h.Notices)
	r.GET("/result", h.Result)

	lb := r.Group("/leaderboard")
	{
		lb.GET("/room", h.RoomLeaderboard)
		lb.GET("/history", h.HistoryLeaderboard)
	}

	hist := r.Group("/history")
	{
		hist.GET("", h.History)
		hist.GET("/hands", h.Hands)
		hist.POST("/prev", h.HistoryPrev)
		hist.POST("/next", h.HistoryNext)
		hist.POST("/seek", h.HistorySeek)
	}

	r.POST("/actions", h.Act)
	r.POST("/chat", h.Chat)
	r.POST("/start-game", h.StartGame)
	r.POST("/next-game", h.NextGame)
	r.POST("/rooms", h.CreateRoom)
	r.POST("/rooms/join", h.JoinRoom)

	if hub != nil {
		r.GET("/ws", websocket.ServeWS(hub))
	}
	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       time.Hour,
	}
	if len(allowedOrigins) == 0 {
		// 只允许同源
		cfg.AllowOriginFunc = func(string) bool { return false }
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}
		logger.Debug("http", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "took", time.Since(start))
	}
}
