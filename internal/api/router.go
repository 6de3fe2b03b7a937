package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yorunoma/animestrem/internal/search"
	"github.com/yorunoma/animestrem/internal/stream"
	"github.com/yorunoma/animestrem/internal/subtitle"
	"github.com/yorunoma/animestrem/internal/swarm"
)

// Server represents the REST API server
type Server struct {
	router       *gin.Engine
	aggregator   *search.Aggregator
	sessions     *swarm.Manager
	streamer     *stream.Streamer
	subtitles    *subtitle.Service
	readyTimeout time.Duration
}

// NewServer creates a new API server
func NewServer(
	aggregator *search.Aggregator,
	sessions *swarm.Manager,
	streamer *stream.Streamer,
	subtitles *subtitle.Service,
	readyTimeout time.Duration,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:       gin.New(),
		aggregator:   aggregator,
		sessions:     sessions,
		streamer:     streamer,
		subtitles:    subtitles,
		readyTimeout: readyTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(func(c *gin.Context) {
		c.Next()
		slog.Info("API request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	})

	// Responses are built from live, still-growing downloads and must never
	// be cached by an intermediary.
	s.router.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	})

	// CORS for development
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	// Discovery
	api.GET("/torrents", s.searchTorrents)

	// Sessions
	api.POST("/download", s.downloadTorrent)
	api.GET("/sessions", s.listSessions)

	// Streaming
	api.GET("/stream/:infoHash", s.streamByHash)
	api.GET("/stream", s.streamBySource)

	// Subtitles
	api.GET("/subtitles/:infoHash", s.listSubtitleTracks)
	api.GET("/subtitles/:infoHash/:track", s.getCaption)

	// Status
	api.GET("/health", s.health)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
