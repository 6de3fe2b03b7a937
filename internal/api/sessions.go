package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yorunoma/animestrem/internal/swarm"
)

// DownloadRequest starts (or reuses) a swarm session.
type DownloadRequest struct {
	Magnet     string `json:"magnet"`
	TorrentURL string `json:"torrentUrl"`
}

// DownloadResponse identifies the acquired session. Ready is false when the
// readiness wait timed out and the session is still resolving metadata.
type DownloadResponse struct {
	InfoHash string `json:"infoHash"`
	Ready    bool   `json:"ready"`
}

// SessionResponse describes one live session for observability.
type SessionResponse struct {
	InfoHash         string `json:"infoHash"`
	Name             string `json:"name"`
	Ready            bool   `json:"ready"`
	TotalSize        int64  `json:"totalSize"`
	BytesCompleted   int64  `json:"bytesCompleted"`
	ActivePeers      int    `json:"activePeers"`
	ConnectedSeeders int    `json:"connectedSeeders"`
}

// downloadTorrent acquires a session for a magnet or torrent-file URL
// POST /api/download
func (s *Server) downloadTorrent(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	src, err := swarm.NormalizeSource(req.Magnet, req.TorrentURL)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "magnet or torrentUrl is required")
		return
	}

	session, err := s.sessions.Acquire(c.Request.Context(), src)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to acquire download")
		return
	}

	ready := session.WaitReady(c.Request.Context(), s.readyTimeout)
	c.JSON(http.StatusOK, DownloadResponse{InfoHash: session.ID, Ready: ready})
}

// listSessions returns all live sessions
// GET /api/sessions
func (s *Server) listSessions(c *gin.Context) {
	sessions := s.sessions.Sessions()
	out := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		stats := sess.Stats()
		out = append(out, SessionResponse{
			InfoHash:         sess.ID,
			Name:             sess.Name(),
			Ready:            sess.Ready(),
			TotalSize:        stats.TotalSize,
			BytesCompleted:   stats.BytesCompleted,
			ActivePeers:      stats.ActivePeers,
			ConnectedSeeders: stats.ConnectedSeeders,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// health reports liveness
// GET /api/health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// findSession resolves an info hash to a session, writing a 404 on miss.
func (s *Server) findSession(c *gin.Context) (*swarm.Session, bool) {
	session, ok := s.sessions.Find(c.Param("infoHash"))
	if !ok {
		errorResponse(c, http.StatusNotFound, swarm.ErrSessionNotFound.Error())
		return nil, false
	}
	return session, true
}

// acquireFromQuery resolves magnet/torrentUrl query parameters to a session.
func (s *Server) acquireFromQuery(c *gin.Context) (*swarm.Session, bool) {
	src, err := swarm.NormalizeSource(c.Query("magnet"), c.Query("torrentUrl"))
	if err != nil {
		if errors.Is(err, swarm.ErrNoSource) {
			errorResponse(c, http.StatusBadRequest, "magnet or torrentUrl is required")
		} else {
			errorResponse(c, http.StatusBadRequest, "invalid source")
		}
		return nil, false
	}

	session, err := s.sessions.Acquire(c.Request.Context(), src)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to acquire download")
		return nil, false
	}
	return session, true
}
