package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yorunoma/animestrem/internal/swarm"
)

// streamByHash streams the main video file of a known session
// GET /api/stream/:infoHash
func (s *Server) streamByHash(c *gin.Context) {
	session, ok := s.findSession(c)
	if !ok {
		return
	}
	s.serveVideo(c, session)
}

// streamBySource acquires a session on the fly and streams it
// GET /api/stream?magnet=&torrentUrl=
func (s *Server) streamBySource(c *gin.Context) {
	session, ok := s.acquireFromQuery(c)
	if !ok {
		return
	}
	s.serveVideo(c, session)
}

func (s *Server) serveVideo(c *gin.Context, session *swarm.Session) {
	session.WaitReady(c.Request.Context(), s.readyTimeout)

	video, err := swarm.SelectVideoFile(session.Files())
	if err != nil {
		errorResponse(c, http.StatusNotFound, "no video file in session")
		return
	}

	s.streamer.ServeFile(c.Writer, c.Request, session, video)
}
