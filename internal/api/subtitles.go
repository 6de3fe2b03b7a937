package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yorunoma/animestrem/internal/subtitle"
)

// listSubtitleTracks lists selectable subtitle tracks for a session. An
// unknown session yields an empty track list rather than an error, so the
// player UI can poll before the download settles.
// GET /api/subtitles/:infoHash
func (s *Server) listSubtitleTracks(c *gin.Context) {
	session, ok := s.sessions.Find(c.Param("infoHash"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"tracks": []subtitle.Track{}})
		return
	}

	tracks, err := s.subtitles.Tracks(c.Request.Context(), session)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "subtitle discovery failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// getCaption serves one converted WebVTT caption file
// GET /api/subtitles/:infoHash/:track  (track is "<id>.vtt")
func (s *Server) getCaption(c *gin.Context) {
	trackID, ok := strings.CutSuffix(c.Param("track"), ".vtt")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "caption requests must end in .vtt")
		return
	}

	session, found := s.findSession(c)
	if !found {
		return
	}

	path, err := s.subtitles.Caption(c.Request.Context(), session, trackID)
	if err != nil {
		switch {
		case errors.Is(err, subtitle.ErrBadTrackID):
			errorResponse(c, http.StatusBadRequest, "malformed track id")
		case errors.Is(err, subtitle.ErrTrackNotFound):
			errorResponse(c, http.StatusNotFound, "subtitle track not found")
		case errors.Is(err, subtitle.ErrUnsupportedCodec):
			errorResponse(c, http.StatusUnsupportedMediaType, "subtitle codec cannot be converted")
		default:
			errorResponse(c, http.StatusInternalServerError, "subtitle conversion failed")
		}
		return
	}

	c.Header("Content-Type", "text/vtt")
	c.File(path)
}
