package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yorunoma/animestrem/internal/search"
)

// SearchResponse is the ranked result set for one discovery request.
type SearchResponse struct {
	search.Results
	Debug *search.DebugInfo `json:"debug,omitempty"`
}

// searchTorrents runs a ranked multi-indexer search
// GET /api/torrents?anime=<title>&episode=<n>&debug=0|1
func (s *Server) searchTorrents(c *gin.Context) {
	title := strings.TrimSpace(c.Query("anime"))
	if title == "" {
		errorResponse(c, http.StatusBadRequest, "anime query parameter is required")
		return
	}

	episode := 0
	if raw := c.Query("episode"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			episode = n
		}
	}

	req := search.Request{
		Title:   title,
		Episode: episode,
		Debug:   c.Query("debug") == "1",
	}

	results, debug := s.aggregator.Search(c.Request.Context(), req)
	c.JSON(http.StatusOK, SearchResponse{Results: results, Debug: debug})
}
