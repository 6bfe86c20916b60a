package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// MediaHandler resolves a media reference into its downloadable formats
// without opening a session.
type MediaHandler struct {
	source domain.MediaSource
	logger *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(source domain.MediaSource, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		source: source,
		logger: logger,
	}
}

// SearchRequest is the body of the search call.
type SearchRequest struct {
	URL string `json:"url" binding:"required"`
}

// Search handles POST /api/v1/search. It returns the same filtered format
// lists the download path selects from, so clients can offer real choices.
func (h *MediaHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "invalid_request", err.Error())
		return
	}

	if !h.source.ValidateReference(req.URL) {
		errorResponse(c, "invalid_reference", "unsupported media reference")
		return
	}

	info, err := h.source.FetchInfo(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Error("Failed to fetch media info",
			zap.String("url", req.URL),
			zap.Error(err))
		errorResponse(c, "download_failed", "could not resolve media reference")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           info.ID,
		"title":        info.Title,
		"duration":     info.Duration,
		"author":       info.Author,
		"videoFormats": domain.FilterVideoFormats(info.Formats),
		"audioFormats": domain.FilterAudioFormats(info.Formats),
	})
}
