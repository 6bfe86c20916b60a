package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/app"
	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// SessionHandler handles the session lifecycle: open, poll, download.
type SessionHandler struct {
	store        domain.SessionStore
	orchestrator *app.Orchestrator
	history      domain.HistoryRepository
	logger       *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	store domain.SessionStore,
	orchestrator *app.Orchestrator,
	history domain.HistoryRepository,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		store:        store,
		orchestrator: orchestrator,
		history:      history,
		logger:       logger,
	}
}

// statusForCode maps stable client error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case "invalid_request", "invalid_reference", "invalid_quality":
		return http.StatusBadRequest
	case "session_not_found":
		return http.StatusNotFound
	case "session_exists":
		return http.StatusConflict
	case "download_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, code string, msg string) {
	c.JSON(statusForCode(code), gin.H{"code": code, "error": msg})
}

// Open handles POST /api/v1/sessions
func (h *SessionHandler) Open(c *gin.Context) {
	session := domain.NewSession()
	if err := h.store.Create(session); err != nil {
		h.logger.Error("Failed to open session", zap.Error(err))
		errorResponse(c, "session_open_failed", "could not open session")
		return
	}

	h.logger.Info("Session opened", zap.String("session_id", session.ID))
	c.JSON(http.StatusCreated, gin.H{
		"sessionID":    session.ID,
		"progressInfo": session.Client,
	})
}

// Progress handles GET /api/v1/sessions/:id/progress. The reply is always a
// well-formed progress triple; a missing or unreadable session reads as a
// closed one rather than an HTTP error, so pollers need no special casing.
func (h *SessionHandler) Progress(c *gin.Context) {
	session, err := h.store.Read(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, domain.ClientInfo{
			State:    domain.ClientError,
			Message:  "session closed",
			Progress: 0,
		})
		return
	}

	c.JSON(http.StatusOK, session.Client)
}

// DownloadRequest is the body of the download call.
type DownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Quality int    `json:"quality" binding:"required"`
}

// Download handles POST /api/v1/sessions/:id/download. It runs the whole
// pipeline synchronously and streams the finished artifact; the client
// follows along on the progress endpoint meanwhile.
func (h *SessionHandler) Download(c *gin.Context) {
	sessionID := c.Param("id")

	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, "invalid_request", err.Error())
		return
	}

	kind := domain.KindVideo
	switch {
	case domain.IsVideoTier(req.Quality):
	case domain.IsAudioTier(req.Quality):
		kind = domain.KindAudio
	default:
		errorResponse(c, "invalid_quality", "quality matches no video or audio tier")
		return
	}

	record := domain.NewRequestRecord(sessionID, req.URL, kind, req.Quality)
	if err := h.history.Create(record); err != nil {
		h.logger.Warn("Failed to record request", zap.Error(err))
	}

	artifact, err := h.orchestrator.Run(c.Request.Context(), app.DownloadRequest{
		SessionID: sessionID,
		URL:       req.URL,
		Quality:   req.Quality,
	})
	if err != nil {
		code := domain.ErrorCode(err)
		h.logger.Error("Download failed",
			zap.String("session_id", sessionID),
			zap.String("code", code),
			zap.Error(err))
		record.MarkFailed(code)
		h.finishRecord(record)
		errorResponse(c, code, "download failed")
		return
	}

	var size int64
	if info, statErr := os.Stat(artifact); statErr == nil {
		size = info.Size()
	}
	record.MarkCompleted(size)
	h.finishRecord(record)

	h.logger.Info("Delivering artifact",
		zap.String("session_id", sessionID),
		zap.Int64("size_bytes", size))
	c.FileAttachment(artifact, sessionID+filepath.Ext(artifact))
}

func (h *SessionHandler) finishRecord(record *domain.RequestRecord) {
	if err := h.history.Update(record); err != nil {
		h.logger.Warn("Failed to update request record",
			zap.String("session_id", record.SessionID),
			zap.Error(err))
	}
}
