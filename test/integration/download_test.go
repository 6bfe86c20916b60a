//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

func TestDownloadWorkflow_Video(t *testing.T) {
	env := setupTestServer(t)
	sessionID := env.openSession(t)

	resp := env.postDownload(t, sessionID, stubWatchURL, 1080)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), sessionID+".mp4")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "merged artifact", string(body))

	// the session folder is torn down once the artifact is delivered
	assert.False(t, env.store.Exists(sessionID))

	record, err := env.history.FindBySessionID(sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCompleted, record.Status)
	assert.Equal(t, domain.KindVideo, record.Kind)
	assert.Equal(t, int64(len("merged artifact")), record.SizeBytes)
}

func TestDownloadWorkflow_Audio(t *testing.T) {
	env := setupTestServer(t)
	sessionID := env.openSession(t)

	resp := env.postDownload(t, sessionID, stubWatchURL, 128)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), sessionID+".mp3")

	record, err := env.history.FindBySessionID(sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindAudio, record.Kind)
}

func TestDownloadWorkflow_QualityFallback(t *testing.T) {
	env := setupTestServer(t)
	sessionID := env.openSession(t)

	// 480 is absent; the upward list reaches 720 first
	resp := env.postDownload(t, sessionID, stubWatchURL, 480)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDownloadWorkflow_StreamFailure(t *testing.T) {
	env := setupTestServer(t)
	env.source.failURLs["a160"] = true
	sessionID := env.openSession(t)

	resp := env.postDownload(t, sessionID, stubWatchURL, 1080)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "download_failed", decodeError(t, resp))

	// no partial artifact survives the failed attempt
	assert.False(t, env.store.Exists(sessionID))

	record, err := env.history.FindBySessionID(sessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestFailed, record.Status)
	assert.Equal(t, "download_failed", record.ErrorCode)
}

func TestDownloadWorkflow_SessionSingleUse(t *testing.T) {
	env := setupTestServer(t)
	sessionID := env.openSession(t)

	resp := env.postDownload(t, sessionID, stubWatchURL, 720)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the folder is gone, so a second attempt reads as a missing session
	resp = env.postDownload(t, sessionID, stubWatchURL, 720)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "session_not_found", decodeError(t, resp))
}

func TestDownloadWorkflow_ProgressAfterDelivery(t *testing.T) {
	env := setupTestServer(t)
	sessionID := env.openSession(t)

	resp := env.postDownload(t, sessionID, stubWatchURL, 720)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	progressResp, err := http.Get(env.server.URL + "/api/v1/sessions/" + sessionID + "/progress")
	require.NoError(t, err)
	defer progressResp.Body.Close()

	var info domain.ClientInfo
	require.NoError(t, json.NewDecoder(progressResp.Body).Decode(&info))
	assert.Equal(t, domain.ClientError, info.State)
	assert.Equal(t, "session closed", info.Message)
}
