package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	session := NewSession()

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, PhaseFetching, session.Phase)
	assert.Equal(t, ClientFetch, session.Client.State)
	assert.Equal(t, "fetching info", session.Client.Message)
	assert.Equal(t, 0, session.Client.Progress)
	assert.Equal(t, 0, session.Progress.Download.Total)
	assert.Equal(t, 0, session.Progress.Download.Finished)
}

func TestNewSession_IDsAreTimeOrdered(t *testing.T) {
	a := NewSession()
	b := NewSession()

	assert.NotEqual(t, a.ID, b.ID)
	// UUIDv7 sorts lexicographically by creation time
	assert.LessOrEqual(t, a.ID, b.ID)
}

func TestSession_PlanDownload(t *testing.T) {
	session := NewSession()

	err := session.PlanDownload(2)
	require.NoError(t, err)

	assert.Equal(t, PhaseDownloading, session.Phase)
	assert.Equal(t, 2, session.Progress.Download.Total)
}

func TestSession_PlanDownload_Invalid(t *testing.T) {
	session := NewSession()
	assert.Error(t, session.PlanDownload(0))

	// planning is invalid once a file has completed
	require.NoError(t, session.PlanDownload(2))
	require.NoError(t, session.FileCompleted())
	assert.Error(t, session.PlanDownload(1))
}

func TestSession_FileCompleted_Progress(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.PlanDownload(2))

	require.NoError(t, session.FileCompleted())

	assert.Equal(t, ClientProgress, session.Client.State)
	assert.Equal(t, "preparing...(1/2)", session.Client.Message)
	assert.Equal(t, 50, session.Client.Progress)
	assert.Equal(t, PhaseDownloading, session.Phase)

	require.NoError(t, session.FileCompleted())

	assert.Equal(t, "preparing...(2/2)", session.Client.Message)
	assert.Equal(t, 100, session.Client.Progress)
	assert.Equal(t, PhaseConverting, session.Phase)
}

func TestSession_FileCompleted_NeverExceedsTotal(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.PlanDownload(1))
	require.NoError(t, session.FileCompleted())

	err := session.FileCompleted()

	assert.Error(t, err)
	assert.Equal(t, 1, session.Progress.Download.Finished)
}

func TestSession_ProcessorTick(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.PlanDownload(1))
	require.NoError(t, session.FileCompleted())

	session.DurationKnown("00:03:20.00")
	session.ProcessorTick(512, "00:01:40.00")

	assert.Equal(t, ClientProgress, session.Client.State)
	assert.Equal(t, "converting...(512 kb)", session.Client.Message)
	assert.Equal(t, 50, session.Client.Progress)
	assert.Equal(t, 512, session.Progress.Convert.SizeKB)
	assert.Equal(t, "00:01:40.00", session.Progress.Convert.TimeMark)
}

func TestSession_DurationKnown_DoesNotTouchClientInfo(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.PlanDownload(2))
	require.NoError(t, session.FileCompleted())
	before := session.Client

	session.DurationKnown("00:10:00.00")

	assert.Equal(t, before, session.Client)
	assert.Equal(t, "00:10:00.00", session.Progress.Duration)
}

func TestSession_Fail(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.PlanDownload(2))
	require.NoError(t, session.FileCompleted())

	session.Fail()

	assert.Equal(t, PhaseError, session.Phase)
	assert.Equal(t, ClientError, session.Client.State)
	assert.Equal(t, 0, session.Client.Progress)
	assert.True(t, session.Closed())
}

func TestSession_Ready(t *testing.T) {
	session := NewSession()
	require.NoError(t, session.PlanDownload(1))
	require.NoError(t, session.FileCompleted())

	session.Ready()

	assert.Equal(t, PhaseReady, session.Phase)
	assert.False(t, session.Closed())
}
