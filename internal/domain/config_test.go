package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 30*time.Minute, config.Session.TTL)
	assert.Equal(t, 5*time.Minute, config.Session.SweepInterval)
	assert.NotEmpty(t, config.Session.TempDir)
	assert.Equal(t, "ffmpeg", config.Processor.FFmpegBinary)
	assert.Equal(t, 30*time.Second, config.Source.Timeout)
	assert.NotEmpty(t, config.History.DatabasePath)
	assert.Equal(t, "info", config.Logging.Level)
}
