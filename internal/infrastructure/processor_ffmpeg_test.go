package infrastructure

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

func TestFFmpegProcessor_BuildArgs_Merge(t *testing.T) {
	p := NewFFmpegProcessor(&domain.ProcessorConfig{FFmpegBinary: "ffmpeg"}, zap.NewNop())

	args := p.buildArgs(domain.ProcessSpec{
		Inputs:       []string{"/tmp/s/video.mp4", "/tmp/s/audio.webm"},
		Output:       "/tmp/s/output.mp4",
		Container:    "mp4",
		AudioBitrate: 160,
		MergeStreams: true,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i /tmp/s/video.mp4 -i /tmp/s/audio.webm")
	assert.Contains(t, joined, "-map 0:v:0 -map 1:a:0 -c:v copy")
	assert.Contains(t, joined, "-b:a 160k")
	assert.Contains(t, joined, "-f mp4 /tmp/s/output.mp4")
}

func TestFFmpegProcessor_BuildArgs_AudioTranscode(t *testing.T) {
	p := NewFFmpegProcessor(&domain.ProcessorConfig{}, zap.NewNop())

	args := p.buildArgs(domain.ProcessSpec{
		Inputs:       []string{"/tmp/s/audio.webm"},
		Output:       "/tmp/s/output.mp3",
		Container:    "mp3",
		AudioBitrate: 128,
	})

	joined := strings.Join(args, " ")
	assert.NotContains(t, joined, "-map")
	assert.NotContains(t, joined, "-c:v")
	assert.Contains(t, joined, "-b:a 128k")
	assert.Contains(t, joined, "-f mp3 /tmp/s/output.mp3")
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "ffmpeg -i '/tmp/in file.webm' -b:a 160k",
		commandLine("ffmpeg", []string{"-i", "/tmp/in file.webm", "-b:a", "160k"}))
}

func TestQuoteArg(t *testing.T) {
	cases := map[string]string{
		"":                                     "''",
		"-hide_banner":                         "-hide_banner",
		"/tmp/session/output.mp4":              "/tmp/session/output.mp4",
		"in file.webm":                         "'in file.webm'",
		"it's":                                 `'it'\''s'`,
		"https://cdn.example/v?itag=137&sig=x": "'https://cdn.example/v?itag=137&sig=x'",
	}
	for arg, want := range cases {
		assert.Equal(t, want, quoteArg(arg), arg)
	}
}

func TestDurationRegex(t *testing.T) {
	line := "  Duration: 00:03:20.00, start: 0.000000, bitrate: 4571 kb/s"

	m := reDuration.FindStringSubmatch(line)

	require.NotNil(t, m)
	assert.Equal(t, "00:03:20.00", m[1])
}

func TestProgressRegex(t *testing.T) {
	lines := map[string][2]string{
		"size=    1536kB time=00:01:40.00 bitrate= 125.9kbits/s speed=12.3x":                    {"1536", "00:01:40.00"},
		"frame= 1000 fps=250 q=-1.0 size=   10240KiB time=00:00:40.02 bitrate=2096.. speed=10x": {"10240", "00:00:40.02"},
	}
	for line, want := range lines {
		m := reProgress.FindStringSubmatch(line)
		require.NotNil(t, m, line)
		assert.Equal(t, want[0], m[1])
		assert.Equal(t, want[1], m[2])
	}

	assert.Nil(t, reProgress.FindStringSubmatch("frame= 1000 fps=250 q=-1.0"))
}

func TestScanStatsLines_SplitsOnCarriageReturn(t *testing.T) {
	input := "Duration: 00:03:20.00\nsize= 100kB time=00:00:10.00\rsize= 200kB time=00:00:20.00\r"

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanStatsLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "00:00:10.00")
	assert.Contains(t, lines[2], "00:00:20.00")
}
