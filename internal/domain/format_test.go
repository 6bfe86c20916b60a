package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoFormat(label string) Format {
	return Format{
		Container:    "mp4",
		HasVideo:     true,
		QualityLabel: label,
		URL:          "https://cdn.example.com/stream/" + label,
	}
}

func audioFormat(bitrate int) Format {
	return Format{
		Container:    "webm",
		HasAudio:     true,
		AudioBitrate: bitrate,
		URL:          fmt.Sprintf("https://cdn.example.com/audio/%d", bitrate),
	}
}

func TestFormat_VideoTier(t *testing.T) {
	assert.Equal(t, 1080, videoFormat("1080p").VideoTier())
	assert.Equal(t, 1080, videoFormat("1080p60").VideoTier())
	assert.Equal(t, 144, videoFormat("144p").VideoTier())
	assert.Equal(t, 0, Format{QualityLabel: "audio"}.VideoTier())
	assert.Equal(t, 0, Format{}.VideoTier())
}

func TestSelectVideoFormat_ExactMatch(t *testing.T) {
	formats := []Format{videoFormat("2160p"), videoFormat("1080p"), videoFormat("480p")}

	for _, tier := range []int{2160, 1080, 480} {
		got, err := SelectVideoFormat(formats, tier)
		require.NoError(t, err)
		assert.Equal(t, tier, got.VideoTier())
	}
}

func TestSelectVideoFormat_UpBeforeDown(t *testing.T) {
	// 1080 requested, absent; up list is [1440, 2160, 4320]
	formats := []Format{videoFormat("720p"), videoFormat("2160p")}

	got, err := SelectVideoFormat(formats, 1080)

	require.NoError(t, err)
	assert.Equal(t, 2160, got.VideoTier())
}

func TestSelectVideoFormat_UpListOrder(t *testing.T) {
	// 2160 requested, absent; up is [4320], which is present, so the
	// lower 1440 must not win even though it is numerically closer
	formats := []Format{videoFormat("1440p"), videoFormat("4320p")}

	got, err := SelectVideoFormat(formats, 2160)

	require.NoError(t, err)
	assert.Equal(t, 4320, got.VideoTier())
}

func TestSelectVideoFormat_DownWhenNoUpMatch(t *testing.T) {
	// 1080 requested; nothing above it available
	formats := []Format{videoFormat("480p"), videoFormat("720p")}

	got, err := SelectVideoFormat(formats, 1080)

	require.NoError(t, err)
	assert.Equal(t, 720, got.VideoTier())
}

func TestSelectVideoFormat_TopTierFallsDown(t *testing.T) {
	formats := []Format{videoFormat("144p")}

	got, err := SelectVideoFormat(formats, 4320)

	require.NoError(t, err)
	assert.Equal(t, 144, got.VideoTier())
}

func TestSelectVideoFormat_EmptyList(t *testing.T) {
	_, err := SelectVideoFormat(nil, 1080)
	assert.ErrorIs(t, err, ErrFormatUnavailable)
}

func TestSelectVideoFormat_UnknownTier(t *testing.T) {
	_, err := SelectVideoFormat([]Format{videoFormat("1080p")}, 999)
	assert.ErrorIs(t, err, ErrFormatUnavailable)
}

func TestSelectVideoFormat_Deterministic(t *testing.T) {
	formats := []Format{videoFormat("720p"), videoFormat("1440p"), videoFormat("360p")}

	first, err := SelectVideoFormat(formats, 1080)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectVideoFormat(formats, 1080)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectAudioFormat(t *testing.T) {
	formats := []Format{audioFormat(128), audioFormat(48)}

	got, err := SelectAudioFormat(formats, 128)
	require.NoError(t, err)
	assert.Equal(t, 128, got.AudioBitrate)

	// 64 absent: up list [128, 160] matches 128 before down's 48
	got, err = SelectAudioFormat(formats, 64)
	require.NoError(t, err)
	assert.Equal(t, 128, got.AudioBitrate)

	// 160 absent: down list [128, 64, 48]
	got, err = SelectAudioFormat(formats, 160)
	require.NoError(t, err)
	assert.Equal(t, 128, got.AudioBitrate)

	_, err = SelectAudioFormat(nil, 160)
	assert.ErrorIs(t, err, ErrFormatUnavailable)
}

func TestFilterVideoFormats_DuplicatesAndManifests(t *testing.T) {
	dup := videoFormat("1080p60")
	manifest := videoFormat("720p")
	manifest.URL = "https://manifest.googlevideo.com/api/manifest/hls"
	muxed := videoFormat("360p")
	muxed.HasAudio = true

	formats := []Format{videoFormat("1080p"), dup, manifest, muxed, videoFormat("480p")}
	got := FilterVideoFormats(formats)

	require.Len(t, got, 2)
	assert.Equal(t, "1080p", got[0].QualityLabel) // first-seen 1080 kept
	assert.Equal(t, "480p", got[1].QualityLabel)
}

func TestFilterVideoFormats_HighTiersStayDistinct(t *testing.T) {
	formats := []Format{videoFormat("4320p"), videoFormat("2160p"), videoFormat("1440p")}

	got := FilterVideoFormats(formats)

	require.Len(t, got, 3)
	tiers := []int{got[0].VideoTier(), got[1].VideoTier(), got[2].VideoTier()}
	assert.Equal(t, []int{4320, 2160, 1440}, tiers)
}

func TestFilterAudioFormats_SortedBestFirst(t *testing.T) {
	formats := []Format{
		audioFormat(48),
		audioFormat(160),
		audioFormat(128),
		audioFormat(160), // duplicate bitrate dropped
		videoFormat("1080p"),
	}

	got := FilterAudioFormats(formats)

	require.Len(t, got, 3)
	assert.Equal(t, 160, got[0].AudioBitrate)
	assert.Equal(t, 128, got[1].AudioBitrate)
	assert.Equal(t, 48, got[2].AudioBitrate)
}

func TestIsVideoTier(t *testing.T) {
	assert.True(t, IsVideoTier(1080))
	assert.True(t, IsVideoTier(4320))
	assert.False(t, IsVideoTier(160))
	assert.False(t, IsVideoTier(0))
}

func TestIsAudioTier(t *testing.T) {
	assert.True(t, IsAudioTier(160))
	assert.True(t, IsAudioTier(48))
	assert.False(t, IsAudioTier(1080))
}
