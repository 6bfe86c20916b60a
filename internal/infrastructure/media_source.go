package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

const playerEndpoint = "https://www.youtube.com/youtubei/v1/player?prettyPrint=false"

// watchURLPattern accepts the reference shapes the service supports:
// youtube.com/watch?v=ID, youtu.be/ID and youtube.com/shorts/ID.
var watchURLPattern = regexp.MustCompile(
	`^https?://(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/)|youtu\.be/)([A-Za-z0-9_-]{11})`)

// audioTiers, best first. Reported bitrates are bucketed to the nearest
// class at or below so they line up with the fallback tables.
var audioTiers = []int{160, 128, 64, 48}

// YouTubeSource implements domain.MediaSource against the Innertube player
// endpoint.
type YouTubeSource struct {
	config   *domain.SourceConfig
	client   *http.Client
	logger   *zap.Logger
	endpoint string // overridable for tests
}

// NewYouTubeSource creates a media source using the given HTTP client; a nil
// client falls back to http.DefaultClient.
func NewYouTubeSource(config *domain.SourceConfig, client *http.Client, logger *zap.Logger) *YouTubeSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &YouTubeSource{
		config:   config,
		client:   client,
		logger:   logger,
		endpoint: playerEndpoint,
	}
}

// ValidateReference reports whether url is a supported watch URL.
func (s *YouTubeSource) ValidateReference(url string) bool {
	return watchURLPattern.MatchString(url)
}

// videoID extracts the 11-character video identifier from a watch URL.
func (s *YouTubeSource) videoID(url string) (string, error) {
	m := watchURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidReference, url)
	}
	return m[1], nil
}

// playerResponse mirrors the slice of the Innertube player payload we need.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
	StreamingData struct {
		Formats         []innertubeFormat `json:"formats"`
		AdaptiveFormats []innertubeFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type innertubeFormat struct {
	Itag           int    `json:"itag"`
	URL            string `json:"url"`
	MimeType       string `json:"mimeType"`
	QualityLabel   string `json:"qualityLabel"`
	Bitrate        int    `json:"bitrate"`
	AverageBitrate int    `json:"averageBitrate"`
}

// FetchInfo resolves a watch URL into metadata and format descriptors.
func (s *YouTubeSource) FetchInfo(ctx context.Context, url string) (*domain.MediaInfo, error) {
	id, err := s.videoID(url)
	if err != nil {
		return nil, err
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	payload := map[string]interface{}{
		"videoId": id,
		"context": map[string]interface{}{
			"client": map[string]interface{}{
				"clientName":    s.config.ClientName,
				"clientVersion": s.config.ClientVersion,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode player request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player request failed: status=%d", resp.StatusCode)
	}

	var pr playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("failed to decode player response: %w", err)
	}
	if pr.PlayabilityStatus.Status != "OK" {
		return nil, fmt.Errorf("video not playable: %s (%s)",
			pr.PlayabilityStatus.Status, pr.PlayabilityStatus.Reason)
	}

	info := &domain.MediaInfo{
		ID:       pr.VideoDetails.VideoID,
		Title:    pr.VideoDetails.Title,
		Author:   pr.VideoDetails.Author,
		Duration: formatLengthSeconds(pr.VideoDetails.LengthSeconds),
	}
	for _, f := range pr.StreamingData.Formats {
		info.Formats = append(info.Formats, normalizeFormat(f))
	}
	for _, f := range pr.StreamingData.AdaptiveFormats {
		info.Formats = append(info.Formats, normalizeFormat(f))
	}

	s.logger.Debug("Fetched media info",
		zap.String("video_id", info.ID),
		zap.Int("formats", len(info.Formats)))
	return info, nil
}

// OpenStream opens the raw byte stream behind a format locator.
func (s *YouTubeSource) OpenStream(ctx context.Context, format domain.Format) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, format.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream request failed: status=%d", resp.StatusCode)
	}
	return resp.Body, nil
}

// normalizeFormat maps an Innertube format entry onto the domain descriptor.
func normalizeFormat(f innertubeFormat) domain.Format {
	mediaType, _, err := mime.ParseMediaType(f.MimeType)
	if err != nil {
		mediaType = f.MimeType
	}
	hasVideo := strings.HasPrefix(mediaType, "video/")
	hasAudio := strings.HasPrefix(mediaType, "audio/")
	// muxed legacy formats report video/* but carry both tracks
	if hasVideo && f.QualityLabel != "" && strings.Contains(f.MimeType, "avc1") &&
		strings.Contains(f.MimeType, "mp4a") {
		hasAudio = true
	}

	container := ""
	if parts := strings.SplitN(mediaType, "/", 2); len(parts) == 2 {
		container = parts[1]
	}

	out := domain.Format{
		Itag:         f.Itag,
		Container:    container,
		HasVideo:     hasVideo,
		HasAudio:     hasAudio,
		QualityLabel: f.QualityLabel,
		URL:          f.URL,
	}
	if hasAudio && !hasVideo {
		kbps := f.AverageBitrate / 1000
		if kbps == 0 {
			kbps = f.Bitrate / 1000
		}
		out.AudioBitrate = nearestAudioTier(kbps)
	}
	return out
}

// nearestAudioTier buckets a kbps figure to the closest known audio class at
// or below it; anything under the lowest class maps to the lowest.
func nearestAudioTier(kbps int) int {
	for _, tier := range audioTiers {
		if kbps >= tier {
			return tier
		}
	}
	return audioTiers[len(audioTiers)-1]
}

// formatLengthSeconds renders an Innertube lengthSeconds value as an
// "hh:mm:ss.00" timestamp matching the processor's duration format.
func formatLengthSeconds(raw string) string {
	total, err := strconv.Atoi(raw)
	if err != nil || total < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d.00", total/3600, total%3600/60, total%60)
}
