package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Format describes one retrievable stream: its container, what it carries,
// its quality tier (video) or bitrate in kbps (audio), and a dereferenceable
// locator. Formats are immutable once obtained from the media source.
type Format struct {
	Itag         int    `json:"itag,omitempty"`
	Container    string `json:"container"`
	HasVideo     bool   `json:"hasVideo"`
	HasAudio     bool   `json:"hasAudio"`
	QualityLabel string `json:"qualityLabel,omitempty"`
	AudioBitrate int    `json:"audioBitrate,omitempty"`
	URL          string `json:"url"`
}

// VideoTier extracts the numeric tier from a quality label such as
// "1080p" or "1080p60". Returns 0 when the label has no leading number.
func (f Format) VideoTier() int {
	i := strings.IndexByte(f.QualityLabel, 'p')
	if i <= 0 {
		return 0
	}
	tier, err := strconv.Atoi(f.QualityLabel[:i])
	if err != nil {
		return 0
	}
	return tier
}

// fallback holds the fixed up/down search order for one requested tier.
// The literal per-tier ordering is load-bearing: selection walks "up"
// first (nearest higher tiers in the listed order), then "down".
type fallback struct {
	up   []int
	down []int
}

var videoFallback = map[int]fallback{
	4320: {up: nil, down: []int{2160, 1440, 1080, 720, 480, 360, 240, 144}},
	2160: {up: []int{4320}, down: []int{1440, 1080, 720, 480, 360, 240, 144}},
	1440: {up: []int{2160, 4320}, down: []int{1080, 720, 480, 360, 240, 144}},
	1080: {up: []int{1440, 2160, 4320}, down: []int{720, 480, 360, 240, 144}},
	720:  {up: []int{1080, 1440, 2160, 4320}, down: []int{480, 360, 240, 144}},
	480:  {up: []int{720, 1080, 1440, 2160, 4320}, down: []int{360, 240, 144}},
	360:  {up: []int{480, 720, 1080, 1440, 2160, 4320}, down: []int{240, 144}},
	240:  {up: []int{360, 480, 720, 1080, 1440, 2160, 4320}, down: []int{144}},
	144:  {up: []int{240, 360, 480, 720, 1080, 1440, 2160, 4320}, down: nil},
}

var audioFallback = map[int]fallback{
	160: {up: nil, down: []int{128, 64, 48}},
	128: {up: []int{160}, down: []int{64, 48}},
	64:  {up: []int{128, 160}, down: []int{48}},
	48:  {up: []int{64, 128, 160}, down: nil},
}

// IsVideoTier reports whether quality names a known video resolution class.
func IsVideoTier(quality int) bool {
	_, ok := videoFallback[quality]
	return ok
}

// IsAudioTier reports whether quality names a known audio bitrate class.
func IsAudioTier(quality int) bool {
	_, ok := audioFallback[quality]
	return ok
}

// FilterVideoFormats keeps video-only formats with a direct (non-manifest)
// locator, collapsing duplicate tiers to the first-seen entry.
func FilterVideoFormats(formats []Format) []Format {
	seen := make(map[int]bool)
	var out []Format
	for _, f := range formats {
		if !f.HasVideo || f.HasAudio {
			continue
		}
		if isManifestLocator(f.URL) {
			continue
		}
		tier := f.VideoTier()
		if tier == 0 || seen[tier] {
			continue
		}
		seen[tier] = true
		out = append(out, f)
	}
	return out
}

// FilterAudioFormats keeps audio-only formats, collapsing duplicate bitrates
// to the first-seen entry, ordered by descending bitrate so index 0 is the
// best available.
func FilterAudioFormats(formats []Format) []Format {
	seen := make(map[int]bool)
	var out []Format
	for _, f := range formats {
		if !f.HasAudio || f.HasVideo {
			continue
		}
		if seen[f.AudioBitrate] {
			continue
		}
		seen[f.AudioBitrate] = true
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AudioBitrate > out[j].AudioBitrate
	})
	return out
}

// isManifestLocator reports whether a stream locator points at a
// manifest-style endpoint. Only direct single-file streams are eligible.
func isManifestLocator(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Hostname(), "manifest")
}

// SelectVideoFormat returns the filtered format matching the requested tier,
// falling back to the first available tier in the fixed up list, then the
// down list. Two calls with the same inputs always pick the same format.
func SelectVideoFormat(formats []Format, quality int) (Format, error) {
	find := func(tier int) (Format, bool) {
		for _, f := range formats {
			if f.VideoTier() == tier {
				return f, true
			}
		}
		return Format{}, false
	}

	if f, ok := find(quality); ok {
		return f, nil
	}
	fb, ok := videoFallback[quality]
	if !ok {
		return Format{}, ErrFormatUnavailable
	}
	for _, tier := range fb.up {
		if f, ok := find(tier); ok {
			return f, nil
		}
	}
	for _, tier := range fb.down {
		if f, ok := find(tier); ok {
			return f, nil
		}
	}
	return Format{}, ErrFormatUnavailable
}

// SelectAudioFormat is the audio-bitrate counterpart of SelectVideoFormat.
func SelectAudioFormat(formats []Format, bitrate int) (Format, error) {
	find := func(rate int) (Format, bool) {
		for _, f := range formats {
			if f.AudioBitrate == rate {
				return f, true
			}
		}
		return Format{}, false
	}

	if f, ok := find(bitrate); ok {
		return f, nil
	}
	fb, ok := audioFallback[bitrate]
	if !ok {
		return Format{}, ErrFormatUnavailable
	}
	for _, rate := range fb.up {
		if f, ok := find(rate); ok {
			return f, nil
		}
	}
	for _, rate := range fb.down {
		if f, ok := find(rate); ok {
			return f, nil
		}
	}
	return Format{}, ErrFormatUnavailable
}
