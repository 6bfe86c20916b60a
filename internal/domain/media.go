package domain

import (
	"context"
	"io"
)

// MediaInfo is the metadata and format list returned by a media source for
// one reference.
type MediaInfo struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Duration string   `json:"duration,omitempty"`
	Author   string   `json:"author,omitempty"`
	Formats  []Format `json:"formats"`
}

// MediaSource is the upstream capability that resolves a media reference
// into available formats and raw byte streams.
type MediaSource interface {
	// ValidateReference reports whether the URL is a supported media reference.
	ValidateReference(url string) bool

	// FetchInfo resolves the reference into metadata plus the full list of
	// available format descriptors.
	FetchInfo(ctx context.Context, url string) (*MediaInfo, error)

	// OpenStream opens the raw byte stream for one format. Stream-level
	// errors surface on the returned reader.
	OpenStream(ctx context.Context, format Format) (io.ReadCloser, error)
}

// ProcessorEventKind discriminates media processor lifecycle events.
type ProcessorEventKind string

const (
	EventStart         ProcessorEventKind = "start"
	EventCodecMetadata ProcessorEventKind = "codec_metadata"
	EventProgress      ProcessorEventKind = "progress"
	EventEnd           ProcessorEventKind = "end"
	EventError         ProcessorEventKind = "error"
)

// ProcessorEvent is one entry of the ordered event sequence a processor run
// emits: start, codec_metadata{duration}, progress{size,timeMark}*, then
// end or error.
type ProcessorEvent struct {
	Kind     ProcessorEventKind
	Duration string // codec_metadata
	SizeKB   int    // progress
	TimeMark string // progress
	Err      error  // error
}

// ProcessSpec describes one encode/merge invocation: one or two input files,
// the target container and audio bitrate, and the output path.
type ProcessSpec struct {
	Inputs       []string
	Output       string
	Container    string
	AudioBitrate int
	MergeStreams bool // two inputs muxed into one container, video copied
}

// MediaProcessor is the external encode/mux capability. Process returns once
// the run has started; lifecycle events are delivered on the returned
// channel, which is closed after the terminal event.
type MediaProcessor interface {
	Process(ctx context.Context, spec ProcessSpec) (<-chan ProcessorEvent, error)
}

// SessionStore persists one session record per open session ID. Storage is
// isolated per session: operations on one session never contend with
// another's.
type SessionStore interface {
	// Create allocates storage for a new session and persists its record.
	Create(session *Session) error

	// Read loads the session record. Missing storage yields
	// ErrSessionNotFound; a present but undecodable record yields
	// ErrSessionUnreadable.
	Read(sessionID string) (*Session, error)

	// Write persists the session record. Failures yield ErrSessionUnwritable.
	Write(session *Session) error

	// Destroy removes the session's storage and any temporary artifacts.
	// Idempotent; missing storage is not an error.
	Destroy(sessionID string) error

	// Exists reports whether the session's storage is present.
	Exists(sessionID string) bool

	// Dir returns the session's scratch directory for intermediate files.
	Dir(sessionID string) string
}
