package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ClientState is the coarse state reported to a polling client.
type ClientState string

const (
	ClientFetch    ClientState = "fetch"
	ClientProgress ClientState = "progress"
	ClientError    ClientState = "error"
)

// Phase represents the internal lifecycle stage of a session.
type Phase string

const (
	PhaseFetching    Phase = "fetching"
	PhaseDownloading Phase = "downloading"
	PhaseConverting  Phase = "converting"
	PhaseReady       Phase = "ready"
	PhaseClosed      Phase = "closed"
	PhaseError       Phase = "error"
)

// ClientInfo is the normalized progress triple returned by polling.
type ClientInfo struct {
	State    ClientState `json:"state"`
	Message  string      `json:"msg"`
	Progress int         `json:"progress"`
}

// DownloadProgress tracks how many raw files have settled out of the planned total.
type DownloadProgress struct {
	Total    int `json:"total"`
	Finished int `json:"finish"`
}

// ConvertProgress mirrors the last progress tick from the media processor.
type ConvertProgress struct {
	SizeKB   int    `json:"size"`
	TimeMark string `json:"timeMark"`
}

// ProgressState holds the stage-specific counters client progress is derived from.
type ProgressState struct {
	Duration string           `json:"duration"`
	Download DownloadProgress `json:"downloadProgress"`
	Convert  ConvertProgress  `json:"convertProgress"`
}

// Session is the per-request download-and-convert aggregate. All mutation
// goes through the transition methods below; client progress is always
// recomputed from the current stage's own counters so it never regresses
// when the stage changes.
type Session struct {
	ID       string        `json:"sessionID"`
	Phase    Phase         `json:"phase"`
	Client   ClientInfo    `json:"clientInfo"`
	Progress ProgressState `json:"progressState"`
}

// NewSession creates a session in the fetching phase. Session IDs are
// time-ordered (UUIDv7) so folder listings sort by creation time.
func NewSession() *Session {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Session{
		ID:    id.String(),
		Phase: PhaseFetching,
		Client: ClientInfo{
			State:    ClientFetch,
			Message:  "fetching info",
			Progress: 0,
		},
	}
}

// PlanDownload fixes the number of raw files for this session (1 for
// audio-only, 2 for video+audio) and moves to the downloading phase.
// It is invalid once any file has completed.
func (s *Session) PlanDownload(n int) error {
	if n < 1 {
		return fmt.Errorf("plan download: invalid file count %d", n)
	}
	if s.Progress.Download.Finished > 0 {
		return fmt.Errorf("plan download: %d file(s) already completed", s.Progress.Download.Finished)
	}
	s.Progress.Download.Total = n
	s.Phase = PhaseDownloading
	return nil
}

// FileCompleted records one settled raw-stream download and recomputes the
// client-facing percentage from the download counters. When the last file
// completes the session moves to the converting phase.
func (s *Session) FileCompleted() error {
	dp := &s.Progress.Download
	if dp.Finished >= dp.Total {
		return fmt.Errorf("file completed: already %d/%d", dp.Finished, dp.Total)
	}
	dp.Finished++
	s.Client = ClientInfo{
		State:    ClientProgress,
		Message:  fmt.Sprintf("preparing...(%d/%d)", dp.Finished, dp.Total),
		Progress: dp.Finished * 100 / dp.Total,
	}
	if dp.Finished == dp.Total {
		s.Phase = PhaseConverting
	}
	return nil
}

// DurationKnown records the total media duration reported by the processor's
// codec metadata. It changes neither phase nor client message.
func (s *Session) DurationKnown(duration string) {
	s.Progress.Duration = duration
}

// ProcessorTick records one progress event from the media processor and
// derives the client percentage from timeMark over the known duration.
func (s *Session) ProcessorTick(sizeKB int, timeMark string) {
	s.Progress.Convert = ConvertProgress{SizeKB: sizeKB, TimeMark: timeMark}
	s.Client = ClientInfo{
		State:    ClientProgress,
		Message:  fmt.Sprintf("converting...(%s)", HumanSizeKB(sizeKB)),
		Progress: ConvertPercent(timeMark, s.Progress.Duration),
	}
}

// Ready marks the merged artifact as available for delivery.
func (s *Session) Ready() {
	s.Phase = PhaseReady
}

// Fail moves the session to the terminal error state. The client sees a
// fixed message rather than the internal reason.
func (s *Session) Fail() {
	s.Phase = PhaseError
	s.Client = ClientInfo{
		State:    ClientError,
		Message:  "session failed",
		Progress: 0,
	}
}

// Closed reports whether the session reached a terminal phase.
func (s *Session) Closed() bool {
	return s.Phase == PhaseClosed || s.Phase == PhaseError
}
