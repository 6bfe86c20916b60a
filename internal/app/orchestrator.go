package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// DownloadRequest carries one client download order into the pipeline.
type DownloadRequest struct {
	SessionID string
	URL       string
	Quality   int
}

// Orchestrator coordinates one session's pipeline: format resolution,
// concurrent raw-stream downloads, and the processor event loop. It owns the
// session record while a request is in flight (single writer); it does not
// own cleanup, which belongs to the response lifecycle.
type Orchestrator struct {
	store     domain.SessionStore
	source    domain.MediaSource
	processor domain.MediaProcessor
	logger    *zap.Logger
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(
	store domain.SessionStore,
	source domain.MediaSource,
	processor domain.MediaProcessor,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		source:    source,
		processor: processor,
		logger:    logger,
	}
}

// Run executes the full download-and-merge pipeline for one session and
// returns the finished artifact path. Every failure is wrapped in one of the
// domain error values; on any fatal error the session record is moved to the
// error state so polling clients see a terminal status.
func (o *Orchestrator) Run(ctx context.Context, req DownloadRequest) (string, error) {
	artifact, err := o.run(ctx, req)
	if err != nil {
		o.failSession(req.SessionID)
		return "", err
	}
	return artifact, nil
}

func (o *Orchestrator) run(ctx context.Context, req DownloadRequest) (string, error) {
	if !o.source.ValidateReference(req.URL) {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidReference, req.URL)
	}
	if !o.store.Exists(req.SessionID) {
		return "", fmt.Errorf("%w: %s", domain.ErrSessionNotFound, req.SessionID)
	}

	info, err := o.source.FetchInfo(ctx, req.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	switch {
	case domain.IsVideoTier(req.Quality):
		return o.runVideo(ctx, req, info)
	case domain.IsAudioTier(req.Quality):
		return o.runAudio(ctx, req, info)
	default:
		return "", fmt.Errorf("%w: unknown quality %d", domain.ErrFormatUnavailable, req.Quality)
	}
}

// runVideo downloads the resolved video stream plus the best available
// audio stream concurrently, then merges them into one mp4.
func (o *Orchestrator) runVideo(ctx context.Context, req DownloadRequest, info *domain.MediaInfo) (string, error) {
	video, err := domain.SelectVideoFormat(domain.FilterVideoFormats(info.Formats), req.Quality)
	if err != nil {
		return "", err
	}
	audioFormats := domain.FilterAudioFormats(info.Formats)
	if len(audioFormats) == 0 {
		return "", fmt.Errorf("%w: no audio streams", domain.ErrFormatUnavailable)
	}
	audio := audioFormats[0]

	o.logger.Info("Resolved formats",
		zap.String("session_id", req.SessionID),
		zap.String("video_quality", video.QualityLabel),
		zap.Int("audio_bitrate", audio.AudioBitrate))

	dir := o.store.Dir(req.SessionID)
	videoPath := filepath.Join(dir, "video."+video.Container)
	audioPath := filepath.Join(dir, "audio."+audio.Container)

	if err := o.planDownload(req.SessionID, 2); err != nil {
		return "", err
	}
	if err := o.downloadAll(ctx, req.SessionID,
		downloadJob{format: video, path: videoPath},
		downloadJob{format: audio, path: audioPath},
	); err != nil {
		return "", err
	}

	outPath := filepath.Join(dir, "output.mp4")
	spec := domain.ProcessSpec{
		Inputs:       []string{videoPath, audioPath},
		Output:       outPath,
		Container:    "mp4",
		AudioBitrate: audio.AudioBitrate,
		MergeStreams: true,
	}
	if err := o.runProcessor(ctx, req.SessionID, spec); err != nil {
		return "", err
	}
	return outPath, nil
}

// runAudio downloads the resolved audio stream and transcodes it to mp3 at
// the requested bitrate.
func (o *Orchestrator) runAudio(ctx context.Context, req DownloadRequest, info *domain.MediaInfo) (string, error) {
	audio, err := domain.SelectAudioFormat(domain.FilterAudioFormats(info.Formats), req.Quality)
	if err != nil {
		return "", err
	}

	o.logger.Info("Resolved formats",
		zap.String("session_id", req.SessionID),
		zap.Int("audio_bitrate", audio.AudioBitrate))

	dir := o.store.Dir(req.SessionID)
	audioPath := filepath.Join(dir, "audio."+audio.Container)

	if err := o.planDownload(req.SessionID, 1); err != nil {
		return "", err
	}
	if err := o.downloadAll(ctx, req.SessionID,
		downloadJob{format: audio, path: audioPath},
	); err != nil {
		return "", err
	}

	outPath := filepath.Join(dir, "output.mp3")
	spec := domain.ProcessSpec{
		Inputs:       []string{audioPath},
		Output:       outPath,
		Container:    "mp3",
		AudioBitrate: audio.AudioBitrate,
	}
	if err := o.runProcessor(ctx, req.SessionID, spec); err != nil {
		return "", err
	}
	return outPath, nil
}

type downloadJob struct {
	format domain.Format
	path   string
}

// downloadAll launches every job concurrently, waits for all of them to
// settle, then inspects all results: one late failure discards the whole
// batch. Session progress is advanced here, one FileCompleted per success,
// by this single goroutine, so the record never sees concurrent writers.
func (o *Orchestrator) downloadAll(ctx context.Context, sessionID string, jobs ...downloadJob) error {
	results := make(chan error, len(jobs))
	for _, job := range jobs {
		go func(job downloadJob) {
			results <- o.downloadStream(ctx, job.format, job.path)
		}(job)
	}

	// progress is applied as each job settles so polling clients see the
	// preparing counter move, but the batch verdict waits for every result
	var failed error
	for range jobs {
		err := <-results
		if err != nil {
			o.logger.Warn("Stream download failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			failed = err
			continue
		}
		if err := o.updateSession(sessionID, func(s *domain.Session) error {
			return s.FileCompleted()
		}); err != nil {
			return err
		}
	}
	if failed != nil {
		return fmt.Errorf("%w: %v", domain.ErrDownloadFailed, failed)
	}
	return nil
}

// downloadStream copies one raw stream into a dedicated temporary file.
func (o *Orchestrator) downloadStream(ctx context.Context, format domain.Format, path string) error {
	stream, err := o.source.OpenStream(ctx, format)
	if err != nil {
		return err
	}
	defer stream.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := io.Copy(out, stream)
	if err != nil {
		return err
	}
	o.logger.Debug("Stream downloaded",
		zap.String("path", path),
		zap.Int64("bytes", written))
	return nil
}

// runProcessor drives the media processor's event sequence, forwarding
// duration and progress into the session record.
func (o *Orchestrator) runProcessor(ctx context.Context, sessionID string, spec domain.ProcessSpec) error {
	events, err := o.processor.Process(ctx, spec)
	if err != nil {
		return err
	}

	for event := range events {
		switch event.Kind {
		case domain.EventStart:
			o.logger.Info("Converting started", zap.String("session_id", sessionID))

		case domain.EventCodecMetadata:
			if err := o.updateSession(sessionID, func(s *domain.Session) error {
				s.DurationKnown(event.Duration)
				return nil
			}); err != nil {
				return err
			}

		case domain.EventProgress:
			if err := o.updateSession(sessionID, func(s *domain.Session) error {
				s.ProcessorTick(event.SizeKB, event.TimeMark)
				return nil
			}); err != nil {
				return err
			}

		case domain.EventError:
			return fmt.Errorf("%w: %v", domain.ErrProcessingFailed, event.Err)

		case domain.EventEnd:
			o.removeIntermediates(spec.Inputs)
			return o.updateSession(sessionID, func(s *domain.Session) error {
				s.Ready()
				return nil
			})
		}
	}
	return fmt.Errorf("%w: processor ended without terminal event", domain.ErrProcessingFailed)
}

// removeIntermediates deletes the raw input files once the merge succeeds.
// Deletion failure is logged, never fatal.
func (o *Orchestrator) removeIntermediates(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			o.logger.Warn("Failed to delete intermediate file",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

// planDownload records the planned file count on the session.
func (o *Orchestrator) planDownload(sessionID string, n int) error {
	return o.updateSession(sessionID, func(s *domain.Session) error {
		return s.PlanDownload(n)
	})
}

// updateSession applies one mutation through a read-modify-write cycle.
func (o *Orchestrator) updateSession(sessionID string, fn func(*domain.Session) error) error {
	session, err := o.store.Read(sessionID)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	return o.store.Write(session)
}

// failSession moves the session record to the error state, best effort. The
// record may already be gone when the failure is a store-level one.
func (o *Orchestrator) failSession(sessionID string) {
	if err := o.updateSession(sessionID, func(s *domain.Session) error {
		s.Fail()
		return nil
	}); err != nil {
		o.logger.Debug("Could not mark session failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}
