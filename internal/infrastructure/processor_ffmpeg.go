package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// Pre-compiled regexes for the two stderr lines the pipeline consumes:
// the one-shot "Duration:" header and the periodic stats line.
var (
	reDuration = regexp.MustCompile(`Duration:\s*(\d{2,}:\d{2}:\d{2}\.\d{2})`)
	reProgress = regexp.MustCompile(`size=\s*(\d+)(?:kB|KiB).*?time=(\d{2,}:\d{2}:\d{2}\.\d{2})`)
)

// FFmpegProcessor implements domain.MediaProcessor by driving an ffmpeg
// subprocess and translating its stderr into the ordered event sequence.
type FFmpegProcessor struct {
	binary string
	logger *zap.Logger
}

// NewFFmpegProcessor creates a processor using the configured ffmpeg binary.
func NewFFmpegProcessor(config *domain.ProcessorConfig, logger *zap.Logger) *FFmpegProcessor {
	binary := config.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegProcessor{binary: binary, logger: logger}
}

// buildArgs constructs the ffmpeg argument list for one invocation. The
// merge path muxes video+audio copying the video track and re-encoding the
// audio at the requested bitrate; the transcode path re-encodes one input.
func (p *FFmpegProcessor) buildArgs(spec domain.ProcessSpec) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-stats", "-stats_period", "1"}
	for _, input := range spec.Inputs {
		args = append(args, "-i", input)
	}
	if spec.MergeStreams {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0", "-c:v", "copy")
	}
	if spec.AudioBitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(spec.AudioBitrate)+"k")
	}
	args = append(args, "-f", spec.Container, spec.Output)
	return args
}

// Process starts ffmpeg and returns a channel carrying its lifecycle
// events. The channel is closed after the terminal end or error event.
// Cancelling the context kills the subprocess.
func (p *FFmpegProcessor) Process(ctx context.Context, spec domain.ProcessSpec) (<-chan domain.ProcessorEvent, error) {
	if len(spec.Inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", domain.ErrProcessingFailed)
	}

	args := p.buildArgs(spec)
	cmd := exec.CommandContext(ctx, p.binary, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessingFailed, err)
	}

	p.logger.Info("Starting media processor",
		zap.String("cmd", commandLine(p.binary, args)))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProcessingFailed, err)
	}

	events := make(chan domain.ProcessorEvent)
	go func() {
		defer close(events)

		// send drops events once the context is gone so an abandoned
		// consumer cannot wedge this goroutine; CommandContext kills the
		// subprocess in that case.
		send := func(ev domain.ProcessorEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		send(domain.ProcessorEvent{Kind: domain.EventStart})

		durationSeen := false
		scanner := bufio.NewScanner(stderr)
		scanner.Split(scanStatsLines)
		for scanner.Scan() {
			line := scanner.Text()
			if !durationSeen {
				if m := reDuration.FindStringSubmatch(line); m != nil {
					durationSeen = true
					send(domain.ProcessorEvent{
						Kind:     domain.EventCodecMetadata,
						Duration: m[1],
					})
					continue
				}
			}
			if m := reProgress.FindStringSubmatch(line); m != nil {
				sizeKB, _ := strconv.Atoi(m[1])
				send(domain.ProcessorEvent{
					Kind:     domain.EventProgress,
					SizeKB:   sizeKB,
					TimeMark: m[2],
				})
			}
		}

		if err := cmd.Wait(); err != nil {
			p.logger.Error("Media processor failed",
				zap.String("output", spec.Output),
				zap.Error(err))
			send(domain.ProcessorEvent{
				Kind: domain.EventError,
				Err:  fmt.Errorf("%w: %v", domain.ErrProcessingFailed, err),
			})
			return
		}
		send(domain.ProcessorEvent{Kind: domain.EventEnd})
	}()

	return events, nil
}

// commandLine renders the invocation as one copy-pasteable shell line for
// the log. Media paths routinely carry spaces and stream URLs carry &, so
// anything unsafe gets single-quoted.
func commandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

const shellUnsafe = " \t\n'\"$&|;<>()*?[]#~%!`\\{}"

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, shellUnsafe) {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// scanStatsLines splits on both \n and \r: ffmpeg rewrites its stats line
// in place with carriage returns, so a plain line scanner would only see it
// once the run ends.
func scanStatsLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := strings.IndexAny(string(data), "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
