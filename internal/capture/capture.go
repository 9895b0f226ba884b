// Package capture records a playing stream into a finite file when no
// stable address exists to fetch. It shells out to ffmpeg for the actual
// re-encode and reports progress while the recording runs.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"vidgrab/internal/media"
)

const (
	// MaxWindow caps a capture of a known-length stream.
	MaxWindow = 15 * time.Minute
	// DefaultWindow is used when the stream length is unknown.
	DefaultWindow = 10 * time.Second
	// ProgressInterval is how often progress is reported mid-capture.
	ProgressInterval = 2 * time.Second
)

// RecordingWindow returns how long to record a stream whose duration is
// known (seconds) or unknown (zero or negative).
func RecordingWindow(durationSeconds float64) time.Duration {
	if durationSeconds <= 0 {
		return DefaultWindow
	}
	window := time.Duration(durationSeconds * float64(time.Second))
	if window > MaxWindow {
		return MaxWindow
	}
	return window
}

// ProgressFunc receives mid-capture progress reports. Percent is -1 when
// the total is unknown.
type ProgressFunc func(p media.Progress)

// Capturer records a stream into a local file for a bounded window.
type Capturer interface {
	Capture(ctx context.Context, sourceAddress string, durationSeconds float64, progress ProgressFunc) ([]byte, string, error)
}

// FFmpegCapturer re-encodes a stream with ffmpeg. The binary is resolved
// once at construction so a missing install fails early.
type FFmpegCapturer struct {
	bin   string
	clock func() time.Time
	log   zerolog.Logger
}

// NewFFmpegCapturer locates ffmpeg on PATH.
func NewFFmpegCapturer(log zerolog.Logger) (*FFmpegCapturer, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return &FFmpegCapturer{bin: bin, clock: time.Now, log: log}, nil
}

// Capture records sourceAddress for the computed window and returns the
// encoded payload and its media type. Progress is reported on a fixed
// interval for as long as the encode runs.
func (f *FFmpegCapturer) Capture(ctx context.Context, sourceAddress string, durationSeconds float64, progress ProgressFunc) ([]byte, string, error) {
	window := RecordingWindow(durationSeconds)

	tmp, err := os.MkdirTemp("", "vidgrab-capture-")
	if err != nil {
		return nil, "", fmt.Errorf("creating capture workspace: %w", err)
	}
	defer os.RemoveAll(tmp)
	outPath := filepath.Join(tmp, "capture.mp4")

	ctx, cancel := context.WithTimeout(ctx, window+30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.bin,
		"-y",
		"-i", sourceAddress,
		"-t", fmt.Sprintf("%.3f", window.Seconds()),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-loglevel", "error",
		outPath,
	)

	start := f.clock()
	stop := make(chan struct{})
	if progress != nil {
		go f.reportProgress(stop, start, window, outPath, progress)
	}

	f.log.Debug().Str("source", sourceAddress).Dur("window", window).Msg("capture started")
	runErr := cmd.Run()
	close(stop)
	if runErr != nil {
		return nil, "", fmt.Errorf("running ffmpeg capture: %w", runErr)
	}

	payload, err := os.ReadFile(outPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading capture output: %w", err)
	}
	f.log.Debug().Int("bytes", len(payload)).Msg("capture complete")
	return payload, "video/mp4", nil
}

func (f *FFmpegCapturer) reportProgress(stop <-chan struct{}, start time.Time, window time.Duration, outPath string, progress ProgressFunc) {
	ticker := time.NewTicker(ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			percent := int(float64(f.clock().Sub(start)) / float64(window) * 100)
			if percent > 100 {
				percent = 100
			}
			var size int64
			if st, err := os.Stat(outPath); err == nil {
				size = st.Size()
			}
			progress(media.Progress{Percent: percent, SizeBytes: size})
		}
	}
}
