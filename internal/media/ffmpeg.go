package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// FFmpeg transcodes raw capture payloads into web-playable mp4 artifacts
// by invoking the external ffmpeg binary.
type FFmpeg struct {
	bin string
	log *zap.Logger
}

// NewFFmpeg creates a transcoder using the given ffmpeg binary path.
func NewFFmpeg(bin string, log *zap.Logger) *FFmpeg {
	return &FFmpeg{bin: bin, log: log}
}

// Transcode converts inputPath into outputPath. The parameter set caps the
// frame rate at 5 fps, bounds output to 1200x720, and trades size for
// throughput with the ultrafast preset.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y",
		"-i", inputPath,
		"-c:v", "libvpx-vp9",
		"-r", "5",
		"-crf", "20",
		"-b:v", "0",
		"-vf", "scale=1200:720",
		"-preset", "ultrafast",
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath,
	}
	cmd := exec.CommandContext(ctx, f.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", inputPath, err, lastLine(&stderr))
	}
	f.log.Debug("transcode finished",
		zap.String("input", inputPath),
		zap.String("output", outputPath))
	return nil
}

// lastLine returns the final non-empty stderr line, where ffmpeg puts the
// actual failure reason.
func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
