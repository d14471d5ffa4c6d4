package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Runner downloads videos by shelling out to yt-dlp.
type Runner struct {
	dir    string
	logger *zap.Logger
}

// formatSpec caps downloads at 720p mp4 so results stay within Telegram upload limits.
const formatSpec = "best[ext=mp4][height<=720]/best[ext=mp4]/best"

// NewRunner creates a downloader writing into dir. It fails if yt-dlp is not
// on PATH so misconfiguration surfaces at startup, not on the first request.
func NewRunner(dir string, logger *zap.Logger) (*Runner, error) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return nil, fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &Runner{dir: dir, logger: logger}, nil
}

// Download fetches the video at url and returns the path of the local file.
// The caller owns the file and is responsible for removing it.
func (r *Runner) Download(ctx context.Context, userID int64, url string) (string, error) {
	outTemplate := filepath.Join(r.dir, fmt.Sprintf("%d_%d.%%(ext)s", userID, time.Now().Unix()))

	args := buildArgs(url, outTemplate)
	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.logger.Warn("yt-dlp failed",
			zap.String("url", url),
			zap.Error(err),
			zap.ByteString("output", output),
		)
		return "", fmt.Errorf("download failed: %w", err)
	}

	path, err := resolveOutput(outTemplate)
	if err != nil {
		return "", err
	}

	r.logger.Info("Video downloaded",
		zap.String("url", url),
		zap.String("path", path),
	)
	return path, nil
}

// buildArgs assembles the yt-dlp command line for one download.
func buildArgs(url, outTemplate string) []string {
	return []string{
		"-f", formatSpec,
		"-o", outTemplate,
		"--no-playlist",
		"--quiet",
		"--no-progress",
		"--socket-timeout", "30",
		url,
	}
}

// resolveOutput locates the file yt-dlp produced for the given output
// template, whatever extension the extractor chose.
func resolveOutput(outTemplate string) (string, error) {
	pattern := outTemplate[:len(outTemplate)-len("%(ext)s")] + "*"
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("downloaded file not found for %s", pattern)
	}
	return matches[0], nil
}
