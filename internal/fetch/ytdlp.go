package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"yt-batch-archiver/internal/model"
)

// YTDLP shells out to the yt-dlp binary on PATH.
type YTDLP struct{}

func NewYTDLP() *YTDLP {
	return &YTDLP{}
}

// CheckDependencies verifies the external tools are installed before a run.
func CheckDependencies() error {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("missing dependency: ffmpeg is required for many YouTube formats and was not found on PATH")
	}
	return nil
}

func (y *YTDLP) Fetch(ctx context.Context, videoID string, opts Options) error {
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("video id is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return fmt.Errorf("output directory is required")
	}

	args, err := buildArgs(videoID, opts)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp failed for %s: %w: %s", videoID, err,
			strings.TrimSpace(stderr.String()+"\n"+stdout.String()))
	}
	return nil
}

func buildArgs(videoID string, opts Options) ([]string, error) {
	fragments := opts.Fragments
	if fragments <= 0 {
		fragments = 4
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = 10
	}
	fragmentRetries := opts.FragmentRetries
	if fragmentRetries <= 0 {
		fragmentRetries = 15
	}
	socketTimeout := opts.SocketTimeout
	if socketTimeout <= 0 {
		socketTimeout = 30
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"-N", fmt.Sprintf("%d", fragments),
		"-P", opts.OutputDir,
		"-o", "%(id)s.%(ext)s",
		"--retries", fmt.Sprintf("%d", retries),
		"--fragment-retries", fmt.Sprintf("%d", fragmentRetries),
		"--socket-timeout", fmt.Sprintf("%d", socketTimeout),
		"--skip-unavailable-fragments",
	}
	if opts.SleepInterval > 0 {
		args = append(args, "--sleep-interval", fmt.Sprintf("%.1f", opts.SleepInterval))
	}
	if opts.MaxSleepInterval > 0 {
		args = append(args, "--max-sleep-interval", fmt.Sprintf("%.1f", opts.MaxSleepInterval))
	}
	if strings.TrimSpace(opts.UserAgent) != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	if strings.TrimSpace(opts.AcceptLanguage) != "" {
		args = append(args, "--add-headers", "Accept-Language:"+opts.AcceptLanguage)
	}
	if strings.TrimSpace(opts.PlayerClient) != "" {
		args = append(args, "--extractor-args", "youtube:player_client="+opts.PlayerClient)
	}
	if strings.TrimSpace(opts.ProxyURL) != "" {
		args = append(args, "--proxy", strings.TrimSpace(opts.ProxyURL))
	}
	if strings.TrimSpace(opts.CookiesPath) != "" {
		cookiesPath, err := resolveCookiesPath(opts.CookiesPath)
		if err != nil {
			return nil, err
		}
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, model.WatchURL(videoID))
	return args, nil
}

func resolveCookiesPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve cookies path %s: %w", p, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("cookies file %s: %w", abs, err)
	}
	return abs, nil
}
