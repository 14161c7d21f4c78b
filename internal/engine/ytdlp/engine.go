// Package ytdlp implements the engine bridge on top of the yt-dlp executable.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/ryt/internal/engine"
	"github.com/ytget/ryt/internal/logging"
	"github.com/ytget/ryt/internal/model"
	"github.com/ytget/ryt/internal/platform"
)

// OutputTemplate names downloaded files after the media title
const OutputTemplate = "%(title)s.%(ext)s"

// Engine defaults
const (
	DefaultExecutable       = "yt-dlp"
	DefaultBufferSize       = 64
	DefaultProgressInterval = 500 * time.Millisecond
)

// ErrDownloadFailed prefixes every transfer failure reported by StartDownload.
var ErrDownloadFailed = errors.New("Download Failed")

// ErrEmptyTitle is returned when yt-dlp prints no title.
var ErrEmptyTitle = errors.New("empty title")

// Engine drives yt-dlp for title lookups and downloads.
type Engine struct {
	downloadDir string
	executable  string
	interval    time.Duration
	events      chan engine.Event
	logger      *logging.Logger
	openFolder  func(ctx context.Context, dir string) error
	now         func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithExecutable sets the yt-dlp binary path
func WithExecutable(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.executable = path
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithBufferSize sets the event channel capacity
func WithBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.events = make(chan engine.Event, n)
		}
	}
}

// WithProgressInterval sets how often yt-dlp progress is sampled
func WithProgressInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// New returns an engine that saves into downloadDir.
func New(downloadDir string, opts ...Option) *Engine {
	e := &Engine{
		downloadDir: downloadDir,
		executable:  DefaultExecutable,
		interval:    DefaultProgressInterval,
		events:      make(chan engine.Event, DefaultBufferSize),
		logger:      logging.Nop(),
		openFolder:  platform.OpenFolder,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ engine.Bridge = (*Engine)(nil)

func (e *Engine) command() *ytdlp.Command {
	return ytdlp.New().SetExecutable(e.executable)
}

// ResolveTitle asks yt-dlp to print the title without downloading.
func (e *Engine) ResolveTitle(ctx context.Context, url string) (string, error) {
	res, err := e.command().
		Print("title").
		SkipDownload().
		NoWarnings().
		Run(ctx, url)
	if err != nil {
		return "", fmt.Errorf("resolve title: %s", failureCause(res, err))
	}
	title := firstLine(res.Stdout)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// StartDownload runs yt-dlp for url, streaming progress for id, and emits a
// FinishedEvent before returning nil on success.
func (e *Engine) StartDownload(ctx context.Context, id model.JobID, url string) error {
	if err := platform.CreateDirectoryIfNotExists(e.downloadDir); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	dl := e.command().
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(e.downloadDir, OutputTemplate))

	dl.ProgressFunc(e.interval, func(update ytdlp.ProgressUpdate) {
		e.emit(ctx, progressEvent(id, update, e.now()))
	})

	log := e.logger.With().Int64("job_id", int64(id)).Str("url", url).Logger()
	log.Debug().Str("dir", e.downloadDir).Msg("starting yt-dlp")

	res, err := dl.Run(ctx, url)
	if err != nil {
		cause := failureCause(res, err)
		log.Warn().Str("cause", cause).Msg("yt-dlp failed")
		return fmt.Errorf("%w: %s", ErrDownloadFailed, cause)
	}

	e.emit(ctx, engine.FinishedEvent{ID: id})
	return nil
}

// Events returns the shared event stream.
func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

// OpenDownloadsFolder opens the download directory.
func (e *Engine) OpenDownloadsFolder(ctx context.Context) error {
	return e.openFolder(ctx, e.downloadDir)
}

// emit blocks until the consumer takes the event so per-id order is kept.
func (e *Engine) emit(ctx context.Context, ev engine.Event) {
	select {
	case e.events <- ev:
	case <-ctx.Done():
	}
}

func progressEvent(id model.JobID, update ytdlp.ProgressUpdate, now time.Time) engine.ProgressEvent {
	ev := engine.ProgressEvent{
		ID:       id,
		Progress: percent(update.DownloadedBytes, update.TotalBytes),
		Speed:    model.SpeedStarting,
		ETA:      model.ETAUnknown,
	}
	if !update.Started.IsZero() {
		ev.Speed = formatSpeed(update.DownloadedBytes, now.Sub(update.Started))
	}
	if eta := update.ETA(); eta > 0 {
		ev.ETA = model.FormatETA(int(eta.Seconds()))
	}
	return ev
}

func percent(downloaded, total int) float64 {
	if total <= 0 || downloaded <= 0 {
		return 0
	}
	return model.ClampProgress(float64(downloaded) / float64(total) * 100)
}

func formatSpeed(downloaded int, elapsed time.Duration) string {
	if elapsed <= 0 {
		return model.SpeedStarting
	}
	bytesPerSecond := float64(downloaded) / elapsed.Seconds()
	return fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
}

// failureCause prefers the last non-warning stderr line over the exit error.
func failureCause(res *ytdlp.Result, err error) string {
	if res != nil {
		if line := lastErrorLine(res.Stderr); line != "" {
			return line
		}
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}

func lastErrorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.Contains(line, "WARNING") {
			continue
		}
		return line
	}
	return ""
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
