package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ytget/ryt/internal/platform"
)

// Environment keys
const (
	KeyDownloadDir = "RYT_DOWNLOAD_DIR"
	KeyLibraryDSN  = "RYT_LIBRARY_DSN"
	KeyYTDLPPath   = "RYT_YTDLP_PATH"
	KeyLogLevel    = "RYT_LOG_LEVEL"
	KeyLogFormat   = "RYT_LOG_FORMAT"
	KeyEventBuffer = "RYT_EVENT_BUFFER"
)

// Default values
const (
	DefaultDownloadFolder = "RYT-Downloads"
	DefaultLibraryFile    = "library.db"
	DefaultYTDLPPath      = "yt-dlp"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultEventBuffer    = 256
	MinEventBuffer        = 16
	MaxEventBuffer        = 4096
	appConfigDir          = "ryt"
)

// Settings manages application configuration. Values come from explicit
// overrides (CLI flags) first, then the process environment.
type Settings struct {
	lookup    func(string) (string, bool)
	overrides map[string]string
}

// NewSettings creates a settings manager backed by the process environment
func NewSettings() *Settings {
	return newSettings(os.LookupEnv)
}

func newSettings(lookup func(string) (string, bool)) *Settings {
	return &Settings{lookup: lookup, overrides: make(map[string]string)}
}

// Load reads an optional .env file into the environment and returns settings.
// A missing file is not an error.
func Load(envFilePath string) (*Settings, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFilePath, err)
		}
	}
	return NewSettings(), nil
}

func (s *Settings) get(key string) string {
	if v, ok := s.overrides[key]; ok && v != "" {
		return v
	}
	if v, ok := s.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (s *Settings) set(key, value string) {
	s.overrides[key] = value
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.get(KeyDownloadDir)
	if dir == "" {
		home, err := platform.GetHomeDownloadsDir()
		if err != nil {
			home = os.TempDir()
		}
		return filepath.Join(home, DefaultDownloadFolder)
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.set(KeyDownloadDir, dir)
}

// GetLibraryDSN returns the library store location.
// The default is a sqlite file in the user config directory.
func (s *Settings) GetLibraryDSN() string {
	dsn := s.get(KeyLibraryDSN)
	if dsn == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = os.TempDir()
		}
		return "sqlite:" + filepath.Join(base, appConfigDir, DefaultLibraryFile)
	}
	return dsn
}

// SetLibraryDSN sets the library store location
func (s *Settings) SetLibraryDSN(dsn string) {
	s.set(KeyLibraryDSN, dsn)
}

// GetYTDLPPath returns the yt-dlp executable to run
func (s *Settings) GetYTDLPPath() string {
	if p := s.get(KeyYTDLPPath); p != "" {
		return p
	}
	return DefaultYTDLPPath
}

// SetYTDLPPath sets the yt-dlp executable
func (s *Settings) SetYTDLPPath(path string) {
	s.set(KeyYTDLPPath, path)
}

// GetLogLevel returns the configured log level name
func (s *Settings) GetLogLevel() string {
	if lvl := s.get(KeyLogLevel); lvl != "" {
		return strings.ToLower(lvl)
	}
	return DefaultLogLevel
}

// SetLogLevel sets the log level name
func (s *Settings) SetLogLevel(level string) {
	s.set(KeyLogLevel, level)
}

// GetLogFormat returns "console" or "json"
func (s *Settings) GetLogFormat() string {
	switch strings.ToLower(s.get(KeyLogFormat)) {
	case "json":
		return "json"
	default:
		return DefaultLogFormat
	}
}

// GetEventBuffer returns the subscriber buffer size for the event bus
func (s *Settings) GetEventBuffer() int {
	raw := s.get(KeyEventBuffer)
	if raw == "" {
		return DefaultEventBuffer
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultEventBuffer
	}
	if value < MinEventBuffer {
		return MinEventBuffer
	}
	if value > MaxEventBuffer {
		return MaxEventBuffer
	}
	return value
}
