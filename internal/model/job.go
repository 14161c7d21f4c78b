package model

import (
	"fmt"
	"strings"
	"time"
)

// JobID identifies a job for its whole in-memory lifetime. It is also the
// correlation key carried by every engine event.
type JobID int64

// Display markers shown while a job moves through its lifecycle
const (
	PlaceholderTitle = "Fetching Info..."
	SpeedStarting    = "Starting..."
	SpeedIdle        = "-"
	SpeedFailed      = "Failed"
	ETAUnknown       = "--:--"
	ETADone          = "Done"
	ETAFailed        = ""
	ErrorTitlePrefix = "Error: "
)

// Job represents a single download attempt tracked by the lifecycle manager
type Job struct {
	ID        JobID
	URL       string
	Title     string
	Progress  float64 // 0 to 100
	Speed     string  // human readable speed (e.g., "1.2MB/s")
	ETA       string  // human readable ETA (e.g., "00:10")
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJob returns a job in its initial downloading state
func NewJob(id JobID, url string, now time.Time) Job {
	return Job{
		ID:        id,
		URL:       url,
		Title:     PlaceholderTitle,
		Progress:  0,
		Speed:     SpeedStarting,
		ETA:       ETAUnknown,
		Status:    JobStatusDownloading,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ErrorTitle formats the title shown for a failed job
func ErrorTitle(err error) string {
	if err == nil {
		return ErrorTitlePrefix + "unknown error"
	}
	return ErrorTitlePrefix + err.Error()
}

// ClampProgress bounds a percentage to the 0..100 range
func ClampProgress(p float64) float64 {
	if p != p || p < 0 { // NaN or negative
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// FormatETA returns seconds formatted as hh:mm:ss (or mm:ss), or ETAUnknown if not positive
func FormatETA(etaSec int) string {
	if etaSec <= 0 {
		return ETAUnknown
	}

	hours := etaSec / 3600
	minutes := (etaSec % 3600) / 60
	seconds := etaSec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// DisplayTitle returns the title, or the URL while the title is still a placeholder
func (j Job) DisplayTitle() string {
	if j.Title != "" && j.Title != PlaceholderTitle {
		return j.Title
	}
	if j.URL == "" {
		return j.Title
	}
	return j.URL
}

// Failed reports whether the job title carries an error summary
func (j Job) Failed() bool {
	return j.Status == JobStatusError && strings.HasPrefix(j.Title, ErrorTitlePrefix)
}
