package model

import "time"

// LibraryRecord is the durable counterpart of a successfully completed job.
// Records are immutable once stored.
type LibraryRecord struct {
	ID        int64
	URL       string
	Title     string
	DateAdded time.Time
}

// AsCompletedJob projects a stored record into the job shape used by the
// history view. Anything persisted is complete by definition.
func (r LibraryRecord) AsCompletedJob() Job {
	return Job{
		ID:        JobID(r.ID),
		URL:       r.URL,
		Title:     r.Title,
		Progress:  100,
		Speed:     SpeedIdle,
		ETA:       ETADone,
		Status:    JobStatusCompleted,
		CreatedAt: r.DateAdded,
		UpdatedAt: r.DateAdded,
	}
}
