package model

// JobStatus represents the status of a download job
type JobStatus string

const (
	// JobStatusDownloading means the engine is transferring the media
	JobStatusDownloading JobStatus = "downloading"

	// JobStatusCompleted means the transfer finished successfully
	JobStatusCompleted JobStatus = "completed"

	// JobStatusError means the transfer or its commit to the library failed
	JobStatusError JobStatus = "error"
)

// String returns the string representation of JobStatus
func (js JobStatus) String() string {
	return string(js)
}

// IsActive returns true if the job is still receiving engine events
func (js JobStatus) IsActive() bool {
	return js == JobStatusDownloading
}

// IsFinished returns true if the job is in a finished state (completed or error)
func (js JobStatus) IsFinished() bool {
	return js == JobStatusCompleted || js == JobStatusError
}

// CanRetry returns true if a user retry is allowed from this status
func (js JobStatus) CanRetry() bool {
	return js == JobStatusError
}
