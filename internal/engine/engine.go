// Package engine defines the boundary between the job manager and the
// external program that actually fetches media.
package engine

import (
	"context"

	"github.com/ytget/ryt/internal/model"
)

// Event is a message emitted by an engine about one job.
type Event interface {
	JobID() model.JobID
}

// ProgressEvent reports transfer progress for a job.
type ProgressEvent struct {
	ID       model.JobID
	Progress float64 // percent, 0 to 100
	Speed    string
	ETA      string
}

func (e ProgressEvent) JobID() model.JobID { return e.ID }

// FinishedEvent is emitted once per job whose transfer succeeded.
type FinishedEvent struct {
	ID model.JobID
}

func (e FinishedEvent) JobID() model.JobID { return e.ID }

// Bridge is the contract an engine implementation satisfies.
type Bridge interface {
	// ResolveTitle fetches the human readable title for url.
	ResolveTitle(ctx context.Context, url string) (string, error)
	// StartDownload runs the transfer for id and returns when it has finished or failed.
	StartDownload(ctx context.Context, id model.JobID, url string) error
	// Events streams progress and completion events. Events for one id arrive in order.
	Events() <-chan Event
	// OpenDownloadsFolder reveals the downloads directory in the system file manager.
	OpenDownloadsFolder(ctx context.Context) error
}
