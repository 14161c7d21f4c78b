package download

import "github.com/ytget/ryt/internal/model"

// Messages consumed by the manager loop. Engine events (engine.ProgressEvent,
// engine.FinishedEvent) are handled alongside them.

type createMsg struct {
	job model.Job
}

type titleMsg struct {
	id    model.JobID
	title string
}

type failedMsg struct {
	id  model.JobID
	err error
}

type committedMsg struct {
	id  model.JobID
	seq uint64
}

type refreshedMsg struct {
	records []model.LibraryRecord
	err     error
	upTo    uint64 // commits with seq <= upTo are visible in records
}

type clearedMsg struct{}

// resetMsg moves an errored job back to downloading. The loop fills in the
// result fields before acknowledging.
type resetMsg struct {
	id model.JobID

	url      string
	resolved string
	err      error
}

type envelope struct {
	msg  any
	done chan struct{}
}
