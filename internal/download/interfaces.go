package download

import (
	"context"

	"github.com/ytget/ryt/internal/engine"
	"github.com/ytget/ryt/internal/model"
)

// LibraryStore is the subset of the library the manager depends on.
type LibraryStore interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, url, title string) error
	List(ctx context.Context) ([]model.LibraryRecord, error)
	Clear(ctx context.Context) error
}

// Engine is the download engine the manager drives.
type Engine interface {
	ResolveTitle(ctx context.Context, url string) (string, error)
	StartDownload(ctx context.Context, id model.JobID, url string) error
	Events() <-chan engine.Event
	OpenDownloadsFolder(ctx context.Context) error
}
