// Package enginetest provides a scripted engine bridge for tests.
package enginetest

import (
	"context"
	"sync"

	"github.com/ytget/ryt/internal/engine"
	"github.com/ytget/ryt/internal/model"
)

// Start records one StartDownload call
type Start struct {
	ID  model.JobID
	URL string
}

// Engine is an in-memory engine.Bridge. Its event channel is unbuffered, so
// Emit returns only once the consumer has received the event.
type Engine struct {
	mu         sync.Mutex
	titles     map[string]string
	titleErrs  map[string]error
	startErrs  map[string][]error
	gates      map[string]chan struct{}
	starts     []Start
	opened     int
	openErr    error
	noFinished bool

	events chan engine.Event
}

var _ engine.Bridge = (*Engine)(nil)

// New returns an engine whose downloads succeed by default.
func New() *Engine {
	return &Engine{
		titles:    make(map[string]string),
		titleErrs: make(map[string]error),
		startErrs: make(map[string][]error),
		gates:     make(map[string]chan struct{}),
		events:    make(chan engine.Event),
	}
}

// SetTitle scripts the title resolved for url
func (e *Engine) SetTitle(url, title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.titles[url] = title
}

// SetTitleError makes title resolution for url fail
func (e *Engine) SetTitleError(url string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.titleErrs[url] = err
}

// FailStart queues errors returned by successive StartDownload calls for url.
// A nil entry means that attempt succeeds.
func (e *Engine) FailStart(url string, errs ...error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startErrs[url] = append(e.startErrs[url], errs...)
}

// Gate blocks StartDownload for url until the returned release func is called.
func (e *Engine) Gate(url string) (release func()) {
	ch := make(chan struct{})
	e.mu.Lock()
	e.gates[url] = ch
	e.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// SkipFinished stops successful downloads from emitting a FinishedEvent
func (e *Engine) SkipFinished() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.noFinished = true
}

// SetOpenError scripts the OpenDownloadsFolder result
func (e *Engine) SetOpenError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.openErr = err
}

// Emit delivers ev to the consumer, blocking until it is received.
func (e *Engine) Emit(ctx context.Context, ev engine.Event) error {
	select {
	case e.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Starts returns every StartDownload call in order
func (e *Engine) Starts() []Start {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Start, len(e.starts))
	copy(out, e.starts)
	return out
}

// OpenCount reports how many times the downloads folder was opened
func (e *Engine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened
}

func (e *Engine) ResolveTitle(ctx context.Context, url string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.titleErrs[url]; err != nil {
		return "", err
	}
	if title, ok := e.titles[url]; ok {
		return title, nil
	}
	return url, nil
}

func (e *Engine) StartDownload(ctx context.Context, id model.JobID, url string) error {
	e.mu.Lock()
	e.starts = append(e.starts, Start{ID: id, URL: url})
	gate := e.gates[url]
	var err error
	if queued := e.startErrs[url]; len(queued) > 0 {
		err, e.startErrs[url] = queued[0], queued[1:]
	}
	skip := e.noFinished
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	if skip {
		return nil
	}
	return e.Emit(ctx, engine.FinishedEvent{ID: id})
}

func (e *Engine) Events() <-chan engine.Event {
	return e.events
}

func (e *Engine) OpenDownloadsFolder(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened++
	return e.openErr
}
