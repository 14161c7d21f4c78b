package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/ryt/internal/engine"
	"github.com/ytget/ryt/internal/events"
	"github.com/ytget/ryt/internal/logging"
	"github.com/ytget/ryt/internal/model"
)

var (
	// ErrBusy is returned while another submission or retry is in flight.
	ErrBusy = errors.New("another download is being submitted")
	// ErrJobNotFound is returned for ids absent from the active set.
	ErrJobNotFound = errors.New("job not found")
	// ErrNotRetryable is returned when retrying a job that is not in error.
	ErrNotRetryable = errors.New("job is not in an error state")
	// ErrStopped is returned when the manager loop is not running anymore.
	ErrStopped = errors.New("manager stopped")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("manager already running")
)

// Snapshot is a point-in-time view of the manager state.
type Snapshot struct {
	Active       []model.Job // most recent first
	History      []model.Job // newest first
	Busy         bool
	ClearPending bool
	HistoryErr   string
}

type jobEntry struct {
	job       model.Job
	resolved  string // last resolved title, empty if none
	titled    bool
	committed bool
	commitSeq uint64
}

// state is owned by the Run loop
type state struct {
	jobs       map[model.JobID]*jobEntry
	order      []model.JobID // newest first
	history    []model.Job
	historyErr string
}

// Manager tracks download jobs from submission to the library.
type Manager struct {
	store  LibraryStore
	engine Engine
	bus    *events.EventBus
	ownBus bool
	logger *logging.Logger
	now    func() time.Time

	nextID       atomic.Int64
	commits      atomic.Uint64
	busy         atomic.Bool
	clearPending atomic.Bool
	running      atomic.Bool
	snap         atomic.Pointer[Snapshot]

	cmds chan envelope
	quit chan struct{}
	st   state
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the base logger; a session field is added to it.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEventBus publishes job and history events on bus. The caller owns it.
func WithEventBus(bus *events.EventBus) Option {
	return func(m *Manager) {
		if bus != nil {
			m.bus = bus
			m.ownBus = false
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a manager. Call Run before any other blocking method.
func New(store LibraryStore, bridge Engine, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		engine: bridge,
		bus:    events.NewEventBus(events.DefaultBufferSize),
		ownBus: true,
		logger: logging.Nop(),
		now:    time.Now,
		cmds:   make(chan envelope),
		quit:   make(chan struct{}),
		st:     state{jobs: make(map[model.JobID]*jobEntry)},
	}
	for _, opt := range opts {
		opt(m)
	}

	session, err := uuid.NewV7()
	if err != nil {
		session = uuid.New()
	}
	m.logger = m.logger.Child(m.logger.With().Str("session", session.String()))

	m.snap.Store(&Snapshot{Active: []model.Job{}, History: []model.Job{}})
	return m
}

// Events returns the bus observers subscribe to.
func (m *Manager) Events() *events.EventBus {
	return m.bus
}

// Run consumes commands and engine events until ctx is done. It is the only
// writer of job state.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		close(m.quit)
		if m.ownBus {
			m.bus.Close()
		}
	}()

	engineEvents := m.engine.Events()
	m.logger.Debug().Msg("manager loop started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug().Msg("manager loop stopped")
			return nil
		case env := <-m.cmds:
			m.handle(env.msg)
			close(env.done)
		case ev, ok := <-engineEvents:
			if !ok {
				engineEvents = nil
				continue
			}
			m.handle(ev)
		}
	}
}

// post hands msg to the loop and waits until it has been applied.
func (m *Manager) post(ctx context.Context, msg any) error {
	env := envelope{msg: msg, done: make(chan struct{})}
	select {
	case m.cmds <- env:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.quit:
		return ErrStopped
	}
	<-env.done
	return nil
}

// Init prepares the library and loads the history projection.
func (m *Manager) Init(ctx context.Context) error {
	if err := m.store.Init(ctx); err != nil {
		return fmt.Errorf("init library: %w", err)
	}
	return m.Refresh(ctx)
}

// Submit creates a job for url and drives it to completion or error.
// A blank url is ignored. Engine and store failures end up in the job state,
// not in the returned error.
func (m *Manager) Submit(ctx context.Context, rawURL string) (model.JobID, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return 0, nil
	}
	if !m.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer m.busy.Store(false)

	id := model.JobID(m.nextID.Add(1))
	if err := m.post(ctx, createMsg{job: model.NewJob(id, url, m.now())}); err != nil {
		return 0, err
	}

	log := m.jobLogger(id)
	log.Info().Str("url", url).Msg("job submitted")

	// Once the job exists, its updates must land even if ctx is cancelled.
	settle := context.WithoutCancel(ctx)

	title, err := m.engine.ResolveTitle(ctx, url)
	if err != nil {
		log.Warn().Err(err).Msg("title resolution failed, keeping placeholder")
		title = ""
	} else if title = strings.TrimSpace(title); title != "" {
		if err := m.post(settle, titleMsg{id: id, title: title}); err != nil {
			return id, err
		}
	}

	return id, m.transfer(ctx, id, url, title)
}

// Retry resubmits an errored job under the same id.
func (m *Manager) Retry(ctx context.Context, id model.JobID) error {
	job, ok := m.Job(id)
	if !ok {
		return ErrJobNotFound
	}
	if !job.Status.CanRetry() {
		return ErrNotRetryable
	}
	if !m.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.busy.Store(false)

	reset := &resetMsg{id: id}
	if err := m.post(ctx, reset); err != nil {
		return err
	}
	if reset.err != nil {
		return reset.err
	}

	m.jobLogger(id).Info().Msg("retrying job")
	return m.transfer(ctx, id, reset.url, reset.resolved)
}

// transfer runs the download and commits it. Errors returned are loop
// delivery errors only. The outcome is posted on a context detached from
// ctx, so only a stopped loop can leave the job in downloading.
func (m *Manager) transfer(ctx context.Context, id model.JobID, url, title string) error {
	log := m.jobLogger(id)
	settle := context.WithoutCancel(ctx)

	if err := m.engine.StartDownload(ctx, id, url); err != nil {
		log.Warn().Err(err).Msg("download failed")
		return m.post(settle, failedMsg{id: id, err: err})
	}

	if title == "" {
		title = model.PlaceholderTitle
	}
	if err := m.store.Insert(ctx, url, title); err != nil {
		log.Error().Err(err).Msg("commit to library failed")
		return m.post(settle, failedMsg{id: id, err: fmt.Errorf("save to library: %w", err)})
	}

	seq := m.commits.Add(1)
	if err := m.post(settle, committedMsg{id: id, seq: seq}); err != nil {
		return err
	}
	log.Info().Str("title", title).Msg("job committed")

	listErr, err := m.refresh(settle)
	if listErr != nil {
		log.Warn().Err(listErr).Msg("refresh after commit failed")
	}
	return err
}

// Refresh rebuilds the history projection from the library.
func (m *Manager) Refresh(ctx context.Context) error {
	listErr, err := m.refresh(ctx)
	if err != nil {
		return err
	}
	return listErr
}

func (m *Manager) refresh(ctx context.Context) (listErr, err error) {
	upTo := m.commits.Load()
	records, listErr := m.store.List(ctx)
	if listErr != nil {
		listErr = fmt.Errorf("list library: %w", listErr)
		records = nil
	}
	return listErr, m.post(ctx, refreshedMsg{records: records, err: listErr, upTo: upTo})
}

// RequestClear marks a clear as awaiting confirmation.
func (m *Manager) RequestClear() {
	if m.clearPending.CompareAndSwap(false, true) {
		m.bus.PublishHistory(events.EventClearRequested, len(m.Snapshot().History), nil)
	}
}

// CancelClear drops a pending clear request.
func (m *Manager) CancelClear() {
	if m.clearPending.CompareAndSwap(true, false) {
		m.bus.PublishHistory(events.EventClearCancelled, len(m.Snapshot().History), nil)
	}
}

// ConfirmClear deletes every library record and empties the history
// projection. Active jobs are untouched. Safe to repeat.
func (m *Manager) ConfirmClear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error().Err(err).Msg("clear library failed")
		return fmt.Errorf("clear library: %w", err)
	}
	m.clearPending.Store(false)
	return m.post(ctx, clearedMsg{})
}

// Snapshot returns a copy of the latest published state. Callers own the
// returned slices.
func (m *Manager) Snapshot() Snapshot {
	s := *m.snap.Load()
	s.Active = append([]model.Job(nil), s.Active...)
	s.History = append([]model.Job(nil), s.History...)
	s.Busy = m.busy.Load()
	s.ClearPending = m.clearPending.Load()
	return s
}

// Job returns the active job with id.
func (m *Manager) Job(id model.JobID) (model.Job, bool) {
	for _, job := range m.snap.Load().Active {
		if job.ID == id {
			return job, true
		}
	}
	return model.Job{}, false
}

// OpenDownloadsFolder asks the engine to reveal its download directory.
func (m *Manager) OpenDownloadsFolder(ctx context.Context) error {
	if err := m.engine.OpenDownloadsFolder(ctx); err != nil {
		return fmt.Errorf("open downloads folder: %w", err)
	}
	return nil
}

func (m *Manager) jobLogger(id model.JobID) *logging.Logger {
	return m.logger.Child(m.logger.With().Int64("job_id", int64(id)))
}

// handle applies one message. Runs on the loop goroutine only.
func (m *Manager) handle(msg any) {
	switch msg := msg.(type) {
	case createMsg:
		m.st.jobs[msg.job.ID] = &jobEntry{job: msg.job}
		m.st.order = append([]model.JobID{msg.job.ID}, m.st.order...)
		m.publishJob(msg.job, "")

	case titleMsg:
		e := m.st.jobs[msg.id]
		if e == nil || e.titled {
			return
		}
		e.titled = true
		e.resolved = msg.title
		if e.job.Status != model.JobStatusError {
			e.job.Title = msg.title
			m.touch(e)
		}
		m.publishJob(e.job, e.job.Status)

	case engine.ProgressEvent:
		e := m.st.jobs[msg.ID]
		if e == nil || !e.job.Status.IsActive() {
			m.logger.Debug().Int64("job_id", int64(msg.ID)).Msg("dropping progress for inactive job")
			return
		}
		if p := model.ClampProgress(msg.Progress); p > e.job.Progress {
			e.job.Progress = p
		}
		if msg.Speed != "" {
			e.job.Speed = msg.Speed
		}
		if msg.ETA != "" {
			e.job.ETA = msg.ETA
		}
		m.touch(e)
		m.publishJob(e.job, e.job.Status)

	case engine.FinishedEvent:
		e := m.st.jobs[msg.ID]
		if e == nil || !e.job.Status.IsActive() {
			return
		}
		old := e.job.Status
		m.complete(e)
		m.publishJob(e.job, old)

	case failedMsg:
		e := m.st.jobs[msg.id]
		if e == nil || e.committed || e.job.Status == model.JobStatusError {
			return
		}
		old := e.job.Status
		e.job.Status = model.JobStatusError
		e.job.Title = model.ErrorTitle(msg.err)
		e.job.Speed = model.SpeedFailed
		e.job.ETA = model.ETAFailed
		m.touch(e)
		m.publishJob(e.job, old)

	case committedMsg:
		e := m.st.jobs[msg.id]
		if e == nil || e.job.Status == model.JobStatusError {
			return
		}
		old := e.job.Status
		m.complete(e)
		e.committed = true
		e.commitSeq = msg.seq
		m.publishJob(e.job, old)

	case *resetMsg:
		e := m.st.jobs[msg.id]
		switch {
		case e == nil:
			msg.err = ErrJobNotFound
			return
		case !e.job.Status.CanRetry():
			msg.err = ErrNotRetryable
			return
		}
		old := e.job.Status
		job := model.NewJob(e.job.ID, e.job.URL, e.job.CreatedAt)
		if e.resolved != "" {
			job.Title = e.resolved
		}
		job.UpdatedAt = m.now()
		e.job = job
		msg.url = job.URL
		msg.resolved = e.resolved
		m.publishJob(e.job, old)

	case refreshedMsg:
		if msg.err != nil {
			m.st.historyErr = msg.err.Error()
			m.bus.PublishHistory(events.EventHistoryRefreshed, len(m.st.history), msg.err)
			break
		}
		history := make([]model.Job, 0, len(msg.records))
		for _, rec := range msg.records {
			history = append(history, rec.AsCompletedJob())
		}
		m.st.history = history
		m.st.historyErr = ""
		m.foldCommitted(msg.upTo)
		m.bus.PublishHistory(events.EventHistoryRefreshed, len(history), nil)

	case clearedMsg:
		removed := len(m.st.history)
		m.st.history = nil
		m.st.historyErr = ""
		m.bus.PublishHistory(events.EventHistoryCleared, removed, nil)
	}

	m.publishSnapshot()
}

func (m *Manager) complete(e *jobEntry) {
	e.job.Status = model.JobStatusCompleted
	e.job.Progress = 100
	e.job.Speed = model.SpeedIdle
	e.job.ETA = model.ETADone
	m.touch(e)
}

func (m *Manager) touch(e *jobEntry) {
	e.job.UpdatedAt = m.now()
}

// foldCommitted drops jobs whose record is already part of the history.
func (m *Manager) foldCommitted(upTo uint64) {
	kept := m.st.order[:0]
	for _, id := range m.st.order {
		e := m.st.jobs[id]
		if e.committed && e.commitSeq <= upTo {
			delete(m.st.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	m.st.order = kept
}

func (m *Manager) publishJob(job model.Job, old model.JobStatus) {
	m.bus.PublishJob(job, old)
}

func (m *Manager) publishSnapshot() {
	active := make([]model.Job, 0, len(m.st.order))
	for _, id := range m.st.order {
		active = append(active, m.st.jobs[id].job)
	}
	history := make([]model.Job, len(m.st.history))
	copy(history, m.st.history)

	m.snap.Store(&Snapshot{
		Active:     active,
		History:    history,
		HistoryErr: m.st.historyErr,
	})
}
