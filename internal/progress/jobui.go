// Package progress renders download jobs as terminal progress bars.
package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/ytget/ryt/internal/events"
	"github.com/ytget/ryt/internal/model"
)

// barTotal gives the bars a tenth-of-a-percent resolution
const barTotal = 1000

// JobUI draws one bar per active job, driven by job events.
type JobUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool

	mu   sync.Mutex
	bars map[model.JobID]*JobBar

	completed int32
	failed    int32
}

// JobBar is the bar of a single job
type JobBar struct {
	bar *mpb.Bar

	mu    sync.Mutex
	title string
	speed string
	eta   string
}

// New renders to out; bars are drawn only when isTerminal is set.
func New(out io.Writer, isTerminal bool) *JobUI {
	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}
	return &JobUI{
		progress:   p,
		out:        out,
		isTerminal: isTerminal,
		bars:       make(map[model.JobID]*JobBar),
	}
}

// Watch applies job events from ch until ctx is done or ch is closed.
// Subscribe before submitting work so no event is missed.
func (u *JobUI) Watch(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if je, ok := ev.(*events.JobEvent); ok {
				u.Apply(je.Job, je.OldStatus)
			}
		}
	}
}

// Apply renders one job state change.
func (u *JobUI) Apply(job model.Job, old model.JobStatus) {
	u.mu.Lock()
	defer u.mu.Unlock()

	fb := u.bars[job.ID]
	switch job.Status {
	case model.JobStatusDownloading:
		if fb == nil {
			fb = u.addBar(job)
			u.bars[job.ID] = fb
		}
		fb.update(job)

	case model.JobStatusCompleted:
		if old == model.JobStatusCompleted {
			return
		}
		if fb != nil && fb.bar != nil {
			fb.bar.SetCurrent(barTotal)
			fb.bar.SetTotal(barTotal, true)
		}
		delete(u.bars, job.ID)
		atomic.AddInt32(&u.completed, 1)
		u.print(fmt.Sprintf("✓ %s\n", job.DisplayTitle()))

	case model.JobStatusError:
		if old == model.JobStatusError {
			return
		}
		if fb != nil && fb.bar != nil {
			fb.bar.Abort(false)
		}
		delete(u.bars, job.ID)
		atomic.AddInt32(&u.failed, 1)
		u.print(fmt.Sprintf("✗ %s (%s)\n", job.Title, job.URL))
	}
}

func (u *JobUI) addBar(job model.Job) *JobBar {
	fb := &JobBar{}
	fb.update(job)

	if !u.isTerminal {
		u.print(fmt.Sprintf("Downloading [%d]: %s\n", job.ID, job.URL))
		return fb
	}

	fb.bar = u.progress.New(barTotal,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf("[%d] %s", job.ID, truncate(fb.label(), 40))
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				speed, eta := fb.stats()
				return fmt.Sprintf("%s  ETA %s", speed, eta)
			}, decor.WCSyncSpace),
		),
		mpb.BarRemoveOnComplete(),
	)
	return fb
}

func (u *JobUI) print(msg string) {
	if u.isTerminal {
		_, _ = u.progress.Write([]byte(msg))
		return
	}
	_, _ = io.WriteString(u.out, msg)
}

// Writer returns a writer that prints above the bars.
func (u *JobUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

// Close aborts leftover bars and waits for rendering to finish.
func (u *JobUI) Close() {
	u.mu.Lock()
	for id, fb := range u.bars {
		if fb.bar != nil {
			fb.bar.Abort(false)
		}
		delete(u.bars, id)
	}
	u.mu.Unlock()
	u.progress.Wait()
}

// Completed returns how many jobs finished successfully
func (u *JobUI) Completed() int { return int(atomic.LoadInt32(&u.completed)) }

// Failed returns how many jobs ended in error
func (u *JobUI) Failed() int { return int(atomic.LoadInt32(&u.failed)) }

func (f *JobBar) update(job model.Job) {
	f.mu.Lock()
	f.title = job.DisplayTitle()
	f.speed = job.Speed
	f.eta = job.ETA
	f.mu.Unlock()

	if f.bar != nil {
		f.bar.SetCurrent(int64(job.Progress * barTotal / 100))
	}
}

func (f *JobBar) label() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *JobBar) stats() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speed, f.eta
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
