package progress

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ytget/ryt/internal/events"
	"github.com/ytget/ryt/internal/model"
)

func TestApply_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	ui := New(&buf, false)

	job := model.NewJob(1, "https://example.com/a", time.Now())
	ui.Apply(job, "")
	job.Progress = 40
	ui.Apply(job, model.JobStatusDownloading)

	done := job
	done.Title = "My Video"
	done.Status = model.JobStatusCompleted
	ui.Apply(done, model.JobStatusDownloading)
	ui.Apply(done, model.JobStatusCompleted)

	failed := model.NewJob(2, "https://example.com/b", time.Now())
	ui.Apply(failed, "")
	failed.Status = model.JobStatusError
	failed.Title = "Error: boom"
	ui.Apply(failed, model.JobStatusDownloading)
	ui.Close()

	out := buf.String()
	for _, want := range []string{
		"Downloading [1]: https://example.com/a",
		"✓ My Video",
		"✗ Error: boom (https://example.com/b)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Count(out, "✓") != 1 {
		t.Errorf("expected a single completion line, got:\n%s", out)
	}
	if ui.Completed() != 1 || ui.Failed() != 1 {
		t.Errorf("expected 1 completed and 1 failed, got %d and %d", ui.Completed(), ui.Failed())
	}
}

func TestApply_RetryStartsNewLine(t *testing.T) {
	var buf bytes.Buffer
	ui := New(&buf, false)

	job := model.NewJob(3, "https://example.com/c", time.Now())
	ui.Apply(job, "")
	job.Status = model.JobStatusError
	ui.Apply(job, model.JobStatusDownloading)

	retried := model.NewJob(3, "https://example.com/c", time.Now())
	ui.Apply(retried, model.JobStatusError)
	ui.Close()

	if n := strings.Count(buf.String(), "Downloading [3]"); n != 2 {
		t.Errorf("expected two start lines, got %d:\n%s", n, buf.String())
	}
}

func TestWatch(t *testing.T) {
	var buf bytes.Buffer
	ui := New(&buf, false)
	bus := events.NewEventBus(16)

	ch := bus.Subscribe(events.EventJobUpdated)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ui.Watch(ctx, ch)
		close(done)
	}()

	job := model.NewJob(1, "https://example.com/a", time.Now())
	job.Status = model.JobStatusCompleted
	job.Title = "Done Video"
	bus.PublishJob(job, model.JobStatusDownloading)

	deadline := time.Now().Add(time.Second)
	for ui.Completed() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	ui.Close()

	if !strings.Contains(buf.String(), "✓ Done Video") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("expected abcd…, got %q", got)
	}
}
