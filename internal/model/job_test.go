package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestFormatETA(t *testing.T) {
	tests := []struct {
		etaSec   int
		expected string
	}{
		{-1, "--:--"},
		{0, "--:--"},
		{30, "00:30"},
		{90, "01:30"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{7323, "02:02:03"},
	}

	for _, test := range tests {
		result := FormatETA(test.etaSec)
		if result != test.expected {
			t.Errorf("FormatETA(%d) = %s, expected %s", test.etaSec, result, test.expected)
		}
	}
}

func TestNewJob(t *testing.T) {
	now := time.Now()
	job := NewJob(7, "https://example.com/a", now)

	if job.ID != 7 {
		t.Errorf("Expected ID 7, got %d", job.ID)
	}
	if job.Status != JobStatusDownloading {
		t.Errorf("Expected status downloading, got %s", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("Expected progress 0, got %f", job.Progress)
	}
	if job.Title != PlaceholderTitle || job.Speed != SpeedStarting || job.ETA != ETAUnknown {
		t.Errorf("Unexpected initial markers: title=%q speed=%q eta=%q", job.Title, job.Speed, job.ETA)
	}
	if !job.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt to be %v, got %v", now, job.CreatedAt)
	}
}

func TestJob_DisplayTitle(t *testing.T) {
	tests := []struct {
		title    string
		url      string
		expected string
	}{
		{"Video Title", "https://youtube.com/watch?v=123", "Video Title"},
		{PlaceholderTitle, "https://youtube.com/watch?v=123", "https://youtube.com/watch?v=123"},
		{"", "https://youtube.com/watch?v=456", "https://youtube.com/watch?v=456"},
		{PlaceholderTitle, "", PlaceholderTitle},
	}

	for _, test := range tests {
		job := Job{Title: test.title, URL: test.url}
		result := job.DisplayTitle()
		if result != test.expected {
			t.Errorf("DisplayTitle() with title='%s', url='%s' = '%s', expected '%s'",
				test.title, test.url, result, test.expected)
		}
	}
}

func TestClampProgress(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{180, 100},
		{math.NaN(), 0},
	}
	for _, test := range tests {
		if got := ClampProgress(test.in); got != test.want {
			t.Errorf("ClampProgress(%v) = %v, expected %v", test.in, got, test.want)
		}
	}
}

func TestErrorTitle(t *testing.T) {
	if got := ErrorTitle(errors.New("network unreachable")); got != "Error: network unreachable" {
		t.Errorf("unexpected error title %q", got)
	}
	if got := ErrorTitle(nil); got != "Error: unknown error" {
		t.Errorf("unexpected error title for nil %q", got)
	}
}

func TestLibraryRecord_AsCompletedJob(t *testing.T) {
	added := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := LibraryRecord{ID: 3, URL: "https://example.com/a", Title: "A", DateAdded: added}

	job := rec.AsCompletedJob()
	if job.Status != JobStatusCompleted {
		t.Errorf("Expected completed, got %s", job.Status)
	}
	if job.Progress != 100 {
		t.Errorf("Expected progress 100, got %f", job.Progress)
	}
	if job.Speed != SpeedIdle || job.ETA != ETADone {
		t.Errorf("Unexpected history markers speed=%q eta=%q", job.Speed, job.ETA)
	}
	if job.URL != rec.URL || job.Title != rec.Title || !job.CreatedAt.Equal(added) {
		t.Errorf("Record fields not carried over: %+v", job)
	}
}
