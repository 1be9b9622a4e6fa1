package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTrackerLifecycle(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()

	job := tracker.Create("https://example.com")
	if job.ID == "" {
		t.Fatal("Create() returned empty ID")
	}
	if job.State != StateQueued {
		t.Errorf("initial state = %q, want %q", job.State, StateQueued)
	}

	tracker.Progress(job.ID, 40, "captured origin")
	got, err := tracker.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StateRunning || got.Percent != 40 || got.Message != "captured origin" {
		t.Errorf("after Progress: %+v", got)
	}

	tracker.Complete(job.ID, "/tmp/result.pdf")
	got, err = tracker.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StateDone || got.Percent != 100 || got.ResultPath != "/tmp/result.pdf" {
		t.Errorf("after Complete: %+v", got)
	}
}

func TestTrackerFail(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	job := tracker.Create("https://example.com")

	tracker.Fail(job.ID, "navigation failed")
	got, err := tracker.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StateFailed || got.Error != "navigation failed" {
		t.Errorf("after Fail: %+v", got)
	}
}

func TestTrackerUnknownID(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	if _, err := tracker.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}

	// Updates to unknown jobs are ignored, never panic.
	tracker.Progress("nope", 50, "x")
	tracker.Complete("nope", "/tmp/x")
	tracker.Fail("nope", "x")
}

func TestTrackerUniqueIDs(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job := tracker.Create("https://example.com")
		if seen[job.ID] {
			t.Fatalf("duplicate job ID %s", job.ID)
		}
		seen[job.ID] = true
	}
}

func TestTrackerSweep(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()

	done := tracker.Create("https://example.com/done")
	tracker.Complete(done.ID, "/tmp/a.pdf")
	failed := tracker.Create("https://example.com/failed")
	tracker.Fail(failed.ID, "boom")
	running := tracker.Create("https://example.com/running")
	tracker.Progress(running.ID, 10, "working")

	time.Sleep(20 * time.Millisecond)

	if removed := tracker.Sweep(10 * time.Millisecond); removed != 2 {
		t.Errorf("Sweep() removed %d jobs, want 2", removed)
	}

	if _, err := tracker.Get(done.ID); !errors.Is(err, ErrNotFound) {
		t.Error("done job survived sweep")
	}
	if _, err := tracker.Get(failed.ID); !errors.Is(err, ErrNotFound) {
		t.Error("failed job survived sweep")
	}
	if _, err := tracker.Get(running.ID); err != nil {
		t.Error("running job was swept")
	}

	// Fresh terminal jobs stay.
	fresh := tracker.Create("https://example.com/fresh")
	tracker.Complete(fresh.ID, "/tmp/b.pdf")
	if removed := tracker.Sweep(time.Hour); removed != 0 {
		t.Errorf("Sweep(1h) removed %d jobs, want 0", removed)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	job := tracker.Create("https://example.com")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tracker.Progress(job.ID, n, "step")
			_, _ = tracker.Get(job.ID)
		}(i)
	}
	wg.Wait()

	got, err := tracker.Get(job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StateRunning {
		t.Errorf("state = %q, want %q", got.State, StateRunning)
	}
}
