package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

func TestNew_NilFeed(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) expected error, got nil")
	}
}

func TestNew_Defaults(t *testing.T) {
	feed, _, _ := newTestFeed(t, false)
	w, err := New(feed)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", w.interval, DefaultInterval)
	}
}

func TestWatcher_ProcessesExistingAndAppendedScans(t *testing.T) {
	feed, reg, path := newTestFeed(t, false)
	appendFeed(t, path, `{"x":1,"z":1,"structures":["chest","chest"]}`+"\n")

	var mu sync.Mutex
	passes := 0
	w, err := New(feed, WithInterval(20*time.Millisecond), OnPass(func(Stats) {
		mu.Lock()
		passes++
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !reg.Contains(region.New(1, 1)) {
		t.Error("existing scan should be processed on Start")
	}

	appendFeed(t, path, `{"x":2,"z":2,"structures":["chest","chest","chest"]}`+"\n")

	deadline := time.Now().Add(2 * time.Second)
	for !reg.Contains(region.New(2, 2)) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !reg.Contains(region.New(2, 2)) {
		t.Error("appended scan was not picked up")
	}

	// unterminated last line is consumed by the final flush
	appendFeed(t, path, `{"x":3,"z":3,"structures":["chest","chest"]}`)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !reg.Contains(region.New(3, 3)) {
		t.Error("Stop() should flush the unterminated line")
	}

	totals := w.Totals()
	if totals.Discovered() != 3 {
		t.Errorf("Totals().Discovered() = %d, want 3", totals.Discovered())
	}
	mu.Lock()
	defer mu.Unlock()
	if passes < 2 {
		t.Errorf("OnPass called %d times, want at least 2", passes)
	}
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	feed, _, _ := newTestFeed(t, false)
	w, err := New(feed)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() before Start() error = %v, want nil", err)
	}
}

func TestWatcher_PassDrainsBacklogInBatches(t *testing.T) {
	feed, reg, path := newTestFeed(t, false)
	writeRegions(t, path, maxFeedLinesPerPass+5)

	var batches []int
	w, err := New(feed, OnPass(func(s Stats) { batches = append(batches, s.Lines) }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	w.runPass(false)

	if reg.Len() != maxFeedLinesPerPass+5 {
		t.Errorf("registry len = %d, want %d", reg.Len(), maxFeedLinesPerPass+5)
	}
	if len(batches) != 2 || batches[0] != maxFeedLinesPerPass || batches[1] != 5 {
		t.Errorf("batches = %v, want [%d 5]", batches, maxFeedLinesPerPass)
	}
	if got := w.Totals().Lines; got != maxFeedLinesPerPass+5 {
		t.Errorf("Totals().Lines = %d, want %d", got, maxFeedLinesPerPass+5)
	}
}
