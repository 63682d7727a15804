package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const spinnerInterval = 120 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// writerIsTTY reports whether w is a file backed by a terminal.
func writerIsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}

// Spinner shows that a long operation is running. Feed passes report their
// running totals through Update, so a scan reads as
//
//	⠹ Scanning regions... (2500 lines, 14 stashes)
//
// On a writer that is not a terminal the label is printed once and counts
// are not shown.
type Spinner struct {
	label string
	out   io.Writer

	mu      sync.Mutex
	lines   int
	found   int
	active  bool
	drawn   int
	stopped chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner returns a stopped spinner writing to stdout.
func NewSpinner(label string) *Spinner {
	return &Spinner{label: label, out: os.Stdout}
}

// SetWriter redirects output. It must be called before Start.
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	s.out = w
	s.mu.Unlock()
}

// Update records the lines read and stashes found so far. It has the shape
// of watcher.FeedOptions.Progress and may be called before Start.
func (s *Spinner) Update(lines, found int) {
	s.mu.Lock()
	s.lines, s.found = lines, found
	s.mu.Unlock()
}

func (s *Spinner) status() string {
	if s.lines == 0 {
		return s.label
	}
	noun := "stashes"
	if s.found == 1 {
		noun = "stash"
	}
	return fmt.Sprintf("%s (%d lines, %d %s)", s.label, s.lines, s.found, noun)
}

// Start begins drawing. Calling Start on a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true

	if !writerIsTTY(s.out) {
		fmt.Fprintln(s.out, s.label)
		return
	}

	s.stopped = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.stopped)
}

func (s *Spinner) loop(stopped <-chan struct{}) {
	defer s.wg.Done()
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for frame := 0; ; frame++ {
		s.mu.Lock()
		line := spinnerFrames[frame%len(spinnerFrames)] + " " + s.status()
		pad := s.drawn - len(line)
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(s.out, "\r%s%s", line, strings.Repeat(" ", pad))
		s.drawn = len(line)
		s.mu.Unlock()

		select {
		case <-stopped:
			return
		case <-tick.C:
		}
	}
}

// Stop ends the animation and erases the spinner line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	stopped := s.stopped
	s.mu.Unlock()

	if stopped == nil {
		return
	}
	close(stopped)
	s.wg.Wait()

	s.mu.Lock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.drawn))
	s.drawn = 0
	s.stopped = nil
	s.mu.Unlock()
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	fmt.Fprintln(s.out, message)
	s.mu.Unlock()
}
