package watcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blackwell-systems/stashfinder/internal/config"
	"github.com/blackwell-systems/stashfinder/internal/intake"
	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/region"
)

const maxFeedLinesPerPass = 10_000

// progressEvery is how many lines pass between Progress callbacks.
const progressEvery = 250

// Stats summarizes one or more passes over the feed.
type Stats struct {
	Lines     int
	Malformed int
	Outcomes  map[string]int
}

func (s *Stats) add(outcome intake.Outcome) {
	if s.Outcomes == nil {
		s.Outcomes = make(map[string]int)
	}
	s.Outcomes[outcome.String()]++
}

// Merge adds other into s.
func (s *Stats) Merge(other Stats) {
	s.Lines += other.Lines
	s.Malformed += other.Malformed
	for k, v := range other.Outcomes {
		if s.Outcomes == nil {
			s.Outcomes = make(map[string]int)
		}
		s.Outcomes[k] += v
	}
}

// Discovered returns the number of new stashes found.
func (s Stats) Discovered() int {
	return s.Outcomes[intake.OutcomeDiscovered.String()]
}

// FeedOptions configures a Feed.
type FeedOptions struct {
	// Thresholds is called once per pass so edits to the config file take
	// effect without a restart. Defaults to config.Defaults.
	Thresholds func() config.Thresholds
	Aliases    *config.AliasConfig
	Logger     logging.Logger
	// TrackOffset persists the read position next to the feed so a
	// restarted watcher resumes where it stopped.
	TrackOffset bool
	// Progress, when set, receives running totals while a pass or Flush
	// is reading.
	Progress func(lines, discovered int)
}

// Feed reads region scans from a JSON Lines file, one scan per line:
//
//	{"x":10,"z":-3,"structures":["chest","chest","furnace"],"fresh":true}
//
// "fresh" defaults to true. Malformed lines are logged and skipped.
type Feed struct {
	mu         sync.Mutex
	path       string
	offsetPath string
	offset     int64
	ctrl       *intake.Controller
	opts       FeedOptions
}

// NewFeed creates a Feed for path delivering scans to ctrl.
func NewFeed(path string, ctrl *intake.Controller, opts FeedOptions) (*Feed, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("controller cannot be nil")
	}
	if opts.Thresholds == nil {
		opts.Thresholds = config.Defaults
	}
	if opts.Logger == nil {
		opts.Logger = logging.Noop()
	}

	f := &Feed{
		path:       path,
		offsetPath: filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".offset"),
		ctrl:       ctrl,
		opts:       opts,
	}

	if opts.TrackOffset {
		offset, err := readOffset(f.offsetPath)
		if err != nil {
			return nil, fmt.Errorf("feed: read offset: %w", err)
		}
		f.offset = offset
	}
	return f, nil
}

// Path returns the feed file path.
func (f *Feed) Path() string { return f.path }

// Offset returns the byte offset of the next unread line.
func (f *Feed) Offset() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset
}

// ResetOffset makes the next pass start from the beginning of the feed.
func (f *Feed) ResetOffset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.offset = 0
	if !f.opts.TrackOffset {
		return nil
	}
	if err := os.Remove(f.offsetPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("feed: remove offset: %w", err)
	}
	return nil
}

// Process handles the complete lines written since the last pass, at most
// maxFeedLinesPerPass of them. A trailing line without a newline is left for
// the next pass, since the writer may still be appending to it. A missing
// feed is not an error.
func (f *Feed) Process() (Stats, error) {
	return f.pass(false, Stats{})
}

// Flush reads the feed to its end, including a trailing unterminated line.
// Use it for the final pass over a feed that is no longer being written.
func (f *Feed) Flush() (Stats, error) {
	var total Stats
	for {
		stats, err := f.pass(true, total)
		total.Merge(stats)
		if err != nil || stats.Lines < maxFeedLinesPerPass {
			return total, err
		}
	}
}

// full reports whether a pass stopped at the line cap, leaving lines unread.
func (s Stats) full() bool {
	return s.Lines >= maxFeedLinesPerPass
}

func (f *Feed) pass(final bool, prior Stats) (Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stats Stats
	log := f.opts.Logger

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("feed: open: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return stats, fmt.Errorf("feed: stat: %w", err)
	}
	if f.offset > info.Size() {
		// Feed was truncated or rotated.
		log.Warn("feed shrank, restarting from the beginning",
			logging.String("feed", f.path), logging.Any("offset", f.offset), logging.Any("size", info.Size()))
		f.offset = 0
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return stats, fmt.Errorf("feed: seek: %w", err)
	}

	th := f.opts.Thresholds()
	offset := f.offset
	reader := bufio.NewReader(file)

	for stats.Lines < maxFeedLinesPerPass {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, fmt.Errorf("feed: read: %w", err)
		}
		if len(line) == 0 {
			break
		}
		complete := line[len(line)-1] == '\n'
		if !complete && !final {
			break
		}

		offset += int64(len(line))
		stats.Lines++

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			ev, ok := parseFeedLine(trimmed, f.opts.Aliases)
			if !ok {
				stats.Malformed++
				log.Warn("skipping malformed feed line", logging.String("line", string(trimmed)))
			} else {
				stats.add(f.ctrl.OnScan(ev, th))
			}
		}
		if f.opts.Progress != nil && stats.Lines%progressEvery == 0 {
			f.opts.Progress(prior.Lines+stats.Lines, prior.Discovered()+stats.Discovered())
		}

		if !complete {
			break
		}
	}

	if f.opts.Progress != nil && stats.Lines%progressEvery != 0 {
		f.opts.Progress(prior.Lines+stats.Lines, prior.Discovered()+stats.Discovered())
	}

	if offset != f.offset {
		f.offset = offset
		if f.opts.TrackOffset {
			if err := writeOffsetAtomic(f.offsetPath, offset); err != nil {
				return stats, fmt.Errorf("feed: %w", err)
			}
		}
	}
	return stats, nil
}

type feedLine struct {
	X          *int     `json:"x"`
	Z          *int     `json:"z"`
	Structures []string `json:"structures"`
	Fresh      *bool    `json:"fresh"`
}

// parseFeedLine decodes one feed line. Returns false when the line is not a
// JSON object with both coordinates.
func parseFeedLine(line []byte, aliases *config.AliasConfig) (intake.Event, bool) {
	var fl feedLine
	if err := json.Unmarshal(line, &fl); err != nil {
		return intake.Event{}, false
	}
	if fl.X == nil || fl.Z == nil {
		return intake.Event{}, false
	}

	ev := intake.Event{
		Pos:        region.New(*fl.X, *fl.Z),
		Structures: make([]region.StructureType, 0, len(fl.Structures)),
		Fresh:      fl.Fresh == nil || *fl.Fresh,
	}
	for _, s := range fl.Structures {
		ev.Structures = append(ev.Structures, aliases.Resolve(region.ParseStructureType(s)))
	}
	return ev, true
}

// readOffset reads the byte offset from the offset tracking file.
// Returns 0 if the file does not exist.
func readOffset(offsetPath string) (int64, error) {
	data, err := os.ReadFile(offsetPath)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	offset, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse offset %q: %w", s, err)
	}
	return offset, nil
}

// writeOffsetAtomic writes offset to offsetPath via a temp-file rename.
func writeOffsetAtomic(offsetPath string, offset int64) error {
	tmpPath := offsetPath + ".tmp"

	if err := os.WriteFile(tmpPath, []byte(strconv.FormatInt(offset, 10)), 0600); err != nil {
		return fmt.Errorf("write temp offset file: %w", err)
	}
	if err := os.Rename(tmpPath, offsetPath); err != nil {
		return fmt.Errorf("rename offset file: %w", err)
	}
	return nil
}
