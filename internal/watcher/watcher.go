package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/stashfinder/internal/logging"
)

// DefaultInterval is how often the feed is polled when no filesystem event
// arrives.
const DefaultInterval = 30 * time.Second

// Watcher follows a Feed. Writes to the feed file trigger a pass through
// fsnotify; a ticker also polls the feed as a fallback for filesystems that
// do not deliver events.
type Watcher struct {
	feed     *Feed
	log      logging.Logger
	interval time.Duration
	onPass   func(Stats)

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
	ticker *time.Ticker

	mu    sync.Mutex
	total Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling fallback interval.
func WithInterval(d time.Duration) Option { return func(w *Watcher) { w.interval = d } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(w *Watcher) { w.log = l } }

// OnPass registers a callback invoked after every pass that consumed lines.
func OnPass(fn func(Stats)) Option { return func(w *Watcher) { w.onPass = fn } }

// New creates a new Watcher for feed.
func New(feed *Feed, opts ...Option) (*Watcher, error) {
	if feed == nil {
		return nil, fmt.Errorf("feed cannot be nil")
	}
	w := &Watcher{
		feed:     feed,
		log:      logging.Noop(),
		interval: DefaultInterval,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start processes what is already in the feed and then follows it.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}
	// Watch the directory so the feed may be created or replaced later.
	if err := fsw.Add(filepath.Dir(w.feed.Path())); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.feed.Path()), err)
	}
	w.fsw = fsw

	w.runPass(false)

	w.ticker = time.NewTicker(w.interval)

	w.wg.Add(1)
	go w.run()

	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	feedPath := filepath.Clean(w.feed.Path())

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != feedPath {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.runPass(false)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("fs watcher error", logging.Err(err))
		case <-w.ticker.C:
			w.runPass(false)
		case <-w.stopCh:
			w.runPass(true)
			return
		}
	}
}

func (w *Watcher) runPass(final bool) {
	if final {
		stats, err := w.feed.Flush()
		w.record(stats, err)
		return
	}
	// A backlog larger than one batch is drained in batches, so onPass can
	// save between them.
	for {
		stats, err := w.feed.Process()
		w.record(stats, err)
		if err != nil || !stats.full() {
			return
		}
	}
}

func (w *Watcher) record(stats Stats, err error) {
	if err != nil {
		w.log.Error("feed processing error", logging.String("feed", w.feed.Path()), logging.Err(err))
	}
	if stats.Lines == 0 {
		return
	}

	w.mu.Lock()
	w.total.Merge(stats)
	w.mu.Unlock()

	w.log.Debug("feed pass", logging.Int("lines", stats.Lines), logging.Int("discovered", stats.Discovered()))
	if w.onPass != nil {
		w.onPass(stats)
	}
}

// Totals returns the stats accumulated since Start.
func (w *Watcher) Totals() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out Stats
	out.Merge(w.total)
	return out
}

// Stop halts the watcher after a final pass over the feed.
func (w *Watcher) Stop() error {
	close(w.stopCh)

	if w.ticker != nil {
		w.ticker.Stop()
	}

	w.wg.Wait()

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
