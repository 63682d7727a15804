// Package watcher feeds region scans from a JSON Lines file into the stash
// registry.
//
// A scanning host appends one decoded region scan per line to the feed.
// A Feed reads the lines written since its last pass and hands each scan to
// the intake controller. A Watcher follows the feed with fsnotify and a
// polling fallback.
//
// Key features:
//   - Partial trailing lines are left for the next pass
//   - Crash-safe offset tracking (temp file + rename pattern)
//   - Thresholds are re-read on every pass
//   - Daemon mode support with PID file management
//   - Graceful shutdown with SIGTERM/SIGINT handling
//
// Example usage:
//
//	reg := registry.New()
//	ctrl := intake.New(reg, notify.NewConsole(os.Stdout))
//
//	feed, err := watcher.NewFeed("scans.jsonl", ctrl, watcher.FeedOptions{TrackOffset: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	w, err := watcher.New(feed)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
