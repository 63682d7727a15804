package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/metrics"
	"github.com/blackwell-systems/stashfinder/internal/output"
	"github.com/blackwell-systems/stashfinder/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchKeep        bool
	watchInterval    time.Duration
	watchMetricsAddr string

	watchCmd = &cobra.Command{
		Use:   "watch <feed>",
		Short: "Follow a region scan feed as it grows",
		Long: `Follow a JSON Lines scan feed and register stashes as the scanner
appends regions to it.

Writes to the feed are picked up through filesystem events, with a periodic
poll as a fallback. The stash list is saved when the watcher stops.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon

With --keep the read position in the feed is remembered between runs, so a
restarted watcher only sees regions appended since it stopped. Without it
the stash list starts empty and the feed is read from the beginning.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  stashfinder watch scans.jsonl

  # Run as background daemon
  stashfinder watch --daemon scans.jsonl

  # Stop running daemon
  stashfinder watch --stop

  # Expose Prometheus metrics
  stashfinder watch --metrics-addr :9090 scans.jsonl`,
		Args: func(cmd *cobra.Command, args []string) error {
			if watchStop {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.stashfinder/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.stashfinder/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().BoolVar(&watchKeep, "keep", false, "keep stashes and feed position from earlier runs")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", watcher.DefaultInterval, "poll interval when no file events arrive")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchStop {
		return stopWatchDaemon(cmd.OutOrStdout())
	}

	feedPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve feed path: %w", err)
	}

	if watchDaemon {
		return startWatchDaemon(cmd.OutOrStdout(), feedPath)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	s.activate(watchKeep)

	collector, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	collector.SetStashes(s.registry.Len())

	out := cmd.OutOrStdout()
	feed, err := watcher.NewFeed(feedPath, s.controller(out, "watch", collector), watcher.FeedOptions{
		Thresholds:  s.thresholds,
		Aliases:     s.aliases(),
		Logger:      s.log,
		TrackOffset: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	if !watchKeep {
		if err := feed.ResetOffset(); err != nil {
			return fmt.Errorf("failed to reset feed position: %w", err)
		}
	}

	w, err := watcher.New(feed,
		watcher.WithInterval(watchInterval),
		watcher.WithLogger(s.log),
		watcher.OnPass(func(stats watcher.Stats) {
			if err := s.store.AddScanStats(stats.Outcomes); err != nil {
				s.log.Warn("failed to record scan stats", logging.Err(err))
			}
			if stats.Discovered() == 0 {
				return
			}
			// Save as we go so a killed watcher loses little.
			if err := s.save(); err != nil {
				s.log.Error("failed to save stashes", logging.Err(err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if watchMetricsAddr != "" {
		srv := serveMetrics(watchMetricsAddr, collector, s.log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	if watchDaemonChild {
		if err := w.RunDaemon(watchPIDFile); err != nil {
			return err
		}
		return s.save()
	}

	return runWatchForeground(out, w, s)
}

func stopWatchDaemon(out io.Writer) error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner("Stopping daemon...")
	spinner.SetWriter(out)
	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")

	return nil
}

// daemonChildArgs rebuilds the command line for the detached child so it
// sees the same paths and options as the parent.
func daemonChildArgs(feedPath string) []string {
	args := []string{"watch", "--daemon-child",
		"--pid-file", watchPIDFile,
		"--interval", watchInterval.String(),
	}
	if watchKeep {
		args = append(args, "--keep")
	}
	if watchMetricsAddr != "" {
		args = append(args, "--metrics-addr", watchMetricsAddr)
	}
	if statePath != "" {
		args = append(args, "--state", statePath)
	}
	if dbPath != "" {
		args = append(args, "--db", dbPath)
	}
	if configDir != "" {
		args = append(args, "--config-dir", configDir)
	}
	return append(args, feedPath)
}

func startWatchDaemon(out io.Writer, feedPath string) error {
	spinner := output.NewSpinner("Starting daemon...")
	spinner.SetWriter(out)
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, daemonChildArgs(feedPath)); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Fprintf(out, "\nStash watcher started\n")
	fmt.Fprintf(out, "  Feed:     %s\n", feedPath)
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: stashfinder watch --stop\n")

	return nil
}

func runWatchForeground(out io.Writer, w *watcher.Watcher, s *session) error {
	fmt.Fprintln(out, "Watching for stashes (press Ctrl+C to stop)...")
	fmt.Fprintln(out)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-sigCh

	fmt.Fprintln(out)
	spinner := output.NewSpinner("Stopping watcher...")
	spinner.SetWriter(out)
	spinner.Start()
	if err := w.Stop(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	if err := s.save(); err != nil {
		spinner.Stop()
		return err
	}
	spinner.StopWithMessage("✓ Stashes saved")

	totals := w.Totals()
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderScanSummary(totals.Lines, totals.Malformed, totals.Outcomes))
	fmt.Fprintf(out, "\n%s registered.\n", stashCount(s.registry.Len()))
	return nil
}

// serveMetrics starts an HTTP server exposing the collector. Listen errors
// are logged; the watcher keeps running without metrics.
func serveMetrics(addr string, c *metrics.Collector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", logging.String("addr", addr), logging.Err(err))
		}
	}()
	log.Info("serving metrics", logging.String("addr", addr))
	return srv
}
