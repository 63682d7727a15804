package app

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/blackwell-systems/stashfinder/internal/codec"
	"github.com/blackwell-systems/stashfinder/internal/config"
	"github.com/blackwell-systems/stashfinder/internal/intake"
	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/metrics"
	"github.com/blackwell-systems/stashfinder/internal/notify"
	"github.com/blackwell-systems/stashfinder/internal/registry"
	"github.com/blackwell-systems/stashfinder/internal/snapshots"
	"github.com/blackwell-systems/stashfinder/internal/store"
)

// session is one activation of the stash finder: the registry loaded from
// the state file, the history store and the configuration directory.
type session struct {
	runID     string
	statePath string
	configDir string
	registry  *registry.Registry
	store     *store.Store
	log       logging.Logger

	// rejected config lines already warned about
	warned map[string]bool
}

// openSession loads the persisted registry and opens the history store.
func openSession() (*session, error) {
	path, err := getStatePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get state path: %w", err)
	}
	cfgDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	dbFile, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	db, err := store.New(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	runID := uuid.NewString()
	log := logging.NewFromEnv().With(logging.String("run", runID))
	reg := registry.New()
	reg.ReplaceAll(codec.LoadFile(path, log))

	return &session{
		runID:     runID,
		statePath: path,
		configDir: cfgDir,
		registry:  reg,
		store:     db,
		log:       log,
		warned:    make(map[string]bool),
	}, nil
}

// activate starts a discovery run. Unless keep is set the registry starts
// empty, so every region in the run is announced afresh.
func (s *session) activate(keep bool) {
	if !keep {
		s.registry.Clear()
	}
}

// thresholds re-reads the config file. A broken file falls back to the
// defaults for the unreadable keys. Each rejected line is logged once per
// session.
func (s *session) thresholds() config.Thresholds {
	th, rejected, err := config.Load(s.configDir)
	if err != nil {
		s.log.Warn("failed to read config, using defaults", logging.String("dir", s.configDir), logging.Err(err))
	}
	for _, r := range rejected {
		id := fmt.Sprintf("%d:%s=%s", r.Line, r.Key, r.Value)
		if s.warned[id] {
			continue
		}
		s.warned[id] = true
		s.log.Warn("ignoring config line",
			logging.Int("line", r.Line), logging.String("key", r.Key), logging.String("value", r.Value), logging.Err(r.Err))
	}
	return th
}

// aliases loads the structure alias file.
func (s *session) aliases() *config.AliasConfig {
	a, err := config.LoadAliases(s.configDir)
	if err != nil {
		s.log.Warn("failed to read aliases", logging.String("dir", s.configDir), logging.Err(err))
	}
	return a
}

// controller builds an intake controller that announces on w.
func (s *session) controller(w io.Writer, source string, m *metrics.Collector) *intake.Controller {
	return intake.New(s.registry, notify.NewConsole(w),
		intake.WithRecorder(s.store.ForRun(s.runID)),
		intake.WithLogger(s.log),
		intake.WithMetrics(m),
		intake.WithSource(source),
	)
}

// snapshots returns the snapshot manager. Snapshot files live next to the
// state file.
func (s *session) snapshots() *snapshots.Manager {
	return snapshots.New(s.store, filepath.Join(filepath.Dir(s.statePath), "snapshots"))
}

// backup snapshots the current registry before it is replaced and prunes
// expired snapshots. It returns the snapshot ID, 0 when the registry was
// empty.
func (s *session) backup(reason string) (int64, error) {
	mgr := s.snapshots()
	id, err := mgr.CreateSnapshot(s.registry.Snapshot(), reason)
	if err != nil {
		return 0, fmt.Errorf("failed to create snapshot: %w", err)
	}
	if n, err := mgr.CleanupOldSnapshots(); err != nil {
		s.log.Warn("failed to clean up old snapshots", logging.Err(err))
	} else if n > 0 {
		s.log.Debug("removed old snapshots", logging.Int("count", n))
	}
	return id, nil
}

// save writes the registry back to the state file.
func (s *session) save() error {
	if err := codec.SaveFile(s.statePath, s.registry.Snapshot()); err != nil {
		return fmt.Errorf("failed to save stashes: %w", err)
	}
	return nil
}

func (s *session) close() {
	if s.store != nil {
		s.store.Close()
	}
}
