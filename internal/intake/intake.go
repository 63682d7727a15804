// Package intake routes region scans through evaluation into the registry
// and announces new discoveries.
package intake

import (
	"fmt"

	"github.com/blackwell-systems/stashfinder/internal/config"
	"github.com/blackwell-systems/stashfinder/internal/logging"
	"github.com/blackwell-systems/stashfinder/internal/metrics"
	"github.com/blackwell-systems/stashfinder/internal/notify"
	"github.com/blackwell-systems/stashfinder/internal/region"
	"github.com/blackwell-systems/stashfinder/internal/registry"
	"github.com/blackwell-systems/stashfinder/internal/scanner"
)

// Event is one decoded region scan.
type Event struct {
	Pos        region.ID
	Structures []region.StructureType
	// Fresh is false when the host re-delivers a region that was already
	// loaded; such events are ignored.
	Fresh bool
}

// Outcome is the result of processing one event.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeNotQualified
	OutcomeDuplicate
	OutcomeDiscovered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeNotQualified:
		return "not_qualified"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeDiscovered:
		return "discovered"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Recorder keeps a history of discoveries.
type Recorder interface {
	RecordDiscovery(rec region.Record, source string) error
}

// Controller wires scans to the evaluator, the registry and the notifier.
// It holds no per-scan state; the registry is the only state carried
// between calls.
type Controller struct {
	registry *registry.Registry
	notifier notify.Notifier
	recorder Recorder
	metrics  *metrics.Collector
	log      logging.Logger
	source   string
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder records every new discovery.
func WithRecorder(r Recorder) Option { return func(c *Controller) { c.recorder = r } }

// WithMetrics reports scan outcomes and registry size.
func WithMetrics(m *metrics.Collector) Option { return func(c *Controller) { c.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(c *Controller) { c.log = l } }

// WithSource names where events come from in recorded history.
func WithSource(source string) Option { return func(c *Controller) { c.source = source } }

// New creates a Controller for reg. A nil notifier disables notifications.
func New(reg *registry.Registry, n notify.Notifier, opts ...Option) *Controller {
	c := &Controller{
		registry: reg,
		notifier: n,
		log:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the controller inserts into.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

// OnScan processes one scan. A region that is already registered is left
// untouched, including its stored count, and is not announced again.
func (c *Controller) OnScan(ev Event, th config.Thresholds) Outcome {
	outcome := c.process(ev, th)
	c.metrics.ObserveScan(outcome.String())
	return outcome
}

func (c *Controller) process(ev Event, th config.Thresholds) Outcome {
	if !ev.Fresh {
		return OutcomeIgnored
	}

	res := scanner.Evaluate(ev.Pos, ev.Structures, th)
	if !res.Qualified {
		return OutcomeNotQualified
	}

	rec := region.Record{Pos: ev.Pos, StorageCount: res.Count}
	if !c.registry.TryInsert(rec) {
		c.log.Debug("stash already registered", logging.String("pos", ev.Pos.String()), logging.Int("count", res.Count))
		return OutcomeDuplicate
	}

	c.metrics.SetStashes(c.registry.Len())
	c.log.Info("stash discovered", logging.String("pos", ev.Pos.String()), logging.Int("count", rec.StorageCount))

	if c.recorder != nil {
		if err := c.recorder.RecordDiscovery(rec, c.source); err != nil {
			c.log.Warn("failed to record discovery", logging.String("pos", ev.Pos.String()), logging.Err(err))
		}
	}

	if th.Notify {
		c.announce(rec, th.NotifyMode)
	}
	return OutcomeDiscovered
}

func (c *Controller) announce(rec region.Record, mode config.NotifyMode) {
	if c.notifier == nil {
		return
	}
	msg := Message(rec)

	var channels []notify.Channel
	if mode.Chat() {
		channels = append(channels, notify.Chat)
	}
	if mode.Popup() {
		channels = append(channels, notify.Popup)
	}

	for _, ch := range channels {
		err := c.notifier.Notify(ch, msg)
		c.metrics.ObserveNotification(ch.String(), err)
		if err != nil {
			c.log.Warn("notification failed", logging.String("channel", ch.String()), logging.Err(err))
		}
	}
}

// Message formats the discovery announcement for rec.
func Message(rec region.Record) string {
	return fmt.Sprintf("Found chunk %s with %d storage blocks.", rec.Pos, rec.StorageCount)
}
