// Package config provides configuration file parsing for stashfinder.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

// FileName is the name of the thresholds file inside the config directory.
const FileName = "config"

// Config keys understood by Load and Set.
const (
	KeyStorageBlocks    = "storage-blocks"
	KeyMinimumCount     = "minimum-storage-count"
	KeyMinimumDistance  = "minimum-distance"
	KeyNotifications    = "notifications"
	KeyNotificationMode = "notification-mode"
)

// Keys lists every recognized key in file order.
var Keys = []string{KeyStorageBlocks, KeyMinimumCount, KeyMinimumDistance, KeyNotifications, KeyNotificationMode}

// NotifyMode selects where discovery notifications are delivered.
type NotifyMode string

const (
	NotifyChat  NotifyMode = "chat"
	NotifyPopup NotifyMode = "popup"
	NotifyBoth  NotifyMode = "both"
)

// ParseNotifyMode parses a notification mode name. "notification" and
// "toast" are accepted as aliases for popup.
func ParseNotifyMode(s string) (NotifyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat":
		return NotifyChat, nil
	case "popup", "notification", "toast":
		return NotifyPopup, nil
	case "both":
		return NotifyBoth, nil
	}
	return "", fmt.Errorf("unknown notification mode %q (want chat, popup or both)", s)
}

// Chat reports whether the mode includes chat delivery.
func (m NotifyMode) Chat() bool { return m == NotifyChat || m == NotifyBoth }

// Popup reports whether the mode includes popup delivery.
func (m NotifyMode) Popup() bool { return m == NotifyPopup || m == NotifyBoth }

// Thresholds is the snapshot of settings consumed when evaluating a scan.
// Values are not range checked: an out-of-range number produces a filter
// that never or always qualifies.
type Thresholds struct {
	MatchTypes      map[region.StructureType]bool
	MinimumCount    int
	MinimumDistance int
	Notify          bool
	NotifyMode      NotifyMode
}

// Defaults returns the thresholds used when no config file exists.
func Defaults() Thresholds {
	return Thresholds{
		MatchTypes:      NewTypeSet(region.StorageTypes...),
		MinimumCount:    4,
		MinimumDistance: 0,
		Notify:          true,
		NotifyMode:      NotifyBoth,
	}
}

// NewTypeSet builds a match set from the given structure types.
func NewTypeSet(types ...region.StructureType) map[region.StructureType]bool {
	set := make(map[region.StructureType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Matches reports whether t is one of the configured match types.
func (th Thresholds) Matches(t region.StructureType) bool {
	return th.MatchTypes[t]
}

// SortedTypes returns the match types in lexical order.
func (th Thresholds) SortedTypes() []region.StructureType {
	types := make([]region.StructureType, 0, len(th.MatchTypes))
	for t, ok := range th.MatchTypes {
		if ok {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Dir returns the stashfinder config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/stashfinder if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "stashfinder"), nil
}

// Rejected is a config line whose value Set refused.
type Rejected struct {
	Line  int
	Key   string
	Value string
	Err   error
}

// Load reads the thresholds file at {dir}/config. A missing file yields
// Defaults() without an error. Unknown keys and invalid values are skipped,
// leaving the default for that key in place, and are returned as rejected.
func Load(dir string) (Thresholds, []Rejected, error) {
	th := Defaults()

	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return th, nil, nil
		}
		return th, nil, err
	}
	defer f.Close()

	var rejected []Rejected
	err = readPairs(f, func(line int, key, value string) {
		if err := th.Set(key, value); err != nil {
			rejected = append(rejected, Rejected{Line: line, Key: key, Value: value, Err: err})
		}
	})
	return th, rejected, err
}

// Set applies a single key/value pair to th.
func (th *Thresholds) Set(key, value string) error {
	switch key {
	case KeyStorageBlocks:
		set := make(map[region.StructureType]bool)
		for _, part := range strings.Split(value, ",") {
			if t := region.ParseStructureType(part); t != "" {
				set[t] = true
			}
		}
		th.MatchTypes = set
	case KeyMinimumCount:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if n < 1 {
			return fmt.Errorf("invalid %s %d: must be at least 1", key, n)
		}
		th.MinimumCount = n
	case KeyMinimumDistance:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if n < 0 {
			return fmt.Errorf("invalid %s %d: must not be negative", key, n)
		}
		th.MinimumDistance = n
	case KeyNotifications:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		th.Notify = b
	case KeyNotificationMode:
		m, err := ParseNotifyMode(value)
		if err != nil {
			return err
		}
		th.NotifyMode = m
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Get renders the current value of key in file syntax.
func (th Thresholds) Get(key string) (string, error) {
	switch key {
	case KeyStorageBlocks:
		types := th.SortedTypes()
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = string(t)
		}
		return strings.Join(names, ","), nil
	case KeyMinimumCount:
		return strconv.Itoa(th.MinimumCount), nil
	case KeyMinimumDistance:
		return strconv.Itoa(th.MinimumDistance), nil
	case KeyNotifications:
		return strconv.FormatBool(th.Notify), nil
	case KeyNotificationMode:
		return string(th.NotifyMode), nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// Save writes th to {dir}/config, creating dir if needed.
func Save(dir string, th Thresholds) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# stashfinder thresholds\n")
	for _, key := range Keys {
		value, _ := th.Get(key)
		fmt.Fprintf(&sb, "%s = %s\n", key, value)
	}

	path := filepath.Join(dir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// readPairs calls fn for every "key = value" line in r with its 1-based
// line number. Blank lines, comments and lines without a key or value are
// skipped.
func readPairs(r io.Reader, fn func(line int, key, value string)) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || value == "" {
			continue
		}

		fn(lineNo, key, value)
	}
	return scanner.Err()
}
