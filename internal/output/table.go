// Package output provides terminal output utilities for stashfinder.
//
// This package includes:
//   - Table rendering for ranked stashes, discovery history and snapshots
//   - A summary block for feed processing results
//   - A spinner that shows running feed counts during long operations
//
// ANSI colour is only emitted when stdout is a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/stashfinder/internal/region"
	"github.com/blackwell-systems/stashfinder/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// Storage counts at or above these are highlighted.
const (
	hotCount  = 50
	warmCount = 20
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

func densityColor(count int) string {
	switch {
	case count >= hotCount:
		return colorRed
	case count >= warmCount:
		return colorYellow
	default:
		return colorGreen
	}
}

// RenderStashTable renders the ranked stash list. Records are expected in
// ranked order. A positive limit truncates the table.
func RenderStashTable(records []region.Record, limit int) string {
	if len(records) == 0 {
		return "No stashes found.\n"
	}

	shown := records
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-20s %-9s %-18s %s\n", "Rank", "Chunk", "Storages", "Block (x, z)", "Distance"))
	sb.WriteString(strings.Repeat("─", 66))
	sb.WriteString("\n")

	for i, rec := range shown {
		bx, bz := rec.Pos.BlockCenter()
		count := fmt.Sprintf("%-9d", rec.StorageCount)
		sb.WriteString(fmt.Sprintf("%-5d %-20s %s %-18s %s\n",
			i+1,
			truncate(rec.Pos.String(), 20),
			colorize(densityColor(rec.StorageCount), count),
			fmt.Sprintf("%d, %d", bx, bz),
			formatDistance(bx, bz)))
	}

	if len(shown) < len(records) {
		sb.WriteString(colorize(colorGray, fmt.Sprintf("… %d more (use --limit 0 to show all)\n", len(records)-len(shown))))
	}

	return sb.String()
}

// RenderHistoryTable renders recorded discoveries, newest first. When listed
// is non-nil, regions it reports as still in the stash list are ticked.
func RenderHistoryTable(discoveries []*store.Discovery, listed func(region.ID) bool) string {
	if len(discoveries) == 0 {
		return "No discoveries recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %-9s %-15s %-7s %-9s %s\n", "Chunk", "Storages", "Found", "Source", "Run", "Listed"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, d := range discoveries {
		run := d.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		mark := ""
		if listed != nil && listed(d.Pos) {
			mark = colorize(colorGreen, "✓")
		}
		sb.WriteString(fmt.Sprintf("%-20s %-9d %-15s %-7s %s %s\n",
			truncate(d.Pos.String(), 20),
			d.StorageCount,
			formatRelativeTime(d.DiscoveredAt),
			truncate(d.Source, 7),
			colorize(colorGray, fmt.Sprintf("%-9s", run)),
			mark))
	}

	return sb.String()
}

// RenderSnapshotTable renders stash list snapshots, newest first.
func RenderSnapshotTable(snapshots []*store.Snapshot) string {
	if len(snapshots) == 0 {
		return "No snapshots found.\n"
	}

	sorted := make([]*store.Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-17s %-9s %s\n", "ID", "Created", "Stashes", "Reason"))
	sb.WriteString(strings.Repeat("─", 50))
	sb.WriteString("\n")

	for _, snap := range sorted {
		sb.WriteString(fmt.Sprintf("%-5d %-17s %-9d %s\n",
			snap.ID,
			formatRelativeTime(snap.CreatedAt),
			snap.StashCount,
			truncate(snap.Reason, 20)))
	}

	return sb.String()
}

// RenderScanSummary renders the result of processing a feed.
func RenderScanSummary(lines, malformed int, outcomes map[string]int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Processed %d line(s)\n", lines))

	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		label := strings.ReplaceAll(k, "_", " ")
		value := fmt.Sprintf("%d", outcomes[k])
		if k == "discovered" && outcomes[k] > 0 {
			value = colorize(colorGreen, value)
		}
		sb.WriteString(fmt.Sprintf("  %-15s %s\n", label+":", value))
	}
	if malformed > 0 {
		sb.WriteString(fmt.Sprintf("  %-15s %s\n", "malformed:", colorize(colorYellow, fmt.Sprintf("%d", malformed))))
	}

	return sb.String()
}

// formatDistance renders the block distance from the origin.
func formatDistance(x, z int) string {
	d := int(math.Hypot(float64(x), float64(z)))
	switch {
	case d >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(d)/1_000_000)
	case d >= 10_000:
		return fmt.Sprintf("%.1fk", float64(d)/1_000)
	default:
		return fmt.Sprintf("%d", d)
	}
}

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate shortens s to maxLen runes, ending with "…" when cut.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
