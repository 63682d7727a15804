package output

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/stashfinder/internal/region"
	"github.com/blackwell-systems/stashfinder/internal/store"
)

func TestRenderStashTable_Empty(t *testing.T) {
	if got := RenderStashTable(nil, 0); got != "No stashes found.\n" {
		t.Errorf("RenderStashTable(nil) = %q", got)
	}
}

func TestRenderStashTable_Rows(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	records := []region.Record{
		{Pos: region.New(-200, 77), StorageCount: 31},
		{Pos: region.New(10, -3), StorageCount: 4},
	}
	out := RenderStashTable(records, 0)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), out)
	}
	for _, h := range []string{"Rank", "Chunk", "Storages", "Distance"} {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header missing %q: %q", h, lines[0])
		}
	}
	if !strings.HasPrefix(lines[2], "1") || !strings.Contains(lines[2], "-200, 77") || !strings.Contains(lines[2], "31") {
		t.Errorf("first row = %q", lines[2])
	}
	if !strings.Contains(lines[3], "10, -3") || !strings.Contains(lines[3], "168, -40") {
		t.Errorf("second row = %q", lines[3])
	}
	if strings.Contains(out, "\033[") {
		t.Error("NO_COLOR output must not contain ANSI codes")
	}
}

func TestRenderStashTable_Limit(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	records := []region.Record{
		{Pos: region.New(1, 1), StorageCount: 9},
		{Pos: region.New(2, 2), StorageCount: 8},
		{Pos: region.New(3, 3), StorageCount: 7},
	}
	out := RenderStashTable(records, 2)
	if strings.Contains(out, "3, 3") {
		t.Errorf("limited table should not include third row:\n%s", out)
	}
	if !strings.Contains(out, "1 more") {
		t.Errorf("limited table should mention hidden rows:\n%s", out)
	}
}

func TestRenderHistoryTable(t *testing.T) {
	if got := RenderHistoryTable(nil, nil); got != "No discoveries recorded.\n" {
		t.Errorf("RenderHistoryTable(nil) = %q", got)
	}

	listed := func(id region.ID) bool { return id == region.New(5, 6) }
	out := RenderHistoryTable([]*store.Discovery{
		{Pos: region.New(5, 6), StorageCount: 12, DiscoveredAt: time.Now().Add(-2 * time.Hour), Source: "watch", RunID: "0f8e4c2a-1b7d-4e55-9a0c-6f3b2d1e8c90"},
		{Pos: region.New(7, 7), StorageCount: 4, DiscoveredAt: time.Now().Add(-3 * time.Hour), Source: "scan"},
	}, listed)
	for _, want := range []string{"5, 6", "12", "2 hours ago", "watch", "0f8e4c2a"} {
		if !strings.Contains(out, want) {
			t.Errorf("history table missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "✓") != 1 {
		t.Errorf("expected exactly one listed mark:\n%s", out)
	}
}

func TestRenderSnapshotTable(t *testing.T) {
	if got := RenderSnapshotTable(nil); got != "No snapshots found.\n" {
		t.Errorf("RenderSnapshotTable(nil) = %q", got)
	}

	now := time.Now()
	out := RenderSnapshotTable([]*store.Snapshot{
		{ID: 1, CreatedAt: now.Add(-48 * time.Hour), Reason: "clear", StashCount: 3},
		{ID: 2, CreatedAt: now.Add(-time.Minute), Reason: "import", StashCount: 9},
	})
	first := strings.Index(out, "import")
	second := strings.Index(out, "clear")
	if first < 0 || second < 0 || first > second {
		t.Errorf("snapshots should be newest first:\n%s", out)
	}
}

func TestRenderScanSummary(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := RenderScanSummary(7, 1, map[string]int{"discovered": 2, "not_qualified": 4})
	for _, want := range []string{"Processed 7 line(s)", "discovered:", "not qualified:", "malformed:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		x, z int
		want string
	}{
		{3, 4, "5"},
		{30000, 40000, "50.0k"},
		{0, 2_500_000, "2.5M"},
	}
	for _, tt := range tests {
		if got := formatDistance(tt.x, tt.z); got != tt.want {
			t.Errorf("formatDistance(%d, %d) = %q, want %q", tt.x, tt.z, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-1 * time.Minute), "1 minute ago"},
		{now.Add(-5 * time.Hour), "5 hours ago"},
		{now.Add(-3 * 24 * time.Hour), "3 days ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.t); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate long = %q", got)
	}
}
