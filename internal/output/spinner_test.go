package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestSpinner_NonTTYPrintsOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Scanning regions...")
	s.SetWriter(buf)

	s.Start()
	s.Start() // second start is a no-op
	s.Update(500, 3)
	s.StopWithMessage("✓ Done")

	out := buf.String()
	if strings.Count(out, "Scanning regions...") != 1 {
		t.Errorf("label should be printed once on non-TTY, got %q", out)
	}
	if strings.Contains(out, "500 lines") {
		t.Errorf("counts should not be written to a non-TTY, got %q", out)
	}
	if !strings.HasSuffix(out, "✓ Done\n") {
		t.Errorf("final message missing, got %q", out)
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("x")
	s.SetWriter(buf)
	s.Update(10, 1)
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("Stop() without Start() should write nothing, got %q", buf.String())
	}
}

func TestSpinner_StatusShowsFeedCounts(t *testing.T) {
	s := NewSpinner("Scanning regions...")
	if got := s.status(); got != "Scanning regions..." {
		t.Errorf("status before any update = %q", got)
	}

	tests := []struct {
		lines, found int
		want         string
	}{
		{250, 0, "Scanning regions... (250 lines, 0 stashes)"},
		{500, 1, "Scanning regions... (500 lines, 1 stash)"},
		{10250, 42, "Scanning regions... (10250 lines, 42 stashes)"},
	}
	for _, tt := range tests {
		s.Update(tt.lines, tt.found)
		if got := s.status(); got != tt.want {
			t.Errorf("Update(%d, %d): status = %q, want %q", tt.lines, tt.found, got, tt.want)
		}
	}
}
