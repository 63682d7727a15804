package app

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "stashfinder" {
		t.Errorf("expected Use to be 'stashfinder', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	commands := RootCmd.Commands()

	expectedCommands := []string{"scan", "watch", "list", "clear", "history", "import", "undo", "config"}
	foundCommands := make(map[string]bool)

	for _, cmd := range commands {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"state", "db", "config-dir"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestGetStatePath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	oldStatePath := statePath
	defer func() { statePath = oldStatePath }()

	statePath = ""
	path, err := getStatePath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".stashfinder", "stashes.json")) {
		t.Errorf("expected default state path under ~/.stashfinder, got %s", path)
	}

	statePath = "/tmp/custom.json"
	path, err = getStatePath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/tmp/custom.json" {
		t.Errorf("expected flag value to win, got %s", path)
	}
}

func TestGetDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	oldDBPath := dbPath
	defer func() { dbPath = oldDBPath }()

	dbPath = ""
	path, err := getDBPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "history.db" {
		t.Errorf("expected default db name history.db, got %s", path)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	oldConfigDir := configDir
	defer func() { configDir = oldConfigDir }()

	configDir = ""
	dir, err := getConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != filepath.Join(xdg, "stashfinder") {
		t.Errorf("expected %s, got %s", filepath.Join(xdg, "stashfinder"), dir)
	}
}

func TestRootCommandRunPrintsHint(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs([]string{})
	defer func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	}()

	if err := Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "stashfinder scan") {
		t.Errorf("expected hint about scan, got %q", buf.String())
	}
}
