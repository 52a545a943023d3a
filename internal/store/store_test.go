package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestForTeam_UsesConfigDir(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("RETROQUEST_CONFIG_DIR", cfgDir)

	s, err := ForTeam("  team-awesome ")
	if err != nil {
		t.Fatalf("ForTeam: %v", err)
	}
	want := filepath.Join(cfgDir, "teams", "team-awesome")
	if s.Dir != want {
		t.Fatalf("expected dir %q, got %q", want, s.Dir)
	}
	if err := s.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if fi, err := os.Stat(want); err != nil || !fi.IsDir() {
		t.Fatalf("expected team dir to exist: %v", err)
	}
}
