package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(old)
	})
}

func TestProjectRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, TupDir), 0o755); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	chdir(t, sub)
	got, err := ProjectRoot()
	if err != nil {
		t.Fatalf("ProjectRoot failed: %v", err)
	}
	// Compare resolved paths; TempDir may sit behind a symlink.
	want, _ := filepath.EvalSymlinks(root)
	gotReal, _ := filepath.EvalSymlinks(got)
	if gotReal != want {
		t.Errorf("ProjectRoot = %q, want %q", gotReal, want)
	}
}

func TestProjectRootMissing(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := ProjectRoot(); !errors.Is(err, ErrNoProject) {
		t.Errorf("err = %v, want ErrNoProject", err)
	}
}

func TestInitializeDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if GetBool("no-color") {
		t.Error("no-color default should be false")
	}
	if GetDuration("monitor.debounce") <= 0 {
		t.Error("monitor.debounce default missing")
	}
}
