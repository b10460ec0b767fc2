package monitor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/untoldecay/tup/internal/storage/sqlite"
	"github.com/untoldecay/tup/internal/types"
)

func setupMonitor(t *testing.T) (*Monitor, *sqlite.Storage, string) {
	t.Helper()

	root := t.TempDir()
	ctx := context.Background()
	store, err := sqlite.New(ctx, filepath.Join(root, "db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m, err := New(store, root)
	if err != nil {
		t.Fatalf("failed to create monitor: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, store, root
}

func TestEventFlagsKnownFile(t *testing.T) {
	m, store, root := setupMonitor(t)
	ctx := context.Background()

	id, err := store.CreateNode(ctx, 0, "f.c", types.TypeFile, types.FlagsNone)
	if err != nil {
		t.Fatal(err)
	}

	if !m.handleEvent(fsnotify.Event{Name: filepath.Join(root, "f.c"), Op: fsnotify.Write}) {
		t.Fatal("write event was ignored")
	}
	if err := m.flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	dbn, err := store.NodeByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if dbn.Flags != types.FlagsModify {
		t.Errorf("flags = %v, want modify", dbn.Flags)
	}
}

func TestRemoveEventFlagsDelete(t *testing.T) {
	m, store, root := setupMonitor(t)
	ctx := context.Background()

	id, err := store.CreateNode(ctx, 0, "stale", types.TypeFile, types.FlagsNone)
	if err != nil {
		t.Fatal(err)
	}

	if !m.handleEvent(fsnotify.Event{Name: filepath.Join(root, "stale"), Op: fsnotify.Remove}) {
		t.Fatal("remove event was ignored")
	}
	if err := m.flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	dbn, err := store.NodeByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if dbn.Flags != types.FlagsDelete {
		t.Errorf("flags = %v, want delete", dbn.Flags)
	}
}

func TestEventFilters(t *testing.T) {
	m, _, root := setupMonitor(t)

	tests := []struct {
		name string
		ev   fsnotify.Event
	}{
		{"tup metadata", fsnotify.Event{Name: filepath.Join(root, ".tup", "db"), Op: fsnotify.Write}},
		{"git metadata", fsnotify.Event{Name: filepath.Join(root, ".git", "HEAD"), Op: fsnotify.Write}},
		{"outside the root", fsnotify.Event{Name: "/etc/hosts", Op: fsnotify.Write}},
		{"chmod only", fsnotify.Event{Name: filepath.Join(root, "f.c"), Op: fsnotify.Chmod}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m.handleEvent(tt.ev) {
				t.Errorf("event %v should be ignored", tt.ev)
			}
		})
	}
}

func TestUnknownPathIgnoredOnFlush(t *testing.T) {
	m, _, root := setupMonitor(t)

	if !m.handleEvent(fsnotify.Event{Name: filepath.Join(root, "untracked"), Op: fsnotify.Write}) {
		t.Fatal("write event was ignored")
	}
	if err := m.flush(context.Background()); err != nil {
		t.Fatalf("flush failed on untracked path: %v", err)
	}
}
