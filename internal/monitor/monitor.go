// Package monitor watches the project tree and stamps pending-work
// flags on database nodes as files change, so the next `tup upd` only
// looks at what actually moved.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/untoldecay/tup/internal/config"
	"github.com/untoldecay/tup/internal/debug"
	"github.com/untoldecay/tup/internal/storage"
	"github.com/untoldecay/tup/internal/storage/sqlite"
	"github.com/untoldecay/tup/internal/types"
)

var dbg = debug.Channel("tup.monitor")

// Monitor tails filesystem events under a project root and translates
// them into node flags.
type Monitor struct {
	store    storage.Store
	watcher  *fsnotify.Watcher
	root     string
	debounce time.Duration

	// pending maps a relative path to the flag it should receive,
	// collapsed per debounce window.
	pending map[string]types.Flags
}

// New creates a monitor rooted at root. Every directory under the
// root is watched, except .tup and VCS metadata.
func New(store storage.Store, root string) (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	m := &Monitor{
		store:    store,
		watcher:  w,
		root:     root,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]types.Flags),
	}
	if d := config.GetDuration("monitor.debounce"); d > 0 {
		m.debounce = d
	}
	if err := m.watchTree(root); err != nil {
		w.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the underlying watcher.
func (m *Monitor) Close() error {
	return m.watcher.Close()
}

func skipDir(name string) bool {
	return name == config.TupDir || name == ".git" || name == ".hg" || name == ".svn"
}

func (m *Monitor) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := m.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		dbg.Logf("watching %s\n", path)
		return nil
	})
}

// Run processes events until ctx is cancelled. Flag writes are
// debounced: a burst of writes to one file becomes one MODIFY.
func (m *Monitor) Run(ctx context.Context) error {
	var flush <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return m.flush(context.WithoutCancel(ctx))
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if m.handleEvent(ev) && flush == nil {
				flush = time.After(m.debounce)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		case <-flush:
			flush = nil
			if err := m.flush(ctx); err != nil {
				return err
			}
		}
	}
}

// handleEvent records the flag a path should get. Returns false for
// events the monitor ignores.
func (m *Monitor) handleEvent(ev fsnotify.Event) bool {
	rel, err := filepath.Rel(m.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if skipDir(part) {
			return false
		}
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		// A new directory needs watching; a new file is a
		// modification as far as dependents are concerned.
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := m.watchTree(ev.Name); err != nil {
				dbg.Logf("watch %s: %v\n", ev.Name, err)
			}
			return false
		}
		m.pending[rel] = types.FlagsModify
	case ev.Op.Has(fsnotify.Write):
		m.pending[rel] = types.FlagsModify
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		m.pending[rel] = types.FlagsDelete
	default:
		return false
	}
	dbg.Logf("%s -> %v\n", rel, m.pending[rel])
	return true
}

// flush writes the collected flags to the database. Paths with no
// node are ignored: the build doesn't know them.
func (m *Monitor) flush(ctx context.Context) error {
	for rel, flags := range m.pending {
		delete(m.pending, rel)
		dbn, err := m.store.NodeByName(ctx, rel)
		if errors.Is(err, sqlite.ErrNodeNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if dbn.Type != types.TypeFile {
			continue
		}
		if err := m.store.SetFlagsByID(ctx, dbn.ID, flags); err != nil {
			return err
		}
	}
	return nil
}
