// Package builder loads the create plugin: a shared object exporting a
// single Create entry point that, given a directory name, registers
// that directory's commands and file-links in the build database. The
// plugin opens its own database connection; the updater holds the
// update lock for the whole run, so both sides see consistent state.
package builder

import (
	"fmt"
	"plugin"
)

// Func is the create entry point. It receives the directory's name and
// mutates the database to reflect its current build rules.
type Func func(dir string) error

// Load opens the shared object at path and resolves its Create symbol.
func Load(path string) (Func, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load builder %q: %w", path, err)
	}
	sym, err := p.Lookup("Create")
	if err != nil {
		return nil, fmt.Errorf("couldn't find 'Create' symbol in builder %q: %w", path, err)
	}
	switch fn := sym.(type) {
	case func(string) error:
		return fn, nil
	case *func(string) error:
		return *fn, nil
	}
	return nil, fmt.Errorf("builder %q: 'Create' has wrong type %T", path, sym)
}
