// Package updater brings the build tree up to date: it re-runs the
// create phase for directories whose rules changed, builds the
// dependency graph of everything affected by pending flags, and
// executes that graph in dependency order, deleting obsolete
// artifacts along the way.
package updater

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/untoldecay/tup/internal/builder"
	"github.com/untoldecay/tup/internal/debug"
	"github.com/untoldecay/tup/internal/graph"
	"github.com/untoldecay/tup/internal/types"
)

var dbg = debug.Channel("tup.updater")

// DB is the slice of the build database the updater consumes.
// *sqlite.Storage satisfies it.
type DB interface {
	ConfigGetInt(ctx context.Context, key string) (int, error)
	SelectNodeByFlags(ctx context.Context, mask types.Flags, cb types.NodeFunc) error
	SelectNodeByLink(ctx context.Context, id types.TupID, cb types.NodeFunc) error
	SelectNodeByCmdlink(ctx context.Context, id types.TupID, cb types.NodeFunc) error
	SetCmdchildFlags(ctx context.Context, dir types.TupID, flags types.Flags) error
	SetFlagsByID(ctx context.Context, id types.TupID, flags types.Flags) error
	CreateDupNode(ctx context.Context, name string, typ types.NodeType, flags types.Flags) (types.TupID, error)
	MoveCmdlink(ctx context.Context, old, new types.TupID) error
	DeleteNameFile(ctx context.Context, id types.TupID) error
}

// Updater runs one update pass over the database. It is single-use:
// create one per run.
type Updater struct {
	// Dir is the project root; commands run there and file names
	// resolve against it. Empty means the current directory.
	Dir string

	// Out and ErrOut receive command echo, progress, and error
	// notices. They default to stdout/stderr.
	Out    io.Writer
	ErrOut io.Writer

	db           DB
	create       builder.Func
	showProgress bool
}

// New returns an updater over db whose create phase calls create.
func New(db DB, create builder.Func) *Updater {
	return &Updater{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		db:     db,
		create: create,
	}
}

// Run sequences the three phases: create, build, execute. The caller
// must already hold the update lock.
func (u *Updater) Run(ctx context.Context) error {
	show, err := u.db.ConfigGetInt(ctx, "show_progress")
	if err != nil {
		return err
	}
	u.showProgress = show != 0

	if err := u.runCreatePhase(ctx); err != nil {
		return err
	}
	g, err := u.buildGraph(ctx)
	if err != nil {
		return err
	}
	return u.executeGraph(ctx, g)
}

type nameEntry struct {
	id   types.TupID
	name string
}

// runCreatePhase re-evaluates the build rules of every CREATE-flagged
// directory. The work list is collected up front: create() mutates
// the node table being iterated, so the query must be fully drained
// before the first call.
func (u *Updater) runCreatePhase(ctx context.Context) error {
	// Single pass: directories that create() itself flags CREATE stay
	// flagged and are picked up by the next run.
	var namelist []nameEntry
	err := u.db.SelectNodeByFlags(ctx, types.FlagsCreate, func(dbn *types.DBNode) error {
		namelist = append(namelist, nameEntry{dbn.ID, dbn.Name})

		// Move all existing commands over to delete - the ones
		// re-declared by create() get pulled back out, and the
		// rest stay flagged for cleanup.
		return u.db.SetCmdchildFlags(ctx, dbn.ID, types.FlagsDelete)
	})
	if err != nil {
		return err
	}

	for _, nl := range namelist {
		dbg.Logf("create(%q)\n", nl.name)
		if err := u.create(nl.name); err != nil {
			return fmt.Errorf("create %q: %w", nl.name, err)
		}
		if err := u.db.SetFlagsByID(ctx, nl.id, types.FlagsNone); err != nil {
			return err
		}
	}
	return nil
}

// buildGraph constructs the graph of everything reachable from a
// MODIFY- or DELETE-flagged node through the link relations.
func (u *Updater) buildGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.New()

	var seeds []*graph.Node
	seed := func(dbn *types.DBNode) error {
		n, err := u.addFile(g, g.Root, dbn)
		if err != nil {
			return err
		}
		seeds = append(seeds, n)
		return nil
	}

	g.Root.Flags = types.FlagsModify
	if err := u.db.SelectNodeByFlags(ctx, types.FlagsModify, seed); err != nil {
		return nil, err
	}
	g.Root.Flags = types.FlagsDelete
	if err := u.db.SelectNodeByFlags(ctx, types.FlagsDelete, seed); err != nil {
		return nil, err
	}
	g.Root.Flags = types.FlagsNone

	for _, n := range seeds {
		if n.State == graph.StateInitialized {
			if err := u.visit(ctx, g, n); err != nil {
				return nil, err
			}
		}
	}

	g.CountWork()
	return g, nil
}

// visit runs the depth-first descent from n. The node is PROCESSING
// while its dependency subtree is explored; an edge arriving at a
// PROCESSING node during that window closes a cycle.
func (u *Updater) visit(ctx context.Context, g *graph.Graph, n *graph.Node) error {
	n.State = graph.StateProcessing
	dbg.Logf("find deps for node: %d\n", n.ID)
	if err := u.findDeps(ctx, g, n); err != nil {
		return err
	}
	n.State = graph.StateFinished
	g.NodeList = append(g.NodeList, n)
	return nil
}

func (u *Updater) findDeps(ctx context.Context, g *graph.Graph, n *graph.Node) error {
	cb := func(dbn *types.DBNode) error {
		child, err := u.addFile(g, n, dbn)
		if err != nil {
			return err
		}
		if child.State == graph.StateInitialized {
			return u.visit(ctx, g, child)
		}
		return nil
	}
	if err := u.db.SelectNodeByLink(ctx, n.ID, cb); err != nil {
		return err
	}
	return u.db.SelectNodeByCmdlink(ctx, n.ID, cb)
}

// addFile folds one database row into the graph as a dependent of src
// and returns its graph node.
func (u *Updater) addFile(g *graph.Graph, src *graph.Node, dbn *types.DBNode) (*graph.Node, error) {
	// A file's dependents react to its modification, not its
	// deletion: a command only goes away when its directory is
	// re-created without re-declaring it. Everything else inherits
	// the source's flags.
	flags := src.Flags
	if src.Type == types.TypeFile {
		flags = types.FlagsModify
	}

	n := g.Find(dbn.ID)
	if n != nil {
		if n.Flags&flags == 0 {
			dbg.Logf("adding flag (%v) to %d\n", flags, dbn.ID)
			n.Flags |= flags
		}
	} else {
		n = g.CreateNode(dbn.ID, dbn.Name, dbn.Type, flags)
		dbg.Logf("create node: %d (%v)\n", dbn.ID, dbn.Type)
	}

	if n.State == graph.StateProcessing {
		fmt.Fprintf(u.ErrOut, "Error: Circular dependency detected! Last edge was: %d -> %d\n", src.ID, dbn.ID)
		return nil, &graph.CycleError{From: src.ID, To: dbn.ID}
	}
	g.CreateEdge(src, n)
	return n, nil
}
