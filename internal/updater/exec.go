package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/untoldecay/tup/internal/graph"
	"github.com/untoldecay/tup/internal/types"
	"github.com/untoldecay/tup/internal/ui"
)

// EnvCmdID is exported into each command's environment: the decimal
// id of the command's reincarnated database node, used by child
// processes to attribute the files they open.
const EnvCmdID = "TUP_CMD_ID"

// ErrGraphNotEmpty reports the post-execute invariant violation: a
// node was left behind, which means the graph had a cycle or the
// incoming-count bookkeeping broke.
var ErrGraphNotEmpty = errors.New("graph is not empty after execution")

// executeGraph dispatches graph nodes in dependency order. A node runs
// only once its incoming count reaches zero; dispatching removes its
// outgoing edges, which releases its successors.
func (u *Updater) executeGraph(ctx context.Context, g *graph.Graph) error {
	// The synthetic root finished DFS first, so it heads the
	// finished list.
	root := g.NodeList[0]
	g.NodeList = g.NodeList[1:]
	root.State = graph.StateProcessing
	g.Plist = append(g.Plist, root)
	dbg.Logf("root node: %d\n", root.ID)

	processed := 0
	u.progress(processed, g.NumNodes)
	for len(g.Plist) > 0 {
		n := g.Plist[0]
		g.Plist = g.Plist[1:]
		dbg.Logf("cur node: %d [%d]\n", n.ID, n.IncomingCount)

		if n.IncomingCount > 0 {
			// Predecessors still pending; park it until its
			// last incoming edge is removed.
			n.State = graph.StateFinished
			g.NodeList = append(g.NodeList, n)
			continue
		}

		if n != root {
			if n.Type == types.TypeFile && n.Flags == types.FlagsDelete {
				if err := u.deleteFile(ctx, n); err != nil {
					return err
				}
				processed++
				u.progress(processed, g.NumNodes)
			}
			if n.Type == types.TypeCmd {
				if n.Flags&types.FlagsDelete != 0 {
					fmt.Fprintln(u.Out, ui.Delete(fmt.Sprintf("Delete[%d]: %s", n.ID, n.Name)))
					if err := u.db.DeleteNameFile(ctx, n.ID); err != nil {
						return err
					}
				} else {
					if err := u.update(ctx, n); err != nil {
						return err
					}
				}
				processed++
				u.progress(processed, g.NumNodes)
			}
		}

		for _, e := range n.Edges {
			if e.Dest.State != graph.StateProcessing {
				g.RemoveFromNodeList(e.Dest)
				g.Plist = append([]*graph.Node{e.Dest}, g.Plist...)
				e.Dest.State = graph.StateProcessing
			}
			e.Dest.IncomingCount--
		}

		if n != root {
			if err := u.db.SetFlagsByID(ctx, n.ID, types.FlagsNone); err != nil {
				return err
			}
		}
		g.RemoveNode(n)
	}

	if len(g.NodeList) > 0 || len(g.Plist) > 0 {
		fmt.Fprintln(u.ErrOut, "Error: Graph is not empty after execution.")
		return ErrGraphNotEmpty
	}
	return nil
}

// update executes one command. The command is first reincarnated: a
// fresh database node is allocated and exported as TUP_CMD_ID so the
// running command can register the files it opens against it. On
// success the old node's cmd-links move to the new node and the old
// node is deleted; on failure the new node is rolled back.
func (u *Updater) update(ctx context.Context, n *graph.Node) error {
	dup, err := u.db.CreateDupNode(ctx, n.Name, n.Type, types.FlagsNone)
	if err != nil {
		return err
	}

	if err := os.Setenv(EnvCmdID, strconv.FormatInt(int64(dup), 10)); err != nil {
		_ = u.db.DeleteNameFile(ctx, dup)
		return fmt.Errorf("failed to export %s: %w", EnvCmdID, err)
	}

	fmt.Fprintln(u.Out, n.Name)
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", n.Name)
	cmd.Dir = u.Dir
	cmd.Stdout = u.Out
	cmd.Stderr = u.ErrOut
	runErr := cmd.Run()
	os.Unsetenv(EnvCmdID)

	if runErr != nil {
		_ = u.db.DeleteNameFile(ctx, dup)
		return fmt.Errorf("command failed: %s: %w", n.Name, runErr)
	}

	if err := u.db.MoveCmdlink(ctx, n.ID, dup); err != nil {
		return err
	}
	return u.db.DeleteNameFile(ctx, n.ID)
}

// deleteFile removes an obsolete file: its database record and the
// file itself. A file already gone from disk is fine.
func (u *Updater) deleteFile(ctx context.Context, n *graph.Node) error {
	fmt.Fprintln(u.Out, ui.Delete(fmt.Sprintf("Delete[%d]: %s", n.ID, n.Name)))
	if err := u.db.DeleteNameFile(ctx, n.ID); err != nil {
		return err
	}
	path := n.Name
	if u.Dir != "" {
		path = filepath.Join(u.Dir, n.Name)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to unlink %s: %w", n.Name, err)
	}
	return nil
}
