package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/untoldecay/tup/internal/storage/sqlite"
	"github.com/untoldecay/tup/internal/types"
	"github.com/untoldecay/tup/internal/ui"
)

var graphFormat string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render the dependency graph",
	Long: `Render the database's dependency graph. On a terminal the default is
a tree; otherwise DOT, suitable for piping into graphviz:

  tup graph | dot -Tpng -o deps.png
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		nodes, err := store.AllNodes(ctx)
		if err != nil {
			return err
		}
		links, err := store.AllLinks(ctx)
		if err != nil {
			return err
		}
		cmdlinks, err := store.AllCmdlinks(ctx)
		if err != nil {
			return err
		}

		format := graphFormat
		if format == "" {
			if ui.IsTerminal() {
				format = "tree"
			} else {
				format = "dot"
			}
		}
		switch format {
		case "tree":
			fmt.Print(renderTree(nodes, links, cmdlinks))
		case "dot":
			fmt.Print(renderDot(nodes, links, cmdlinks))
		default:
			return fmt.Errorf("unknown format %q (want tree or dot)", format)
		}
		return nil
	},
}

// renderDot emits the graph in graphviz syntax: commands as boxes,
// files as ellipses, cmd-links dashed.
func renderDot(nodes []*types.DBNode, links, cmdlinks []sqlite.Link) string {
	var sb strings.Builder
	sb.WriteString("digraph tup {\n")
	for _, n := range nodes {
		shape := "ellipse"
		if n.Type == types.TypeCmd {
			shape = "box"
		}
		fmt.Fprintf(&sb, "\tn%d [label=%q shape=%s];\n", n.ID, n.Name, shape)
	}
	for _, l := range links {
		fmt.Fprintf(&sb, "\tn%d -> n%d;\n", l.From, l.To)
	}
	for _, l := range cmdlinks {
		fmt.Fprintf(&sb, "\tn%d -> n%d [style=dashed];\n", l.From, l.To)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// renderTree builds a lipgloss tree per source node that nothing
// points at. Nodes reachable over several paths repeat under each
// parent.
func renderTree(nodes []*types.DBNode, links, cmdlinks []sqlite.Link) string {
	byID := make(map[types.TupID]*types.DBNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	children := make(map[types.TupID][]types.TupID)
	hasParent := make(map[types.TupID]bool)
	for _, l := range append(append([]sqlite.Link{}, links...), cmdlinks...) {
		children[l.From] = append(children[l.From], l.To)
		hasParent[l.To] = true
	}

	enumStyle := lipgloss.NewStyle().Foreground(ui.ColorAccent)
	var sb strings.Builder
	for _, n := range nodes {
		if hasParent[n.ID] {
			continue
		}
		t := tree.New().Root(nodeLabel(n))
		t.EnumeratorStyle(enumStyle)
		addChildren(t, n.ID, children, byID, map[types.TupID]bool{n.ID: true})
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	if sb.Len() == 0 {
		return "No nodes.\n"
	}
	return sb.String()
}

func addChildren(t *tree.Tree, id types.TupID, children map[types.TupID][]types.TupID, byID map[types.TupID]*types.DBNode, seen map[types.TupID]bool) {
	for _, cid := range children[id] {
		c, ok := byID[cid]
		if !ok || seen[cid] {
			continue
		}
		seen[cid] = true
		ct := tree.New().Root(nodeLabel(c))
		addChildren(ct, cid, children, byID, seen)
		t.Child(ct)
		delete(seen, cid)
	}
}

func nodeLabel(n *types.DBNode) string {
	label := fmt.Sprintf("%s (%s)", n.Name, n.Type)
	if n.Flags != types.FlagsNone {
		label += fmt.Sprintf(" [%s]", n.Flags)
	}
	return label
}

func init() {
	graphCmd.Flags().StringVar(&graphFormat, "format", "", "output format: tree or dot")
	rootCmd.AddCommand(graphCmd)
}
