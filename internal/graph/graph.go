// Package graph holds the transient dependency graph built for a single
// updater run. The graph owns its nodes; edges point from a node's
// outgoing list to other nodes in the same graph. Node state is the
// authoritative lifecycle bit - the Plist and NodeList worklists are
// caches of which nodes to scan next, not the source of truth.
package graph

import (
	"fmt"

	"github.com/untoldecay/tup/internal/types"
)

// State tracks a node through DFS construction and execution.
type State int

const (
	// StateInitialized: created, dependencies not yet queried.
	StateInitialized State = iota
	// StateProcessing: on the DFS recursion stack during build, or
	// on the ready worklist during execution. An edge terminating at
	// a processing node during build closes a cycle.
	StateProcessing
	// StateFinished: DFS done during build, or waiting on
	// predecessors during execution.
	StateFinished
)

// Node is a graph node mirroring one database node for the duration of
// a run.
type Node struct {
	ID    types.TupID
	Name  string
	Type  types.NodeType
	Flags types.Flags
	State State

	// Edges is the outgoing edge list. Creating an edge increments
	// the destination's IncomingCount; removing one decrements it.
	Edges []*Edge

	// IncomingCount is the number of predecessors that have not yet
	// dispatched. A node may only be dispatched at zero.
	IncomingCount int
}

// Edge is a directed src -> dest arrow, owned by the source node.
type Edge struct {
	Dest *Node
}

// CycleError reports an edge that would close a directed cycle.
type CycleError struct {
	From, To types.TupID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: last edge was %d -> %d", e.From, e.To)
}

// Graph is the in-memory dependency graph for one updater run.
type Graph struct {
	Root *Node

	// Plist is the ready worklist during execution: nodes whose
	// predecessors are believed dispatched. The active end is the
	// front.
	Plist []*Node

	// NodeList holds finished nodes during build (in finish order,
	// root first) and not-yet-ready nodes during execution.
	NodeList []*Node

	// NumNodes is the number of nodes the executor will visibly
	// process, for progress accounting. Set by CountWork.
	NumNodes int

	nodes map[types.TupID]*Node
}

// New creates an empty graph with a synthetic root node. The root
// finishes DFS first by construction, so it heads the finished list
// and the executor starts from it.
func New() *Graph {
	g := &Graph{nodes: make(map[types.TupID]*Node)}
	g.Root = &Node{Type: types.TypeRoot, State: StateFinished}
	g.NodeList = append(g.NodeList, g.Root)
	return g
}

// Find returns the graph node for id, or nil.
func (g *Graph) Find(id types.TupID) *Node {
	return g.nodes[id]
}

// CreateNode adds a node for a database row.
func (g *Graph) CreateNode(id types.TupID, name string, typ types.NodeType, flags types.Flags) *Node {
	n := &Node{
		ID:    id,
		Name:  name,
		Type:  typ,
		Flags: flags,
		State: StateInitialized,
	}
	g.nodes[id] = n
	return n
}

// CreateEdge adds src -> dest and bumps the destination's incoming
// count. The caller must have rejected edges into PROCESSING nodes
// first; such an edge closes a cycle on the DFS stack.
func (g *Graph) CreateEdge(src, dest *Node) {
	src.Edges = append(src.Edges, &Edge{Dest: dest})
	dest.IncomingCount++
}

// RemoveNode deletes a dispatched node from the graph.
func (g *Graph) RemoveNode(n *Node) {
	delete(g.nodes, n.ID)
	n.Edges = nil
}

// RemoveFromNodeList unlinks n from the waiting list. No-op if n is
// not there.
func (g *Graph) RemoveFromNodeList(n *Node) {
	for i, m := range g.NodeList {
		if m == n {
			g.NodeList = append(g.NodeList[:i], g.NodeList[i+1:]...)
			return
		}
	}
}

// CountWork classifies finished nodes with the executor's dispatch
// rules and records how many will visibly process: files being
// deleted, and every command. Files that merely carry MODIFY are
// silently traversed and do not count.
func (g *Graph) CountWork() {
	g.NumNodes = 0
	for _, n := range g.NodeList {
		if n == g.Root {
			continue
		}
		switch {
		case n.Type == types.TypeFile && n.Flags == types.FlagsDelete:
			g.NumNodes++
		case n.Type == types.TypeCmd:
			g.NumNodes++
		}
	}
}
