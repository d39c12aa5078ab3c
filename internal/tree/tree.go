// Package tree implements the per-session analytical decision tree engine:
// a mutable, cursor-navigated rooted tree annotated with probability and
// confidence, supporting expansion, balancing, pruning, coherence scoring,
// and narrative export.
//
// The tree is an arena (a slice of node records) plus an id→index map, as
// sketched in the design notes this package implements: parent/child edges
// are indices, deletion tombstones the slot and removes the id from the
// map, and ids are never reused.
package tree

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// MinAnalysisDetailLen is the minimum length required of
// validate_coherence's analysis_detail argument.
const MinAnalysisDetailLen = 32

// Node is a single premise in the analysis.
type Node struct {
	ID         string
	ParentID   string // empty for the root
	Children   []string
	Premise    string
	Reasoning  string
	Probability float64
	Confidence int
	Expanded   bool
	CreatedAt  time.Time

	tombstoned bool
}

// Tree is a session-scoped rooted tree with one active cursor.
type Tree struct {
	RootID     string
	Cursor     string
	Complexity int
	CreatedAt  time.Time

	nodes []*Node
	index map[string]int
}

func newNodeID() string {
	return uuid.NewString()
}

// New creates a tree with a single root node, replacing any previous state
// held by the caller (the session owns replacement semantics).
func New(premise string, complexity int) (*Tree, error) {
	if len(premise) < 2 {
		return nil, apperr.New(apperr.InvalidArgument, "premise must be at least 2 characters")
	}
	if complexity < 1 || complexity > 10 {
		return nil, apperr.New(apperr.InvalidArgument, "complexity must be in [1, 10]")
	}

	root := &Node{
		ID:          newNodeID(),
		Probability: 1.0,
		Confidence:  complexity,
		Premise:     premise,
		Reasoning:   "root premise",
		Expanded:    true,
		CreatedAt:   time.Now().UTC(),
	}

	t := &Tree{
		RootID:     root.ID,
		Cursor:     root.ID,
		Complexity: complexity,
		CreatedAt:  root.CreatedAt,
		nodes:      []*Node{root},
		index:      map[string]int{root.ID: 0},
	}
	return t, nil
}

func (t *Tree) get(id string) (*Node, bool) {
	idx, ok := t.index[id]
	if !ok {
		return nil, false
	}
	n := t.nodes[idx]
	if n.tombstoned {
		return nil, false
	}
	return n, true
}

// CursorNode returns the node the cursor currently references.
func (t *Tree) CursorNode() *Node {
	n, ok := t.get(t.Cursor)
	if !ok {
		// Invariant: cursor always references a live node. A missing cursor
		// after a mutation would be a bug in this package, not caller error.
		panic("tree: cursor references a missing node")
	}
	return n
}

// AddLeaf appends a new child under the current cursor.
func (t *Tree) AddLeaf(premise, reasoning string, probability float64, confidence int) (*Node, error) {
	if premise == "" {
		return nil, apperr.New(apperr.InvalidArgument, "premise must not be empty")
	}
	if reasoning == "" {
		return nil, apperr.New(apperr.InvalidArgument, "reasoning must not be empty")
	}
	if probability < 0.0 || probability > 1.0 {
		return nil, apperr.New(apperr.InvalidArgument, "probability must be in [0.0, 1.0]")
	}
	if confidence < 1 || confidence > 10 {
		return nil, apperr.New(apperr.InvalidArgument, "confidence must be in [1, 10]")
	}

	parent, ok := t.get(t.Cursor)
	if !ok {
		return nil, apperr.New(apperr.StateViolation, "cursor does not reference a live node")
	}

	child := &Node{
		ID:          newNodeID(),
		ParentID:    parent.ID,
		Premise:     premise,
		Reasoning:   reasoning,
		Probability: probability,
		Confidence:  confidence,
		CreatedAt:   time.Now().UTC(),
	}

	t.nodes = append(t.nodes, child)
	t.index[child.ID] = len(t.nodes) - 1
	parent.Children = append(parent.Children, child.ID)

	return child, nil
}

// ExpandLeaf marks a currently-unexpanded non-root node as expanded.
func (t *Tree) ExpandLeaf(nodeID, rationale string) error {
	n, ok := t.get(nodeID)
	if !ok {
		return apperr.Newf(apperr.NotFound, "node %q not found", nodeID)
	}
	if n.ID == t.RootID {
		return apperr.New(apperr.StateViolation, "the root is already expanded and cannot be re-expanded")
	}
	if n.Expanded {
		return apperr.Newf(apperr.StateViolation, "node %q is already expanded", nodeID)
	}
	_ = rationale // recorded as part of the caller-visible response only
	n.Expanded = true
	return nil
}

// NavigateTo moves the cursor to nodeID.
func (t *Tree) NavigateTo(nodeID, justification string) error {
	if justification == "" {
		return apperr.New(apperr.InvalidArgument, "justification must not be empty")
	}
	if _, ok := t.get(nodeID); !ok {
		return apperr.Newf(apperr.NotFound, "node %q not found", nodeID)
	}
	t.Cursor = nodeID
	return nil
}

// Node looks up a live node by id, for callers outside the package that
// need read-only access (e.g. the MCP tool handlers rendering responses).
func (t *Tree) Node(id string) (*Node, bool) {
	return t.get(id)
}

// Children returns the live children of a node in insertion order.
func (t *Tree) Children(id string) []*Node {
	n, ok := t.get(id)
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c, ok := t.get(cid); ok {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits every live node depth-first in insertion order, starting from
// the root, calling fn(node, depth).
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	root, ok := t.get(t.RootID)
	if !ok {
		return
	}
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		for _, cid := range n.Children {
			if c, ok := t.get(cid); ok {
				visit(c, depth+1)
			}
		}
	}
	visit(root, 0)
}

// AllLive returns every live node, in arena order (stable, insertion order
// modulo tombstoning).
func (t *Tree) AllLive() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		if !n.tombstoned {
			out = append(out, n)
		}
	}
	return out
}

// Leaves returns every live leaf (expanded=false) node.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	for _, n := range t.AllLive() {
		if !n.Expanded {
			out = append(out, n)
		}
	}
	return out
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree{root=%s, cursor=%s, nodes=%d}", t.RootID, t.Cursor, len(t.AllLive()))
}
