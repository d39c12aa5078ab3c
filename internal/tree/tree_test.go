package tree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	return ae.Kind
}

func TestNewTreeBoundaryComplexity(t *testing.T) {
	for _, c := range []int{1, 10} {
		tr, err := New("¿Cuál será el impacto de la IA?", c)
		require.NoError(t, err)
		assert.Equal(t, tr.RootID, tr.Cursor)
		root, _ := tr.Node(tr.RootID)
		assert.Equal(t, 1.0, root.Probability)
		assert.True(t, root.Expanded)
	}
	for _, c := range []int{0, 11} {
		_, err := New("premise text", c)
		require.Error(t, err)
		assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
	}
}

func TestNewTreeRejectsShortPremise(t *testing.T) {
	_, err := New("x", 5)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
}

func TestInspectShowsSingleNode(t *testing.T) {
	tr, err := New("¿Cuál será el impacto de la IA?", 8)
	require.NoError(t, err)
	out := tr.Inspect()
	assert.Contains(t, out, tr.RootID)
	assert.Contains(t, out, "p=1.0000")
}

func TestAddLeafParentIsCursor(t *testing.T) {
	tr, err := New("premise text", 5)
	require.NoError(t, err)

	child, err := tr.AddLeaf("A", "rA", 0.6, 7)
	require.NoError(t, err)
	assert.Equal(t, tr.Cursor, child.ParentID)
	assert.Equal(t, tr.Cursor, tr.RootID, "add_leaf must not move the cursor")
}

func TestAddLeafBoundaries(t *testing.T) {
	tr, _ := New("premise text", 5)

	for _, p := range []float64{0.0, 1.0} {
		_, err := tr.AddLeaf("A", "r", p, 5)
		require.NoError(t, err)
	}
	for _, p := range []float64{-0.01, 1.01} {
		_, err := tr.AddLeaf("A", "r", p, 5)
		require.Error(t, err)
		assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
	}
	for _, c := range []int{1, 10} {
		_, err := tr.AddLeaf("A", "r", 0.5, c)
		require.NoError(t, err)
	}
	for _, c := range []int{0, 11} {
		_, err := tr.AddLeaf("A", "r", 0.5, c)
		require.Error(t, err)
		assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
	}

	_, err := tr.AddLeaf("", "r", 0.5, 5)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
	_, err = tr.AddLeaf("A", "", 0.5, 5)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
}

func TestExpandLeafRejectsRootAndDoubleExpand(t *testing.T) {
	tr, _ := New("premise text", 5)
	child, _ := tr.AddLeaf("A", "r", 0.5, 5)

	err := tr.ExpandLeaf(tr.RootID, "root is already expanded")
	assert.Equal(t, apperr.StateViolation, kindOf(t, err))

	require.NoError(t, tr.ExpandLeaf(child.ID, "go deeper"))
	assert.True(t, child.Expanded)

	err = tr.ExpandLeaf(child.ID, "again")
	assert.Equal(t, apperr.StateViolation, kindOf(t, err))
}

func TestExpandLeafUnknownID(t *testing.T) {
	tr, _ := New("premise text", 5)
	err := tr.ExpandLeaf("does-not-exist", "rationale")
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestNavigateToNoOpOnCurrentCursor(t *testing.T) {
	tr, _ := New("premise text", 5)
	before := tr.Inspect()
	err := tr.NavigateTo(tr.Cursor, "staying put")
	require.NoError(t, err)
	assert.Equal(t, before, tr.Inspect())
}

func TestNavigateToRejectsEmptyJustification(t *testing.T) {
	tr, _ := New("premise text", 5)
	child, _ := tr.AddLeaf("A", "r", 0.5, 5)
	err := tr.NavigateTo(child.ID, "")
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
}

func TestBalanceLeafsNeutral(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "rA", 0.6, 7)
	tr.AddLeaf("B", "rB", 0.4, 7)

	require.NoError(t, tr.BalanceLeafs("Neutral"))

	children := tr.Children(tr.Cursor)
	require.Len(t, children, 2)
	for _, c := range children {
		assert.InDelta(t, 0.5, c.Probability, 1e-9)
	}
}

func TestBalanceLeafsSumsToOne(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "rA", 0.9, 3)
	tr.AddLeaf("B", "rB", 0.2, 9)
	tr.AddLeaf("C", "rC", 0.5, 1)

	for _, policy := range []string{"Conservative", "Neutral", "Optimistic"} {
		require.NoError(t, tr.BalanceLeafs(policy))
		var sum float64
		for _, c := range tr.Children(tr.Cursor) {
			sum += c.Probability
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "policy %s", policy)
	}
}

func TestBalanceLeafsRejectsUnknownPolicy(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "rA", 0.5, 5)
	err := tr.BalanceLeafs("Pessimistic")
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
}

func TestBalanceLeafsRejectsNoChildren(t *testing.T) {
	tr, _ := New("premise text", 5)
	err := tr.BalanceLeafs("Neutral")
	assert.Equal(t, apperr.StateViolation, kindOf(t, err))
}

func TestPruneTreeKeepsHighestScoringLeaf(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("L", "r", 0.2, 2)
	tr.AddLeaf("L2", "r", 0.9, 9)

	n, err := tr.PruneTree(0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	leaves := tr.Leaves()
	require.Len(t, leaves, 1)
	assert.Equal(t, "L2", leaves[0].Premise)
}

func TestPruneTreeBoundaryAggressiveness(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("L", "r", 0.5, 5)

	for _, a := range []float64{0.0, 1.0} {
		_, err := tr.PruneTree(a)
		require.NoError(t, err)
	}
	for _, a := range []float64{-0.1, 1.1} {
		_, err := tr.PruneTree(a)
		assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
	}
}

func TestPruneTreeNeverDeletesRootOrExpandedInternal(t *testing.T) {
	tr, _ := New("premise text", 5)
	child, _ := tr.AddLeaf("mid", "r", 0.9, 9)
	require.NoError(t, tr.ExpandLeaf(child.ID, "go deeper"))
	require.NoError(t, tr.NavigateTo(child.ID, "descend"))
	tr.AddLeaf("deep", "r", 0.01, 1)

	n, err := tr.PruneTree(1.0)
	require.NoError(t, err)
	// "deep" is the only leaf, so it is the max score and is not below the
	// threshold; nothing is pruned.
	assert.Equal(t, 0, n)

	_, rootAlive := tr.Node(tr.RootID)
	_, midAlive := tr.Node(child.ID)
	assert.True(t, rootAlive)
	assert.True(t, midAlive)
}

func TestPruneTreeFallsBackCursorToRoot(t *testing.T) {
	tr, _ := New("premise text", 5)
	leaf, _ := tr.AddLeaf("L", "r", 0.01, 1)
	tr.AddLeaf("L2", "r", 0.9, 9)
	require.NoError(t, tr.NavigateTo(leaf.ID, "look here"))

	_, err := tr.PruneTree(1.0)
	require.NoError(t, err)
	assert.Equal(t, tr.RootID, tr.Cursor)
}

func TestValidateCoherenceRejectsShortDetail(t *testing.T) {
	tr, _ := New("premise text", 5)
	_, err := tr.ValidateCoherence("too short")
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
}

func TestValidateCoherenceDeviationAndScore(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "rA", 0.5, 5)
	tr.AddLeaf("B", "rB", 0.5, 5)

	detail := "this analysis detail string is long enough to pass validation"
	report, err := tr.ValidateCoherence(detail)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalNodes)
	assert.Equal(t, 2, report.LeafCount)
	assert.InDelta(t, 0.0, report.MeanProbabilityDeviation, 1e-9)
	assert.InDelta(t, 1.0, report.Coherence, 1e-9)
}

func TestExportPathsBoundaries(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "r", 0.5, 5)

	_, err := tr.ExportPaths("Analytical", []string{"a", "b"}, 0.5)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))

	out, err := tr.ExportPaths("Analytical", []string{"a", "b", "c"}, 0.5)
	require.NoError(t, err)
	assert.Contains(t, out, "Analysis exported")

	_, err = tr.ExportPaths("Analytical", []string{"a", "", "c"}, 0.5)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))

	_, err = tr.ExportPaths("Analytical", []string{"a", "b", "c"}, 1.5)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))

	_, err = tr.ExportPaths("Moody", []string{"a", "b", "c"}, 0.5)
	assert.Equal(t, apperr.InvalidArgument, kindOf(t, err))
}

func TestExportPathsAllStyles(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "r", 0.5, 5)
	insights := []string{"first insight", "second insight", "third insight"}

	for _, style := range []string{"Analytical", "Narrative", "Technical"} {
		out, err := tr.ExportPaths(style, insights, 0.8)
		require.NoError(t, err)
		assert.Contains(t, out, "exported")
	}
}

func TestCursorAndChildrenAlwaysReferenceLiveNodes(t *testing.T) {
	tr, _ := New("premise text", 5)
	a, _ := tr.AddLeaf("A", "r", 0.9, 9)
	tr.AddLeaf("B", "r", 0.01, 1)

	require.NoError(t, tr.NavigateTo(a.ID, "move"))
	_, err := tr.PruneTree(0.5)
	require.NoError(t, err)

	cursor := tr.CursorNode()
	_, ok := tr.Node(cursor.ID)
	assert.True(t, ok)

	for _, n := range tr.AllLive() {
		for _, cid := range n.Children {
			_, ok := tr.Node(cid)
			assert.True(t, ok, "child %s of %s must be live", cid, n.ID)
		}
	}
}

func TestExpandedIsMonotonic(t *testing.T) {
	tr, _ := New("premise text", 5)
	child, _ := tr.AddLeaf("A", "r", 0.5, 5)
	require.NoError(t, tr.ExpandLeaf(child.ID, "go"))

	// No operation in this package re-sets Expanded to false; pruning only
	// removes leaves (expanded=false nodes), never flips the flag.
	_, err := tr.PruneTree(0.0)
	require.NoError(t, err)
	assert.True(t, child.Expanded)
}

func TestPruneScoreFormula(t *testing.T) {
	n := &Node{Probability: 0.8, Confidence: 5}
	assert.Equal(t, 0.8*0.5, pruningScore(n))
}

func TestNaNNeverEmergesFromBalance(t *testing.T) {
	tr, _ := New("premise text", 5)
	tr.AddLeaf("A", "r", 0.0, 1)
	require.NoError(t, tr.BalanceLeafs("Conservative"))
	for _, c := range tr.Children(tr.Cursor) {
		assert.False(t, math.IsNaN(c.Probability))
	}
}
