package tree

import (
	"fmt"
	"strings"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// Inspect returns a deterministic textual rendering of the tree from root:
// one line per node, in insertion order, indented by depth.
func (t *Tree) Inspect() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tree (root %s, cursor %s, complexity %d)\n", t.RootID, t.Cursor, t.Complexity)

	t.Walk(func(n *Node, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&b, "%s[%s] %q p=%.4f c=%d expanded=%v children=%d\n",
			indent, n.ID, n.Premise, n.Probability, n.Confidence, n.Expanded, len(n.Children))
	})

	return b.String()
}

// NarrativeStyle is the closed enumeration accepted by ExportPaths.
type NarrativeStyle string

const (
	Analytical NarrativeStyle = "Analytical"
	Narrative  NarrativeStyle = "Narrative"
	Technical  NarrativeStyle = "Technical"
)

func parseNarrativeStyle(s string) (NarrativeStyle, bool) {
	switch NarrativeStyle(s) {
	case Analytical, Narrative, Technical:
		return NarrativeStyle(s), true
	default:
		return "", false
	}
}

// path is a single root-to-leaf chain of nodes.
type path []*Node

func (t *Tree) rootToLeafPaths() []path {
	root, ok := t.get(t.RootID)
	if !ok {
		return nil
	}

	var paths []path
	var walk func(n *Node, prefix path)
	walk = func(n *Node, prefix path) {
		cur := append(path{}, prefix...)
		cur = append(cur, n)

		children := t.Children(n.ID)
		if len(children) == 0 {
			paths = append(paths, cur)
			return
		}
		for _, c := range children {
			walk(c, cur)
		}
	}
	walk(root, nil)
	return paths
}

func validateExportArgs(insights []string, confidenceAssessment float64, narrativeStyle string) (NarrativeStyle, error) {
	if len(insights) < 3 {
		return "", apperr.Newf(apperr.InvalidArgument, "insights must contain at least 3 entries")
	}
	for _, ins := range insights {
		if ins == "" {
			return "", apperr.Newf(apperr.InvalidArgument, "insights must not contain empty entries")
		}
	}
	if confidenceAssessment < 0.0 || confidenceAssessment > 1.0 {
		return "", apperr.Newf(apperr.InvalidArgument, "confidence_assessment must be in [0.0, 1.0]")
	}
	style, ok := parseNarrativeStyle(narrativeStyle)
	if !ok {
		return "", apperr.Newf(apperr.InvalidArgument, "unrecognised narrative_style %q", narrativeStyle)
	}
	return style, nil
}

// ExportPaths produces a textual report enumerating root-to-leaf paths.
func (t *Tree) ExportPaths(narrativeStyle string, insights []string, confidenceAssessment float64) (string, error) {
	style, err := validateExportArgs(insights, confidenceAssessment, narrativeStyle)
	if err != nil {
		return "", err
	}

	paths := t.rootToLeafPaths()

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis exported (%s style)\n", style)

	for i, p := range paths {
		switch style {
		case Analytical:
			fmt.Fprintf(&b, "Path %d:\n", i+1)
			for _, n := range p {
				fmt.Fprintf(&b, "  - %q (p=%.4f, c=%d)\n", n.Premise, n.Probability, n.Confidence)
			}
		case Narrative:
			fmt.Fprintf(&b, "Path %d: ", i+1)
			sentences := make([]string, len(p))
			for j, n := range p {
				sentences[j] = fmt.Sprintf("%s leads us to believe %q", leadIn(j), n.Premise)
			}
			fmt.Fprintln(&b, strings.Join(sentences, "; ")+".")
		case Technical:
			ids := make([]string, len(p))
			for j, n := range p {
				ids[j] = n.ID
			}
			fmt.Fprintf(&b, "Path %d: %s\n", i+1, strings.Join(ids, " -> "))
		}
	}

	fmt.Fprintln(&b, "\nInsights:")
	for _, ins := range insights {
		fmt.Fprintf(&b, "  - %s\n", ins)
	}
	fmt.Fprintf(&b, "\nConfidence assessment: %.4f\n", confidenceAssessment)

	return b.String(), nil
}

func leadIn(i int) string {
	if i == 0 {
		return "The starting premise"
	}
	return "which in turn"
}
