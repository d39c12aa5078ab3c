package tree

import (
	"fmt"
	"math"
	"strings"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// CoherenceReport is the structural-only analysis produced by
// ValidateCoherence. There is no NLP involved; every field is derived from
// tree shape and the probability/confidence annotations already on it.
type CoherenceReport struct {
	AnalysisDetail        string
	TotalNodes            int
	LeafCount             int
	MaxDepth              int
	MeanBranchingFactor   float64
	MeanProbabilityDeviation float64
	Coherence             float64
}

// ValidateCoherence requires analysis_detail to be at least
// MinAnalysisDetailLen characters.
func (t *Tree) ValidateCoherence(analysisDetail string) (*CoherenceReport, error) {
	if len(analysisDetail) < MinAnalysisDetailLen {
		return nil, apperr.Newf(apperr.InvalidArgument,
			"analysis_detail must be at least %d characters", MinAnalysisDetailLen)
	}

	report := &CoherenceReport{AnalysisDetail: analysisDetail}

	var (
		maxDepth        int
		expandedCount   int
		branchingSum    int
		deviationSum    float64
	)

	t.Walk(func(n *Node, depth int) {
		report.TotalNodes++
		if !n.Expanded {
			report.LeafCount++
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		if n.Expanded {
			children := t.Children(n.ID)
			branchingSum += len(children)
			expandedCount++

			var sumProb float64
			for _, c := range children {
				sumProb += c.Probability
			}
			if len(children) > 0 {
				deviationSum += math.Abs(sumProb - 1.0)
			}
		}
	})

	report.MaxDepth = maxDepth
	if expandedCount > 0 {
		report.MeanBranchingFactor = float64(branchingSum) / float64(expandedCount)
		report.MeanProbabilityDeviation = deviationSum / float64(expandedCount)
	}

	report.Coherence = 1.0 - math.Min(1.0, report.MeanProbabilityDeviation)

	return report, nil
}

func (r *CoherenceReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Coherence report: %s\n", r.AnalysisDetail)
	fmt.Fprintf(&b, "  total nodes: %d\n", r.TotalNodes)
	fmt.Fprintf(&b, "  leaf count: %d\n", r.LeafCount)
	fmt.Fprintf(&b, "  max depth: %d\n", r.MaxDepth)
	fmt.Fprintf(&b, "  mean branching factor: %.4f\n", r.MeanBranchingFactor)
	fmt.Fprintf(&b, "  mean probability-conservation deviation: %.6f\n", r.MeanProbabilityDeviation)
	fmt.Fprintf(&b, "  coherence: %.4f\n", r.Coherence)
	return b.String()
}
