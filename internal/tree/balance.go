package tree

import "github.com/latticerun/reasoning-mcp/internal/apperr"

// UncertaintyType is the closed enumeration accepted by BalanceLeafs.
type UncertaintyType string

const (
	Conservative UncertaintyType = "Conservative"
	Neutral      UncertaintyType = "Neutral"
	Optimistic   UncertaintyType = "Optimistic"
)

func parseUncertaintyType(s string) (UncertaintyType, bool) {
	switch UncertaintyType(s) {
	case Conservative, Neutral, Optimistic:
		return UncertaintyType(s), true
	default:
		return "", false
	}
}

// rawWeight computes rᵢ for a single child under the given policy.
func rawWeight(u UncertaintyType, probability float64, confidence int) float64 {
	conf := float64(confidence)
	switch u {
	case Conservative:
		return probability * (conf / 10.0)
	case Optimistic:
		return probability + (1.0-probability)*(conf/20.0)
	default: // Neutral
		return probability
	}
}

// BalanceLeafs normalises the probabilities of the cursor's direct children
// according to uncertaintyType. Other nodes are unchanged; the operation is
// pure structurally (it only ever rewrites the children's Probability
// field).
func (t *Tree) BalanceLeafs(uncertaintyType string) error {
	u, ok := parseUncertaintyType(uncertaintyType)
	if !ok {
		return apperr.Newf(apperr.InvalidArgument, "unrecognised uncertainty_type %q", uncertaintyType)
	}

	children := t.Children(t.Cursor)
	if len(children) == 0 {
		return apperr.New(apperr.StateViolation, "cursor has no children to balance")
	}

	raw := make([]float64, len(children))
	var sum float64
	for i, c := range children {
		raw[i] = rawWeight(u, c.Probability, c.Confidence)
		sum += raw[i]
	}

	if sum == 0 {
		uniform := 1.0 / float64(len(children))
		for _, c := range children {
			c.Probability = uniform
		}
		return nil
	}

	for i, c := range children {
		c.Probability = raw[i] / sum
	}
	return nil
}
