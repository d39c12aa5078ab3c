package tree

import "github.com/latticerun/reasoning-mcp/internal/apperr"

// pruningScore computes score(L) = probability(L) * (confidence(L)/10).
func pruningScore(n *Node) float64 {
	return n.Probability * (float64(n.Confidence) / 10.0)
}

// PruneTree deletes leaves whose pruning score falls below the threshold
// implied by aggressiveness. Never deletes the root or expanded internal
// nodes. Pruning is computed over a snapshot of the leaf set, so the
// decision is independent of traversal order; removal only unlinks
// parent/child edges, ids are never reused. Returns the number pruned.
func (t *Tree) PruneTree(aggressiveness float64) (int, error) {
	if aggressiveness < 0.0 || aggressiveness > 1.0 {
		return 0, apperr.New(apperr.InvalidArgument, "aggressiveness must be in [0.0, 1.0]")
	}

	leaves := t.Leaves()
	if len(leaves) == 0 {
		return 0, nil
	}

	maxScore := 0.0
	scores := make(map[string]float64, len(leaves))
	for _, l := range leaves {
		s := pruningScore(l)
		scores[l.ID] = s
		if s > maxScore {
			maxScore = s
		}
	}
	threshold := aggressiveness * maxScore

	var toDelete []*Node
	for _, l := range leaves {
		if l.ID == t.RootID {
			continue
		}
		if scores[l.ID] < threshold {
			toDelete = append(toDelete, l)
		}
	}

	for _, l := range toDelete {
		t.deleteNode(l)
	}

	if _, ok := t.get(t.Cursor); !ok {
		t.Cursor = t.RootID
	}

	return len(toDelete), nil
}

// deleteNode tombstones a node and unlinks it from its parent's children
// list. The id is never reused.
func (t *Tree) deleteNode(n *Node) {
	idx, ok := t.index[n.ID]
	if !ok {
		return
	}
	t.nodes[idx].tombstoned = true
	delete(t.index, n.ID)

	if parent, ok := t.get(n.ParentID); ok {
		filtered := parent.Children[:0]
		for _, cid := range parent.Children {
			if cid != n.ID {
				filtered = append(filtered, cid)
			}
		}
		parent.Children = filtered
	}
}
