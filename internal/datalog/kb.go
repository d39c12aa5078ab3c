// Package datalog implements the per-session Datalog knowledge base: a
// line-oriented catalog of facts and rules, bridged onto google/mangle for
// materialisation and querying. The knowledge base itself never holds a live
// reasoner — every query rebuilds one from program_text on a blocking
// worker and discards it before returning, since the reasoner is not
// assumed to be safely shared or moved across goroutines. Statement
// validation only parses, on the caller's goroutine, and builds no reasoner.
package datalog

import "sync"

// KnowledgeBase is a session-scoped Datalog program.
type KnowledgeBase struct {
	mu sync.Mutex

	statements       []string          // validated, ordered; comments/blanks not retained
	annotations      map[string]string // predicate name -> human-readable label
	lastMaterialised bool
}

// New returns an empty knowledge base.
func New() *KnowledgeBase {
	return &KnowledgeBase{
		annotations: make(map[string]string),
	}
}

// programText joins the retained statements back into the line-oriented
// catalog the bridge parses.
func (kb *KnowledgeBase) programText() string {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	var b []byte
	for _, s := range kb.statements {
		b = append(b, s...)
		b = append(b, '\n')
	}
	return string(b)
}

// ListPremises returns program_text split into individual statements, in
// insertion order.
func (kb *KnowledgeBase) ListPremises() []string {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	out := make([]string, len(kb.statements))
	copy(out, kb.statements)
	return out
}

// Reset empties program_text and annotations. Always succeeds.
func (kb *KnowledgeBase) Reset() {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.statements = nil
	kb.annotations = make(map[string]string)
	kb.lastMaterialised = false
}

// AnnotatePredicate stores a label for a predicate name. Annotations are
// independent of inference; they are cleared by Reset and consulted only by
// ExplainInference.
func (kb *KnowledgeBase) AnnotatePredicate(name, label string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.annotations[name] = label
}

func (kb *KnowledgeBase) annotation(name string) (string, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	label, ok := kb.annotations[name]
	return label, ok
}
