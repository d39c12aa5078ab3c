package datalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// TraceJSON is the wire shape of the opaque trace a prior Query call hands
// back, round-tripped through explain_inference's trace_json argument.
type TraceJSON struct {
	Proven     bool     `json:"proven"`
	Predicates []string `json:"predicates"`
}

// MarshalTrace renders a QueryResult's trace into the JSON text clients pass
// back into explain_inference.
func MarshalTrace(r QueryResult) string {
	b, _ := json.Marshal(TraceJSON{Proven: r.Proven, Predicates: r.Trace})
	return string(b)
}

// ExplainInference renders a human-readable explanation of a trace previously
// produced by Query. short yields a one-sentence summary; otherwise one line
// per predicate touched, annotated with any annotate_predicate label.
func (kb *KnowledgeBase) ExplainInference(traceJSON string, short bool) (string, error) {
	var t TraceJSON
	if err := json.Unmarshal([]byte(traceJSON), &t); err != nil {
		return "", apperr.Wrap(apperr.InvalidArgument, "trace_json is not a recognised trace", err)
	}

	if short {
		if !t.Proven {
			return "not proven", nil
		}
		return fmt.Sprintf("proven via %d predicate(s): %s", len(t.Predicates), strings.Join(t.Predicates, ", ")), nil
	}

	var b strings.Builder
	if t.Proven {
		fmt.Fprintln(&b, "proven")
	} else {
		fmt.Fprintln(&b, "not proven")
	}
	for _, p := range t.Predicates {
		if label, ok := kb.annotation(p); ok {
			fmt.Fprintf(&b, "  %s (%s)\n", p, label)
		} else {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	return b.String(), nil
}
