package datalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// goalHead is the synthetic one-argument head appended to a query's body to
// turn a "?- body." goal into an ordinary rule the reasoner can materialise.
// A name-constant argument sidesteps any ambiguity over zero-arity atom
// syntax; only whether the fact ends up in the store is ever inspected.
const goalHead = "__goal__(/ok)"

var goalSym = ast.PredicateSym{Symbol: "__goal__", Arity: 1}

// QueryResult is the safely-transferable value a blocking worker hands back
// after evaluating a synthetic goal against a freshly built reasoner.
type QueryResult struct {
	Proven bool
	// Bindings is always empty: spec's open question on binding extraction
	// is left a placeholder, see DESIGN.md.
	Bindings []string
	// Trace is the ordered list of distinct predicate names (other than the
	// synthetic goal) that had at least one derived fact after evaluation —
	// a coarse placeholder for a real proof tree, see DESIGN.md.
	Trace []string
}

// Query validates the goal's syntax synchronously (so a malformed goal never
// touches the worker pool or the reasoner), then schedules a reasoner build
// and evaluation on pool under a timeout gate derived from timeoutMS. The KB
// itself is never mutated by a query, win or lose.
func (kb *KnowledgeBase) Query(ctx context.Context, pool *Pool, goal string, timeoutMS int) (QueryResult, error) {
	goal = strings.TrimSpace(goal)
	if !strings.HasPrefix(goal, "?-") || !strings.HasSuffix(goal, ".") {
		return QueryResult{}, apperr.New(apperr.InvalidArgument, "query must start with '?-' and end with '.'")
	}
	if _, err := validateStatement(goal); err != nil {
		return QueryResult{}, err
	}

	if timeoutMS <= 0 {
		timeoutMS = 5000
	}
	program := kb.programText()
	body := strings.TrimSuffix(strings.TrimPrefix(goal, "?-"), ".")

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	v, err := pool.Run(callCtx, func() (any, error) {
		return evalGoal(program, body)
	})
	if err != nil {
		return QueryResult{}, err
	}
	return v.(QueryResult), nil
}

// evalGoal is the one-shot blocking job: copy program text in, build a fresh
// reasoner, evaluate to a fixed point, read a plain result out, discard the
// reasoner. Nothing it touches survives past this call.
func evalGoal(program, body string) (QueryResult, error) {
	source := program + "\n" + goalHead + " :- " + body + ".\n"

	unit, err := parse.Unit(strings.NewReader(toMangleSyntax(source)))
	if err != nil {
		return QueryResult{}, apperr.Wrap(apperr.Internal, "reasoner failed to parse program", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return QueryResult{}, apperr.Wrap(apperr.Internal, "reasoner failed to analyse program", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	if _, err := engine.EvalProgramWithStats(programInfo, store); err != nil {
		return QueryResult{}, apperr.Wrap(apperr.Internal, "reasoner evaluation failed", err)
	}

	proven := false
	_ = store.GetFacts(ast.NewQuery(goalSym), func(ast.Atom) error {
		proven = true
		return nil
	})

	var trace []string
	for _, sym := range store.ListPredicates() {
		if sym.Symbol == goalSym.Symbol {
			continue
		}
		has := false
		_ = store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			has = true
			return nil
		})
		if has {
			trace = append(trace, sym.Symbol)
		}
	}

	return QueryResult{Proven: proven, Trace: trace}, nil
}
