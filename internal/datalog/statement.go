package datalog

import (
	"regexp"
	"strings"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// StatementKind classifies a single Datalog statement.
type StatementKind int

const (
	KindFact StatementKind = iota
	KindRule
	KindQuery
)

func (k StatementKind) String() string {
	switch k {
	case KindFact:
		return "Fact"
	case KindRule:
		return "Rule"
	case KindQuery:
		return "Query"
	default:
		return "Unknown"
	}
}

var predicateIdentRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)

var (
	atomCallRe  = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)\(([^()]*)\)`)
	bareConstRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)
)

// toMangleSyntax rewrites bare lowercase-identifier constant arguments (this
// grammar's constant form) into Mangle name constants, since Mangle's own
// term grammar recognises only Name (/foo), String ("foo") and Number
// literals as constants, no bare-identifier kind. Predicate symbols and
// variables are left untouched; this only ever rewrites text sitting inside
// an atom's argument list.
func toMangleSyntax(stmt string) string {
	return atomCallRe.ReplaceAllStringFunc(stmt, func(m string) string {
		sub := atomCallRe.FindStringSubmatch(m)
		pred, argsRaw := sub[1], sub[2]
		if strings.TrimSpace(argsRaw) == "" {
			return pred + "()"
		}
		parts := strings.Split(argsRaw, ",")
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if bareConstRe.MatchString(p) {
				p = "/" + p
			}
			parts[i] = p
		}
		return pred + "(" + strings.Join(parts, ", ") + ")"
	})
}

// rawStatement is one candidate statement lifted out of a multi-line blob,
// paired with the 1-based source line it was found on (for add_bulk's error
// report).
type rawStatement struct {
	text string
	line int
}

// splitStatements breaks a line-oriented blob into candidate statements.
// Comments (leading '%') and blank lines are skipped. A line may hold more
// than one statement (split on '.'); a trailing fragment with no terminating
// '.' is kept as its own (malformed) candidate so it surfaces an error
// rather than being silently dropped.
func splitStatements(input string) []rawStatement {
	var out []rawStatement
	for i, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "%") {
			continue
		}
		parts := strings.Split(trimmed, ".")
		for j := 0; j < len(parts)-1; j++ {
			stmt := strings.TrimSpace(parts[j])
			if stmt == "" {
				continue
			}
			out = append(out, rawStatement{text: stmt + ".", line: i + 1})
		}
		if tail := strings.TrimSpace(parts[len(parts)-1]); tail != "" {
			out = append(out, rawStatement{text: tail, line: i + 1})
		}
	}
	return out
}

func classify(stmt string) StatementKind {
	switch {
	case strings.HasPrefix(stmt, "?-"):
		return KindQuery
	case strings.Contains(stmt, ":-"):
		return KindRule
	default:
		return KindFact
	}
}

// parsedStatement is the result of successfully validating one statement.
type parsedStatement struct {
	kind  StatementKind
	text  string // normalised statement text, as retained in program_text
	head  ast.Atom
	body  []ast.Term // empty for facts
}

// validateStatement performs the syntactic and semantic checks of §4.2.2:
// predicate/variable identifier shape, rule body non-emptiness, unbound head
// variables, and rejection of negation/aggregate constructs.
func validateStatement(stmt string) (parsedStatement, error) {
	kind := classify(stmt)

	clauseText := stmt
	if kind == KindQuery {
		body := strings.TrimSuffix(strings.TrimPrefix(stmt, "?-"), ".")
		clauseText = goalHead + " :- " + strings.TrimSpace(body) + "."
	}

	unit, err := parse.Unit(strings.NewReader(toMangleSyntax(clauseText)))
	if err != nil {
		return parsedStatement{}, apperr.Newf(apperr.InvalidArgument, "syntax error: %v", err)
	}
	if len(unit.Clauses) != 1 {
		return parsedStatement{}, apperr.Newf(apperr.InvalidArgument, "statement must contain exactly one clause, got %d", len(unit.Clauses))
	}
	clause := unit.Clauses[0]

	if clause.Transform != nil {
		return parsedStatement{}, apperr.New(apperr.InvalidArgument, "aggregates are unsupported")
	}
	if !predicateIdentRe.MatchString(clause.Head.Predicate.Symbol) && kind != KindQuery {
		return parsedStatement{}, apperr.Newf(apperr.InvalidArgument, "predicate %q must start with a lowercase letter", clause.Head.Predicate.Symbol)
	}

	switch kind {
	case KindFact:
		if len(clause.Premises) != 0 {
			return parsedStatement{}, apperr.New(apperr.InvalidArgument, "a fact must not have a body")
		}
		for _, arg := range clause.Head.Args {
			if _, ok := arg.(ast.Variable); ok {
				return parsedStatement{}, apperr.New(apperr.InvalidArgument, "a fact's arguments must be ground, no variables")
			}
		}
	case KindRule:
		if len(clause.Premises) == 0 {
			return parsedStatement{}, apperr.New(apperr.InvalidArgument, "a rule's body must not be empty")
		}
		bodyVars, err := checkBodyTerms(clause.Premises)
		if err != nil {
			return parsedStatement{}, err
		}
		headVars := collectVars(clause.Head.Args)
		for _, hv := range headVars {
			if !bodyVars[hv] {
				return parsedStatement{}, apperr.Newf(apperr.InvalidArgument, "unbound head variable %q", hv)
			}
		}
	case KindQuery:
		if len(clause.Premises) == 0 {
			return parsedStatement{}, apperr.New(apperr.InvalidArgument, "a query's body must not be empty")
		}
		if _, err := checkBodyTerms(clause.Premises); err != nil {
			return parsedStatement{}, err
		}
	}

	return parsedStatement{kind: kind, text: stmt, head: clause.Head, body: clause.Premises}, nil
}

// checkBodyTerms rejects negation and unsupported term shapes, and returns
// the set of variable names bound by the (positive) body.
func checkBodyTerms(premises []ast.Term) (map[string]bool, error) {
	vars := make(map[string]bool)
	for _, term := range premises {
		atom, ok := term.(ast.Atom)
		if !ok {
			if _, isNeg := term.(ast.NegAtom); isNeg {
				return nil, apperr.New(apperr.InvalidArgument, "negation (not) is unsupported")
			}
			return nil, apperr.New(apperr.InvalidArgument, "unsupported body term")
		}
		if !predicateIdentRe.MatchString(atom.Predicate.Symbol) {
			return nil, apperr.Newf(apperr.InvalidArgument, "predicate %q must start with a lowercase letter", atom.Predicate.Symbol)
		}
		for _, v := range collectVars(atom.Args) {
			vars[v] = true
		}
	}
	return vars, nil
}

func collectVars(args []ast.BaseTerm) []string {
	var out []string
	for _, a := range args {
		if v, ok := a.(ast.Variable); ok {
			out = append(out, v.Symbol)
		}
	}
	return out
}
