package datalog

import (
	"strings"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// ValidateRule performs a pure syntactic and semantic check of rule without
// mutating the knowledge base: unbound head variables, an empty body, and
// ordinary syntactic defects are all reported the same way add_bulk would
// reject them.
func ValidateRule(rule string) error {
	rule = strings.TrimSpace(rule)
	if !strings.Contains(rule, ":-") {
		return apperr.New(apperr.InvalidArgument, "not a rule: missing ':-'")
	}
	ps, err := validateStatement(rule)
	if err != nil {
		return err
	}
	if ps.kind != KindRule {
		return apperr.New(apperr.InvalidArgument, "not a rule")
	}
	return nil
}
