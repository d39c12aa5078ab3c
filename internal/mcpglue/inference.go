package mcpglue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/latticerun/reasoning-mcp/internal/datalog"
	"github.com/latticerun/reasoning-mcp/internal/session"
	"github.com/latticerun/reasoning-mcp/internal/storage"
)

// NewInferenceServer registers the seven Logical Engine tools plus ping
// against reg, routing every call through its session's own knowledge base.
// pool is the process-wide blocking worker pool every query evaluation runs
// on (spec.md §4.2.3).
func NewInferenceServer(reg *session.InferenceRegistry, pool *datalog.Pool, hook storage.Hook) *server.MCPServer {
	s := server.NewMCPServer(
		"logical-inference",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(mcp.NewTool("ping", mcp.WithDescription("Health check; always returns true.")), withLogging("ping", handlePing))

	s.AddTool(mcp.NewTool("add_bulk",
		mcp.WithDescription("Parse and append facts/rules from a multi-statement Datalog blob."),
		mcp.WithString("datalog", mcp.Required(), mcp.Description("Newline/period-separated facts and rules.")),
		mcp.WithBoolean("atomic", mcp.Description("If true, either every statement is appended or none is.")),
	), withLogging("add_bulk", handleAddBulk(reg, hook)))

	s.AddTool(mcp.NewTool("query",
		mcp.WithDescription("Evaluate a '?- goal.' against the session's program, materialising to a fixed point."),
		mcp.WithString("query", mcp.Required(), mcp.Description("A '?- body.' goal.")),
		mcp.WithNumber("timeout_ms", mcp.Description("Defaults to 5000.")),
	), withLogging("query", handleQuery(reg, pool)))

	s.AddTool(mcp.NewTool("validate_rule",
		mcp.WithDescription("Pure syntactic and semantic check of a rule, without mutating the knowledge base."),
		mcp.WithString("rule", mcp.Required(), mcp.Description("A 'head :- body.' rule.")),
	), withLogging("validate_rule", handleValidateRule))

	s.AddTool(mcp.NewTool("list_premises",
		mcp.WithDescription("List the session's program statements in insertion order."),
	), withLogging("list_premises", handleListPremises(reg)))

	s.AddTool(mcp.NewTool("reset",
		mcp.WithDescription("Empty the session's program and annotations."),
	), withLogging("reset", handleReset(reg, hook)))

	s.AddTool(mcp.NewTool("explain_inference",
		mcp.WithDescription("Render a human-readable explanation of a trace previously returned by query."),
		mcp.WithString("trace_json", mcp.Required(), mcp.Description("The trace text returned by a prior query call.")),
		mcp.WithBoolean("short", mcp.Description("If true, a one-sentence summary instead of a multi-line explanation.")),
	), withLogging("explain_inference", handleExplainInference(reg)))

	s.AddTool(mcp.NewTool("annotate_predicate",
		mcp.WithDescription("Store a human-readable label for a predicate name, consulted only by explain_inference."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Predicate name.")),
		mcp.WithString("label", mcp.Required(), mcp.Description("Label to attach.")),
	), withLogging("annotate_predicate", handleAnnotatePredicate(reg, hook)))

	return s
}

func handleAddBulk(reg *session.InferenceRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := stringArg(req, "datalog")
		atomic := boolArg(req, "atomic")

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		added, skipped, errs := sess.KB.AddBulk(text, atomic)
		hook.Record(storage.Mutation{SessionID: id, Kind: "datalog.add_bulk", Payload: map[string]any{
			"added_count": added, "skipped_count": skipped, "atomic": atomic,
		}})

		var b strings.Builder
		fmt.Fprintf(&b, "added_count=%d skipped_count=%d\n", added, skipped)
		if len(errs) == 0 {
			fmt.Fprint(&b, "errors: none")
		} else {
			fmt.Fprintln(&b, "errors:")
			for _, e := range errs {
				fmt.Fprintf(&b, "  line %d: %s\n", e.Line, e.Message)
			}
		}
		return textResult(b.String())
	}
}

func handleQuery(reg *session.InferenceRegistry, pool *datalog.Pool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		goal := stringArg(req, "query")
		timeoutMS := intArgDefault(req, "timeout_ms", 0)

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		result, err := sess.KB.Query(ctx, pool, goal, timeoutMS)
		if err != nil {
			return errResult(err)
		}

		traceJSON := datalog.MarshalTrace(result)
		return textResult(fmt.Sprintf("proven=%v trace_json=%s", result.Proven, traceJSON))
	}
}

func handleValidateRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rule := stringArg(req, "rule")
	if err := datalog.ValidateRule(rule); err != nil {
		return errResult(err)
	}
	return textResult("valid")
}

func handleListPremises(reg *session.InferenceRegistry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		premises := sess.KB.ListPremises()
		if len(premises) == 0 {
			return textResult("program_text is empty")
		}
		return textResult(strings.Join(premises, "\n"))
	}
}

func handleReset(reg *session.InferenceRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		sess.KB.Reset()
		hook.Record(storage.Mutation{SessionID: id, Kind: "datalog.reset", Payload: map[string]any{"at": time.Now().UTC().Format(time.RFC3339)}})
		return textResult("program_text and annotations cleared")
	}
}

func handleExplainInference(reg *session.InferenceRegistry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		traceJSON := stringArg(req, "trace_json")
		short := boolArg(req, "short")

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		out, err := sess.KB.ExplainInference(traceJSON, short)
		if err != nil {
			return errResult(err)
		}
		return textResult(out)
	}
}

func handleAnnotatePredicate(reg *session.InferenceRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := stringArg(req, "name")
		label := stringArg(req, "label")

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		sess.KB.AnnotatePredicate(name, label)
		hook.Record(storage.Mutation{SessionID: id, Kind: "datalog.annotate_predicate", Payload: map[string]any{"name": name, "label": label}})
		return textResult(fmt.Sprintf("annotated %q", name))
	}
}
