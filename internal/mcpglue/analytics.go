package mcpglue

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
	"github.com/latticerun/reasoning-mcp/internal/session"
	"github.com/latticerun/reasoning-mcp/internal/storage"
	"github.com/latticerun/reasoning-mcp/internal/tree"
)

// NewAnalyticsServer registers the nine Deep Analytics tools plus ping
// against reg, routing every call through its session's own tree and
// recording mutations on hook as a best-effort side effect.
func NewAnalyticsServer(reg *session.AnalyticsRegistry, hook storage.Hook) *server.MCPServer {
	s := server.NewMCPServer(
		"deep-analytics",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(mcp.NewTool("ping", mcp.WithDescription("Health check; always returns true.")), withLogging("ping", handlePing))

	s.AddTool(mcp.NewTool("create_tree",
		mcp.WithDescription("Start a new analytical decision tree in this session, replacing any existing one."),
		mcp.WithString("premise", mcp.Required(), mcp.Description("The root premise, at least 2 characters.")),
		mcp.WithNumber("complexity", mcp.Required(), mcp.Description("Root confidence/complexity, integer in [1,10].")),
	), withLogging("create_tree", handleCreateTree(reg, hook)))

	s.AddTool(mcp.NewTool("add_leaf",
		mcp.WithDescription("Append a new child premise under the current cursor."),
		mcp.WithString("premise", mcp.Required(), mcp.Description("The child premise text.")),
		mcp.WithString("reasoning", mcp.Required(), mcp.Description("Why this premise follows from its parent.")),
		mcp.WithNumber("probability", mcp.Required(), mcp.Description("Probability in [0.0, 1.0].")),
		mcp.WithNumber("confidence", mcp.Required(), mcp.Description("Confidence in [1, 10].")),
	), withLogging("add_leaf", handleAddLeaf(reg, hook)))

	s.AddTool(mcp.NewTool("expand_leaf",
		mcp.WithDescription("Mark a currently-unexpanded non-root node as expanded."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Target node id.")),
		mcp.WithString("rationale", mcp.Required(), mcp.Description("Recorded rationale for the expansion.")),
	), withLogging("expand_leaf", handleExpandLeaf(reg, hook)))

	s.AddTool(mcp.NewTool("navigate_to",
		mcp.WithDescription("Move the cursor to another node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Target node id.")),
		mcp.WithString("justification", mcp.Required(), mcp.Description("Why the cursor is moving there.")),
	), withLogging("navigate_to", handleNavigateTo(reg, hook)))

	s.AddTool(mcp.NewTool("inspect_tree",
		mcp.WithDescription("Render the tree from root: one line per node, id/premise/probability/confidence/children."),
	), withLogging("inspect_tree", handleInspectTree(reg)))

	s.AddTool(mcp.NewTool("balance_leafs",
		mcp.WithDescription("Normalise the probabilities of the cursor's direct children."),
		mcp.WithString("uncertainty_type", mcp.Required(), mcp.Description("One of Conservative, Neutral, Optimistic.")),
	), withLogging("balance_leafs", handleBalanceLeafs(reg, hook)))

	s.AddTool(mcp.NewTool("prune_tree",
		mcp.WithDescription("Delete low-scoring leaves below a threshold implied by aggressiveness."),
		mcp.WithNumber("aggressiveness", mcp.Required(), mcp.Description("In [0.0, 1.0].")),
	), withLogging("prune_tree", handlePruneTree(reg, hook)))

	s.AddTool(mcp.NewTool("validate_coherence",
		mcp.WithDescription("Produce a structural coherence report over the current tree."),
		mcp.WithString("analysis_detail", mcp.Required(), mcp.Description("At least 32 characters, echoed into the report header.")),
	), withLogging("validate_coherence", handleValidateCoherence(reg)))

	s.AddTool(mcp.NewTool("export_paths",
		mcp.WithDescription("Produce a textual report enumerating root-to-leaf paths."),
		mcp.WithString("narrative_style", mcp.Required(), mcp.Description("One of Analytical, Narrative, Technical.")),
		mcp.WithArray("insights", mcp.Required(), mcp.Description("At least 3 non-empty insight strings."),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("confidence_assessment", mcp.Required(), mcp.Description("In [0.0, 1.0].")),
	), withLogging("export_paths", handleExportPaths(reg)))

	return s
}

func handlePing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult("true")
}

// withTree fetches this call's session, locks it, and hands fn the session
// id and the session's tree (possibly nil). The mutating analytical tool
// handlers other than create_tree (add_leaf, expand_leaf, navigate_to,
// balance_leafs, prune_tree) funnel through this; create_tree and the
// read-only handlers fetch and lock their session themselves.
func withTree(ctx context.Context, reg *session.AnalyticsRegistry, fn func(id string, t *tree.Tree) (string, *tree.Tree, error)) (*mcp.CallToolResult, error) {
	id, err := sessionIDFromContext(ctx)
	if err != nil {
		return errResult(err)
	}
	sess := reg.Get(id)
	unlock := sess.Lock()
	defer unlock()

	msg, newTree, err := fn(id, sess.Tree)
	if err != nil {
		return errResult(err)
	}
	sess.Tree = newTree
	return textResult(msg)
}

func handleCreateTree(reg *session.AnalyticsRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		premise := stringArg(req, "premise")
		complexity, _ := intArg(req, "complexity")

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		t, err := tree.New(premise, complexity)
		if err != nil {
			return errResult(err)
		}
		sess.Tree = t
		hook.Record(storage.Mutation{SessionID: id, Kind: "tree.create_tree", Payload: map[string]any{
			"root_id": t.RootID, "complexity": complexity,
		}})
		return textResult(fmt.Sprintf("Created analytical tree, root ID: %s (complexity=%d)", t.RootID, complexity))
	}
}

func handleAddLeaf(reg *session.AnalyticsRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		premise := stringArg(req, "premise")
		reasoning := stringArg(req, "reasoning")
		probability, _ := floatArg(req, "probability")
		confidence, _ := intArg(req, "confidence")

		return withTree(ctx, reg, func(id string, t *tree.Tree) (string, *tree.Tree, error) {
			if t == nil {
				return "", nil, apperr.New(apperr.StateViolation, "no tree exists in this session yet")
			}
			n, err := t.AddLeaf(premise, reasoning, probability, confidence)
			if err != nil {
				return "", t, err
			}
			hook.Record(storage.Mutation{SessionID: id, Kind: "tree.add_leaf", Payload: map[string]any{
				"node_id": n.ID, "parent_id": n.ParentID,
			}})
			return fmtID("ID", n.ID), t, nil
		})
	}
}

func handleExpandLeaf(reg *session.AnalyticsRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		nodeID := stringArg(req, "node_id")
		rationale := stringArg(req, "rationale")

		return withTree(ctx, reg, func(id string, t *tree.Tree) (string, *tree.Tree, error) {
			if t == nil {
				return "", nil, apperr.New(apperr.StateViolation, "no tree exists in this session yet")
			}
			if err := t.ExpandLeaf(nodeID, rationale); err != nil {
				return "", t, err
			}
			hook.Record(storage.Mutation{SessionID: id, Kind: "tree.expand_leaf", Payload: map[string]any{"node_id": nodeID}})
			return fmt.Sprintf("Expanded node %s (rationale: %s)", nodeID, rationale), t, nil
		})
	}
}

func handleNavigateTo(reg *session.AnalyticsRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		nodeID := stringArg(req, "node_id")
		justification := stringArg(req, "justification")

		return withTree(ctx, reg, func(id string, t *tree.Tree) (string, *tree.Tree, error) {
			if t == nil {
				return "", nil, apperr.New(apperr.StateViolation, "no tree exists in this session yet")
			}
			if err := t.NavigateTo(nodeID, justification); err != nil {
				return "", t, err
			}
			hook.Record(storage.Mutation{SessionID: id, Kind: "tree.navigate_to", Payload: map[string]any{"node_id": nodeID}})
			return fmt.Sprintf("Cursor moved to %s", nodeID), t, nil
		})
	}
}

func handleInspectTree(reg *session.AnalyticsRegistry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		if sess.Tree == nil {
			return errResult(apperr.New(apperr.StateViolation, "no tree exists in this session yet"))
		}
		return textResult(sess.Tree.Inspect())
	}
}

func handleBalanceLeafs(reg *session.AnalyticsRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uncertaintyType := stringArg(req, "uncertainty_type")

		return withTree(ctx, reg, func(id string, t *tree.Tree) (string, *tree.Tree, error) {
			if t == nil {
				return "", nil, apperr.New(apperr.StateViolation, "no tree exists in this session yet")
			}
			if err := t.BalanceLeafs(uncertaintyType); err != nil {
				return "", t, err
			}
			hook.Record(storage.Mutation{SessionID: id, Kind: "tree.balance_leafs", Payload: map[string]any{
				"uncertainty_type": uncertaintyType,
			}})
			return fmt.Sprintf("Balanced cursor's children using %s", uncertaintyType), t, nil
		})
	}
}

func handlePruneTree(reg *session.AnalyticsRegistry, hook storage.Hook) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		aggressiveness, _ := floatArg(req, "aggressiveness")

		return withTree(ctx, reg, func(id string, t *tree.Tree) (string, *tree.Tree, error) {
			if t == nil {
				return "", nil, apperr.New(apperr.StateViolation, "no tree exists in this session yet")
			}
			n, err := t.PruneTree(aggressiveness)
			if err != nil {
				return "", t, err
			}
			hook.Record(storage.Mutation{SessionID: id, Kind: "tree.prune_tree", Payload: map[string]any{"pruned": n}})
			return fmt.Sprintf("Pruned %d leaf(ves)", n), t, nil
		})
	}
}

func handleValidateCoherence(reg *session.AnalyticsRegistry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		analysisDetail := stringArg(req, "analysis_detail")

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		if sess.Tree == nil {
			return errResult(apperr.New(apperr.StateViolation, "no tree exists in this session yet"))
		}
		report, err := sess.Tree.ValidateCoherence(analysisDetail)
		if err != nil {
			return errResult(err)
		}
		return textResult(report.String())
	}
}

func handleExportPaths(reg *session.AnalyticsRegistry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		narrativeStyle := stringArg(req, "narrative_style")
		insights := stringSliceArg(req, "insights")
		confidenceAssessment, _ := floatArg(req, "confidence_assessment")

		id, err := sessionIDFromContext(ctx)
		if err != nil {
			return errResult(err)
		}
		sess := reg.Get(id)
		unlock := sess.Lock()
		defer unlock()

		if sess.Tree == nil {
			return errResult(apperr.New(apperr.StateViolation, "no tree exists in this session yet"))
		}
		report, err := sess.Tree.ExportPaths(narrativeStyle, insights, confidenceAssessment)
		if err != nil {
			return errResult(err)
		}
		return textResult(report)
	}
}
