package mcpglue

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticerun/reasoning-mcp/internal/session"
	"github.com/latticerun/reasoning-mcp/internal/storage"
)

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected a text content block")
	return tc.Text
}

func callAnalytics(t *testing.T, reg *session.AnalyticsRegistry, toolName string, sessionID string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	srv := NewAnalyticsServer(reg, storage.NoopHook{})
	tool := srv.GetTool(toolName)
	require.NotNil(t, tool, "%s tool should be registered", toolName)

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	ctx := context.Background()
	if sessionID != "" {
		ctx = WithSessionID(ctx, sessionID)
	}
	result, err := tool.Handler(ctx, req)
	require.NoError(t, err)
	return result
}

func TestAnalyticsCreateTreeReturnsRootID(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	result := callAnalytics(t, reg, "create_tree", "s1", map[string]any{
		"premise":    "should we expand to a new market",
		"complexity": 3,
	})
	got := text(t, result)
	assert.Contains(t, got, "root ID:")
	assert.Contains(t, got, "complexity=3")
}

func TestAnalyticsAddLeafReturnsID(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	callAnalytics(t, reg, "create_tree", "s1", map[string]any{"premise": "root premise", "complexity": 2})

	result := callAnalytics(t, reg, "add_leaf", "s1", map[string]any{
		"premise":     "a child premise",
		"reasoning":   "because of X",
		"probability": 0.6,
		"confidence":  7,
	})
	got := text(t, result)
	assert.Contains(t, got, "ID:")
	assert.NotContains(t, got, "Error:")
}

func TestAnalyticsAddLeafMissingSessionFails(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	result := callAnalytics(t, reg, "add_leaf", "", map[string]any{
		"premise":     "x",
		"reasoning":   "y",
		"probability": 0.5,
		"confidence":  5,
	})
	got := text(t, result)
	assert.Contains(t, got, "Error: InvalidArgument")
}

func TestAnalyticsAddLeafBeforeTreeExistsIsStateViolation(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	result := callAnalytics(t, reg, "add_leaf", "fresh-session", map[string]any{
		"premise":     "x",
		"reasoning":   "y",
		"probability": 0.5,
		"confidence":  5,
	})
	got := text(t, result)
	assert.Contains(t, got, "Error: StateViolation")
}

func TestAnalyticsBalanceLeafsEvensOutProbabilities(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	callAnalytics(t, reg, "create_tree", "s2", map[string]any{"premise": "root", "complexity": 2})
	sess := reg.Get("s2")
	rootID := sess.Tree.RootID

	callAnalytics(t, reg, "add_leaf", "s2", map[string]any{"premise": "a", "reasoning": "ra", "probability": 0.7, "confidence": 8})
	callAnalytics(t, reg, "add_leaf", "s2", map[string]any{"premise": "b", "reasoning": "rb", "probability": 0.7, "confidence": 3})

	result := callAnalytics(t, reg, "balance_leafs", "s2", map[string]any{"uncertainty_type": "Neutral"})
	got := text(t, result)
	assert.NotContains(t, got, "Error:")

	for _, child := range sess.Tree.Children(rootID) {
		assert.InDelta(t, 0.5, child.Probability, 0.0001)
	}
}

func TestAnalyticsPruneTreeReportsPrunedCount(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	callAnalytics(t, reg, "create_tree", "s3", map[string]any{"premise": "root", "complexity": 2})
	callAnalytics(t, reg, "add_leaf", "s3", map[string]any{"premise": "weak", "reasoning": "rw", "probability": 0.05, "confidence": 2})
	callAnalytics(t, reg, "add_leaf", "s3", map[string]any{"premise": "strong", "reasoning": "rs", "probability": 0.95, "confidence": 9})

	result := callAnalytics(t, reg, "prune_tree", "s3", map[string]any{"aggressiveness": 0.5})
	got := text(t, result)
	assert.NotContains(t, got, "Error:")
	assert.Contains(t, got, "Pruned 1 ")
}

func TestAnalyticsValidateCoherenceOnFreshTree(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	callAnalytics(t, reg, "create_tree", "s4", map[string]any{"premise": "root", "complexity": 1})
	result := callAnalytics(t, reg, "validate_coherence", "s4", map[string]any{
		"analysis_detail": "a full structural coherence pass over the current tree",
	})
	got := text(t, result)
	assert.NotContains(t, got, "Error:")
}

func TestAnalyticsExportPathsMentionsExported(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	callAnalytics(t, reg, "create_tree", "s5", map[string]any{"premise": "root", "complexity": 1})
	result := callAnalytics(t, reg, "export_paths", "s5", map[string]any{
		"narrative_style":       "Analytical",
		"insights":              []any{"insight one", "insight two", "insight three"},
		"confidence_assessment": 0.8,
	})
	got := text(t, result)
	assert.Contains(t, got, "Analysis exported")
}

func TestAnalyticsPingReturnsTrue(t *testing.T) {
	reg := session.NewAnalyticsRegistry()
	result := callAnalytics(t, reg, "ping", "s6", map[string]any{})
	got := text(t, result)
	assert.Contains(t, got, "true")
}
