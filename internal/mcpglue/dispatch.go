package mcpglue

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
	"github.com/latticerun/reasoning-mcp/internal/logging"
)

// withLogging wraps a tool handler so every dispatch produces the one
// log line per call spec.md's ambient stack calls for: session_id, tool,
// duration_ms, and — on failure — error_kind. Every AddTool registration in
// this package goes through it.
func withLogging(tool string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, req)
		sessionID, _ := ctx.Value(sessionIDKey).(string)
		logging.ToolCall(sessionID, tool, time.Since(start), dispatchErr(result, err))
		return result, err
	}
}

// dispatchErr recovers the apperr.Kind a handler reported, if any. Handlers
// in this package never return a non-nil Go error themselves — failures are
// rendered into the result text via errResult — so the "Error: <kind>: ..."
// prefix is the only place that information lives by the time it reaches
// the dispatch wrapper.
func dispatchErr(result *mcp.CallToolResult, err error) error {
	if err != nil {
		return err
	}
	if result == nil || len(result.Content) == 0 {
		return nil
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok || !strings.HasPrefix(tc.Text, "Error: ") {
		return nil
	}
	rest := strings.TrimPrefix(tc.Text, "Error: ")
	kind, detail, _ := strings.Cut(rest, ": ")
	return apperr.New(apperr.Kind(kind), detail)
}
