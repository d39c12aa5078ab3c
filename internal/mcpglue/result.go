package mcpglue

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// errResult renders err as the "Error: <kind>: <detail>" line spec.md §6.2,
// §7 requires as the external failure contract. A non-domain error (should
// not happen past the boundary this package owns) is rendered as Internal.
func errResult(err error) (*mcp.CallToolResult, error) {
	ae, ok := apperr.As(err)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("Error: %s: %v", apperr.Internal, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Error: %s: %s", ae.Kind, ae.Detail)), nil
}

func textResult(s string) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s), nil
}
