package mcpglue

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return v
}

func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func intArg(req mcp.CallToolRequest, key string) (int, bool) {
	f, ok := floatArg(req, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func intArgDefault(req mcp.CallToolRequest, key string, def int) int {
	n, ok := intArg(req, key)
	if !ok {
		return def
	}
	return n
}

func boolArg(req mcp.CallToolRequest, key string) bool {
	v, _ := req.GetArguments()[key].(bool)
	return v
}

// stringSliceArg decodes a JSON array argument (decoded by the transport as
// []any of strings) into []string, skipping any non-string element.
func stringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func fmtID(label, id string) string {
	return fmt.Sprintf("%s: %s", label, id)
}
