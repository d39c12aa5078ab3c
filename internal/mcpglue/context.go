// Package mcpglue wires the analytical tree engine and the Datalog
// inference bridge onto the MCP tool surface described in spec.md §6: tool
// registration, argument decoding, the session-id propagation contract, and
// the response-format substrings existing clients depend on.
package mcpglue

import (
	"context"
	"net/http"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

type sessionIDKeyType struct{}

var sessionIDKey = sessionIDKeyType{}

// sessionIDHeader is the header a client must set to select its session.
// mark3labs/mcp-go's streamable server does assign its own transport-level
// session id, but does not expose it to a HTTPContextFunc or a tool handler,
// so there is nothing to fall back to here: X-Session-Id is the only source.
const sessionIDHeader = "X-Session-Id"

// HTTPContextFunc lifts the session id out of request metadata (spec.md
// §6.1 "a session identifier must be present in the call metadata") into
// the context every tool handler receives.
func HTTPContextFunc(ctx context.Context, r *http.Request) context.Context {
	if id := r.Header.Get(sessionIDHeader); id != "" {
		return context.WithValue(ctx, sessionIDKey, id)
	}
	return ctx
}

// WithSessionID attaches an explicit session id to ctx directly, for
// transports and tests that have no X-Session-Id header to read.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// sessionIDFromContext returns the session id attached to ctx, failing
// closed (spec.md §9 "a session identifier must be present") when the
// X-Session-Id header was never set.
func sessionIDFromContext(ctx context.Context) (string, error) {
	id, _ := ctx.Value(sessionIDKey).(string)
	if id == "" {
		return "", apperr.New(apperr.InvalidArgument, "no session id present in call metadata")
	}
	return id, nil
}
