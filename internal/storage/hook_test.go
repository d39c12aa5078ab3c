package storage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/latticerun/reasoning-mcp/internal/config"
)

func TestNewReturnsNoopHookForMemoryURL(t *testing.T) {
	cfg := config.Config{DatabaseURL: "memory"}
	h := New(cfg, zerolog.Nop())

	_, ok := h.(NoopHook)
	assert.True(t, ok, "expected NoopHook for memory-only config")

	// Record and Close must be safe no-ops.
	h.Record(Mutation{SessionID: "s1", Kind: "tree.add_leaf"})
	h.Close()
}

func TestNewReturnsNoopHookForEmptyURL(t *testing.T) {
	cfg := config.Config{DatabaseURL: ""}
	h := New(cfg, zerolog.Nop())

	_, ok := h.(NoopHook)
	assert.True(t, ok)
}

func TestNewDegradesToNoopOnUnreachableDatabase(t *testing.T) {
	cfg := config.Config{DatabaseURL: "ws://127.0.0.1:1/rpc"}
	h := New(cfg, zerolog.Nop())

	// An unreachable SurrealDB endpoint must never fail process startup.
	_, ok := h.(NoopHook)
	assert.True(t, ok, "expected degrade-to-noop when SurrealDB is unreachable")
}
