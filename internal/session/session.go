// Package session implements the process-wide registry described in
// spec.md §5, §9: each client session is identified by an opaque string id
// and owns exactly one state container — an analytical tree or a Datalog
// knowledge base, depending on which service hosts the registry. Lookup is
// concurrent; creation is lazy and exclusive. Every tool call first fetches
// its session, then serialises on that session's own lock, so at most one
// tool call per session executes at a time while unrelated sessions proceed
// independently.
package session

import (
	"sync"

	"github.com/latticerun/reasoning-mcp/internal/datalog"
	"github.com/latticerun/reasoning-mcp/internal/tree"
)

// AnalyticsSession is the per-client state a Deep Analytics tool call
// operates under. Tree is nil until create_tree is first called; callers
// must hold the lock returned by Lock for the duration of any read or
// mutation.
type AnalyticsSession struct {
	mu   sync.Mutex
	Tree *tree.Tree
}

// Lock acquires the session's exclusive lock and returns the matching
// unlock function.
func (s *AnalyticsSession) Lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// AnalyticsRegistry is the process-wide map from session id to
// AnalyticsSession for the Deep Analytics service.
type AnalyticsRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*AnalyticsSession
}

// NewAnalyticsRegistry returns an empty registry.
func NewAnalyticsRegistry() *AnalyticsRegistry {
	return &AnalyticsRegistry{sessions: make(map[string]*AnalyticsSession)}
}

// Get returns the session for id, creating an empty one on first reference.
func (r *AnalyticsRegistry) Get(id string) *AnalyticsSession {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = &AnalyticsSession{}
	r.sessions[id] = s
	return s
}

// Count reports how many sessions are currently registered.
func (r *AnalyticsRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// InferenceSession is the per-client state a Logical Engine tool call
// operates under. Unlike the tree there is no "nothing created yet" state
// distinct from an empty program, so KB is populated eagerly on creation.
type InferenceSession struct {
	mu sync.Mutex
	KB *datalog.KnowledgeBase
}

// Lock acquires the session's exclusive lock and returns the matching
// unlock function.
func (s *InferenceSession) Lock() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// InferenceRegistry is the process-wide map from session id to
// InferenceSession for the Logical Inference service.
type InferenceRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*InferenceSession
}

// NewInferenceRegistry returns an empty registry.
func NewInferenceRegistry() *InferenceRegistry {
	return &InferenceRegistry{sessions: make(map[string]*InferenceSession)}
}

// Get returns the session for id, creating one with a fresh empty
// knowledge base on first reference.
func (r *InferenceRegistry) Get(id string) *InferenceSession {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = &InferenceSession{KB: datalog.New()}
	r.sessions[id] = s
	return s
}

// Count reports how many sessions are currently registered.
func (r *InferenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
