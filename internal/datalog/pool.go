package datalog

import (
	"context"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

// Pool is the process-wide bounded pool of blocking workers dedicated to
// rebuilding and evaluating a fresh reasoner per call. Sized once at process
// start (DATALOG_WORKER_POOL_SIZE); if saturated, new calls queue for a free
// slot.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a pool able to run up to size reasoner evaluations
// concurrently.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

type workOutcome struct {
	val any
	err error
}

// Run schedules fn on a free worker slot and waits for it to finish or for
// ctx to expire first. On timeout the worker goroutine is left to finish (or
// never does) in the background; its result is simply never read — the
// reasoner it built is abandoned along with it, never touching kb state.
func (p *Pool) Run(ctx context.Context, fn func() (any, error)) (any, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, apperr.New(apperr.Timeout, "timed out waiting for a free worker")
	}

	done := make(chan workOutcome, 1)
	go func() {
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				done <- workOutcome{err: apperr.Newf(apperr.Internal, "reasoner panicked: %v", r)}
			}
		}()
		v, err := fn()
		done <- workOutcome{val: v, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		return nil, apperr.New(apperr.Timeout, "query exceeded timeout_ms")
	}
}
