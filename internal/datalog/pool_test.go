package datalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticerun/reasoning-mcp/internal/apperr"
)

func TestPoolRunReturnsValue(t *testing.T) {
	p := NewPool(2)
	v, err := p.Run(context.Background(), func() (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPoolRunTimesOutOnSlowWork(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Run(ctx, func() (any, error) {
		time.Sleep(200 * time.Millisecond)
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Timeout, kindOf(t, err))
}

func TestPoolRunRecoversPanic(t *testing.T) {
	p := NewPool(1)
	_, err := p.Run(context.Background(), func() (any, error) {
		panic("reasoner exploded")
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, kindOf(t, err))
	assert.Contains(t, err.Error(), "reasoner exploded")
}

func TestPoolRunQueuesBeyondCapacity(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		p.Run(context.Background(), func() (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Run(ctx, func() (any, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Timeout, kindOf(t, err))
	close(release)
}
