package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlessRunTicksUntilCancelled(t *testing.T) {
	var ticks atomic.Int32
	var elapsed atomic.Uint64
	e := NewEngine(WithTickRate(200), WithTickCallback(func(dt float32) {
		ticks.Add(1)
		elapsed.Add(uint64(dt * 1e6))
	}))
	assert.Nil(t, e.Window())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, e.Run(ctx))
	assert.Greater(t, ticks.Load(), int32(3))
	assert.Greater(t, elapsed.Load(), uint64(0))
}

func TestQuitStopsRun(t *testing.T) {
	e := NewEngine(WithTickRate(500))
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestTickPanicIsReturned(t *testing.T) {
	e := NewEngine(WithTickRate(500), WithTickCallback(func(float32) {
		panic("boom")
	}))

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick loop panicked: boom")
}

func TestSetTickRateWhileRunning(t *testing.T) {
	var ticks atomic.Int32
	e := NewEngine(WithTickRate(1), WithTickCallback(func(float32) { ticks.Add(1) }))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(10 * time.Millisecond)
		e.SetTickRate(400)
	}()

	require.NoError(t, e.Run(ctx))
	assert.Greater(t, ticks.Load(), int32(3))
}

func TestSetRenderFrameLimit(t *testing.T) {
	e := NewEngine().(*engine)

	e.SetRenderFrameLimit(50)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
}
