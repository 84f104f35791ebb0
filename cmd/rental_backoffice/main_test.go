package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopOnSignal_FirstSignalOnlyStops(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	ctx, shouldStop, cancel := stopOnSignal(context.Background(), sigs)
	defer cancel()

	assert.False(t, shouldStop())

	sigs <- os.Interrupt
	require.Eventually(t, shouldStop, time.Second, 5*time.Millisecond)
	assert.NoError(t, ctx.Err())

	sigs <- os.Interrupt
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("second signal did not cancel the context")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestStopOnSignal_ParentCancelDoesNotAbortJob(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 2)
	ctx, shouldStop, cancel := stopOnSignal(parent, sigs)
	defer cancel()

	cancelParent()
	assert.NoError(t, ctx.Err())
	assert.False(t, shouldStop())

	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
