package coordinate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSlotsExclusive(t *testing.T) {
	slots := NewUserSlots(50 * time.Millisecond)
	ctx := context.Background()

	release, err := slots.Acquire(ctx, "user-1")
	require.NoError(t, err)

	// Second acquire for the same user must be rejected after the wait.
	_, err = slots.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, ErrUserBusy)

	// A different user is unaffected.
	release2, err := slots.Acquire(ctx, "user-2")
	require.NoError(t, err)
	release2()

	release()

	// Slot is reusable after release.
	release3, err := slots.Acquire(ctx, "user-1")
	require.NoError(t, err)
	release3()
}

func TestUserSlotsWaitsForRelease(t *testing.T) {
	slots := NewUserSlots(time.Second)
	ctx := context.Background()

	release, err := slots.Acquire(ctx, "user-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	acquired := make(chan struct{})
	go func() {
		defer wg.Done()
		r, err := slots.Acquire(ctx, "user-1")
		assert.NoError(t, err)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the first holds the slot")
	case <-time.After(30 * time.Millisecond):
	}

	release()
	wg.Wait()
}

func TestLaunchGateSerializes(t *testing.T) {
	gate := NewLaunchGate(1)
	ctx := context.Background()

	require.NoError(t, gate.Acquire(ctx))

	blocked, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	assert.Error(t, gate.Acquire(blocked))

	gate.Release()
	require.NoError(t, gate.Acquire(ctx))
	gate.Release()
}

func TestLaunchGateReleaseRequiresAcquire(t *testing.T) {
	gate := NewLaunchGate(1)

	done := make(chan struct{})
	go func() {
		gate.Release()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("release without a matching acquire should block")
	case <-time.After(30 * time.Millisecond):
	}

	// Pair the dangling release so the goroutine finishes.
	require.NoError(t, gate.Acquire(context.Background()))
	<-done
}

func TestPacerRespectsContext(t *testing.T) {
	pacer := NewPacer(time.Minute, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := pacer.Wait(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
