// Package coordinate bounds the heavy-process usage of the host: browser
// launches are serialized, each user runs at most one scrape at a time, and
// consecutive sites are paced with a jittered delay.
package coordinate

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrUserBusy is returned when a user's previous scrape is still running
// after the bounded wait, so the caller can retry later instead of piling
// up browser processes.
var ErrUserBusy = errors.New("a scrape for this user is already running")

// LaunchGate serializes browser process launches. It gates only the launch
// burst, not the lifetime of a running session.
type LaunchGate struct {
	ch chan struct{}
}

// NewLaunchGate creates a gate admitting n concurrent launches.
func NewLaunchGate(n int) *LaunchGate {
	if n < 1 {
		n = 1
	}
	return &LaunchGate{ch: make(chan struct{}, n)}
}

// Acquire blocks until a launch slot is free or the context is done.
func (g *LaunchGate) Acquire(ctx context.Context) error {
	select {
	case g.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a launch slot. Calls must pair with a successful Acquire;
// an unmatched Release blocks, making the pairing bug visible instead of
// quietly widening the gate.
func (g *LaunchGate) Release() {
	<-g.ch
}

// UserSlots prevents one user from running two scrape requests at once.
// A second request waits up to maxWait behind the first, then is rejected
// with ErrUserBusy rather than silently discarded.
type UserSlots struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	maxWait time.Duration
}

// NewUserSlots creates the per-user slot table.
func NewUserSlots(maxWait time.Duration) *UserSlots {
	return &UserSlots{
		slots:   make(map[string]chan struct{}),
		maxWait: maxWait,
	}
}

func (u *UserSlots) slot(userID string) chan struct{} {
	u.mu.Lock()
	defer u.mu.Unlock()
	s, ok := u.slots[userID]
	if !ok {
		s = make(chan struct{}, 1)
		u.slots[userID] = s
	}
	return s
}

// Acquire claims the user's slot, waiting up to the configured bound.
// The returned release function must be called exactly once.
func (u *UserSlots) Acquire(ctx context.Context, userID string) (func(), error) {
	s := u.slot(userID)

	timer := time.NewTimer(u.maxWait)
	defer timer.Stop()

	select {
	case s <- struct{}{}:
		return func() { <-s }, nil
	case <-timer.C:
		return nil, ErrUserBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pacer inserts a randomized delay between consecutive site scrapes so a
// run does not hammer sites back to back.
type Pacer struct {
	mu  sync.Mutex
	min time.Duration
	max time.Duration
}

// NewPacer creates a pacer with a jittered [min, max] delay.
func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max}
}

// Wait sleeps a jittered delay or returns early on context cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	delay := p.min
	if p.max > p.min {
		delay += time.Duration(rand.Int63n(int64(p.max - p.min)))
	}
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
