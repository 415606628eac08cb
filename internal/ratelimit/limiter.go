// Package ratelimit provides a sliding-window admission gate for outbound
// provider requests. One Limiter is shared per instance/token credential
// pair by every polling loop and on-demand command.
package ratelimit

import (
	"context"
	"time"
)

// Limiter admits at most maxRequests grants within any trailing window.
// Wait blocks the calling goroutine (and only it) until a grant would not
// exceed the cap. Grants are recorded as timestamps and pruned as they age
// out of the window.
type Limiter struct {
	max    int
	window time.Duration

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	reqs chan struct{} // serializes admission so grants are FIFO

	grants []time.Time
}

// New creates a Limiter admitting maxRequests per trailing window.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	l := &Limiter{
		max:    maxRequests,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
		reqs:   make(chan struct{}, 1),
	}
	l.reqs <- struct{}{}
	return l
}

// Wait blocks until issuing one request stays within the window cap, then
// records the grant. Returns the context's error if it is cancelled while
// waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	// Take the admission token so waiters are granted in arrival order.
	select {
	case <-l.reqs:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { l.reqs <- struct{}{} }()

	for {
		now := l.now()
		l.prune(now)

		if len(l.grants) < l.max {
			l.grants = append(l.grants, now)
			return nil
		}

		wait := l.window - now.Sub(l.grants[0])
		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops grant timestamps that have aged out of the window.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
