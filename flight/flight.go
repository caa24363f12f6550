// Package flight provides singleflight-based deduplication for concurrent
// upstream fetches. When multiple requests arrive for the same uncached
// resource, only one upstream fetch is performed.
package flight

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"
)

// FetchFunc fetches a value from upstream. The context passed to FetchFunc
// is detached from any single request so that one caller timing out does not
// cancel the fetch for other waiters.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Group deduplicates concurrent fetches for the same resource key using
// singleflight. It uses DoChan so each caller can respect its own context
// deadline without cancelling the in-flight fetch for others.
//
// The zero value is ready to use.
type Group[T any] struct {
	group singleflight.Group
}

// Do deduplicates concurrent fetches for the same key.
// The fn receives a detached context (not tied to any single request).
// Returns the value, whether it was shared with another caller, and any error.
//
// If the caller's context expires before the fetch completes, Do returns the
// context error but the in-flight fetch continues for other waiters.
func (g *Group[T]) Do(ctx context.Context, key string, fn FetchFunc[T]) (T, bool, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		// A detached context so that no single caller's cancellation stops
		// the fetch for everyone else.
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Shared, res.Err
		}
		return res.Val.(T), res.Shared, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// Forget removes the key from the group, allowing a subsequent call to
// retry. Typically called after a fetch error.
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}

// ForgetOnError forgets key when err is a real fetch failure. Context errors
// mean the caller gave up, not that the fetch failed, so the in-flight fetch
// is left alone for the other waiters.
func ForgetOnError[T any](g *Group[T], key string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	g.Forget(key)
}
