/*
checkpoint.go - Periodic persistence and integrity checkpoint

PURPOSE:
  Every mutation autosaves, but a failed save leaves the in-memory book
  ahead of the store. The Checkpointer periodically retries that save,
  re-checks the book's cross-collection invariants and refreshes the
  state gauges.

DESIGN:
  - Runs until its context is cancelled (driven by the server's errgroup)
  - Saves only when the handler is dirty
  - An integrity violation is logged, never repaired silently

CONFIGURATION:
  - Interval: How often to check (default: 1 minute)

USAGE:
  cp := NewCheckpointer(handler)
  g.Go(func() error { return cp.Run(ctx) })

SEE ALSO:
  - handlers.go: commitLocked (autosave after each mutation)
  - compensation/book.go: Verify
*/
package api

import (
	"context"
	"errors"
	"time"
)

// Checkpointer retries failed autosaves and verifies the book.
type Checkpointer struct {
	Handler  *Handler
	Interval time.Duration
}

// NewCheckpointer creates a checkpointer with the default interval.
func NewCheckpointer(h *Handler) *Checkpointer {
	return &Checkpointer{
		Handler:  h,
		Interval: time.Minute,
	}
}

// Run checks once immediately, then on every tick until ctx is done.
// It returns nil on cancellation.
func (c *Checkpointer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	c.Handler.Logger.Info("checkpointer started", "interval", c.Interval)
	c.Checkpoint(ctx)

	for {
		select {
		case <-ticker.C:
			c.Checkpoint(ctx)
		case <-ctx.Done():
			// Final flush with a fresh context; the caller's is already cancelled.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c.Checkpoint(flushCtx)
			c.Handler.Logger.Info("checkpointer stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
	}
}

// Checkpoint performs one integrity check and, when needed, one save.
func (c *Checkpointer) Checkpoint(ctx context.Context) {
	h := c.Handler
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.book.Verify(); err != nil {
		h.Logger.Error("book integrity check failed", "error", err)
	}
	h.observeLocked()

	if !h.dirty {
		return
	}
	if err := h.saveLocked(ctx); err == nil {
		h.Logger.Info("checkpoint saved pending changes")
	}
}

// Dirty reports whether the book has changes the store has not accepted.
func (h *Handler) Dirty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirty
}
