package main

import (
	"context"

	"golang.org/x/sync/semaphore"

	mermaid "github.com/alnah/go-mermaid"
)

// Compile-time interface checks.
var (
	_ mermaid.Renderer = (*limitedRenderer)(nil)
	_ mermaid.Checker  = (*limitedRenderer)(nil)
)

// limitedRenderer caps renders in flight across every document of a batch.
type limitedRenderer struct {
	next mermaid.Renderer
	sem  *semaphore.Weighted
}

func newLimitedRenderer(next mermaid.Renderer, n int) *limitedRenderer {
	return &limitedRenderer{next: next, sem: semaphore.NewWeighted(int64(max(n, 1)))}
}

func (r *limitedRenderer) Render(ctx context.Context, source, theme string) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)
	return r.next.Render(ctx, source, theme)
}

// Check delegates to the wrapped renderer when it supports preflight checks.
func (r *limitedRenderer) Check(ctx context.Context) error {
	if c, ok := r.next.(mermaid.Checker); ok {
		return c.Check(ctx)
	}
	return nil
}
