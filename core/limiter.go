package core

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WorkspaceLimiter caps in-flight pipeline runs per workspace.
type WorkspaceLimiter struct {
	mu    sync.Mutex
	limit int64
	sems  map[string]*semaphore.Weighted
}

// NewWorkspaceLimiter creates a limiter allowing limit concurrent runs per workspace.
func NewWorkspaceLimiter(limit int) *WorkspaceLimiter {
	if limit < 1 {
		limit = 1
	}
	return &WorkspaceLimiter{
		limit: int64(limit),
		sems:  make(map[string]*semaphore.Weighted),
	}
}

// Acquire blocks until a slot for workspace is free or ctx is done.
// The returned release func must be called exactly once.
func (l *WorkspaceLimiter) Acquire(ctx context.Context, workspace string) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	sem := l.semaphoreFor(workspace)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}

func (l *WorkspaceLimiter) semaphoreFor(workspace string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[workspace]
	if !ok {
		sem = semaphore.NewWeighted(l.limit)
		l.sems[workspace] = sem
	}
	return sem
}
