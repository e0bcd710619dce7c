package whisper

import (
	"context"
	"sync"
)

// BuildFunc constructs an engine. It is invoked at most once concurrently.
type BuildFunc func(ctx context.Context) (Engine, error)

// Handle owns the process-wide shared engine. Construction runs under the
// lock, so concurrent first callers block until the one in-flight attempt
// finishes and then observe the same engine. A failed attempt is returned to
// its caller only; the next caller tries construction again.
type Handle struct {
	build BuildFunc

	mu     sync.Mutex
	engine Engine
}

func NewHandle(build BuildFunc) *Handle {
	return &Handle{build: build}
}

// Get returns the shared engine, constructing it on first use.
func (h *Handle) Get(ctx context.Context) (Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine != nil {
		return h.engine, nil
	}

	engine, err := h.build(ctx)
	if err != nil {
		return nil, err
	}

	h.engine = engine
	return engine, nil
}
