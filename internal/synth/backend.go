package synth

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/synthkit/internal/spec"
)

// BackendID selects a synthesis engine.
type BackendID string

const (
	GR1C BackendID = "gr1c"
	JTLV BackendID = "jtlv"
)

// Backend decides realizability of a fragment.
//
// Implementations return either a Result or an error. An error means the
// engine could not answer; it is never a verdict.
type Backend interface {
	Synthesize(ctx context.Context, f *spec.Fragment) (*Result, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, f *spec.Fragment) (*Result, error)

// Synthesize calls fn.
func (fn BackendFunc) Synthesize(ctx context.Context, f *spec.Fragment) (*Result, error) {
	return fn(ctx, f)
}

// Registry maps selectors to backends. Adding an engine is one Register call.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[BackendID]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[BackendID]Backend)}
}

// Register binds id to b, replacing any earlier binding.
func (r *Registry) Register(id BackendID, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[id] = b
}

// Lookup returns the backend for id or an *UnsupportedBackendError.
func (r *Registry) Lookup(id BackendID) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedBackendError{ID: id, Known: r.IDs()}
	}
	return b, nil
}

// IDs returns the registered selectors, sorted.
func (r *Registry) IDs() []BackendID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]BackendID, 0, len(r.backends))
	for id := range r.backends {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
