// Package jobs maps job keys to handlers. The registry is populated by one
// explicit bootstrap call during process initialization and then passed by
// reference to the dispatch endpoint and the queue worker — no import-time
// side effects.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Job keys routable via the dispatch endpoint and the queue.
const (
	KeyQuestionImport = "question-import"
)

// HandlerFunc executes one job. The payload is the raw JSON body dispatched
// with the job; handlers validate its shape and return an error on malformed
// input.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Registry is a process-wide lookup from job key to handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a job key. Registering the same key twice is
// a programming error and is rejected.
func (r *Registry) Register(key string, fn HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("job handler already registered: %s", key)
	}
	r.handlers[key] = fn
	return nil
}

// Get returns the handler for a job key.
func (r *Registry) Get(key string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.handlers[key]
	return fn, ok
}

// Keys lists the registered job keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	return keys
}
