package resilience

import "sync"

// Registry holds one shared instance per name. Middleware is built per call,
// so limiters and breakers that must outlive a call live here.
type Registry[T any] struct {
	mu    sync.Mutex
	items map[string]T
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// GetOrCreate returns the instance registered under name, creating it with
// create on first use. create runs at most once per name.
func (r *Registry[T]) GetOrCreate(name string, create func() T) T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.items[name]; ok {
		return item
	}
	item := create()
	r.items[name] = item
	return item
}

// Get returns the instance registered under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[name]
	return item, ok
}

// Len returns the number of instances.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
