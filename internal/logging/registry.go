package logging

import (
	"errors"
	"sync"
)

// Registry hands out one Logger per name. Asking for a name twice returns
// the first instance; the second Config is ignored, so sinks are never
// attached twice. The zero value is ready to use.
type Registry struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loggers: make(map[string]*Logger)}
}

// Get returns the logger registered under cfg.Name, building it on first use.
func (r *Registry) Get(cfg Config) (*Logger, error) {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[name]; ok {
		return l, nil
	}
	if r.loggers == nil {
		r.loggers = make(map[string]*Logger)
	}
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	r.loggers[name] = l
	return l, nil
}

// Lookup returns a previously built logger.
func (r *Registry) Lookup(name string) (*Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loggers[name]
	return l, ok
}

// Close closes every logger and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, l := range r.loggers {
		errs = append(errs, l.Close())
		delete(r.loggers, name)
	}
	return errors.Join(errs...)
}
