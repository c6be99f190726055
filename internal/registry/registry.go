package registry

import (
	"sort"
	"sync"

	"github.com/vk/leafkit/internal/manifest"
	"github.com/vk/leafkit/internal/push"
	"github.com/zclconf/go-cty/cty/function"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered functions, message handlers and manifest
// definitions for a single application instance.
type Registry struct {
	mu sync.RWMutex

	functions       map[string]function.Function
	messageHandlers map[string]push.Handler
	definitions     map[string]*manifest.Function
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		functions:       make(map[string]function.Function),
		messageHandlers: make(map[string]push.Handler),
		definitions:     make(map[string]*manifest.Function),
	}
}

// PopulateDefinitions copies manifest function definitions into the registry
// so ValidateRegistry can compare them with the registered Go functions.
func (r *Registry) PopulateDefinitions(defs []*manifest.Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, def := range defs {
		r.definitions[def.Name] = def
	}
}

// Definition returns the manifest definition for a function, if one was loaded.
func (r *Registry) Definition(name string) (*manifest.Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	return def, ok
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
