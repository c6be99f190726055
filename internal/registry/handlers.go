package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/leafkit/internal/push"
)

// RegisterMessageHandler registers a callback to be invoked for every push
// message the gateway delivers.
func (r *Registry) RegisterMessageHandler(name string, handler push.Handler) {
	if handler == nil {
		panic(fmt.Sprintf("message handler '%s' is nil", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.messageHandlers[name]; exists {
		panic(fmt.Sprintf("message handler with name '%s' already registered", name))
	}
	slog.Debug("Registering message handler.", "name", name)
	r.messageHandlers[name] = handler
}

// MessageHandlerNames returns the registered handler names in order.
func (r *Registry) MessageHandlerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.messageHandlers)
}

// MessageHandler combines all registered handlers, in name order, into one.
func (r *Registry) MessageHandler() push.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers := make([]push.Handler, 0, len(r.messageHandlers))
	for _, name := range sortedKeys(r.messageHandlers) {
		handlers = append(handlers, r.messageHandlers[name])
	}
	return push.Fanout(handlers...)
}
