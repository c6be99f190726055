package testutil

import (
	"github.com/vk/leafkit/internal/push"
	"github.com/vk/leafkit/internal/registry"
	"github.com/zclconf/go-cty/cty/function"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single function or message handler.
type SimpleModule struct {
	FunctionName string
	Function     function.Function

	HandlerName string
	Handler     push.Handler
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.FunctionName != "" {
		r.RegisterFunction(m.FunctionName, m.Function)
	}
	if m.HandlerName != "" && m.Handler != nil {
		r.RegisterMessageHandler(m.HandlerName, m.Handler)
	}
}
