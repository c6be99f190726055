package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// ValidateRegistry performs a strict parity check between the manifest and
// the registered Go functions. It checks that every declared function is
// implemented and that parameter and return types match. Functions without a
// manifest entry are allowed; the manifest is optional.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.definitions) {
		def := r.definitions[name]
		fn, ok := r.functions[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("function '%s': manifest declares it, but no Go implementation is registered", name))
			continue
		}
		entry := NewFunctionEntry(name, fn)

		if len(def.Params) != len(entry.Params) {
			errs = append(errs, fmt.Sprintf("function '%s': manifest declares %d parameters, Go implementation takes %d", name, len(def.Params), len(entry.Params)))
		} else {
			for i, p := range def.Params {
				goType := entry.Params[i].Type
				if p.Type.Equals(cty.DynamicPseudoType) {
					logger.Warn("Manifest parameter has 'type = any', which disables static type checking.", "function", name, "param", p.Name)
					continue
				}
				if !p.Type.Equals(goType) {
					errs = append(errs, fmt.Sprintf("function '%s', parameter '%s': type mismatch. Manifest requires '%s' but Go implementation declares '%s'",
						name, p.Name, p.Type.FriendlyName(), goType.FriendlyName()))
				}
			}
		}

		if !def.Returns.Equals(cty.DynamicPseudoType) && !def.Returns.Equals(entry.ReturnType) {
			errs = append(errs, fmt.Sprintf("function '%s': return type mismatch. Manifest requires '%s' but Go implementation returns '%s'",
				name, def.Returns.FriendlyName(), entry.ReturnType.FriendlyName()))
		}

		// The catalog serves the Go description; a stale manifest text is
		// reported but does not block startup.
		if def.Description != "" && def.Description != entry.Description {
			logger.Warn("Manifest description differs from the registered function.", "function", name, "manifest", def.Description, "registered", entry.Description)
		}
	}

	for _, name := range sortedKeys(r.functions) {
		if _, ok := r.definitions[name]; !ok {
			logger.Debug("Function has no manifest entry.", "function", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
