// Package concat provides the myconcat scalar function.
package concat

import (
	"github.com/vk/leafkit/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// FunctionName is the catalog name callers use in expressions.
const FunctionName = "myconcat"

// Description is registered with the function.
const Description = "Concatenates two strings with no separator."

// LegacyDescription is the wording older releases shipped. It described a
// transformation the function never performed and is not registered.
const LegacyDescription = "Returns the concatenation of two strings in alternating case."

// Concat returns a followed immediately by b.
func Concat(a, b string) string {
	return a + b
}

// Func is the catalog form of Concat. Arguments that cannot be converted to
// strings, and nulls, are rejected before Concat runs.
var Func = function.New(&function.Spec{
	Description: Description,
	Params: []function.Parameter{
		{Name: "first", Type: cty.String},
		{Name: "second", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(Concat(args[0].AsString(), args[1].AsString())), nil
	},
})

// Module implements the registry.Module interface for this package.
type Module struct{}

// Functions returns the functions this module contributes.
func (m *Module) Functions() map[string]function.Function {
	return map[string]function.Function{FunctionName: Func}
}

// Register adds the module's functions to the catalog.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunctions(m.Functions())
}
