package registry

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Param describes one positional parameter of a catalog function.
type Param struct {
	Name      string
	Type      cty.Type
	AllowNull bool
}

// FunctionEntry is the catalog view of a registered function: its name,
// input signature, return type and human-readable description.
type FunctionEntry struct {
	Name        string
	Description string
	Params      []Param
	VarParam    *Param
	ReturnType  cty.Type
}

// Signature renders the entry as name(type, type) type.
func (e FunctionEntry) Signature() string {
	sig := e.Name + "("
	for i, p := range e.Params {
		if i > 0 {
			sig += ", "
		}
		sig += p.Type.FriendlyName()
	}
	if e.VarParam != nil {
		if len(e.Params) > 0 {
			sig += ", "
		}
		sig += "..." + e.VarParam.Type.FriendlyName()
	}
	return sig + ") " + e.ReturnType.FriendlyName()
}

// RegisterFunction adds a scalar function to the catalog under name. Names
// must be valid HCL identifiers and unique; violating either is a programmer
// error and panics.
func (r *Registry) RegisterFunction(name string, fn function.Function) {
	if !hclsyntax.ValidIdentifier(name) {
		panic(fmt.Sprintf("function name '%s' is not a valid identifier", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[name]; exists {
		panic(fmt.Sprintf("function with name '%s' already registered", name))
	}
	slog.Debug("Registering function.", "name", name)
	r.functions[name] = fn
}

// RegisterFunctions registers every function of a module's name -> function
// mapping, in name order so that a duplicate always panics on the same key.
func (r *Registry) RegisterFunctions(fns map[string]function.Function) {
	for _, name := range sortedKeys(fns) {
		r.RegisterFunction(name, fns[name])
	}
}

// Function returns the function registered under name.
func (r *Registry) Function(name string) (function.Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	return fn, ok
}

// Functions returns a copy of the catalog, suitable for hcl.EvalContext.Functions.
func (r *Registry) Functions() map[string]function.Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]function.Function, len(r.functions))
	for name, fn := range r.functions {
		out[name] = fn
	}
	return out
}

// Entries returns the catalog entries sorted by name.
func (r *Registry) Entries() []FunctionEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]FunctionEntry, 0, len(r.functions))
	for _, name := range sortedKeys(r.functions) {
		entries = append(entries, NewFunctionEntry(name, r.functions[name]))
	}
	return entries
}

// NewFunctionEntry describes fn as a catalog entry.
func NewFunctionEntry(name string, fn function.Function) FunctionEntry {
	entry := FunctionEntry{
		Name:        name,
		Description: fn.Description(),
	}

	argTypes := make([]cty.Type, 0, len(fn.Params()))
	for _, p := range fn.Params() {
		entry.Params = append(entry.Params, Param{Name: p.Name, Type: p.Type, AllowNull: p.AllowNull})
		argTypes = append(argTypes, p.Type)
	}
	if vp := fn.VarParam(); vp != nil {
		entry.VarParam = &Param{Name: vp.Name, Type: vp.Type, AllowNull: vp.AllowNull}
	}

	ret, err := fn.ReturnType(argTypes)
	if err != nil {
		ret = cty.DynamicPseudoType
	}
	entry.ReturnType = ret
	return entry
}
