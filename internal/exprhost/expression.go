package exprhost

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// RowVariable is the name each row is bound to during evaluation.
const RowVariable = "row"

var (
	// ErrParse is returned for expressions that are not valid HCL.
	ErrParse = errors.New("invalid expression")
	// ErrUnknownFunction is returned when an expression calls a function the
	// catalog does not contain.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrUnknownVariable is returned when an expression references anything
	// other than the row variable.
	ErrUnknownVariable = errors.New("unknown variable")
)

// Expression is a parsed expression together with its analysis results.
// It is safe for concurrent use.
type Expression struct {
	Source string

	expr hcl.Expression

	analyzeOnce     sync.Once
	references      []hcl.Traversal
	calledFunctions []string
}

// Parse parses src as a single HCL native-syntax expression.
func Parse(src string) (*Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrParse, diags)
	}
	return &Expression{Source: src, expr: expr}, nil
}

func (e *Expression) analyze() {
	e.analyzeOnce.Do(func() {
		e.references, e.calledFunctions = extractReferencesAndFunctions(e.expr)
	})
}

// References returns all unique variable traversals, sorted.
func (e *Expression) References() []hcl.Traversal {
	e.analyze()
	return e.references
}

// CalledFunctions returns the unique names of all called functions, sorted.
func (e *Expression) CalledFunctions() []string {
	e.analyze()
	return e.calledFunctions
}

// check verifies that every called function is in known and that only the
// row variable is referenced.
func (e *Expression) check(known func(name string) bool) error {
	var missing []string
	for _, name := range e.CalledFunctions() {
		if !known(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, strings.Join(missing, ", "))
	}

	for _, ref := range e.References() {
		if root := ref.RootName(); root != RowVariable {
			return fmt.Errorf("%w: %s (only %q is available)", ErrUnknownVariable, root, RowVariable)
		}
	}
	return nil
}
