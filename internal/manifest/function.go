// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Function is the format-agnostic representation of a `function` block.
type Function struct {
	Name        string
	Description string
	Params      []Param
	Returns     cty.Type
	FilePath    string
}

// Param is one declared positional parameter.
type Param struct {
	Name        string
	Type        cty.Type
	Description string
}

// fileSchema defines the top-level structure of a manifest file.
type fileSchema struct {
	Functions []*hclFunction `hcl:"function,block"`
}

type hclFunction struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Params      []*hclParam    `hcl:"param,block"`
	Returns     hcl.Expression `hcl:"returns,optional"`
}

type hclParam struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Description string         `hcl:"description,optional"`
}

// ParseFile decodes an HCL file that contains one or more `function` blocks.
func ParseFile(ctx context.Context, hclFile *hcl.File, filePath string) ([]*Function, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing function definitions from file.", "file_path", filePath)

	if hclFile == nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		}}
	}

	var root fileSchema
	diags := gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return nil, diags
	}

	functions := make([]*Function, 0, len(root.Functions))
	for _, block := range root.Functions {
		fn, fnDiags := translateFunction(block, filePath)
		diags = append(diags, fnDiags...)
		if fnDiags.HasErrors() {
			continue
		}
		logger.Debug("Parsed function definition.", "function", fn.Name, "params", len(fn.Params))
		functions = append(functions, fn)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return functions, diags
}

func translateFunction(block *hclFunction, filePath string) (*Function, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	fn := &Function{
		Name:        block.Name,
		Description: block.Description,
		FilePath:    filePath,
	}

	seen := make(map[string]struct{}, len(block.Params))
	for _, p := range block.Params {
		if _, dup := seen[p.Name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter",
				Detail:   fmt.Sprintf("Function %q declares parameter %q more than once.", block.Name, p.Name),
			})
			continue
		}
		seen[p.Name] = struct{}{}

		ty, tyDiags := typeFromExpr(p.Type)
		diags = append(diags, tyDiags...)
		fn.Params = append(fn.Params, Param{Name: p.Name, Type: ty, Description: p.Description})
	}

	ret, retDiags := typeFromExpr(block.Returns)
	diags = append(diags, retDiags...)
	fn.Returns = ret

	return fn, diags
}

// typeFromExpr converts a type keyword expression (string, list(number), ...)
// into its cty.Type. An omitted attribute means `any`.
func typeFromExpr(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	if expr == nil {
		return cty.DynamicPseudoType, nil
	}
	if v, diags := expr.Value(nil); !diags.HasErrors() && v.IsNull() {
		return cty.DynamicPseudoType, nil
	}
	return typeexpr.TypeConstraint(expr)
}
