// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/fsutil"
)

// LoadRecursively parses every .hcl file under path (a file or a directory)
// and returns all function definitions found. A name declared twice across
// files is an error.
func LoadRecursively(ctx context.Context, path string) ([]*Function, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading function manifests...", "path", path)

	filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk manifest path %s: %w", path, err)
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl manifest files found in path.", "path", path)
		return nil, nil
	}

	parser := hclparse.NewParser()
	var all []*Function
	declaredIn := make(map[string]string)

	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
		}

		fns, diags := ParseFile(ctx, hclFile, filePath)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to process function definitions in %s: %w", filePath, diags)
		}

		for _, fn := range fns {
			if prev, dup := declaredIn[fn.Name]; dup {
				return nil, fmt.Errorf("function '%s' declared in both %s and %s", fn.Name, prev, filePath)
			}
			declaredIn[fn.Name] = filePath
		}
		all = append(all, fns...)
	}

	logger.Info("Function manifests loaded.", "definitions", len(all), "files", len(filePaths))
	return all, nil
}

// Parse parses manifest source held in memory.
func Parse(ctx context.Context, src []byte, filename string) ([]*Function, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	fns, diags := ParseFile(ctx, hclFile, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to process function definitions in %s: %w", filename, diags)
	}
	return fns, nil
}
