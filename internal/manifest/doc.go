// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest parses the optional HCL manifest that declares the public
// contract of each catalog function.
//
// A manifest file contains one or more `function` blocks:
//
//	function "myconcat" {
//	  description = "Concatenates two strings with no separator."
//	  param "first"  { type = string }
//	  param "second" { type = string }
//	  returns = string
//	}
//
// The manifest is format-level documentation of what the Go implementations
// promise. The registry compares the two at startup; the manifest never
// supplies behavior.
package manifest
