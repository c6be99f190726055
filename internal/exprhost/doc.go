// Package exprhost evaluates HCL native-syntax expressions against the
// function catalog, one row at a time.
//
// An expression is compiled once: it is parsed, the functions it calls and
// the variables it references are extracted, and both are checked against
// what the host provides. Each row is then bound as the variable `row` and
// the expression is evaluated. Rows are independent, so EvalRows fans them
// out over a bounded number of goroutines.
package exprhost
