package exprhost

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/metrics"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"golang.org/x/sync/errgroup"
)

// Evaluator evaluates expressions against a fixed function catalog.
type Evaluator struct {
	functions map[string]function.Function
	workers   int
}

// NewEvaluator creates an Evaluator over functions. Rows are evaluated by at
// most workers goroutines; a value below 1 means GOMAXPROCS.
func NewEvaluator(functions map[string]function.Function, workers int) *Evaluator {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Evaluator{functions: functions, workers: workers}
}

// Compile parses src and checks it against the catalog.
func (e *Evaluator) Compile(src string) (*Expression, error) {
	expr, err := Parse(src)
	if err != nil {
		metrics.EvaluationErrors.WithLabelValues("parse").Inc()
		return nil, err
	}
	if err := expr.check(func(name string) bool {
		_, ok := e.functions[name]
		return ok
	}); err != nil {
		metrics.EvaluationErrors.WithLabelValues("compile").Inc()
		return nil, err
	}
	return expr, nil
}

// Eval evaluates expr with row bound to the row variable.
func (e *Evaluator) Eval(expr *Expression, row Row) (cty.Value, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{RowVariable: row},
		Functions: e.functions,
	}

	val, diags := expr.expr.Value(evalCtx)
	metrics.RowsEvaluated.Inc()
	for _, name := range expr.CalledFunctions() {
		metrics.FunctionCalls.WithLabelValues(name).Inc()
	}
	if diags.HasErrors() {
		metrics.EvaluationErrors.WithLabelValues("eval").Inc()
		return cty.NilVal, diags
	}
	return val, nil
}

// EvalRows compiles src once and evaluates it for every row. Results are
// returned in row order. The first failing row cancels the rest.
func (e *Evaluator) EvalRows(ctx context.Context, src string, rows []Row) ([]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)

	expr, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	logger.Debug("Expression compiled.", "functions", expr.CalledFunctions(), "rows", len(rows), "workers", e.workers)

	results := make([]cty.Value, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			val, err := e.Eval(expr, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			results[i] = val
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
