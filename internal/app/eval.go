package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/vk/leafkit/internal/exprhost"
)

// Eval evaluates expr once per newline-delimited JSON row read from in and
// writes one JSON result per line to out, in input order. With no rows the
// expression is evaluated once against an empty row.
func (a *App) Eval(ctx context.Context, expr string, in io.Reader, out io.Writer) error {
	ctx = a.withLogger(ctx)

	var rows []exprhost.Row
	if in != nil {
		var err error
		rows, err = exprhost.ReadRows(in)
		if err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		rows = []exprhost.Row{exprhost.RowFromStrings(nil)}
	}

	results, err := a.Evaluator().EvalRows(ctx, expr, rows)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	bw := bufio.NewWriter(out)
	for _, v := range results {
		line, err := exprhost.EncodeValue(v)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
