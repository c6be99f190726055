package exprhost_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/leafkit/internal/exprhost"
	"github.com/vk/leafkit/modules/concat"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

func newEvaluator(workers int) *exprhost.Evaluator {
	return exprhost.NewEvaluator(map[string]function.Function{concat.FunctionName: concat.Func}, workers)
}

func TestEvaluator_EvalRows(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	ev := newEvaluator(4)
	rows := []exprhost.Row{
		exprhost.RowFromStrings(map[string]string{"a": "foo", "b": "bar"}),
		exprhost.RowFromStrings(map[string]string{"a": "", "b": "x"}),
		exprhost.RowFromStrings(map[string]string{"a": "日本", "b": "語"}),
	}

	// --- Act ---
	got, err := ev.EvalRows(context.Background(), `myconcat(row.a, row.b)`, rows)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "foobar", got[0].AsString())
	require.Equal(t, "x", got[1].AsString())
	require.Equal(t, "日本語", got[2].AsString())
}

func TestEvaluator_EvalRows_ManyRowsKeepOrder(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(8)
	rows := make([]exprhost.Row, 500)
	for i := range rows {
		rows[i] = exprhost.RowFromStrings(map[string]string{"n": fmt.Sprint(i)})
	}

	got, err := ev.EvalRows(context.Background(), `myconcat("row-", row.n)`, rows)

	require.NoError(t, err)
	for i, v := range got {
		require.Equal(t, fmt.Sprintf("row-%d", i), v.AsString())
	}
}

func TestEvaluator_ConvertsNumbersThroughExpressions(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(1)
	row, err := exprhost.DecodeRow([]byte(`{"name":"v","version":2}`))
	require.NoError(t, err)

	got, err := ev.EvalRows(context.Background(), `myconcat(row.name, row.version)`, []exprhost.Row{row})

	require.NoError(t, err)
	require.Equal(t, "v2", got[0].AsString())
}

func TestEvaluator_Compile_UnknownFunction(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(1)

	_, err := ev.Compile(`upper(myconcat(row.a, row.b))`)

	require.ErrorIs(t, err, exprhost.ErrUnknownFunction)
	require.Contains(t, err.Error(), "upper")
}

func TestEvaluator_Compile_UnknownVariable(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(1)

	_, err := ev.Compile(`myconcat(var.a, row.b)`)

	require.ErrorIs(t, err, exprhost.ErrUnknownVariable)
}

func TestEvaluator_EvalRows_RejectsListArgument(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(2)
	row, err := exprhost.DecodeRow([]byte(`{"a":["x","y"],"b":"z"}`))
	require.NoError(t, err)

	_, err = ev.EvalRows(context.Background(), `myconcat(row.a, row.b)`, []exprhost.Row{row})

	require.Error(t, err)
	require.Contains(t, err.Error(), "row 0")
}

func TestEvaluator_EvalRows_MissingAttribute(t *testing.T) {
	t.Parallel()

	ev := newEvaluator(2)
	rows := []exprhost.Row{exprhost.RowFromStrings(map[string]string{"a": "x"})}

	_, err := ev.EvalRows(context.Background(), `myconcat(row.a, row.b)`, rows)

	require.Error(t, err)
}

func TestEvaluator_EvalRows_NoRows(t *testing.T) {
	t.Parallel()

	got, err := newEvaluator(2).EvalRows(context.Background(), `myconcat("a", "b")`, nil)

	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReadRows(t *testing.T) {
	t.Parallel()

	input := strings.NewReader("{\"a\":\"1\"}\n\n{\"a\":\"2\",\"b\":true}\n")

	rows, err := exprhost.ReadRows(input)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2", rows[1].GetAttr("a").AsString())
	require.True(t, rows[1].GetAttr("b").True())
}

func TestReadRows_RejectsNonObject(t *testing.T) {
	t.Parallel()

	_, err := exprhost.ReadRows(strings.NewReader("{\"a\":\"1\"}\n[1,2]\n"))

	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	out, err := exprhost.EncodeValue(cty.StringVal("foobar"))
	require.NoError(t, err)
	require.JSONEq(t, `"foobar"`, string(out))

	out, err = exprhost.EncodeValue(cty.UnknownVal(cty.String))
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}
