package exprhost

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Row is one record of input, bound to the row variable during evaluation.
// It is expected to be an object value.
type Row = cty.Value

// RowFromStrings builds a row whose attributes are all strings.
func RowFromStrings(fields map[string]string) Row {
	if len(fields) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(fields))
	for k, v := range fields {
		attrs[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(attrs)
}

// DecodeRow decodes one JSON object into a row, inferring attribute types
// from the document.
func DecodeRow(data []byte) (Row, error) {
	ty, err := ctyjson.ImpliedType(data)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to infer row type: %w", err)
	}
	if !ty.IsObjectType() {
		return cty.NilVal, fmt.Errorf("row must be a JSON object, got %s", ty.FriendlyName())
	}
	val, err := ctyjson.Unmarshal(data, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to decode row: %w", err)
	}
	return val, nil
}

// ReadRows decodes newline-delimited JSON objects from r. Blank lines are
// skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		row, err := DecodeRow(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

// EncodeValue renders a result value as JSON.
func EncodeValue(v cty.Value) ([]byte, error) {
	if !v.IsWhollyKnown() {
		return []byte("null"), nil
	}
	return ctyjson.Marshal(v, v.Type())
}
