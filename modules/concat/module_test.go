package concat_test

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"github.com/vk/leafkit/internal/registry"
	"github.com/vk/leafkit/modules/concat"
	"github.com/zclconf/go-cty/cty"
)

var samples = []string{"", "a", "ab", "foo", "bar", "héllo", "日本語", "tab\tand\nnewline", " spaced "}

func TestConcat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		a, b string
		want string
	}{
		{name: "simple", a: "foo", b: "bar", want: "foobar"},
		{name: "empty first", a: "", b: "x", want: "x"},
		{name: "empty second", a: "x", b: "", want: "x"},
		{name: "both empty", a: "", b: "", want: ""},
		{name: "multibyte", a: "日本", b: "語", want: "日本語"},
		{name: "no case change", a: "AbC", b: "dEf", want: "AbCdEf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, concat.Concat(tc.a, tc.b))
		})
	}
}

func TestConcat_LengthIsAdditive(t *testing.T) {
	t.Parallel()

	for _, a := range samples {
		for _, b := range samples {
			got := concat.Concat(a, b)
			require.Equal(t, len(a)+len(b), len(got))
			require.Equal(t, utf8.RuneCountInString(a)+utf8.RuneCountInString(b), utf8.RuneCountInString(got))
		}
	}
}

func TestConcat_IsAssociative(t *testing.T) {
	t.Parallel()

	for _, a := range samples {
		for _, b := range samples {
			for _, c := range samples {
				require.Equal(t,
					concat.Concat(concat.Concat(a, b), c),
					concat.Concat(a, concat.Concat(b, c)),
				)
			}
		}
	}
}

func TestFunc_Call(t *testing.T) {
	t.Parallel()

	// --- Act ---
	got, err := concat.Func.Call([]cty.Value{cty.StringVal("foo"), cty.StringVal("bar")})

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, got.RawEquals(cty.StringVal("foobar")))
}

func TestFunc_RejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []cty.Value
	}{
		{name: "list", args: []cty.Value{cty.ListVal([]cty.Value{cty.StringVal("a")}), cty.StringVal("b")}},
		{name: "number", args: []cty.Value{cty.StringVal("v"), cty.NumberIntVal(2)}},
		{name: "null", args: []cty.Value{cty.NullVal(cty.String), cty.StringVal("b")}},
		{name: "too few", args: []cty.Value{cty.StringVal("a")}},
		{name: "too many", args: []cty.Value{cty.StringVal("a"), cty.StringVal("b"), cty.StringVal("c")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := concat.Func.Call(tc.args)
			require.Error(t, err)
		})
	}
}

func TestFunc_UnknownInputYieldsUnknown(t *testing.T) {
	t.Parallel()

	got, err := concat.Func.Call([]cty.Value{cty.UnknownVal(cty.String), cty.StringVal("b")})

	require.NoError(t, err)
	require.False(t, got.IsKnown())
	require.Equal(t, cty.String, got.Type())
}

func TestModule_FunctionsHasSingleEntry(t *testing.T) {
	t.Parallel()

	m := &concat.Module{}
	fns := m.Functions()

	require.Len(t, fns, 1)
	require.Contains(t, fns, concat.FunctionName)
	require.Equal(t, "myconcat", concat.FunctionName)
}

func TestModule_Register(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := registry.New()

	// --- Act ---
	(&concat.Module{}).Register(r)

	// --- Assert ---
	entries := r.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "myconcat", entries[0].Name)
	require.Equal(t, concat.Description, entries[0].Description)
	require.NotEqual(t, concat.LegacyDescription, entries[0].Description)
	require.Equal(t, "myconcat(string, string) string", entries[0].Signature())
}

func TestModule_RegisterTwicePanics(t *testing.T) {
	t.Parallel()

	r := registry.New()
	(&concat.Module{}).Register(r)

	require.Panics(t, func() { (&concat.Module{}).Register(r) })
}
