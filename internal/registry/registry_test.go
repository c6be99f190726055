package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/leafkit/internal/manifest"
	"github.com/vk/leafkit/internal/push"
	"github.com/vk/leafkit/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

func stringFunc(description string, params ...string) function.Function {
	spec := &function.Spec{
		Description: description,
		Type:        function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.StringVal(""), nil
		},
	}
	for _, p := range params {
		spec.Params = append(spec.Params, function.Parameter{Name: p, Type: cty.String})
	}
	return function.New(spec)
}

func TestRegisterFunction(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := registry.New()

	// --- Act ---
	r.RegisterFunction("join2", stringFunc("Joins.", "a", "b"))

	// --- Assert ---
	_, ok := r.Function("join2")
	require.True(t, ok)
	_, ok = r.Function("missing")
	require.False(t, ok)
}

func TestRegisterFunction_Panics(t *testing.T) {
	t.Parallel()

	t.Run("duplicate", func(t *testing.T) {
		r := registry.New()
		r.RegisterFunction("f", stringFunc(""))
		require.PanicsWithValue(t, "function with name 'f' already registered", func() {
			r.RegisterFunction("f", stringFunc(""))
		})
	})

	t.Run("invalid identifier", func(t *testing.T) {
		r := registry.New()
		require.Panics(t, func() { r.RegisterFunction("my concat", stringFunc("")) })
	})
}

func TestFunctions_ReturnsCopy(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.RegisterFunction("f", stringFunc(""))

	fns := r.Functions()
	delete(fns, "f")

	_, ok := r.Function("f")
	require.True(t, ok)
}

func TestEntries_SortedWithSignature(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.RegisterFunctions(map[string]function.Function{
		"zeta":  stringFunc("Z.", "x"),
		"alpha": stringFunc("A.", "x", "y"),
	})

	entries := r.Entries()

	require.Len(t, entries, 2)
	require.Equal(t, "alpha", entries[0].Name)
	require.Equal(t, "alpha(string, string) string", entries[0].Signature())
	require.Equal(t, "A.", entries[0].Description)
	require.Equal(t, "zeta", entries[1].Name)
	require.Equal(t, "x", entries[1].Params[0].Name)
}

func TestMessageHandlers(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	r := registry.New()
	var order []string
	r.RegisterMessageHandler("b", func(context.Context, push.Message) { order = append(order, "b") })
	r.RegisterMessageHandler("a", func(context.Context, push.Message) { order = append(order, "a") })

	// --- Act ---
	r.MessageHandler()(context.Background(), push.Message{From: "x"})

	// --- Assert ---
	require.Equal(t, []string{"a", "b"}, order)
	require.Equal(t, []string{"a", "b"}, r.MessageHandlerNames())
	require.Panics(t, func() { r.RegisterMessageHandler("a", func(context.Context, push.Message) {}) })
	require.Panics(t, func() { r.RegisterMessageHandler("nil", nil) })
}

func TestValidateRegistry(t *testing.T) {
	t.Parallel()

	def := func(name string, returns cty.Type, params ...cty.Type) *manifest.Function {
		fn := &manifest.Function{Name: name, Returns: returns}
		for i, p := range params {
			fn.Params = append(fn.Params, manifest.Param{Name: string(rune('a' + i)), Type: p})
		}
		return fn
	}

	testCases := []struct {
		name    string
		defs    []*manifest.Function
		wantErr string
	}{
		{name: "no manifest", defs: nil},
		{name: "matching", defs: []*manifest.Function{def("f", cty.String, cty.String, cty.String)}},
		{name: "any types", defs: []*manifest.Function{def("f", cty.DynamicPseudoType, cty.DynamicPseudoType, cty.String)}},
		{name: "unimplemented", defs: []*manifest.Function{def("g", cty.String)}, wantErr: "no Go implementation"},
		{name: "param count", defs: []*manifest.Function{def("f", cty.String, cty.String)}, wantErr: "declares 1 parameters"},
		{name: "param type", defs: []*manifest.Function{def("f", cty.String, cty.String, cty.Number)}, wantErr: "type mismatch"},
		{name: "return type", defs: []*manifest.Function{def("f", cty.Bool, cty.String, cty.String)}, wantErr: "return type mismatch"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := registry.New()
			r.RegisterFunction("f", stringFunc("F.", "a", "b"))
			r.PopulateDefinitions(tc.defs)

			err := r.ValidateRegistry(context.Background())

			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestValidateRegistry_DescriptionMismatchOnlyWarns(t *testing.T) {
	t.Parallel()

	r := registry.New()
	r.RegisterFunction("f", stringFunc("Current text.", "a"))
	r.PopulateDefinitions([]*manifest.Function{{
		Name:        "f",
		Description: "Stale text.",
		Params:      []manifest.Param{{Name: "a", Type: cty.String}},
		Returns:     cty.String,
	}})

	require.NoError(t, r.ValidateRegistry(context.Background()))
}
