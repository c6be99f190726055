package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/leafkit/internal/app"
	"github.com/vk/leafkit/internal/push"
	"github.com/vk/leafkit/internal/testutil"
	"github.com/vk/leafkit/modules/concat"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const concatManifest = `
function "myconcat" {
  description = "Concatenates two strings with no separator."
  param "first" {
    type = string
  }
  param "second" {
    type = string
  }
  returns = string
}
`

func TestNew_CoreModulesRegisterMyconcat(t *testing.T) {
	t.Parallel()

	// --- Act ---
	res := testutil.NewTestApp(t, nil)

	// --- Assert ---
	require.NoError(t, res.Err)
	fn, ok := res.App.Registry().Function("myconcat")
	require.True(t, ok)
	require.Equal(t, concat.Description, fn.Description())
	require.Equal(t, []string{"receiver"}, res.App.Registry().MessageHandlerNames())
}

func TestNew_ManifestParity(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, map[string]string{"concat/manifest.hcl": concatManifest})

	require.NoError(t, res.Err)
	def, ok := res.App.Registry().Definition("myconcat")
	require.True(t, ok)
	require.Len(t, def.Params, 2)
	require.Contains(t, res.LogOutput.String(), "Registry validation passed.")
}

func TestNew_ManifestTypeMismatchPanics(t *testing.T) {
	t.Parallel()

	manifest := strings.Replace(concatManifest, "returns = string", "returns = number", 1)

	res := testutil.NewTestApp(t, map[string]string{"manifest.hcl": manifest})

	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "application startup panicked")
	require.Contains(t, res.Err.Error(), "return type mismatch")
}

func TestNew_UnimplementedManifestFunctionPanics(t *testing.T) {
	t.Parallel()

	extra := concatManifest + `
function "reverse" {
  param "value" {
    type = string
  }
  returns = string
}
`
	res := testutil.NewTestApp(t, map[string]string{"manifest.hcl": extra})

	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "function 'reverse'")
}

func TestNew_DuplicateFunctionPanics(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, nil, &concat.Module{}, &concat.Module{})

	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "already registered")
}

func TestNew_BrokenManifestPanics(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, map[string]string{"broken.hcl": `function "x" {`})

	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "failed to load function manifests")
}

func TestApp_Eval(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	res := testutil.NewTestApp(t, nil)
	require.NoError(t, res.Err)
	in := strings.NewReader("{\"a\":\"foo\",\"b\":\"bar\"}\n{\"a\":\"\",\"b\":\"baz\"}\n")
	var out bytes.Buffer

	// --- Act ---
	err := res.App.Eval(context.Background(), `myconcat(row.a, row.b)`, in, &out)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "\"foobar\"\n\"baz\"\n", out.String())
}

func TestApp_Eval_NoRows(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, nil)
	require.NoError(t, res.Err)
	var out bytes.Buffer

	err := res.App.Eval(context.Background(), `myconcat("a", "b")`, nil, &out)

	require.NoError(t, err)
	require.Equal(t, "\"ab\"\n", out.String())
}

func TestApp_Eval_UnknownFunction(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, nil)
	require.NoError(t, res.Err)

	err := res.App.Eval(context.Background(), `nope(row.a)`, nil, &bytes.Buffer{})

	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown function")
}

func TestApp_Eval_CustomModule(t *testing.T) {
	t.Parallel()

	shout := function.New(&function.Spec{
		Params: []function.Parameter{{Name: "s", Type: cty.String}},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.StringVal(strings.ToUpper(args[0].AsString())), nil
		},
	})
	res := testutil.NewTestApp(t, nil, &concat.Module{}, &testutil.SimpleModule{FunctionName: "shout", Function: shout})
	require.NoError(t, res.Err)
	var out bytes.Buffer

	err := res.App.Eval(context.Background(), `shout(myconcat("a", "b"))`, nil, &out)

	require.NoError(t, err)
	require.Equal(t, "\"AB\"\n", out.String())
}

func TestApp_ListFunctions(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, nil)
	require.NoError(t, res.Err)

	var table bytes.Buffer
	require.NoError(t, res.App.ListFunctions(&table, "text"))
	require.Contains(t, table.String(), "myconcat(string, string) string")

	var raw bytes.Buffer
	require.NoError(t, res.App.ListFunctions(&raw, "json"))
	var views []map[string]any
	require.NoError(t, json.Unmarshal(raw.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, "myconcat", views[0]["name"])
	require.Equal(t, []any{"first", "second"}, views[0]["params"])
}

func TestApp_Router(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, nil)
	require.NoError(t, res.Err)
	srv := httptest.NewServer(res.App.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_MessageHandlerLogsThroughReceiver(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var seen []string
	res := testutil.NewTestApp(t, nil,
		&concat.Module{},
		&testutil.SimpleModule{HandlerName: "recorder", Handler: func(_ context.Context, m push.Message) {
			seen = append(seen, m.From)
		}},
	)
	require.NoError(t, res.Err)

	// --- Act ---
	res.App.Registry().MessageHandler()(res.App.Context(), push.Message{From: "sender-9"})

	// --- Assert ---
	require.Equal(t, []string{"sender-9"}, seen)
}

func TestApp_RegisterToken_RequiresPushSettings(t *testing.T) {
	t.Parallel()

	res := testutil.NewTestApp(t, nil)
	require.NoError(t, res.Err)

	_, err := res.App.RegisterToken(context.Background())

	require.Error(t, err)
	require.Contains(t, err.Error(), "gateway-url")
	require.Contains(t, err.Error(), "app-server-url")
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     app.Config
		wantErr string
	}{
		{name: "defaults", cfg: app.Config{}},
		{name: "upper case values", cfg: app.Config{LogFormat: "JSON", LogLevel: "DEBUG"}},
		{name: "bad format", cfg: app.Config{LogFormat: "xml"}, wantErr: "invalid log-format"},
		{name: "bad level", cfg: app.Config{LogLevel: "trace"}, wantErr: "invalid log-level"},
		{name: "negative workers", cfg: app.Config{WorkerCount: -1}, wantErr: "workers"},
		{name: "bad port", cfg: app.Config{HealthcheckPort: 70000}, wantErr: "healthcheck-port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := app.NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Contains(t, []string{"text", "json"}, cfg.LogFormat)
			require.Contains(t, []string{"info", "debug"}, cfg.LogLevel)
		})
	}
}
