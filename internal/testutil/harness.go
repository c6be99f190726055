package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/leafkit/internal/app"
	"github.com/vk/leafkit/internal/registry"
)

// HarnessResult holds the outcome of starting an app in a test.
type HarnessResult struct {
	LogOutput *SafeBuffer
	Err       error
	App       *app.App
}

// NewTestApp writes the given manifest files (relative path -> content) to a
// temporary directory and starts an app over them with the given modules,
// or the core modules when none are passed. A startup panic is recovered
// into Err.
func NewTestApp(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return NewTestAppWithConfig(t, app.Config{LogLevel: "debug", LogFormat: "text", WorkerCount: 4}, files, modules...)
}

// NewTestAppWithConfig is NewTestApp with a caller-supplied base config.
func NewTestAppWithConfig(t *testing.T, base app.Config, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	cfg, err := app.NewConfig(base)
	require.NoError(t, err)

	if len(files) > 0 {
		dir := t.TempDir()
		for name, content := range files {
			filePath := filepath.Join(dir, name)
			require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
			require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
		}
		cfg.ManifestPath = dir
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{LogOutput: logBuffer}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App = app.New(logBuffer, cfg, modules...)
	}()

	t.Cleanup(func() {
		if os.Getenv("LEAFKIT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return result
}
