package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/leafkit/internal/ctxlog"
)

func TestFromContext_ReturnsEmbeddedLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	require.Same(t, logger, ctxlog.FromContext(ctx))
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	require.Same(t, slog.Default(), ctxlog.FromContext(context.Background()))
}

func TestWith_AttachesAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	ctx, scoped := ctxlog.With(ctx, "component", "receiver")
	scoped.Info("Scoped line.")
	ctxlog.FromContext(ctx).Info("Context line.")

	out := buf.String()
	require.Contains(t, out, `msg="Scoped line." component=receiver`)
	require.Contains(t, out, `msg="Context line." component=receiver`)
}
