package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Run("stored logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := With(WithLogger(context.Background(), logger), "unit", "page.erb")

		FromContext(ctx).Info("built")
		assert.Contains(t, buf.String(), "msg=built unit=page.erb")
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), FromContext(context.Background()))
		assert.NotPanics(t, func() {
			With(context.Background(), "k", "v")
		})
	})
}
