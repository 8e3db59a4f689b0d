package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextWithoutLogger(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, FromContext(ctx))
	assert.NotPanics(t, func() {
		Debug(ctx, "quiet")
		Infow(ctx, "still quiet", "key", "value")
		Errorf(ctx, "also quiet: %d", 42)
	})
}

func TestWithAttachesLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := &ZapLogger{z: zap.New(core).Sugar()}

	ctx := With(context.Background(), logger)
	Infow(ctx, "hello", "key", "value")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "value", entries[0].ContextMap()["key"])
}

func TestNestedScopes(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := &ZapLogger{z: zap.New(core).Sugar()}

	ctx := With(context.Background(), logger)
	inner := With(ctx, FromContext(ctx).Named("keyset").With("url", "https://example.com"))
	Warn(inner, "stale")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "keyset", entries[0].LoggerName)
	assert.Equal(t, "https://example.com", entries[0].ContextMap()["url"])
}
