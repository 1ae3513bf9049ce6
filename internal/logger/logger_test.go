package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

func TestBuild_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := Build(config.Observability{ServiceName: "oficina", LogLevel: "loud", LogEncoding: "json"})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestFromContext(t *testing.T) {
	base := zap.NewNop()
	scoped := zap.NewExample()

	assert.Same(t, base, FromContext(context.Background(), base))
	assert.Same(t, scoped, FromContext(WithContext(context.Background(), scoped), base))
	assert.NotNil(t, FromContext(context.Background(), nil))
}
