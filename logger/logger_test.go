package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	l, err := New(true, "test")
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New(false, "test")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zap.DebugLevel))
	require.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))

	l := zap.NewExample()
	require.Same(t, l, OrNop(l))
}
