package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestContextRoundTrip(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNew_RespectsLevel(t *testing.T) {
	l := New(Config{Level: "warn", Format: "json"})
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
