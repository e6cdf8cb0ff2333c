package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zap.AtomicLevel{
		"debug":   zap.NewAtomicLevelAt(zap.DebugLevel),
		"INFO":    zap.NewAtomicLevelAt(zap.InfoLevel),
		"warning": zap.NewAtomicLevelAt(zap.WarnLevel),
		"warn":    zap.NewAtomicLevelAt(zap.WarnLevel),
		" error ": zap.NewAtomicLevelAt(zap.ErrorLevel),
		"":        zap.NewAtomicLevelAt(zap.WarnLevel),
		"nope":    zap.NewAtomicLevelAt(zap.WarnLevel),
	}
	for in, want := range cases {
		assert.Equal(t, want.Level(), ParseLevel(in), in)
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := Logger
	Logger = zap.New(core, zap.AddCallerSkip(1))
	t.Cleanup(func() { Logger = prev })

	With(zap.String("job", "feeds")).Info("done", zap.Int("n", 2))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "done", entry.Message)
	assert.Equal(t, map[string]any{"job": "feeds", "n": int64(2)}, entry.ContextMap())
}
