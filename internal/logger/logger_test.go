package logger

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSentryCore(t *testing.T) {
	var events []*sentry.Event
	core := NewSentryCore(zapcore.WarnLevel, func(ev *sentry.Event) { events = append(events, ev) })
	log := zap.New(core).With(zap.String("component", "complaints"))

	log.Info("below threshold")
	log.Warn("slow upload", zap.Int("files", 3))
	log.Error("store failed", zap.Error(errors.New("disk full")))

	require.Len(t, events, 2)

	assert.Equal(t, "slow upload", events[0].Message)
	assert.Equal(t, sentry.LevelWarning, events[0].Level)
	assert.Equal(t, "complaints", events[0].Extra["component"])
	assert.Equal(t, int64(3), events[0].Extra["files"])

	assert.Equal(t, sentry.LevelError, events[1].Level)
	assert.Equal(t, "disk full", events[1].Extra["error"])
	assert.NotContains(t, events[1].Extra, "files", "per-entry fields do not leak across entries")
}

func TestSentryLevel(t *testing.T) {
	tests := map[zapcore.Level]sentry.Level{
		zapcore.DebugLevel:  sentry.LevelDebug,
		zapcore.InfoLevel:   sentry.LevelInfo,
		zapcore.WarnLevel:   sentry.LevelWarning,
		zapcore.ErrorLevel:  sentry.LevelError,
		zapcore.DPanicLevel: sentry.LevelFatal,
		zapcore.FatalLevel:  sentry.LevelFatal,
	}
	for in, want := range tests {
		assert.Equal(t, want, sentryLevel(in), in.String())
	}
}

func TestNewWithoutSentry(t *testing.T) {
	log, flush, err := New(false, "", "test")
	require.NoError(t, err)
	require.NotNil(t, log)
	flush()
}
