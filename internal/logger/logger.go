// Package logger builds the zap logger used across the server and forwards
// error-level entries to Sentry when a DSN is configured.
package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger or a development console logger.
// The returned flush function must be called before exit.
func New(isProduction bool, sentryDSN, environment string) (*zap.Logger, func(), error) {
	var (
		logger *zap.Logger
		err    error
	)
	if isProduction {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	flush := func() { _ = logger.Sync() }
	if sentryDSN == "" {
		return logger, flush, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         sentryDSN,
		Environment: environment,
	}); err != nil {
		logger.Warn("Sentry disabled", zap.Error(err))
		return logger, flush, nil
	}

	hub := sentry.CurrentHub()
	logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, NewSentryCore(zapcore.ErrorLevel, func(ev *sentry.Event) {
			hub.CaptureEvent(ev)
		}))
	}))
	flush = func() {
		sentry.Flush(2 * time.Second)
		_ = logger.Sync()
	}
	return logger, flush, nil
}

// SentryCore is a zapcore.Core that turns entries at or above a level into
// Sentry events, carrying structured fields as extras
type SentryCore struct {
	zapcore.LevelEnabler
	fields  []zapcore.Field
	capture func(*sentry.Event)
}

// NewSentryCore creates a core that hands events to capture
func NewSentryCore(level zapcore.LevelEnabler, capture func(*sentry.Event)) *SentryCore {
	return &SentryCore{LevelEnabler: level, capture: capture}
}

func (c *SentryCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *SentryCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *SentryCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	ev := sentry.NewEvent()
	ev.Message = ent.Message
	ev.Level = sentryLevel(ent.Level)
	ev.Timestamp = ent.Time
	ev.Logger = ent.LoggerName
	ev.Extra = enc.Fields
	if ent.Caller.Defined {
		ev.Extra["caller"] = ent.Caller.TrimmedPath()
	}
	c.capture(ev)
	return nil
}

func (c *SentryCore) Sync() error { return nil }

func sentryLevel(l zapcore.Level) sentry.Level {
	switch l {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		return sentry.LevelFatal
	}
}
