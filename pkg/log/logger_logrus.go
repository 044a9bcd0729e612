package log

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts logrus to the Logger interface. Alert, Notice and the
// levels above Error have no logrus equivalent and are mapped onto the
// closest one with a "severity" field.
type LogrusLogger struct {
	base *logrus.Logger
}

func NewLogrusLogger(level, format string) (*LogrusLogger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &LogrusLogger{base: l}, nil
}

// SetOutput redirects log output, mostly for tests.
func (l *LogrusLogger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

func (l *LogrusLogger) with(ctx context.Context, severity string) *logrus.Entry {
	e := logrus.NewEntry(l.base)
	if id := Cycle(ctx); id != "" {
		e = e.WithField("cycle", id)
	}
	if severity != "" {
		e = e.WithField("severity", severity)
	}
	return e
}

func (l *LogrusLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "").Infof(format, args...)
}

func (l *LogrusLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "alert").Errorf(format, args...)
}

func (l *LogrusLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "").Errorf(format, args...)
}

func (l *LogrusLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "").Warnf(format, args...)
}

func (l *LogrusLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "").Debugf(format, args...)
}

func (l *LogrusLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "notice").Infof(format, args...)
}

func (l *LogrusLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "critical").Errorf(format, args...)
}

func (l *LogrusLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.with(ctx, "emergency").Errorf(format, args...)
}
