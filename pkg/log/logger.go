package log

import (
	"context"
	"fmt"
	"strings"

	"github.com/thep200/github-portfolio-sync/cfg"
)

type Logger interface {
	Info(ctx context.Context, format string, args ...interface{})
	Alert(ctx context.Context, format string, args ...interface{})
	Error(ctx context.Context, format string, args ...interface{})
	Warn(ctx context.Context, format string, args ...interface{})
	Debug(ctx context.Context, format string, args ...interface{})
	Notice(ctx context.Context, format string, args ...interface{})
	Critical(ctx context.Context, format string, args ...interface{})
	Emergency(ctx context.Context, format string, args ...interface{})
}

func NewLogger(logger Logger) (Logger, error) {
	return logger, nil
}

// NewLoggerFromConfig picks the logger implementation named by Log.Driver.
func NewLoggerFromConfig(config *cfg.Config) (Logger, error) {
	switch strings.ToLower(config.Log.Driver) {
	case "", "console":
		return NewCslLogger()
	case "logrus":
		return NewLogrusLogger(config.Log.Level, config.Log.Format)
	default:
		return nil, fmt.Errorf("unsupported log driver: %s", config.Log.Driver)
	}
}

type cycleKey struct{}

// WithCycle tags ctx with a refresh cycle id that loggers print alongside messages.
func WithCycle(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// Cycle returns the refresh cycle id stored in ctx, if any.
func Cycle(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}
