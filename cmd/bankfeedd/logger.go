package main

import (
	"context"
	"log/slog"
	"os"

	glog "github.com/goliatone/go-logger/glog"
)

var _ glog.Logger = (*slogLogger)(nil)

// slogLogger bridges the process log/slog handler into the glog contract the
// engine and HTTP surface log through.
type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func newSlogLogger() *slogLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &slogLogger{logger: slog.New(handler).With("logger", "bankfeed")}
}

func (l *slogLogger) context() context.Context {
	if l.ctx != nil {
		return l.ctx
	}
	return context.Background()
}

func (l *slogLogger) Trace(msg string, args ...any) {
	l.logger.Log(l.context(), slog.LevelDebug-4, msg, args...)
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.context(), msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.context(), msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.context(), msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.context(), msg, args...)
}

func (l *slogLogger) Fatal(msg string, args ...any) {
	l.logger.ErrorContext(l.context(), msg, args...)
	os.Exit(1)
}

func (l *slogLogger) WithContext(ctx context.Context) glog.Logger {
	if ctx == nil {
		return l
	}
	return &slogLogger{logger: l.logger, ctx: ctx}
}
