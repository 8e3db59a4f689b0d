// Package logging provides a context-carried structured logger backed by
// zap. Callers attach a logger with With and library code retrieves it with
// FromContext; when no logger has been attached, log calls are no-ops, so
// the library stays quiet unless the host application opts in.
package logging

import "context"

type ctxkey struct {
	logger Logger
}

// With attaches a logger to the context.
//
// This can be used to create logging scopes like so:
//
//	ctx := logging.With(ctx, logger.Named("verifier"))
func With(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxkey{}, &ctxkey{logger: logger})
}

// FromContext returns the scoped logger, or a no-op logger if none has been
// attached.
func FromContext(ctx context.Context) Logger {
	if c, ok := ctx.Value(ctxkey{}).(*ctxkey); ok {
		return c.logger
	}
	return noop{}
}

// Logger is an abstract logging interface designed around uber-go/zap's
// sugared logger, but intended to provide interop with other libraries.
type Logger interface {
	Debug(args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Debugf(msg string, args ...interface{})
	Info(args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Infof(msg string, args ...interface{})
	Warn(args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Warnf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Errorf(msg string, args ...interface{})

	// Named creates a child logger with the given name.
	Named(name string) Logger

	// With creates a child logger and attaches structured context to it.
	With(field string, value interface{}) Logger
}

func Debug(ctx context.Context, msg string) {
	FromContext(ctx).Debug(msg)
}

func Debugw(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Debugw(msg, fields...)
}

func Debugf(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Debugf(msg, args...)
}

func Info(ctx context.Context, msg string) {
	FromContext(ctx).Info(msg)
}

func Infow(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Infow(msg, fields...)
}

func Infof(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Infof(msg, args...)
}

func Warn(ctx context.Context, msg string) {
	FromContext(ctx).Warn(msg)
}

func Warnw(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Warnw(msg, fields...)
}

func Warnf(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Warnf(msg, args...)
}

func Error(ctx context.Context, msg string) {
	FromContext(ctx).Error(msg)
}

func Errorw(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Errorw(msg, fields...)
}

func Errorf(ctx context.Context, msg string, args ...interface{}) {
	FromContext(ctx).Errorf(msg, args...)
}

type noop struct{}

func (noop) Debug(...interface{})          {}
func (noop) Debugw(string, ...interface{}) {}
func (noop) Debugf(string, ...interface{}) {}
func (noop) Info(...interface{})           {}
func (noop) Infow(string, ...interface{})  {}
func (noop) Infof(string, ...interface{})  {}
func (noop) Warn(...interface{})           {}
func (noop) Warnw(string, ...interface{})  {}
func (noop) Warnf(string, ...interface{})  {}
func (noop) Error(...interface{})          {}
func (noop) Errorw(string, ...interface{}) {}
func (noop) Errorf(string, ...interface{}) {}
func (noop) Named(string) Logger           { return noop{} }
func (noop) With(string, interface{}) Logger {
	return noop{}
}
