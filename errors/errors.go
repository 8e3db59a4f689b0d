// Package errors provides error values that carry a stacktrace, a gRPC status
// code, and an optional public message, while remaining interchangeable with
// the standard library error interface.
//
// Domain packages define their own typed errors; anything exposing a
// `Code() codes.Code` method participates in Code and HTTPStatusCode
// classification without needing to be created by this package.
package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"

	"google.golang.org/grpc/codes"
)

// MaxStackDepth is the maximum number of stackframes captured on any error.
var MaxStackDepth = 32

// Error is an error with an attached stacktrace, gRPC status code, and
// optional public message. It can be used wherever the builtin error
// interface is expected.
type Error struct {
	Err    error
	stack  []uintptr
	frames []StackFrame
	prefix string

	code          codes.Code
	publicMessage string
}

// New makes an Error from the given value. If that value is already an error
// it is used directly, otherwise it is formatted with fmt.Errorf("%v"). The
// stacktrace points at the caller of New.
//
//go:noinline
func New(e interface{}) *Error {
	return create(e, codes.Unknown, 1)
}

// NewC makes an Error with a status code attached.
//
//go:noinline
func NewC(e interface{}, code codes.Code) *Error {
	return create(e, code, 1)
}

// Errorf creates a new error from a format string, as a drop-in replacement
// for fmt.Errorf that captures a stacktrace.
//
//go:noinline
func Errorf(format string, a ...interface{}) *Error {
	return create(fmt.Errorf(format, a...), codes.Unknown, 1)
}

// Codef creates a new error from a format string with a status code attached.
//
//go:noinline
func Codef(code codes.Code, format string, a ...interface{}) *Error {
	return create(fmt.Errorf(format, a...), code, 1)
}

// Wrap makes an Error from the given value, preserving an existing *Error
// as-is. The skip parameter indicates how far up the stack to start the
// stacktrace: 0 is the caller of Wrap, 1 its caller, and so on.
//
//go:noinline
func Wrap(e interface{}, skip int) *Error {
	if e == nil {
		return nil
	}
	if err, ok := e.(*Error); ok {
		return err
	}
	return create(e, codes.Unknown, 1+skip)
}

// WrapPrefix is like Wrap, but prepends a prefix to the error message.
//
//go:noinline
func WrapPrefix(e interface{}, prefix string, skip int) *Error {
	if e == nil {
		return nil
	}
	err := Wrap(e, 1+skip)
	if err.prefix != "" {
		prefix = prefix + ": " + err.prefix
	}
	return &Error{
		Err:           err.Err,
		stack:         err.stack,
		code:          err.code,
		publicMessage: err.publicMessage,
		prefix:        prefix,
	}
}

// Mark re-stamps the stacktrace on an error from the point Mark was called,
// keeping the code, message, and identity intact. Use when returning a shared
// sentinel so the trace points at the return site.
//
//go:noinline
func Mark(e interface{}, skip int) *Error {
	if e == nil {
		return nil
	}
	if err, ok := e.(*Error); ok {
		marked := create(err.Err, err.code, 1+skip)
		marked.publicMessage = err.publicMessage
		marked.prefix = err.prefix
		return marked
	}
	return create(e, codes.Unknown, 1+skip)
}

// create and the constructors above must not be inlined: NewStackFrame
// resolves PCs with runtime.FuncForPC, which cannot decode the
// inline-expanded PCs that runtime.Callers records for inlined frames, so
// the skip arithmetic only yields correct frames when each hop is a real
// physical stack frame.
//
//go:noinline
func create(e interface{}, code codes.Code, skip int) *Error {
	var err error
	switch e := e.(type) {
	case error:
		err = e
	default:
		err = fmt.Errorf("%v", e)
	}
	stack := make([]uintptr, MaxStackDepth)
	length := runtime.Callers(2+skip, stack[:])
	return &Error{
		Err:   err,
		stack: stack[:length],
		code:  code,
	}
}

// Error returns the underlying error's message.
func (err *Error) Error() string {
	msg := err.Err.Error()
	if err.prefix != "" {
		msg = err.prefix + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error, supporting errors.Is and errors.As.
func (err *Error) Unwrap() error {
	return err.Err
}

// Code returns the gRPC status code associated with the error.
func (err *Error) Code() codes.Code {
	return err.code
}

// WithCode sets the gRPC status code associated with the error.
func (err *Error) WithCode(code codes.Code) *Error {
	err.code = code
	return err
}

// PublicMessage returns the message that is safe to show to an end user. It
// falls back to the full error string when no public message is set.
func (err *Error) PublicMessage() string {
	if err.publicMessage != "" {
		return err.publicMessage
	}
	return err.Error()
}

// WithPublicMessage sets the message that is safe to show to an end user.
func (err *Error) WithPublicMessage(msg string) *Error {
	err.publicMessage = msg
	return err
}

// Stack returns the callstack formatted the same way that go does in
// runtime/debug.Stack().
func (err *Error) Stack() []byte {
	buf := bytes.Buffer{}
	for _, frame := range err.StackFrames() {
		buf.WriteString(frame.String())
	}
	return buf.Bytes()
}

// ErrorStack returns a string that contains both the error message and the
// callstack.
func (err *Error) ErrorStack() string {
	return err.Error() + "\n" + string(err.Stack())
}

// StackFrames returns the resolved frames of the captured stack.
func (err *Error) StackFrames() []StackFrame {
	if err.frames == nil {
		err.frames = make([]StackFrame, len(err.stack))
		for i, pc := range err.stack {
			err.frames[i] = NewStackFrame(pc)
		}
	}
	return err.frames
}

// Is reports whether any error in err's chain matches target. Unlike the
// standard library version, a *Error target also matches errors wrapping its
// inner error, so sentinels survive Mark and WrapPrefix.
func Is(err error, target error) bool {
	if stderrors.Is(err, target) {
		return true
	}
	if t, ok := target.(*Error); ok {
		return Is(err, t.Err)
	}
	return false
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Code returns a gRPC status code for any error. Nil errors map to codes.OK,
// errors exposing a `Code()` method report their own code, and everything
// else is codes.Unknown.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var c codedError
	if stderrors.As(err, &c) {
		return c.Code()
	}
	return codes.Unknown
}

// HTTPStatusCode maps an error's gRPC code onto an HTTP status code.
func HTTPStatusCode(err error) int {
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type codedError interface {
	Code() codes.Code
}
