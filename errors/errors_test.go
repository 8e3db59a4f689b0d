package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestNew(t *testing.T) {
	err := New("something broke")
	assert.Equal(t, "something broke", err.Error())
	assert.Equal(t, codes.Unknown, err.Code())
	assert.NotEmpty(t, err.StackFrames())
}

func TestNewC(t *testing.T) {
	err := NewC("nope", codes.PermissionDenied)
	assert.Equal(t, codes.PermissionDenied, err.Code())
	assert.Equal(t, http.StatusForbidden, HTTPStatusCode(err))
}

func TestWrap(t *testing.T) {
	inner := stderrors.New("inner")
	err := Wrap(inner, 0)
	assert.Equal(t, "inner", err.Error())
	assert.True(t, Is(err, inner))

	// Wrapping an *Error returns it unchanged.
	assert.Same(t, err, Wrap(err, 0))

	assert.Nil(t, Wrap(nil, 0))
}

func TestWrapPrefix(t *testing.T) {
	err := WrapPrefix(stderrors.New("inner"), "outer", 0)
	assert.Equal(t, "outer: inner", err.Error())

	err = WrapPrefix(err, "outermost", 0)
	assert.Equal(t, "outermost: outer: inner", err.Error())
}

func TestMarkKeepsIdentity(t *testing.T) {
	sentinel := NewC("token is invalid", codes.Unauthenticated)
	marked := Mark(sentinel, 0)

	require.NotSame(t, sentinel, marked)
	assert.True(t, Is(marked, sentinel))
	assert.Equal(t, codes.Unauthenticated, marked.Code())
}

func TestIsMatchesWrappedSentinel(t *testing.T) {
	sentinel := NewC("not found", codes.NotFound)
	wrapped := fmt.Errorf("looking up user: %w", Mark(sentinel, 0))
	assert.True(t, Is(wrapped, sentinel))
	assert.False(t, Is(wrapped, New("unrelated")))
}

func TestCodeFromTypedError(t *testing.T) {
	assert.Equal(t, codes.OK, Code(nil))
	assert.Equal(t, codes.Unknown, Code(stderrors.New("plain")))
	assert.Equal(t, codes.Unavailable, Code(&fakeCoded{}))

	// Typed errors buried in a chain still classify.
	chained := fmt.Errorf("outer: %w", &fakeCoded{})
	assert.Equal(t, codes.Unavailable, Code(chained))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(chained))
}

func TestPublicMessage(t *testing.T) {
	err := NewC("pq: duplicate key value", codes.AlreadyExists).
		WithPublicMessage("That email is already registered")
	assert.Equal(t, "That email is already registered", err.PublicMessage())
	assert.Equal(t, "pq: duplicate key value", err.Error())

	assert.Equal(t, "plain", New("plain").PublicMessage())
}

func TestErrorStack(t *testing.T) {
	err := New("boom")
	stack := err.ErrorStack()
	assert.Contains(t, stack, "boom")
	assert.Contains(t, stack, "errors_test.go")
}

type fakeCoded struct{}

func (f *fakeCoded) Error() string    { return "unavailable" }
func (f *fakeCoded) Code() codes.Code { return codes.Unavailable }
