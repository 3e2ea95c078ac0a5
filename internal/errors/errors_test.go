package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransportError(cause)

	assert.Equal(t, "transport: session authority unreachable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"transport", TransportError(errors.New("x")), http.StatusBadGateway},
		{"auth", AuthError(401), http.StatusBadGateway},
		{"server", ServerError(500), http.StatusBadGateway},
		{"application", ApplicationError("nope"), http.StatusBadGateway},
		{"malformed", MalformedError(errors.New("bad json")), http.StatusBadGateway},
		{"validation", ValidationError("bad page"), http.StatusBadRequest},
		{"not_found", NotFoundError("no such session"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypeAuth, TypeOf(AuthError(403)))
	assert.Equal(t, TypeInternal, TypeOf(errors.New("plain")))

	wrapped := fmt.Errorf("fetch failed: %w", ServerError(503))
	assert.Equal(t, TypeServer, TypeOf(wrapped))
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(AuthError(401)))
	assert.False(t, IsAuth(TransportError(errors.New("x"))))
	assert.False(t, IsAuth(errors.New("plain")))
}

func TestOperatorMessage_ApplicationKeepsServerText(t *testing.T) {
	err := ApplicationError("session already terminated")
	assert.Equal(t, "session already terminated", OperatorMessage(err))
}

func TestOperatorMessage_DefaultsWhenEmpty(t *testing.T) {
	err := ApplicationError("")
	assert.Equal(t, "request rejected by session authority", OperatorMessage(err))
}

func TestOperatorMessage_GenericForTransport(t *testing.T) {
	err := TransportError(errors.New("dial tcp: i/o timeout"))
	assert.Equal(t, "session authority unreachable", OperatorMessage(err))
}

func TestAsError_PassesThroughClassified(t *testing.T) {
	original := ValidationError("bad input")
	assert.Same(t, original, AsError(original))
}

func TestAsError_WrapsUnclassified(t *testing.T) {
	plain := errors.New("boom")
	classified := AsError(plain)
	assert.Equal(t, TypeInternal, classified.Type)
	assert.ErrorIs(t, classified, plain)
}

func TestAsError_Nil(t *testing.T) {
	assert.Nil(t, AsError(nil))
}
