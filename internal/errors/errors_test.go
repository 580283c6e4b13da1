package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := AuthError("Invalid tenant ID")
	assert.Equal(t, "auth: Invalid tenant ID", err.Error())

	wrapped := TransportError("write failed", stderrors.New("broken pipe"))
	assert.Equal(t, "transport: write failed: broken pipe", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("broken pipe")
	err := TransportError("write failed", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error unchanged", func(t *testing.T) {
		original := ProtocolError("Invalid message format")
		result := AsStructuredError(fmt.Errorf("handling frame: %w", original))
		assert.Same(t, original, result)
	})

	t.Run("plain error becomes transport", func(t *testing.T) {
		result := AsStructuredError(stderrors.New("boom"))
		require.NotNil(t, result)
		assert.Equal(t, TypeTransport, result.Type)
	})
}
