package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	// Without a runtime cause only the message is shown
	err := NewError(ErrorTypeBridge, "failed to call qrcode.make")
	require.Equal(t, "failed to call qrcode.make", err.Error())
	require.Nil(t, err.Unwrap())

	// The runtime cause is appended
	original := errors.New("division by zero")
	wrapped := &Error{
		Type:    ErrorTypeBridge,
		Message: "failed to call m.f",
		Cause:   original.Error(),
		Wrapped: original,
	}
	require.Equal(t, "failed to call m.f due to: division by zero", wrapped.Error())
	require.Equal(t, original, wrapped.Unwrap())
	require.True(t, errors.Is(wrapped, original))

	var bErr *Error
	require.True(t, errors.As(wrapped, &bErr))
	require.Equal(t, ErrorTypeBridge, bErr.Type)
}

func TestErrorMatching(t *testing.T) {
	importErr := Errorf(ErrorTypeModuleImport, "failed to import module %s", "qrcode")
	require.Equal(t, "failed to import module qrcode", importErr.Error())

	require.ErrorIs(t, importErr, ErrModuleImport)
	require.NotErrorIs(t, importErr, ErrBridge)
	require.NotErrorIs(t, importErr, errors.New("failed to import module qrcode"))

	require.Equal(t, ErrorTypeModuleImport, ErrorType(importErr))
	require.Equal(t, ErrorTypeBridge, ErrorType(errors.New("something else")))
}

func TestErrorDescriptor(t *testing.T) {
	desc := ErrorDescriptor{Message: "validate raised", Cause: "expected string"}
	require.True(t, desc.HasCause())

	err := desc.Err(ErrorTypeMarshal)
	require.ErrorIs(t, err, ErrMarshal)
	require.Equal(t, "validate raised due to: expected string", err.Error())
	require.Equal(t, desc, err.Descriptor())

	require.False(t, ErrorDescriptor{Message: "x"}.HasCause())
}
