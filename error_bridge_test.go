package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckAndClear(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	b := h.Errors()

	require.Nil(t, b.CheckAndClear("nothing raised"))
	require.NoError(t, b.RaiseIfError(ErrorTypeBridge, "nothing raised"))

	_, err := h.interp.Import(ctx, "no_such_module")
	require.Error(t, err)

	desc := b.CheckAndClear("import failed")
	require.NotNil(t, desc)
	require.Equal(t, "import failed", desc.Message)
	require.Contains(t, desc.Cause, "no_such_module")

	// The slot was cleared
	require.Nil(t, b.CheckAndClear("again"))
	require.False(t, h.interp.PendingError())
}

func TestRaiseIfError(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	b := h.Errors()

	_, err := h.interp.Import(ctx, "no_such_module")
	require.Error(t, err)

	raised := b.RaiseIfError(ErrorTypeModuleImport, "failed to import module no_such_module")
	require.ErrorIs(t, raised, ErrModuleImport)
	require.Equal(t, `failed to import module no_such_module due to: no module named "no_such_module"`, raised.Error())
}

func TestFailWithoutRuntimeCause(t *testing.T) {
	h := startHandle(t, Config{})
	cause := errors.New("refused")

	err := h.Errors().fail(ErrorTypeBridge, "failed to call m.f", cause)
	require.Equal(t, "failed to call m.f", err.Error())
	require.Empty(t, err.Cause)
	require.ErrorIs(t, err, cause)
}

func TestFailedCallDoesNotLeakIntoNextCall(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	calls := NewCallFacade(h)

	_, err := calls.InvokeLibraryFunction(ctx, "qrcode", "no_such_function")
	require.ErrorIs(t, err, ErrBridge)
	require.False(t, h.interp.PendingError())

	_, err = calls.InvokeLibraryFunction(ctx, "qrcode", "make")
	require.ErrorIs(t, err, ErrBridge)
	require.Contains(t, err.Error(), "takes 1 to 2 arguments")
	require.False(t, h.interp.PendingError())

	png, err := calls.MakeSimpleQR(ctx, "after failures")
	require.NoError(t, err)
	require.NotEmpty(t, png)

	result, err := calls.Validator(ctx, `{"a": 1}`, `{"type": "object"}`)
	require.NoError(t, err)
	require.Equal(t, ResultOK, result)
	require.Equal(t, 0, h.LiveRefs())
}
