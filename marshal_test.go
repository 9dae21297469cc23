package bridge

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestStringRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	inputs := []string{
		"",
		"hello",
		"Привет, мир",
		"日本語のテキスト",
		"emoji 🎉",
		"tab\tand\nnewline",
		"nul\x00byte",
	}
	for _, input := range inputs {
		ref, err := m.ToRuntime(ctx, String(input))
		require.NoError(t, err)

		v, err := m.FromRuntime(ctx, ref, KindString)
		require.NoError(t, err)
		got, ok := v.AsString()
		require.True(t, ok)
		require.Equal(t, input, got)

		ref.Release()
	}
	require.Equal(t, 0, h.LiveRefs())
}

func TestBoolRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	for _, input := range []bool{true, false} {
		ref, err := m.ToRuntime(ctx, Bool(input))
		require.NoError(t, err)
		v, err := m.FromRuntime(ctx, ref, KindBool)
		require.NoError(t, err)
		got, ok := v.AsBool()
		require.True(t, ok)
		require.Equal(t, input, got)
		ref.Release()
	}
}

func TestBytesAreCopied(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	input := []byte{0x00, 0xff, 0x10}
	ref, err := m.ToRuntime(ctx, Bytes(input))
	require.NoError(t, err)
	defer ref.Release()
	input[0] = 0x42

	v, err := m.FromRuntime(ctx, ref, KindBytes)
	require.NoError(t, err)
	out, ok := v.AsBytes()
	require.True(t, ok)
	require.Equal(t, []byte{0x00, 0xff, 0x10}, out)

	// Mutating the host copy leaves runtime memory alone
	out[1] = 0x00
	again, err := m.FromRuntime(ctx, ref, KindBytes)
	require.NoError(t, err)
	b, _ := again.AsBytes()
	require.Equal(t, []byte{0x00, 0xff, 0x10}, b)
}

func TestFromRuntimeShapeMismatch(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	ref, err := m.ToRuntime(ctx, String("not a bool"))
	require.NoError(t, err)
	defer ref.Release()

	_, err = m.FromRuntime(ctx, ref, KindBool)
	require.ErrorIs(t, err, ErrMarshal)
	require.Contains(t, err.Error(), "expected bool, got string")

	_, err = m.FromRuntime(ctx, ref, KindBytes)
	require.ErrorIs(t, err, ErrMarshal)

	_, err = m.FromRuntime(ctx, ref, KindInvalid)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.ToRuntime(ctx, HostValue{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReleasedRef(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	ref, err := m.ToRuntime(ctx, String("x"))
	require.NoError(t, err)
	ref.Release()
	ref.Release()

	stats := h.RefStats()
	require.Equal(t, 0, stats.Live)
	require.Equal(t, uint64(1), stats.Created)
	require.Equal(t, uint64(1), stats.Released)

	_, err = m.FromRuntime(ctx, ref, KindString)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.BytesFromStreamable(ctx, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBytesFromStreamable(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	mod, err := h.interp.Import(ctx, "qrcode")
	require.NoError(t, err)
	data, err := h.interp.NewString("streamed")
	require.NoError(t, err)
	img, err := h.interp.CallMethod(ctx, mod, "make", data)
	require.NoError(t, err)

	ref := h.refs.track(img)
	defer ref.Release()

	out, err := m.BytesFromStreamable(ctx, ref)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, pngSignature))
	require.Equal(t, 1, h.LiveRefs())
}

func TestBytesFromStreamableReleasesRefsOnFailure(t *testing.T) {
	ctx := context.Background()
	h := startHandle(t, Config{})
	m := NewMarshaler(h)

	ref, err := m.ToRuntime(ctx, String("cannot save"))
	require.NoError(t, err)
	defer ref.Release()
	before := h.RefStats()

	_, err = m.BytesFromStreamable(ctx, ref)
	require.ErrorIs(t, err, ErrBridge)
	require.Contains(t, err.Error(), "failed to serialize string object")

	after := h.RefStats()
	require.Equal(t, before.Live, after.Live)
	require.Greater(t, after.Created, before.Created)
	require.Equal(t, after.Created-before.Created, after.Released-before.Released)
	require.False(t, h.interp.PendingError())
}
