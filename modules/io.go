package modules

import (
	"bytes"
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
)

// IOModule provides in-memory streams. Objects that can serialize
// themselves write into an io.BytesIO buffer.
type IOModule struct{}

func (m *IOModule) Name() string {
	return "io"
}

func (m *IOModule) Build() *object.Module {
	return object.NewBuiltinsModule(m.Name(), map[string]object.Object{
		"BytesIO": object.NewBuiltin("BytesIO", builtin(newBytesIO)),
	})
}

// BytesIO is an in-memory byte buffer living in the runtime.
type BytesIO struct {
	*Object
	buf bytes.Buffer
}

// NewBytesIO returns an empty buffer object.
func NewBytesIO() *BytesIO {
	b := &BytesIO{Object: newObject("io.BytesIO")}
	b.Method("write", builtin(b.write))
	b.Method("getvalue", builtin(b.getvalue))
	b.Method("len", builtin(b.length))
	return b
}

// Write appends p to the buffer.
func (b *BytesIO) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// Len returns the number of buffered bytes.
func (b *BytesIO) Len() int {
	return b.buf.Len()
}

func (b *BytesIO) Inspect() string {
	return fmt.Sprintf("io.BytesIO(len=%d)", b.buf.Len())
}

func newBytesIO(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("BytesIO", 0, 1, args); err != nil {
		return nil, err
	}
	b := NewBytesIO()
	if len(args) == 1 {
		if _, err := b.write(ctx, args...); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *BytesIO) write(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("write", 1, 1, args); err != nil {
		return nil, err
	}
	var n int
	switch a := args[0].(type) {
	case *object.ByteSlice:
		n, _ = b.buf.Write(a.Value())
	case *object.String:
		n, _ = b.buf.WriteString(a.Value())
	default:
		return nil, fmt.Errorf("write() argument must be bytes or string, not %s", args[0].Type())
	}
	return object.NewInt(int64(n)), nil
}

// getvalue returns a copy so that later writes do not alias the result.
func (b *BytesIO) getvalue(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("getvalue", 0, 0, args); err != nil {
		return nil, err
	}
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return object.NewByteSlice(out), nil
}

func (b *BytesIO) length(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("len", 0, 0, args); err != nil {
		return nil, err
	}
	return object.NewInt(int64(b.buf.Len())), nil
}
