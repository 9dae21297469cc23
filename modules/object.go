package modules

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
)

// Object is a host-implemented runtime object that exposes a fixed set of
// methods. It embeds an empty map for the remaining object behaviour.
type Object struct {
	*object.Map
	typeName string
	attrs    map[string]object.Object
}

func newObject(typeName string) *Object {
	return &Object{
		Map:      object.NewMap(map[string]object.Object{}),
		typeName: typeName,
		attrs:    map[string]object.Object{},
	}
}

// Method registers a method callable from scripts and from the bridge.
func (o *Object) Method(name string, fn object.BuiltinFunction) {
	o.attrs[name] = object.NewBuiltin(name, fn)
}

func (o *Object) Type() object.Type {
	return object.Type(o.typeName)
}

func (o *Object) Inspect() string {
	return fmt.Sprintf("%s()", o.typeName)
}

func (o *Object) Interface() interface{} {
	return o
}

func (o *Object) IsTruthy() bool {
	return true
}

func (o *Object) GetAttr(name string) (object.Object, bool) {
	attr, ok := o.attrs[name]
	return attr, ok
}

// checkArgs returns a runtime error when the argument count is outside
// [min, max].
func checkArgs(name string, min, max int, args []object.Object) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("%s() takes exactly %d argument(s) (%d given)", name, min, len(args))
		}
		return fmt.Errorf("%s() takes %d to %d arguments (%d given)", name, min, max, len(args))
	}
	return nil
}

// stringArg extracts a string argument. Byte slices are accepted and read
// as UTF-8.
func stringArg(fn string, pos int, arg object.Object) (string, error) {
	switch a := arg.(type) {
	case *object.String:
		return a.Value(), nil
	case *object.ByteSlice:
		return string(a.Value()), nil
	default:
		return "", fmt.Errorf("%s() argument %d must be a string, not %s", fn, pos+1, arg.Type())
	}
}

// builtin adapts a Go function returning an error into a risor builtin.
func builtin(fn func(ctx context.Context, args ...object.Object) (object.Object, error)) object.BuiltinFunction {
	return func(ctx context.Context, args ...object.Object) object.Object {
		result, err := fn(ctx, args...)
		if err != nil {
			return object.NewError(err)
		}
		if result == nil {
			return object.Nil
		}
		return result
	}
}
