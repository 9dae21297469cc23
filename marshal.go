package bridge

import (
	"context"

	"github.com/deepnoodle-ai/bridge/script"
)

const (
	streamModule  = "io"
	streamClass   = "BytesIO"
	serializeAttr = "save"
	readAllAttr   = "getvalue"
)

const maxDescribeLen = 80

// Marshaler converts host values to runtime objects and back. Every Ref it
// creates for intermediate objects is released before it returns.
type Marshaler struct {
	h *Handle
}

// NewMarshaler returns a Marshaler bound to h.
func NewMarshaler(h *Handle) *Marshaler {
	return &Marshaler{h: h}
}

// ToRuntime allocates a runtime object for v. The caller owns the returned
// Ref.
func (m *Marshaler) ToRuntime(ctx context.Context, v HostValue) (*Ref, error) {
	leave, err := m.h.enter()
	if err != nil {
		return nil, err
	}
	defer leave()

	value, err := m.toRuntime(v)
	if err != nil {
		return nil, err
	}
	return m.h.refs.track(value), nil
}

// FromRuntime reads ref back as a host value of the given kind. Byte
// sequences are copied out of runtime memory.
func (m *Marshaler) FromRuntime(ctx context.Context, ref *Ref, kind Kind) (HostValue, error) {
	leave, err := m.h.enter()
	if err != nil {
		return HostValue{}, err
	}
	defer leave()

	value, err := refValue(ref)
	if err != nil {
		return HostValue{}, err
	}
	return m.fromRuntime(value, kind)
}

// BytesFromStreamable serializes obj into a runtime io.BytesIO through its
// save method and copies the buffered bytes out.
func (m *Marshaler) BytesFromStreamable(ctx context.Context, obj *Ref) ([]byte, error) {
	leave, err := m.h.enter()
	if err != nil {
		return nil, err
	}
	defer leave()

	value, err := refValue(obj)
	if err != nil {
		return nil, err
	}
	s := m.h.refs.scope()
	defer s.close()
	return m.bytesFromStreamable(ctx, s, value)
}

func (m *Marshaler) toRuntime(v HostValue) (script.Value, error) {
	interp := m.h.interp
	var (
		value script.Value
		err   error
	)
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		value, err = interp.NewString(s)
	case KindBool:
		b, _ := v.AsBool()
		value, err = interp.NewBool(b)
	case KindBytes:
		b, _ := v.AsBytes()
		value, err = interp.NewBytes(b)
	default:
		return nil, Errorf(ErrorTypeInvalidArgument, "cannot marshal %s value", v.Kind())
	}
	if err != nil {
		return nil, m.h.errs.fail(ErrorTypeMarshal, "failed to create runtime "+v.Kind().String(), err)
	}
	return value, nil
}

func (m *Marshaler) fromRuntime(value script.Value, kind Kind) (HostValue, error) {
	interp := m.h.interp
	switch kind {
	case KindString:
		if s, ok := interp.StringOf(value); ok {
			return String(s), nil
		}
	case KindBool:
		if b, ok := interp.BoolOf(value); ok {
			return Bool(b), nil
		}
	case KindBytes:
		if b, ok := interp.BytesOf(value); ok {
			return Bytes(copyBytes(b)), nil
		}
	default:
		return HostValue{}, Errorf(ErrorTypeInvalidArgument, "cannot unmarshal into %s value", kind)
	}
	return HostValue{}, Errorf(ErrorTypeMarshal, "expected %s, got %s", kind, value.Type())
}

// fromRuntimeAny picks the host shape from the runtime value itself.
// Objects that can serialize themselves are returned as bytes.
func (m *Marshaler) fromRuntimeAny(ctx context.Context, s *scope, value script.Value) (HostValue, error) {
	for _, kind := range []Kind{KindString, KindBool, KindBytes} {
		if hv, err := m.fromRuntime(value, kind); err == nil {
			return hv, nil
		}
	}
	if !m.hasAttr(ctx, s, value, serializeAttr) {
		m.h.logger.Debug("unsupported runtime result", "type", value.Type(), "value", value.Value())
		return HostValue{}, Errorf(ErrorTypeMarshal, "unsupported runtime result of type %s%s", value.Type(), describe(value))
	}
	b, err := m.bytesFromStreamable(ctx, s, value)
	if err != nil {
		return HostValue{}, err
	}
	return Bytes(b), nil
}

func (m *Marshaler) bytesFromStreamable(ctx context.Context, s *scope, value script.Value) ([]byte, error) {
	interp := m.h.interp
	errs := m.h.errs

	mod, err := interp.Import(ctx, streamModule)
	if err != nil {
		return nil, errs.fail(ErrorTypeModuleImport, "failed to import module "+streamModule, err)
	}
	s.track(mod)

	buffer, err := interp.CallMethod(ctx, mod, streamClass)
	if err != nil {
		return nil, errs.fail(ErrorTypeBridge, "failed to create "+streamClass+" object", err)
	}
	s.track(buffer)

	saved, err := interp.CallMethod(ctx, value, serializeAttr, buffer)
	if err != nil {
		return nil, errs.fail(ErrorTypeBridge, "failed to serialize "+value.Type()+" object", err)
	}
	s.track(saved)

	data, err := interp.CallMethod(ctx, buffer, readAllAttr)
	if err != nil {
		return nil, errs.fail(ErrorTypeBridge, "failed to read serialized bytes", err)
	}
	s.track(data)

	raw, ok := interp.BytesOf(data)
	if !ok {
		return nil, Errorf(ErrorTypeMarshal, "expected bytes from %s.%s, got %s", streamClass, readAllAttr, data.Type())
	}
	return copyBytes(raw), nil
}

// hasAttr probes value for name, clearing the error slot when it is absent.
func (m *Marshaler) hasAttr(ctx context.Context, s *scope, value script.Value, name string) bool {
	attr, err := m.h.interp.GetAttr(ctx, value, name)
	if err != nil {
		m.h.errs.CheckAndClear("")
		return false
	}
	s.track(attr)
	return true
}

// describe renders value for error text. Nil and empty values add nothing.
func describe(value script.Value) string {
	text := value.String()
	if text == "" {
		return ""
	}
	if r := []rune(text); len(r) > maxDescribeLen {
		text = string(r[:maxDescribeLen]) + "..."
	}
	return ": " + text
}

func refValue(ref *Ref) (script.Value, error) {
	if ref == nil {
		return nil, NewError(ErrorTypeInvalidArgument, "nil runtime ref")
	}
	value := ref.Value()
	if value == nil {
		return nil, NewError(ErrorTypeInvalidArgument, "runtime ref was already released")
	}
	return value, nil
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
