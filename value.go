package bridge

import (
	"fmt"
)

// Kind tags the shape of a HostValue.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindBool
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// HostValue is a value crossing the boundary between the host and the
// runtime: a string, a boolean or a byte sequence. The zero value is
// invalid.
type HostValue struct {
	kind Kind
	str  string
	b    bool
	data []byte
}

// String returns a string HostValue.
func String(s string) HostValue {
	return HostValue{kind: KindString, str: s}
}

// Bool returns a boolean HostValue.
func Bool(b bool) HostValue {
	return HostValue{kind: KindBool, b: b}
}

// Bytes returns a byte-sequence HostValue. The slice is not copied.
func Bytes(b []byte) HostValue {
	if b == nil {
		b = []byte{}
	}
	return HostValue{kind: KindBytes, data: b}
}

// ValueOf converts a Go string, bool or []byte into a HostValue.
func ValueOf(v any) (HostValue, error) {
	switch v := v.(type) {
	case HostValue:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case []byte:
		return Bytes(v), nil
	default:
		return HostValue{}, Errorf(ErrorTypeInvalidArgument, "unsupported host value type %T", v)
	}
}

func (v HostValue) Kind() Kind {
	return v.kind
}

func (v HostValue) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v HostValue) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v HostValue) AsBytes() ([]byte, bool) {
	return v.data, v.kind == KindBytes
}

// Interface returns the value as a plain Go string, bool or []byte.
func (v HostValue) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindBytes:
		return v.data
	default:
		return nil
	}
}

func (v HostValue) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindBytes:
		return fmt.Sprintf("bytes(len=%d)", len(v.data))
	default:
		return "<invalid>"
	}
}
