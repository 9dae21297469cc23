package script

import (
	"context"
	"errors"
	"testing"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/require"
)

func TestRisorValueToGo(t *testing.T) {
	tests := []struct {
		name string
		obj  object.Object
		want any
	}{
		{"string", object.NewString("hi"), "hi"},
		{"int", object.NewInt(3), int64(3)},
		{"float", object.NewFloat(1.5), 1.5},
		{"bool", object.False, false},
		{"nil", object.Nil, nil},
		{"bytes", object.NewByteSlice([]byte("ab")), []byte("ab")},
		{"list", object.NewList([]object.Object{object.NewInt(1), object.NewString("two")}), []any{int64(1), "two"}},
		{"map", object.NewMap(map[string]object.Object{"k": object.True}), map[string]any{"k": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRisorValue(tt.obj)
			require.Equal(t, tt.want, v.Value())
			require.Equal(t, string(tt.obj.Type()), v.Type())
		})
	}
}

func TestRisorValueString(t *testing.T) {
	tests := []struct {
		name string
		obj  object.Object
		want string
	}{
		{"string", object.NewString("hi"), "hi"},
		{"int", object.NewInt(3), "3"},
		{"float", object.NewFloat(1.5), "1.5"},
		{"bool", object.True, "true"},
		{"nil", object.Nil, ""},
		{"error", object.NewError(errors.New("boom")), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NewRisorValue(tt.obj).String())
		})
	}
}

func TestSourceModuleValue(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "greet", `func hello() { return "hi" }`)
	r := startInterpreter(t, Options{EnvironmentPath: dir})

	mod, err := r.Import(context.Background(), "greet")
	require.NoError(t, err)
	require.Equal(t, "greet", mod.Value())
	require.Equal(t, "module(greet)", mod.String())
	require.True(t, mod.IsTruthy())
}
