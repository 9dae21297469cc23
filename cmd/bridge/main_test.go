package main

import (
	"testing"

	"github.com/deepnoodle-ai/bridge"
	"github.com/stretchr/testify/require"
)

func TestAutoInitialize(t *testing.T) {
	component := bridge.NewComponent(bridge.NewHandle(bridge.HandleOptions{}))

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"qr", "hello"}, true},
		{[]string{"validate", "{}", "{}"}, true},
		{[]string{"invoke"}, true},
		{[]string{"invoke", "MakeSimpleQR", "x"}, true},
		{[]string{"invoke", "initializeRuntime"}, false},
		{[]string{"invoke", "ВключитьПитон"}, false},
		{[]string{"invoke", "uninitializePython"}, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, autoInitialize(component, tt.args), "%v", tt.args)
	}
}
