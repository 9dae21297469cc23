package bridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigString(t *testing.T) {
	cfg, err := LoadConfigString(`
environment_path: /opt/env
preload:
  - qrcode
  - schema.validator
log_level: debug
`)
	require.NoError(t, err)
	require.Equal(t, "/opt/env", cfg.EnvironmentPath)
	require.Equal(t, []string{"qrcode", "schema.validator"}, cfg.Preload)
	require.Equal(t, "debug", cfg.LogLevel)

	_, err = LoadConfigString("preload: [unterminated")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to unmarshal config")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config file")
}

func TestConfigValidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"existing directory", Config{EnvironmentPath: t.TempDir()}, false},
		{"missing directory", Config{EnvironmentPath: filepath.Join(t.TempDir(), "nope")}, true},
		{"file instead of directory", Config{EnvironmentPath: file}, true},
		{"preload", Config{Preload: []string{"qrcode"}}, false},
		{"empty preload name", Config{Preload: []string{""}}, true},
		{"log level", Config{LogLevel: "error"}, false},
		{"unknown log level", Config{LogLevel: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid config")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigSchema(t *testing.T) {
	data, err := ConfigSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "environment_path")
	require.Contains(t, props, "preload")
	require.Contains(t, props, "log_level")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, "DEBUG", ParseLevel("debug").String())
	require.Equal(t, "WARN", ParseLevel("Warning").String())
	require.Equal(t, "ERROR", ParseLevel("error").String())
	require.Equal(t, "INFO", ParseLevel("").String())
}
