package bridge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// Config configures the embedded runtime.
type Config struct {
	// EnvironmentPath names a directory of source modules to use instead of
	// the default environment. Empty means defaults.
	EnvironmentPath string `json:"environment_path,omitempty" yaml:"environment_path,omitempty" validate:"omitempty,dir" jsonschema:"description=Directory of .risor source modules consulted before the built-in modules"`

	// Preload lists modules imported during initialization. A module that
	// fails to import fails the initialization.
	Preload []string `json:"preload,omitempty" yaml:"preload,omitempty" validate:"dive,required" jsonschema:"description=Modules imported at startup"`

	// LogLevel is used by the command line tool to build its logger.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error" jsonschema:"enum=debug,enum=info,enum=warn,enum=warning,enum=error"`
}

// Validate checks the config using its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfigFile loads a config from a YAML file
func LoadConfigFile(path string) (Config, error) {
	yamlData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadConfigString(string(yamlData))
}

// LoadConfigString loads a config from a YAML string
func LoadConfigString(data string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ConfigSchema returns the JSON schema of Config.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonBytes, nil
}
