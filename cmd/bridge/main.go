package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/deepnoodle-ai/bridge"
	"github.com/fatih/color"
)

// CLI configuration
type Config struct {
	ConfigFile  string
	Environment string
	Output      string
	Timeout     time.Duration
	Verbose     bool
}

func main() {
	config := parseFlags()
	args := flag.Args()

	if len(args) == 0 {
		color.Red("Error: a command is required")
		flag.Usage()
		os.Exit(1)
	}

	if args[0] == "schema" {
		schema, err := bridge.ConfigSchema()
		if err != nil {
			fail(err)
		}
		fmt.Println(string(schema))
		return
	}

	runtimeConfig, err := loadRuntimeConfig(config)
	if err != nil {
		fail(err)
	}
	logger := setupLogger(config.Verbose, runtimeConfig.LogLevel)

	ctx := context.Background()
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	handle := bridge.NewHandle(bridge.HandleOptions{Logger: logger})
	component := bridge.NewComponent(handle)
	component.SetPathToEnvironment(runtimeConfig.EnvironmentPath)

	if autoInitialize(component, args) {
		if err := handle.Initialize(ctx, runtimeConfig); err != nil {
			fail(err)
		}
		if config.Verbose {
			color.Blue("Runtime %s initialized (session %s)", component.Version(), handle.SessionID())
		}
	}

	err = run(ctx, component, handle, config, args)

	// invoke finalizeRuntime may already have stopped it
	if handle.IsInitialized() {
		if finalizeErr := handle.Finalize(ctx); finalizeErr != nil && err == nil {
			err = finalizeErr
		}
	}
	if err != nil {
		fail(err)
	}
}

func run(ctx context.Context, component *bridge.Component, handle *bridge.Handle, config *Config, args []string) error {
	command, args := args[0], args[1:]
	switch command {
	case "qr":
		if len(args) != 1 {
			return fmt.Errorf("usage: qr <data>")
		}
		data, err := readArg(args[0])
		if err != nil {
			return err
		}
		png, err := component.MakeSimpleQR(ctx, data)
		if err != nil {
			return err
		}
		return writeOutput(config.Output, png)

	case "validate":
		if len(args) != 2 {
			return fmt.Errorf("usage: validate <data> <schema>")
		}
		data, err := readArg(args[0])
		if err != nil {
			return err
		}
		schema, err := readArg(args[1])
		if err != nil {
			return err
		}
		result, err := component.Validator(ctx, data, schema)
		if err != nil {
			return err
		}
		showValidation(result)
		return nil

	case "call":
		if len(args) < 2 {
			return fmt.Errorf("usage: call <module> <function> [args...]")
		}
		values := make([]bridge.HostValue, 0, len(args)-2)
		for _, arg := range args[2:] {
			s, err := readArg(arg)
			if err != nil {
				return err
			}
			values = append(values, bridge.String(s))
		}
		result, err := bridge.NewCallFacade(handle).InvokeLibraryFunction(ctx, args[0], args[1], values...)
		if err != nil {
			return err
		}
		return showResult(result.Interface(), config)

	case "invoke":
		if len(args) < 1 {
			return fmt.Errorf("usage: invoke <method> [args...]")
		}
		params := make([]any, 0, len(args)-1)
		for _, arg := range args[1:] {
			s, err := readArg(arg)
			if err != nil {
				return err
			}
			params = append(params, s)
		}
		result, err := component.Call(ctx, args[0], params...)
		if err != nil {
			return err
		}
		return showResult(result, config)

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <property>")
		}
		value, err := component.GetProperty(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// autoInitialize reports whether the runtime is started before running
// args. Lifecycle methods called through invoke start and stop it
// themselves, using the component's environment path.
func autoInitialize(component *bridge.Component, args []string) bool {
	if len(args) > 1 && args[0] == "invoke" {
		return !component.IsLifecycleMethod(args[1])
	}
	return true
}

func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ConfigFile, "config", "", "Path to a YAML runtime config file (optional)")
	flag.StringVar(&config.ConfigFile, "c", "", "Path to a YAML runtime config file (shorthand)")

	flag.StringVar(&config.Environment, "env", "", "Directory of .risor source modules (overrides the config file)")
	flag.StringVar(&config.Environment, "e", "", "Directory of .risor source modules (shorthand)")

	flag.StringVar(&config.Output, "output", "", "File to write binary results to")
	flag.StringVar(&config.Output, "o", "", "File to write binary results to (shorthand)")

	flag.DurationVar(&config.Timeout, "timeout", 0, "Timeout for the whole run (e.g., 30s, 5m)")

	flag.BoolVar(&config.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&config.Verbose, "v", false, "Enable verbose logging (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bridge CLI - Call library code running in the embedded Risor runtime

Usage: %s [options] <command> [args...]

Examples:
  # Render a QR code
  %s -o hello.png qr hello

  # Validate a document against a schema, reading both from files
  %s validate @doc.json @schema.json

  # Call a function of a source module from an environment directory
  %s -env ./env call greet hello World

Options:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
		flag.PrintDefaults()

		fmt.Fprintf(os.Stderr, `
Commands:
  qr <data>                       Write a PNG QR code encoding data to -output
  validate <data> <schema>        Validate a JSON document against a JSON schema
  call <module> <function> [args] Call a runtime function with string arguments
  invoke <method> [args]          Call a component method by name or alias
  get <property>                  Print a component property
  schema                          Print the JSON schema of the config file

Arguments starting with @ are read from the named file. The runtime is
started before every command except "invoke initializeRuntime" (or one of
its aliases), which starts it from -env itself.

`)
	}

	flag.Parse()
	return config
}

func loadRuntimeConfig(config *Config) (bridge.Config, error) {
	var runtimeConfig bridge.Config
	if config.ConfigFile != "" {
		var err error
		runtimeConfig, err = bridge.LoadConfigFile(config.ConfigFile)
		if err != nil {
			return bridge.Config{}, err
		}
	}
	if config.Environment != "" {
		runtimeConfig.EnvironmentPath = config.Environment
	}
	return runtimeConfig, nil
}

func setupLogger(verbose bool, level string) *slog.Logger {
	if verbose {
		return bridge.NewLogger(slog.LevelDebug)
	}
	if level == "" {
		return bridge.NewLogger(slog.LevelError)
	}
	return bridge.NewLogger(bridge.ParseLevel(level))
}

func readArg(arg string) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
	if err != nil {
		return "", fmt.Errorf("failed to read argument file: %w", err)
	}
	return string(data), nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		color.Yellow("Result is %d bytes; use -output to save it", len(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	color.Green("Wrote %d bytes to %s", len(data), path)
	return nil
}

func showValidation(result string) {
	if result == bridge.ResultOK {
		color.Green("%s", result)
		return
	}
	color.Red("Validation failed: %s", result)
}

func showResult(result any, config *Config) error {
	switch v := result.(type) {
	case nil:
		color.Green("OK")
		return nil
	case []byte:
		return writeOutput(config.Output, v)
	default:
		fmt.Println(v)
		return nil
	}
}

func fail(err error) {
	color.Red("Error (%s): %v", bridge.ErrorType(err), err)
	os.Exit(1)
}
