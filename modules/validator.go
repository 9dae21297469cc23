package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/risor-io/risor/object"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaResource is an absolute URL outside the file scheme so that
// relative references never resolve against the working directory.
const schemaResource = "mem:///schema.json"

// ValidatorModule validates JSON documents against JSON schemas.
// schema.validator.Validator(data, schema) builds a validator whose
// validate() method raises when data does not satisfy schema.
type ValidatorModule struct{}

func (m *ValidatorModule) Name() string {
	return "schema.validator"
}

func (m *ValidatorModule) Build() *object.Module {
	return object.NewBuiltinsModule(m.Name(), map[string]object.Object{
		"Validator": object.NewBuiltin("Validator", builtin(newValidator)),
	})
}

// Validator holds a document and the schema it is checked against. Both
// are parsed lazily by validate().
type Validator struct {
	*Object
	data   string
	schema string
}

func newValidator(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("Validator", 2, 2, args); err != nil {
		return nil, err
	}
	data, err := stringArg("Validator", 0, args[0])
	if err != nil {
		return nil, err
	}
	schema, err := stringArg("Validator", 1, args[1])
	if err != nil {
		return nil, err
	}
	v := &Validator{Object: newObject("schema.Validator"), data: data, schema: schema}
	v.Method("validate", builtin(v.validate))
	return v, nil
}

func (v *Validator) validate(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("validate", 0, 0, args); err != nil {
		return nil, err
	}
	if err := Validate(v.data, v.schema); err != nil {
		return nil, err
	}
	return object.True, nil
}

// Validate checks the JSON document data against the JSON schema schema.
func Validate(data, schema string) error {
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return fmt.Errorf("invalid JSON data: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = rejectURL
	if err := compiler.AddResource(schemaResource, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	sch, err := compiler.Compile(schemaResource)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return err
	}
	return nil
}

// rejectURL refuses every external reference. Schemas must be self-contained.
func rejectURL(url string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("external schema reference %q is not allowed", url)
}
