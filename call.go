package bridge

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/bridge/script"
)

// ResultOK is returned by InvokeObjectMethod when the method did not raise.
const ResultOK = "OK"

const (
	qrModule        = "qrcode"
	qrFunction      = "make"
	validatorModule = "schema.validator"
	validatorClass  = "Validator"
	validatorMethod = "validate"
)

// CallFacade invokes library code living in the runtime.
type CallFacade struct {
	h *Handle
	m *Marshaler
}

// NewCallFacade returns a CallFacade bound to h.
func NewCallFacade(h *Handle) *CallFacade {
	return &CallFacade{h: h, m: NewMarshaler(h)}
}

// InvokeLibraryFunction calls moduleName.functionName(args...) and returns
// its result. Strings, booleans and byte slices are returned as is; objects
// with a save method are serialized to bytes.
func (c *CallFacade) InvokeLibraryFunction(ctx context.Context, moduleName, functionName string, args ...HostValue) (HostValue, error) {
	leave, err := c.h.enter()
	if err != nil {
		return HostValue{}, err
	}
	defer leave()

	s := c.h.refs.scope()
	defer s.close()

	mod, err := c.importModule(ctx, s, moduleName)
	if err != nil {
		return HostValue{}, err
	}
	fn, err := c.h.interp.GetAttr(ctx, mod, functionName)
	if err != nil {
		return HostValue{}, c.h.errs.fail(ErrorTypeBridge,
			fmt.Sprintf("failed to resolve function %s.%s", moduleName, functionName), err)
	}
	s.track(fn)

	argv, err := c.marshalArgs(s, args)
	if err != nil {
		return HostValue{}, err
	}
	result, err := c.h.interp.Call(ctx, fn, argv...)
	if err != nil {
		return HostValue{}, c.h.errs.fail(ErrorTypeBridge,
			fmt.Sprintf("failed to call %s.%s", moduleName, functionName), err)
	}
	s.track(result)
	if err := c.h.errs.RaiseIfError(ErrorTypeBridge, fmt.Sprintf("failed to call %s.%s", moduleName, functionName)); err != nil {
		return HostValue{}, err
	}
	return c.m.fromRuntimeAny(ctx, s, result)
}

// InvokeObjectMethod constructs className(constructorArgs...) from
// moduleName and calls its zero-argument method. It returns ResultOK when
// the method succeeds and the runtime's error text when it raises; only
// failures of the bridge itself, including a failing constructor, are
// returned as errors.
func (c *CallFacade) InvokeObjectMethod(ctx context.Context, moduleName, className string, constructorArgs []HostValue, methodName string) (string, error) {
	leave, err := c.h.enter()
	if err != nil {
		return "", err
	}
	defer leave()

	s := c.h.refs.scope()
	defer s.close()

	mod, err := c.importModule(ctx, s, moduleName)
	if err != nil {
		return "", err
	}
	class, err := c.h.interp.GetAttr(ctx, mod, className)
	if err != nil {
		return "", c.h.errs.fail(ErrorTypeBridge,
			fmt.Sprintf("failed to resolve class %s.%s", moduleName, className), err)
	}
	s.track(class)

	argv, err := c.marshalArgs(s, constructorArgs)
	if err != nil {
		return "", err
	}
	instance, err := c.h.interp.Call(ctx, class, argv...)
	if err != nil {
		return "", c.h.errs.fail(ErrorTypeBridge,
			fmt.Sprintf("failed to create object of class %s", className), err)
	}
	s.track(instance)

	result, err := c.h.interp.CallMethod(ctx, instance, methodName)
	if err != nil {
		desc := c.h.errs.CheckAndClear(fmt.Sprintf("%s.%s raised", className, methodName))
		if desc == nil {
			// Refused by the interpreter, the method never ran
			return "", c.h.errs.fail(ErrorTypeBridge,
				fmt.Sprintf("failed to call %s.%s", className, methodName), err)
		}
		return desc.Cause, nil
	}
	s.track(result)
	return ResultOK, nil
}

// MakeSimpleQR renders data as a QR code and returns the PNG bytes.
func (c *CallFacade) MakeSimpleQR(ctx context.Context, data string) ([]byte, error) {
	result, err := c.InvokeLibraryFunction(ctx, qrModule, qrFunction, String(data))
	if err != nil {
		return nil, err
	}
	b, ok := result.AsBytes()
	if !ok {
		return nil, Errorf(ErrorTypeMarshal, "expected image bytes from %s.%s, got %s", qrModule, qrFunction, result.Kind())
	}
	return b, nil
}

// Validator checks the JSON document data against schema. It returns
// ResultOK or the validation failure text.
func (c *CallFacade) Validator(ctx context.Context, data, schema string) (string, error) {
	if data == "" || schema == "" {
		return "", NewError(ErrorTypeInvalidArgument, "data and schema must not be empty")
	}
	return c.InvokeObjectMethod(ctx, validatorModule, validatorClass,
		[]HostValue{String(data), String(schema)}, validatorMethod)
}

func (c *CallFacade) importModule(ctx context.Context, s *scope, name string) (script.Value, error) {
	mod, err := c.h.interp.Import(ctx, name)
	if err != nil {
		return nil, c.h.errs.fail(ErrorTypeModuleImport, "failed to import module "+name, err)
	}
	s.track(mod)
	return mod, nil
}

func (c *CallFacade) marshalArgs(s *scope, args []HostValue) ([]script.Value, error) {
	argv := make([]script.Value, 0, len(args))
	for _, arg := range args {
		value, err := c.m.toRuntime(arg)
		if err != nil {
			return nil, err
		}
		s.track(value)
		argv = append(argv, value)
	}
	return argv, nil
}
