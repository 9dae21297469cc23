package modules

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the side length in pixels of images built by qrcode.make.
const DefaultQRSize = 256

// QRCodeModule generates QR code images. qrcode.make(data) returns an
// image object whose save(stream) method writes a PNG into an io.BytesIO.
type QRCodeModule struct{}

func (m *QRCodeModule) Name() string {
	return "qrcode"
}

func (m *QRCodeModule) Build() *object.Module {
	return object.NewBuiltinsModule(m.Name(), map[string]object.Object{
		"make": object.NewBuiltin("make", builtin(makeQR)),
	})
}

// QRImage is a rendered QR code held by the runtime.
type QRImage struct {
	*Object
	code *goqrcode.QRCode
	size int
}

func newQRImage(code *goqrcode.QRCode, size int) *QRImage {
	img := &QRImage{Object: newObject("qrcode.Image"), code: code, size: size}
	img.Method("save", builtin(img.save))
	img.Method("to_string", builtin(img.toString))
	return img
}

func (img *QRImage) Inspect() string {
	return fmt.Sprintf("qrcode.Image(size=%d)", img.size)
}

// makeQR implements qrcode.make(data, size=256).
func makeQR(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("make", 1, 2, args); err != nil {
		return nil, err
	}
	data, err := stringArg("make", 0, args[0])
	if err != nil {
		return nil, err
	}
	size := DefaultQRSize
	if len(args) == 2 {
		n, ok := args[1].(*object.Int)
		if !ok {
			return nil, fmt.Errorf("make() argument 2 must be an int, not %s", args[1].Type())
		}
		size = int(n.Value())
	}
	code, err := goqrcode.New(data, goqrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return newQRImage(code, size), nil
}

// save writes the image as PNG into an io.BytesIO stream.
func (img *QRImage) save(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("save", 1, 1, args); err != nil {
		return nil, err
	}
	stream, ok := args[0].(*BytesIO)
	if !ok {
		return nil, fmt.Errorf("save() argument must be io.BytesIO, not %s", args[0].Type())
	}
	if err := img.code.Write(img.size, stream); err != nil {
		return nil, fmt.Errorf("failed to write png: %w", err)
	}
	return object.Nil, nil
}

func (img *QRImage) toString(ctx context.Context, args ...object.Object) (object.Object, error) {
	if err := checkArgs("to_string", 0, 0, args); err != nil {
		return nil, err
	}
	return object.NewString(img.code.ToSmallString(false)), nil
}
