// Package qr is the boundary to the QR symbol library and the raster
// encoders. The generation pipeline depends only on the Encoder interface.
package qr

import (
	"errors"
	"io"

	"github.com/skip2/go-qrcode"
)

var (
	// ErrEncoding is returned when the text cannot be represented as a QR symbol.
	ErrEncoding = errors.New("qr encoding failed")
	// ErrWrite is returned when the image cannot be serialized or written.
	ErrWrite = errors.New("qr image write failed")
)

// Symbol is an encoded QR matrix together with the requested raster size.
type Symbol struct {
	Text   string
	Width  int
	Height int

	code *qrcode.QRCode
}

// Encoder turns text into a symbol and serializes symbols to images.
type Encoder interface {
	// Encode builds the symbol for text using UTF-8 byte mode.
	Encode(text string, width, height int) (*Symbol, error)
	// Render writes sym to a new file at path.
	Render(sym *Symbol, format Format, path string) error
	// Write streams sym to w.
	Write(w io.Writer, sym *Symbol, format Format) error
}
