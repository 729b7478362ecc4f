package qr

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/bmp"
)

// RecoveryLevel is the error-correction level of generated symbols.
type RecoveryLevel int

const (
	Low RecoveryLevel = iota
	Medium
	High
	Highest
)

// ParseRecoveryLevel accepts low, medium, high or highest. An empty string
// selects Low.
func ParseRecoveryLevel(s string) (RecoveryLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l", "":
		return Low, nil
	case "medium", "m":
		return Medium, nil
	case "high", "q":
		return High, nil
	case "highest", "h":
		return Highest, nil
	}
	return Low, fmt.Errorf("unknown recovery level %q", s)
}

func (l RecoveryLevel) library() qrcode.RecoveryLevel {
	switch l {
	case Low:
		return qrcode.Low
	case High:
		return qrcode.High
	case Highest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

const jpegQuality = 90

// Engine is the Encoder backed by go-qrcode and the image codecs.
type Engine struct {
	level RecoveryLevel
}

// NewEngine returns an Engine producing symbols at the given recovery level.
func NewEngine(level RecoveryLevel) *Engine {
	return &Engine{level: level}
}

// Encode implements Encoder.
func (e *Engine) Encode(text string, width, height int) (*Symbol, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrEncoding, width, height)
	}
	code, err := qrcode.New(text, e.level.library())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return &Symbol{Text: text, Width: width, Height: height, code: code}, nil
}

// Render implements Encoder. A partially written file is removed on failure.
func (e *Engine) Render(sym *Symbol, format Format, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	if err := e.Write(f, sym, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: close %s: %w", ErrWrite, path, err)
	}
	return nil
}

// Write implements Encoder.
func (e *Engine) Write(w io.Writer, sym *Symbol, format Format) error {
	img, err := sym.Image()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	switch format {
	case PNG:
		err = png.Encode(w, img)
	case JPG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case GIF:
		err = gif.Encode(w, img, nil)
	case BMP:
		err = bmp.Encode(w, img)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, format.Ext(), err)
	}
	return nil
}

// Image rasterizes the symbol. Non-square sizes centre the square symbol on
// a white canvas.
func (s *Symbol) Image() (image.Image, error) {
	if s == nil || s.code == nil {
		return nil, errors.New("symbol has no matrix")
	}
	side := min(s.Width, s.Height)
	img := s.code.Image(side)
	if s.Width == s.Height {
		return img, nil
	}

	canvas := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	b := img.Bounds()
	offset := image.Pt((s.Width-b.Dx())/2, (s.Height-b.Dy())/2)
	draw.Draw(canvas, b.Sub(b.Min).Add(offset), img, b.Min, draw.Src)
	return canvas, nil
}
