package qr

import (
	"fmt"
	"strings"
)

// Format is an output raster format.
type Format string

const (
	JPG Format = "JPG"
	PNG Format = "PNG"
	GIF Format = "GIF"
	BMP Format = "BMP"
)

// Formats lists every supported output format.
var Formats = []Format{JPG, PNG, GIF, BMP}

// Pixel size bounds accepted for a generated image.
const (
	MinSize = 10
	MaxSize = 4800
)

// ParseFormat maps a user-supplied name (case-insensitive, with an optional
// leading dot) to a Format. "jpeg" is accepted as JPG.
func ParseFormat(s string) (Format, error) {
	name := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if name == "JPEG" {
		return JPG, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported image format %q (want jpg, png, gif or bmp)", s)
}

// Ext returns the lowercase file extension without the dot.
func (f Format) Ext() string {
	return strings.ToLower(string(f))
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case JPG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case GIF:
		return "image/gif"
	case BMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// ValidateSize reports whether size lies within [MinSize, MaxSize].
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("image size %d out of range (%d-%d)", size, MinSize, MaxSize)
	}
	return nil
}
