package generate

import (
	"errors"
	"fmt"

	"github.com/openclaw/qrcodemaker/qr"
)

// Code is the outcome of one pipeline invocation.
type Code int

const (
	OK Code = iota
	FileNotFound
	WriteFailure
	IOError
	TextTooLong
	EncodingError
	FolderFailure
	PartialFailure
)

var codeNames = [...]string{
	OK:             "ok",
	FileNotFound:   "file_not_found",
	WriteFailure:   "write_failure",
	IOError:        "io_error",
	TextTooLong:    "text_too_long",
	EncodingError:  "encoding_error",
	FolderFailure:  "folder_failure",
	PartialFailure: "partial_failure",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is the error returned by every Generator operation.
type Error struct {
	Code Code
	Path string // file or folder involved
	// Failed lists the source lines that produced no image (PartialFailure).
	Failed []int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the Code carried by err. nil maps to OK and errors from
// outside the pipeline map to IOError.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return IOError
}

// classify maps an encoder error to a Code, using fallback for errors that
// carry neither encoder sentinel.
func classify(err error, fallback Code) Code {
	switch {
	case errors.Is(err, qr.ErrEncoding):
		return EncodingError
	case errors.Is(err, qr.ErrWrite):
		return WriteFailure
	default:
		return fallback
	}
}
