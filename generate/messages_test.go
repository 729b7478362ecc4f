package generate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	notFound := &Error{Code: FileNotFound, Path: "data.txt"}

	assert.Equal(t, "OK", Message(nil, "en"))
	assert.Equal(t, "File 'data.txt' not exist!", Message(notFound, "en"))
	assert.Equal(t, "File 'data.txt' non esiste!", Message(notFound, "it"))
	assert.Equal(t, "Text too long (max 4296).", Message(&Error{Code: TextTooLong}, "EN"))
	assert.Equal(t, "Testo troppo lungo (max 4296).", Message(&Error{Code: TextTooLong}, "it"))
	assert.Equal(t, "Write error!", Message(&Error{Code: WriteFailure}, "fr"))
	assert.Equal(t, "Errore di Codifica", Message(&Error{Code: EncodingError}, "it"))
	assert.Equal(t, "IO error!", Message(errors.New("foreign"), "en"))
	assert.Equal(t, "Cannot create folder 'out'!", Message(&Error{Code: FolderFailure, Path: "out"}, "en"))
	assert.Equal(t,
		"Some QR codes were not generated (lines 2, 7).",
		Message(&Error{Code: PartialFailure, Failed: []int{2, 7}}, "en"))
}

func TestMessage_WrappedError(t *testing.T) {
	err := fmt.Errorf("cli: %w", &Error{Code: FileNotFound, Path: "x"})
	assert.Equal(t, "File 'x' not exist!", Message(err, "en"))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "ok", OK.String())
	assert.Equal(t, "partial_failure", PartialFailure.String())
	assert.Equal(t, "code(42)", Code(42).String())
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Code: WriteFailure, Path: "out.png", Err: errors.New("disk full")}
	assert.Equal(t, "write_failure out.png: disk full", err.Error())
	assert.Equal(t, "disk full", errors.Unwrap(err).Error())
}
