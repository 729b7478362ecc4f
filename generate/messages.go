package generate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Languages supported by Message.
const (
	LangEnglish = "en"
	LangItalian = "it"
)

type messageSet struct {
	ok, fileNotFound, write, io, textTooLong, encoding, folder, partial string
}

var messages = map[string]messageSet{
	LangEnglish: {
		ok:           "OK",
		fileNotFound: "File '%s' not exist!",
		write:        "Write error!",
		io:           "IO error!",
		textTooLong:  "Text too long (max %d).",
		encoding:     "Encoding error!",
		folder:       "Cannot create folder '%s'!",
		partial:      "Some QR codes were not generated (lines %s).",
	},
	LangItalian: {
		ok:           "OK",
		fileNotFound: "File '%s' non esiste!",
		write:        "Errore di scrittura!",
		io:           "Errore di IO",
		textTooLong:  "Testo troppo lungo (max %d).",
		encoding:     "Errore di Codifica",
		folder:       "Impossibile creare la cartella '%s'!",
		partial:      "Alcuni QR code non sono stati generati (righe %s).",
	},
}

// Message returns the user-facing text for err in lang. Unknown languages
// fall back to English.
func Message(err error, lang string) string {
	m, ok := messages[strings.ToLower(lang)]
	if !ok {
		m = messages[LangEnglish]
	}

	var path string
	var failed []int
	var ge *Error
	if errors.As(err, &ge) {
		path, failed = ge.Path, ge.Failed
	}

	switch CodeOf(err) {
	case OK:
		return m.ok
	case FileNotFound:
		return fmt.Sprintf(m.fileNotFound, path)
	case WriteFailure:
		return m.write
	case TextTooLong:
		return fmt.Sprintf(m.textTooLong, MaxTextLength)
	case EncodingError:
		return m.encoding
	case FolderFailure:
		return fmt.Sprintf(m.folder, path)
	case PartialFailure:
		lines := make([]string, len(failed))
		for i, n := range failed {
			lines[i] = strconv.Itoa(n)
		}
		return fmt.Sprintf(m.partial, strings.Join(lines, ", "))
	default:
		return m.io
	}
}
