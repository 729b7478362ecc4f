// Package paths normalizes output filenames and prepares output folders.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/openclaw/qrcodemaker/qr"
)

// NormalizeExtension returns name unchanged when it already ends with the
// format's extension (case-insensitive); otherwise it appends the lowercase
// extension.
func NormalizeExtension(name string, format qr.Format) string {
	ext := "." + format.Ext()
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}

// EnsureFolder creates path as a directory if nothing exists there. The parent
// must already exist. An existing path is accepted whatever its kind.
func EnsureFolder(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat output folder %s: %w", path, err)
	}
	if err := os.Mkdir(path, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("creating output folder %s: %w", path, err)
	}
	return nil
}

// ErrOutsideFolder reports a record filename that does not name a file
// directly inside the output folder.
var ErrOutsideFolder = errors.New("filename leaves output folder")

// Join builds the destination path of a record image inside folder. The
// filename must be a bare name: separators, "..", and anything resolving
// outside folder are rejected with ErrOutsideFolder.
func Join(folder, filename string) (string, error) {
	if strings.ContainsAny(filename, `/\`) || filename == ".." || filepath.IsAbs(filename) || filepath.VolumeName(filename) != "" {
		return "", fmt.Errorf("%w: %q", ErrOutsideFolder, filename)
	}
	path := filepath.Join(folder, filename)
	rel, err := filepath.Rel(folder, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideFolder, filename)
	}
	return path, nil
}
