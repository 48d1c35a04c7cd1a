// Package textio reads whole text files as UTF-8 and hands them to the
// parsers. It adds no transformation beyond BOM removal and encoding checks.
package textio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/JonMunkholm/fileparse/internal/csvparse"
)

// NotFoundError reports a path that does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return "file not found: " + e.Path
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ReadText reads the file at path in one shot and returns its content as
// UTF-8 text. A missing file yields *NotFoundError; invalid UTF-8 yields
// *EncodingError. Other I/O errors are returned wrapped.
func ReadText(path string) (string, error) {
	return ReadTextLimited(path, 0)
}

// ReadTextLimited is ReadText with a size cap; files larger than limit bytes
// fail with ErrTooLarge. A limit of zero or less disables the cap.
func ReadTextLimited(path string, limit int64) (string, error) {
	f, size, err := Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := ReadAllLimited(Wrap(f, size), limit)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Open opens path for reading and reports its size, or zero when the size
// is unknown. A missing file yields *NotFoundError.
func Open(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, &NotFoundError{Path: path, Err: err}
		}
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return f, size, nil
}

// LoadCSV reads the file at path and parses it with the default options.
func LoadCSV(path string) (csvparse.Table, error) {
	return LoadCSVWith(path, csvparse.Options{})
}

// LoadCSVWith reads the file at path and parses it with opts.
func LoadCSVWith(path string, opts csvparse.Options) (csvparse.Table, error) {
	content, err := ReadText(path)
	if err != nil {
		return csvparse.Table{}, err
	}
	return csvparse.ParseWith(content, opts)
}
