package textio

// streaming.go provides readers that prepare raw bytes for text parsing.
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - UTF8Validator: fails with *EncodingError at the first invalid sequence
//   - CountingReader: tracks bytes read for progress and size limits
//
// Wrap applies all three in the correct order.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrTooLarge is returned when input exceeds the configured size limit.
var ErrTooLarge = errors.New("file too large")

// EncodingError reports input that is not valid UTF-8.
type EncodingError struct {
	// Offset is the position of the first invalid byte after any BOM.
	Offset int64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: invalid UTF-8 at byte %d", e.Offset)
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	head    []byte // bytes read during the BOM check that belong to the stream
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. The first call peeks three bytes for the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var buf [3]byte
		n, err := io.ReadFull(r.reader, buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if !bytes.Equal(buf[:n], utf8BOM) {
			r.head = append([]byte(nil), buf[:n]...)
		}
	}

	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// UTF8Validator passes bytes through unchanged and fails with *EncodingError
// as soon as an invalid UTF-8 sequence is seen. Sequences split across reads
// are carried over and checked once complete.
type UTF8Validator struct {
	reader  io.Reader
	pending []byte
	offset  int64
	err     error
}

// NewUTF8Validator creates a validating reader.
func NewUTF8Validator(r io.Reader) *UTF8Validator {
	return &UTF8Validator{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (v *UTF8Validator) Read(p []byte) (int, error) {
	if v.err != nil {
		return 0, v.err
	}

	n, err := v.reader.Read(p)
	if verr := v.check(p[:n], err == io.EOF); verr != nil {
		v.err = verr
		return n, verr
	}
	return n, err
}

// check validates pending bytes followed by data. It returns an
// *EncodingError on the first invalid sequence, or on a truncated
// sequence at EOF.
func (v *UTF8Validator) check(data []byte, atEOF bool) error {
	buf := data
	if len(v.pending) > 0 {
		buf = append(v.pending, data...)
	}

	i := 0
	for i < len(buf) {
		if buf[i] < utf8.RuneSelf {
			i++
			continue
		}
		if !utf8.FullRune(buf[i:]) {
			if atEOF {
				return &EncodingError{Offset: v.offset + int64(i)}
			}
			break
		}
		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size == 1 {
			return &EncodingError{Offset: v.offset + int64(i)}
		}
		i += size
	}

	v.offset += int64(i)
	v.pending = append(v.pending[:0], buf[i:]...)
	return nil
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// Wrap strips a BOM, validates UTF-8, and counts the bytes that pass.
//
// BOM stripping must run before validation so the BOM never reaches
// the parser as part of the first header name.
func Wrap(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(NewUTF8Validator(NewBOMSkippingReader(r)), totalSize)
}

// ReadAllLimited reads r to EOF, failing with ErrTooLarge once more than
// limit bytes have been read. A limit of zero or less disables the check.
func ReadAllLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
