package studio

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrTruncated is returned when a record or table runs past the end of
// the input buffer.
var ErrTruncated = errors.New("studio: input truncated")

// Reader provides bounds-checked random access over a raw model file.
// Every accessor validates the requested span against the buffer before
// touching it; a malformed offset surfaces as an error instead of a
// runtime panic.
type Reader struct {
	data []byte
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the total input size.
func (r *Reader) Len() int { return len(r.data) }

// Bytes returns n bytes starting at off.
func (r *Reader) Bytes(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(r.data) {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes at %#x (have %d)", n, off, len(r.data))
	}
	return r.data[off : off+n], nil
}

// Struct decodes a packed little-endian record at off into out.
func (r *Reader) Struct(off int, out any) error {
	n := binary.Size(out)
	if n < 0 {
		return errors.Errorf("studio: undecodable type %T", out)
	}
	b, err := r.Bytes(off, n)
	if err != nil {
		return errors.Wrapf(err, "read %T", out)
	}
	if _, err := binary.Decode(b, binary.LittleEndian, out); err != nil {
		return errors.Wrapf(err, "decode %T", out)
	}
	return nil
}

// CString reads a NUL-terminated string at off.
func (r *Reader) CString(off int) (string, error) {
	if off < 0 || off >= len(r.data) {
		return "", errors.Wrapf(ErrTruncated, "string at %#x", off)
	}
	end := bytes.IndexByte(r.data[off:], 0)
	if end < 0 {
		return "", errors.Wrapf(ErrTruncated, "unterminated string at %#x", off)
	}
	return string(r.data[off : off+end]), nil
}

// Uint8 reads a single byte at off.
func (r *Reader) Uint8(off int) (uint8, error) {
	b, err := r.Bytes(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a little-endian uint16 at off.
func (r *Reader) Uint16(off int) (uint16, error) {
	b, err := r.Bytes(off, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int32 reads a little-endian int32 at off.
func (r *Reader) Int32(off int) (int32, error) {
	b, err := r.Bytes(off, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// Uint64 reads a little-endian uint64 at off.
func (r *Reader) Uint64(off int) (uint64, error) {
	b, err := r.Bytes(off, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
