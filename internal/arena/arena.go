package arena

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrFull is returned when a write would advance the cursor past the
// arena's fixed capacity.
var ErrFull = errors.New("arena: capacity exceeded")

// DefaultCapacity is large enough for every known model; the biggest
// shipped assets convert into a few MiB.
const DefaultCapacity = 32 * 1024 * 1024

// Arena is a fixed-capacity zero-initialized output buffer written
// strictly forward through an advancing cursor. Already-written fixed-size
// records may be patched in place, but the cursor never rewinds.
type Arena struct {
	buf []byte
	cur int
}

func New(capacity int) *Arena {
	return &Arena{buf: make([]byte, capacity)}
}

// Wrap adopts an already written buffer so its records can be patched
// in place. The cursor sits at the end; no further writes fit.
func Wrap(b []byte) *Arena {
	return &Arena{buf: b, cur: len(b)}
}

// Pos returns the current cursor position.
func (a *Arena) Pos() int { return a.cur }

// Bytes returns the written span of the buffer.
func (a *Arena) Bytes() []byte { return a.buf[:a.cur] }

// Reserve advances the cursor by n bytes and returns the pre-advance
// position, which becomes the record's base address.
func (a *Arena) Reserve(n int) (int, error) {
	if n < 0 || a.cur+n > len(a.buf) {
		return 0, errors.Wrapf(ErrFull, "reserve %d at %#x", n, a.cur)
	}
	base := a.cur
	a.cur += n
	return base, nil
}

// Align rounds the cursor up to a k-byte boundary. The skipped bytes stay
// zero. k must be a power of two.
func (a *Arena) Align(k int) error {
	aligned := (a.cur + k - 1) &^ (k - 1)
	if aligned > len(a.buf) {
		return errors.Wrapf(ErrFull, "align %d at %#x", k, a.cur)
	}
	a.cur = aligned
	return nil
}

// WriteBytes appends b and returns its base position.
func (a *Arena) WriteBytes(b []byte) (int, error) {
	base, err := a.Reserve(len(b))
	if err != nil {
		return 0, err
	}
	copy(a.buf[base:], b)
	return base, nil
}

// WriteString appends s plus a NUL terminator.
func (a *Arena) WriteString(s string) (int, error) {
	base, err := a.Reserve(len(s) + 1)
	if err != nil {
		return 0, err
	}
	copy(a.buf[base:], s)
	return base, nil
}

// WriteStruct appends v in packed little-endian layout and returns its
// base position. v must be a fixed-size value per encoding/binary rules.
func (a *Arena) WriteStruct(v any) (int, error) {
	n := binary.Size(v)
	if n < 0 {
		return 0, errors.Errorf("arena: unencodable type %T", v)
	}
	base, err := a.Reserve(n)
	if err != nil {
		return 0, err
	}
	if _, err := binary.Encode(a.buf[base:base+n], binary.LittleEndian, v); err != nil {
		return 0, errors.Wrapf(err, "arena: encode %T", v)
	}
	return base, nil
}

// PatchStruct rewrites a previously written record at base without moving
// the cursor. The record must lie entirely within the written span.
func (a *Arena) PatchStruct(base int, v any) error {
	n := binary.Size(v)
	if n < 0 {
		return errors.Errorf("arena: unencodable type %T", v)
	}
	if base < 0 || base+n > a.cur {
		return errors.Errorf("arena: patch of %d bytes at %#x outside written span %#x", n, base, a.cur)
	}
	_, err := binary.Encode(a.buf[base:base+n], binary.LittleEndian, v)
	return errors.Wrapf(err, "arena: patch %T", v)
}

// PatchInt32 rewrites a single int32 field at an absolute position.
func (a *Arena) PatchInt32(pos int, v int32) error {
	if pos < 0 || pos+4 > a.cur {
		return errors.Errorf("arena: int32 patch at %#x outside written span %#x", pos, a.cur)
	}
	binary.LittleEndian.PutUint32(a.buf[pos:], uint32(v))
	return nil
}
