package studio

import (
	"encoding/binary"
	"testing"
)

// Record widths that are fixed by the file formats rather than by our
// own choosing. A drift here silently corrupts every converted model.
func TestRecordSizes(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want int
	}{
		{"SeqDesc160", SeqDesc160{}, SeqDescStride16},
		{"Event160", Event160{}, 20},
		{"AutoLayer160", AutoLayer160{}, 32},
		{"IKLock160", IKLock160{}, 12},
		{"ActivityModifier160", ActivityModifier160{}, 3},
		{"Hitbox160", Hitbox160{}, 32},
		{"CollHeader160", CollHeader160{}, 40},
		{"CollHeader191", CollHeader191{}, 40},
		{"CollHeader", CollHeader{}, 32},
		{"CollModel", CollModel{}, 16},
		{"DSurfaceProperty", DSurfaceProperty{}, 8},
		{"Event", Event{}, 80},
		{"AutoLayer", AutoLayer{}, 24},
		{"IKLock", IKLock{}, 32},
		{"ActivityModifier", ActivityModifier{}, 8},
		{"AnimSection", AnimSection{}, 4},
		{"Matrix3x4", Matrix3x4{}, 48},
	}
	for _, c := range cases {
		if got := binary.Size(c.v); got != c.want {
			t.Errorf("%s size = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestFixOffset(t *testing.T) {
	if got := FixOffset(0xFFFF); got != 0 {
		t.Errorf("FixOffset(0xFFFF) = %d, want 0", got)
	}
	if got := FixOffset(0); got != 0 {
		t.Errorf("FixOffset(0) = %d, want 0", got)
	}
	if got := FixOffset(0x1234); got != 0x1234 {
		t.Errorf("FixOffset(0x1234) = %d, want %d", got, 0x1234)
	}
	if got := FixOffset32(0xFFFF); got != 0 {
		t.Errorf("FixOffset32(0xFFFF) = %d, want 0", got)
	}
	if got := FixOffset32(0x10000); got != 0x10000 {
		t.Errorf("FixOffset32(0x10000) = %d, want %d", got, 0x10000)
	}
}

func TestAnimFlagSize(t *testing.T) {
	// Per-bone nibbles packed two to a byte, plus one guard byte,
	// rounded to an even count.
	cases := []struct{ bones, want int }{
		{1, 2},
		{2, 2},
		{3, 2},
		{4, 2},
		{15, 8},
		{54, 28},
	}
	for _, c := range cases {
		if got := AnimFlagSize(c.bones); got != c.want {
			t.Errorf("AnimFlagSize(%d) = %d, want %d", c.bones, got, c.want)
		}
	}
}

func TestReaderBounds(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})

	if _, err := r.Bytes(2, 2); err != nil {
		t.Errorf("in-bounds read failed: %v", err)
	}
	if _, err := r.Bytes(2, 3); err == nil {
		t.Error("read past end succeeded")
	}
	if _, err := r.Bytes(-1, 2); err == nil {
		t.Error("negative offset read succeeded")
	}
	if _, err := r.Uint16(3); err == nil {
		t.Error("uint16 straddling end succeeded")
	}
}

func TestReaderCString(t *testing.T) {
	r := NewReader([]byte("abc\x00def"))
	s, err := r.CString(0)
	if err != nil || s != "abc" {
		t.Errorf("CString(0) = %q, %v", s, err)
	}
	if _, err := r.CString(4); err == nil {
		t.Error("unterminated string read succeeded")
	}
}
