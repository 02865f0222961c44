package arena

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
)

func TestReserveAdvancesCursor(t *testing.T) {
	a := New(64)

	base, err := a.Reserve(16)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if base != 0 {
		t.Errorf("first base = %d, want 0", base)
	}
	if a.Pos() != 16 {
		t.Errorf("Pos = %d, want 16", a.Pos())
	}

	base, err = a.Reserve(8)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if base != 16 {
		t.Errorf("second base = %d, want 16", base)
	}
}

func TestReserveBeyondCapacity(t *testing.T) {
	a := New(8)
	if _, err := a.Reserve(16); !errors.Is(err, ErrFull) {
		t.Errorf("err = %v, want ErrFull", err)
	}
	if a.Pos() != 0 {
		t.Errorf("failed reserve moved cursor to %d", a.Pos())
	}
}

func TestAlign(t *testing.T) {
	a := New(128)
	a.Reserve(5)

	if err := a.Align(4); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if a.Pos() != 8 {
		t.Errorf("Pos after align 4 = %d, want 8", a.Pos())
	}

	// Already aligned, must not move.
	if err := a.Align(4); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if a.Pos() != 8 {
		t.Errorf("Pos after redundant align = %d, want 8", a.Pos())
	}

	if err := a.Align(64); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if a.Pos() != 64 {
		t.Errorf("Pos after align 64 = %d, want 64", a.Pos())
	}
}

func TestAlignSkippedBytesStayZero(t *testing.T) {
	a := New(32)
	a.WriteBytes([]byte{0xff})
	a.Align(8)
	a.WriteBytes([]byte{0xee})

	got := a.Bytes()
	for i := 1; i < 8; i++ {
		if got[i] != 0 {
			t.Errorf("byte %d = %#x, want 0", i, got[i])
		}
	}
}

func TestWriteStringNulTerminated(t *testing.T) {
	a := New(32)
	pos, err := a.WriteString("hip")
	if err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if pos != 0 {
		t.Errorf("pos = %d, want 0", pos)
	}
	want := []byte{'h', 'i', 'p', 0}
	got := a.Bytes()
	if len(got) != len(want) {
		t.Fatalf("wrote %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

type testRecord struct {
	Magic int32
	Count uint16
	Pad   uint16
	Name  int32
}

func TestWriteAndPatchStruct(t *testing.T) {
	a := New(64)
	rec := testRecord{Magic: 0x1234, Count: 3}

	base, err := a.WriteStruct(&rec)
	if err != nil {
		t.Fatalf("WriteStruct: %v", err)
	}
	if got := binary.LittleEndian.Uint32(a.Bytes()[base:]); got != 0x1234 {
		t.Errorf("magic = %#x, want 0x1234", got)
	}

	rec.Name = 40
	if err := a.PatchStruct(base, &rec); err != nil {
		t.Fatalf("PatchStruct: %v", err)
	}
	off := FieldOffset(testRecord{}, "Name")
	if got := int32(binary.LittleEndian.Uint32(a.Bytes()[base+off:])); got != 40 {
		t.Errorf("patched name = %d, want 40", got)
	}
}

func TestFieldOffset(t *testing.T) {
	if off := FieldOffset(testRecord{}, "Magic"); off != 0 {
		t.Errorf("Magic offset = %d, want 0", off)
	}
	if off := FieldOffset(testRecord{}, "Count"); off != 4 {
		t.Errorf("Count offset = %d, want 4", off)
	}
	if off := FieldOffset(&testRecord{}, "Name"); off != 8 {
		t.Errorf("Name offset = %d, want 8", off)
	}
}

func TestPatchInt32Bounds(t *testing.T) {
	a := New(16)
	a.Reserve(8)
	if err := a.PatchInt32(8, 1); err == nil {
		t.Error("patch past written span succeeded")
	}
	if err := a.PatchInt32(4, 7); err != nil {
		t.Errorf("in-span patch failed: %v", err)
	}
	if got := int32(binary.LittleEndian.Uint32(a.Bytes()[4:])); got != 7 {
		t.Errorf("patched value = %d, want 7", got)
	}
}
