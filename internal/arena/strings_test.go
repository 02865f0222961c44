package arena

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestStringTableDeduplicates(t *testing.T) {
	a := New(256)
	tbl := NewStringTable()

	// Two records referencing the same text.
	recA, _ := a.Reserve(8)
	recB, _ := a.Reserve(8)
	tbl.Add(recA, recA, "jx_c_hand")
	tbl.Add(recB, recB, "jx_c_hand")
	tbl.Add(recB, recB+4, "other")

	if err := tbl.Flush(a); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	blob := a.Bytes()[16:]
	if n := bytes.Count(blob, []byte("jx_c_hand\x00")); n != 1 {
		t.Errorf("shared string serialized %d times, want 1", n)
	}

	// Both slots resolve to the same absolute position, expressed
	// relative to each record's own base.
	offA := int32(binary.LittleEndian.Uint32(a.Bytes()[recA:]))
	offB := int32(binary.LittleEndian.Uint32(a.Bytes()[recB:]))
	if recA+int(offA) != recB+int(offB) {
		t.Errorf("slots resolve to %d and %d", recA+int(offA), recB+int(offB))
	}
}

func TestStringTableInsertionOrder(t *testing.T) {
	a := New(256)
	tbl := NewStringTable()

	rec, _ := a.Reserve(16)
	tbl.Add(rec, rec, "zulu")
	tbl.Add(rec, rec+4, "alpha")
	tbl.Add(rec, rec+8, "zulu")
	tbl.Add(rec, rec+12, "mike")

	if err := tbl.Flush(a); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	blob := a.Bytes()[16:]
	want := []byte("zulu\x00alpha\x00mike\x00")
	if !bytes.Equal(blob, want) {
		t.Errorf("blob = %q, want %q", blob, want)
	}
}

func TestStringTableEmptyString(t *testing.T) {
	a := New(64)
	tbl := NewStringTable()

	rec, _ := a.Reserve(4)
	tbl.Add(rec, rec, "")

	if err := tbl.Flush(a); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Empty string still occupies one NUL byte and resolves to a
	// valid offset.
	if a.Pos() != 5 {
		t.Errorf("Pos = %d, want 5", a.Pos())
	}
	off := int32(binary.LittleEndian.Uint32(a.Bytes()[rec:]))
	if off != 4 {
		t.Errorf("offset = %d, want 4", off)
	}
}

func TestStringTableDeterministic(t *testing.T) {
	build := func() []byte {
		a := New(256)
		tbl := NewStringTable()
		rec, _ := a.Reserve(12)
		tbl.Add(rec, rec, "def_bone")
		tbl.Add(rec, rec+4, "hitbox_head")
		tbl.Add(rec, rec+8, "def_bone")
		tbl.Flush(a)
		return a.Bytes()
	}

	first := build()
	for i := 0; i < 8; i++ {
		if !bytes.Equal(build(), first) {
			t.Fatal("identical inputs produced different output")
		}
	}
}
