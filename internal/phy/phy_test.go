package phy

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestConvert(t *testing.T) {
	// Compact header: version 1, keyvalues at 64, then solid data.
	src := make([]byte, 4+32)
	binary.LittleEndian.PutUint16(src[0:], 1)
	binary.LittleEndian.PutUint16(src[2:], 64)
	for i := 4; i < len(src); i++ {
		src[i] = byte(i)
	}

	out, err := Convert(src, 0x1234)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(out) != 20+32 {
		t.Fatalf("output size = %d, want %d", len(out), 20+32)
	}

	var hdr ivpsHeader
	if _, err := binary.Decode(out, binary.LittleEndian, &hdr); err != nil {
		t.Fatal(err)
	}
	want := ivpsHeader{Size: 20, ID: 1, SolidCount: 1, Checksum: 0x1234, KeyValuesOffset: 80}
	if hdr != want {
		t.Errorf("header = %+v, want %+v", hdr, want)
	}

	if !bytes.Equal(out[20:], src[4:]) {
		t.Error("solid data was altered")
	}
}

func TestConvertShort(t *testing.T) {
	if _, err := Convert([]byte{1, 0}, 0); err == nil {
		t.Error("short file accepted")
	}
}
