package convert

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/collision"
	"rmdlconv/internal/studio"
)

func testConverter(src []byte) *converter {
	return &converter{
		src:   studio.NewReader(src),
		out:   arena.New(1 << 20),
		names: arena.NewStringTable(),
		log:   log.New(io.Discard),
	}
}

func TestVersionDispatch(t *testing.T) {
	if _, err := Convert(nil, Options{Version: "7"}); err == nil {
		t.Error("unknown version accepted")
	}

	for _, v := range []string{"8", "10", "12", "12.1", "13", "13.1"} {
		_, err := Convert(nil, Options{Version: v})
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("version %s: err = %v, want ErrUnsupportedVersion", v, err)
		}
	}

	// Supported generations must at least get as far as reading the
	// source header.
	for _, v := range []string{"14", "15", "16", "19.1"} {
		_, err := Convert([]byte{1, 2, 3}, Options{Version: v, Logger: log.New(io.Discard)})
		if err == nil || errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("version %s: err = %v, want truncated-header failure", v, err)
		}
	}
}

func TestNormalizeModelName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"weapons/gun.rmdl", "mdl/weapons/gun.rmdl"},
		{"mdl/weapons/gun.rmdl", "mdl/weapons/gun.rmdl"},
		{"weapons/gun.mdl", "mdl/weapons/gun.rmdl"},
		{`weapons\gun.rmdl`, "mdl/weapons/gun.rmdl"},
		{"gun", "mdl/gun.rmdl"},
	}
	for _, c := range cases {
		if got := normalizeModelName(c.in); got != c.want {
			t.Errorf("normalizeModelName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPatchPhySize(t *testing.T) {
	rmdl := make([]byte, binary.Size(studio.StudioHdr{}))
	if err := PatchPhySize(rmdl, 777); err != nil {
		t.Fatalf("PatchPhySize: %v", err)
	}
	off := arena.FieldOffset(studio.StudioHdr{}, "PhySize")
	if got := int32(binary.LittleEndian.Uint32(rmdl[off:])); got != 777 {
		t.Errorf("PhySize = %d, want 777", got)
	}

	if err := PatchPhySize(make([]byte, 8), 1); err == nil {
		t.Error("short file accepted")
	}
}

// Skin names resolve as absolute string offsets behind the family
// table; a zero or garbage offset falls back to numbered names.
func TestConvertSkinsNameFallback(t *testing.T) {
	src := make([]byte, 0x100)
	tableOff := 0x40
	// Two families of one ref each.
	binary.LittleEndian.PutUint16(src[tableOff:], 0)
	binary.LittleEndian.PutUint16(src[tableOff+2:], 0)
	// One name offset for the non-default family, pointing at a
	// real string.
	nameOff := 0x80
	binary.LittleEndian.PutUint16(src[tableOff+4:], uint16(nameOff))
	copy(src[nameOff:], "shiny\x00")

	c := testConverter(src)
	if err := c.convertSkins(1, 2, tableOff); err != nil {
		t.Fatalf("convertSkins: %v", err)
	}
	if err := c.names.Flush(c.out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(c.out.Bytes(), []byte("shiny\x00")) {
		t.Error("named skin not interned")
	}

	// Same table with a zero name offset.
	binary.LittleEndian.PutUint16(src[tableOff+4:], 0)
	c = testConverter(src)
	if err := c.convertSkins(1, 2, tableOff); err != nil {
		t.Fatalf("convertSkins: %v", err)
	}
	if err := c.names.Flush(c.out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(c.out.Bytes(), []byte("skin1\x00")) {
		t.Error("fallback skin name not interned")
	}
}

// The loader dereferences the IK chain index unconditionally, so even
// a chainless model must record the current cursor there.
func TestIKChainsZeroCountRecordsIndex(t *testing.T) {
	c := testConverter(make([]byte, 8))
	c.out.Reserve(96)

	if err := c.convertIKChains160(0, 0); err != nil {
		t.Fatalf("convertIKChains160: %v", err)
	}
	if c.hdr.NumIKChains != 0 {
		t.Errorf("NumIKChains = %d", c.hdr.NumIKChains)
	}
	if c.hdr.IKChainIndex != 96 {
		t.Errorf("IKChainIndex = %d, want 96", c.hdr.IKChainIndex)
	}
}

func TestConvertCollisionSkipsAbsentBlock(t *testing.T) {
	c := testConverter(make([]byte, 0x40))
	err := c.convertCollision(0, func(collision.Params) error {
		t.Error("copy ran for offset 0")
		return nil
	})
	if err != nil {
		t.Fatalf("convertCollision: %v", err)
	}
	if len(c.warnings) != 0 {
		t.Errorf("warnings for absent block: %v", c.warnings)
	}
}

func TestConvertCollisionInvalidCount(t *testing.T) {
	src := make([]byte, 0x40)
	srcOff := 16
	// A solid count far past anything a real model carries. The count
	// is the fourth word of the collision model record.
	binary.LittleEndian.PutUint32(src[srcOff+12:], 120)

	c := testConverter(src)
	before := c.out.Pos()
	err := c.convertCollision(srcOff, func(collision.Params) error {
		t.Error("copy ran for an implausible solid count")
		return nil
	})
	if err != nil {
		t.Fatalf("convertCollision: %v", err)
	}
	if c.out.Pos() != before {
		t.Errorf("cursor moved to %d", c.out.Pos())
	}
	if len(c.warnings) != 1 {
		t.Fatalf("warnings = %v, want one", c.warnings)
	}
	if c.warnings[0].Section != "collision" {
		t.Errorf("warning section = %q", c.warnings[0].Section)
	}
}

// TestCopyFrameDataSingleBone runs a one-bone animation payload
// through the embedded frame data copy: a two byte flag array with one
// marked nibble, then exactly one run-length record.
func TestCopyFrameDataSingleBone(t *testing.T) {
	src := make([]byte, 16)
	src[0] = 0x1 // bone 0 carries a run
	binary.LittleEndian.PutUint16(src[2:], 6)
	copy(src[4:], []byte{0xAA, 0xBB, 0xCC, 0xDD})

	c := testConverter(src)
	c.hdr.NumBones = 1

	var ad studio.AnimDesc
	if err := c.copyFrameData160(0, 0, &ad); err != nil {
		t.Fatalf("copyFrameData160: %v", err)
	}
	if ad.AnimIndex != 0 {
		t.Errorf("AnimIndex = %d, want 0", ad.AnimIndex)
	}
	want := append([]byte{0x1, 0}, src[2:8]...)
	if !bytes.Equal(c.out.Bytes(), want) {
		t.Errorf("frame data = % x, want % x", c.out.Bytes(), want)
	}
	if len(c.warnings) != 0 {
		t.Errorf("warnings: %v", c.warnings)
	}
}

func TestCopyFrameDataDropsBadRun(t *testing.T) {
	src := make([]byte, 8)
	src[0] = 0x1
	// Zero-size run, which can only be corrupt data.

	c := testConverter(src)
	c.hdr.NumBones = 1

	var ad studio.AnimDesc
	if err := c.copyFrameData160(0, 0, &ad); err != nil {
		t.Fatalf("copyFrameData160: %v", err)
	}
	if got := c.out.Bytes(); len(got) != 2 {
		t.Errorf("output = % x, want flag array only", got)
	}
	if len(c.warnings) != 1 {
		t.Fatalf("warnings = %v, want one", c.warnings)
	}
}
