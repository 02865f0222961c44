package collision

import (
	"bytes"
	"encoding/binary"
	"testing"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

func put(t *testing.T, buf []byte, off int, v any) {
	t.Helper()
	if _, err := binary.Encode(buf[off:], binary.LittleEndian, v); err != nil {
		t.Fatalf("encode at %d: %v", off, err)
	}
}

func fill(buf []byte, off, n int, b byte) {
	for i := 0; i < n; i++ {
		buf[off+i] = b
	}
}

func TestHeaderCount(t *testing.T) {
	buf := make([]byte, 32)
	put(t, buf, 8, studio.CollModel{HeaderCount: 3})

	got, err := HeaderCount(studio.NewReader(buf), 8)
	if err != nil {
		t.Fatalf("HeaderCount: %v", err)
	}
	if got != 3 {
		t.Errorf("count = %d, want 3", got)
	}

	if _, err := HeaderCount(studio.NewReader(buf[:4]), 0); err == nil {
		t.Error("truncated block did not error")
	}
}

// TestCopy191 runs one solid through the v19.1 path and checks that
// every inferred buffer lands intact behind the rewritten headers.
func TestCopy191(t *testing.T) {
	const off = 8
	buf := make([]byte, off+136)

	put(t, buf, off, studio.CollModel{
		SurfacePropsIndex: 56,
		ContentMasksIndex: 64,
		SurfaceNamesIndex: 72,
		HeaderCount:       1,
	})
	put(t, buf, off+16, studio.CollHeader191{
		BVHFlags:    7,
		Origin:      studio.Vector3{X: 1, Y: 2, Z: 3},
		DecodeScale: 0.5,
		VertsOfs:    80,
		LeafDataOfs: 96,
		NodesOfs:    112,
	})
	fill(buf, off+56, 8, 0xA1)  // surface props
	fill(buf, off+64, 8, 0xA2)  // content masks
	fill(buf, off+72, 8, 0xA3)  // surface names
	fill(buf, off+80, 16, 0xB1) // verts
	fill(buf, off+96, 16, 0xB2) // leaf data
	fill(buf, off+112, 16, 0xB3)

	out := arena.New(4096)
	p := Params{
		Out: out,
		Src: studio.NewReader(buf),
		Off: off,
		Warnf: func(format string, args ...any) {
			t.Errorf("unexpected warning: "+format, args...)
		},
	}
	if err := Copy191(p); err != nil {
		t.Fatalf("Copy191: %v", err)
	}

	res := out.Bytes()
	var cm studio.CollModel
	decode(t, res, 0, &cm)
	if cm.HeaderCount != 1 {
		t.Errorf("HeaderCount = %d, want 1", cm.HeaderCount)
	}
	if d := cm.ContentMasksIndex - cm.SurfacePropsIndex; d != 8 {
		t.Errorf("surface props span = %d, want 8", d)
	}

	var h studio.CollHeader
	decode(t, res, binary.Size(cm), &h)
	if h.Unk != 7 || h.Scale != 0.5 || h.Origin.Z != 3 {
		t.Errorf("header fields not carried over: %+v", h)
	}
	if h.VertIndex%64 != 0 || h.BVHLeafIndex%64 != 0 || h.BVHNodeIndex%64 != 0 {
		t.Errorf("buffers not 64 byte aligned: %+v", h)
	}

	checks := []struct {
		name string
		idx  int32
		b    byte
	}{
		{"props", cm.SurfacePropsIndex, 0xA1},
		{"masks", cm.ContentMasksIndex, 0xA2},
		{"names", cm.SurfaceNamesIndex, 0xA3},
		{"verts", h.VertIndex, 0xB1},
		{"leafs", h.BVHLeafIndex, 0xB2},
		{"nodes", h.BVHNodeIndex, 0xB3},
	}
	for _, c := range checks {
		want := bytes.Repeat([]byte{c.b}, 8)
		if !bytes.Equal(res[c.idx:c.idx+8], want) {
			t.Errorf("%s buffer not relocated, got % x", c.name, res[c.idx:c.idx+8])
		}
	}
}

// TestCopy160SurfacePropResolve checks that the v14-v19 path rewrites
// property ids through the source data table.
func TestCopy160SurfacePropResolve(t *testing.T) {
	buf := make([]byte, 136)

	put(t, buf, 0, studio.CollModel{
		SurfacePropsIndex: 56,
		ContentMasksIndex: 64,
		SurfaceNamesIndex: 68,
		HeaderCount:       1,
	})
	put(t, buf, 16, studio.CollHeader160{
		Unk:          3,
		BVHNodeIndex: 120,
		VertIndex:    88,
		BVHLeafIndex: 104,
		Scale:        1,

		SurfacePropArrayCount: 1,
		SurfacePropDataIndex:  76,
	})
	put(t, buf, 56, studio.DSurfaceProperty{SurfacePropId: 1})
	put(t, buf, 76, studio.DSurfacePropertyData160{SurfacePropId1: 5})
	put(t, buf, 80, studio.DSurfacePropertyData160{SurfacePropId1: 9})
	fill(buf, 88, 16, 0xB1)
	fill(buf, 104, 16, 0xB2)
	fill(buf, 120, 16, 0xB3)

	out := arena.New(4096)
	p := Params{
		Out: out,
		Src: studio.NewReader(buf),
		Warnf: func(format string, args ...any) {
			t.Errorf("unexpected warning: "+format, args...)
		},
	}
	if err := Copy160(p); err != nil {
		t.Fatalf("Copy160: %v", err)
	}

	res := out.Bytes()
	var cm studio.CollModel
	decode(t, res, 0, &cm)

	var prop studio.DSurfaceProperty
	decode(t, res, int(cm.SurfacePropsIndex), &prop)
	if prop.SurfacePropId != 9 {
		t.Errorf("SurfacePropId = %d, want 9", prop.SurfacePropId)
	}
}

// TestCopy191NodeSpillClamp feeds a block whose last node buffer runs
// past the clamp ceiling and expects a warning instead of an error.
func TestCopy191NodeSpillClamp(t *testing.T) {
	buf := make([]byte, 136+maxNodeSpill+64)

	put(t, buf, 0, studio.CollModel{
		SurfacePropsIndex: 56,
		ContentMasksIndex: 64,
		SurfaceNamesIndex: 72,
		HeaderCount:       1,
	})
	put(t, buf, 16, studio.CollHeader191{
		VertsOfs:    80,
		LeafDataOfs: 96,
		NodesOfs:    112,
	})

	var warned bool
	out := arena.New(maxNodeSpill + 8192)
	p := Params{
		Out:   out,
		Src:   studio.NewReader(buf),
		Warnf: func(format string, args ...any) { warned = true },
	}
	if err := Copy191(p); err != nil {
		t.Fatalf("Copy191: %v", err)
	}
	if !warned {
		t.Error("oversized node buffer did not warn")
	}
}

func decode(t *testing.T, buf []byte, off int, v any) {
	t.Helper()
	if _, err := binary.Decode(buf[off:], binary.LittleEndian, v); err != nil {
		t.Fatalf("decode at %d: %v", off, err)
	}
}
