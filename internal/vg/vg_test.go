package vg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"rmdlconv/internal/studio"
)

func TestRecordSizes(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want int
	}{
		{"GroupHeader4", GroupHeader4{}, 16},
		{"LODHeader4", LODHeader4{}, 16},
		{"MeshHeader4", MeshHeader4{}, 72},
		{"GroupHeader1", GroupHeader1{}, 160},
		{"MeshHeader1", MeshHeader1{}, 0x48},
		{"LODHeader1", LODHeader1{}, 8},
		{"StripHeader", StripHeader{}, 35},
	}
	for _, c := range cases {
		if got := binary.Size(c.v); got != c.want {
			t.Errorf("%s size = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestVertexSize(t *testing.T) {
	cases := []struct {
		flags uint64
		want  int
	}{
		{0, 0},
		{0x1, 12},
		{0x1 | 0x1000, 16},
		{0x1 | 0x10 | 0x1000 | 0x2000, 28},
		{0x1 | FlagUV2, 12}, // no field for the second texcoord
		{0x2000000, 8},
	}
	for _, c := range cases {
		if got := VertexSize(c.flags); got != c.want {
			t.Errorf("VertexSize(%#x) = %d, want %d", c.flags, got, c.want)
		}
	}
}

func TestTargetFlags(t *testing.T) {
	if got := TargetFlags(0x1 | FlagUV2); got != 0x1 {
		t.Errorf("TargetFlags = %#x, want 0x1", got)
	}
	if got := TargetFlags(0x1 | 0x1000); got != 0x1|0x1000 {
		t.Errorf("TargetFlags dropped unrelated bits: %#x", got)
	}
}

func TestValidStates(t *testing.T) {
	if !validStates([]byte{0, 2, 1, 3}, 4) {
		t.Error("unique in-range table rejected")
	}
	if validStates([]byte{0, 2, 2}, 4) {
		t.Error("duplicate accepted")
	}
	if validStates([]byte{0, 5}, 4) {
		t.Error("out-of-range index accepted")
	}
}

func TestFindBoneStatesBackward(t *testing.T) {
	model := make([]byte, 0x3000)
	for i := range model {
		model[i] = 0xEE // out of range for any small skeleton
	}
	states := []byte{3, 0, 2, 1}
	off := 0x2800
	// Shape the 16 bytes before the table like the header the scan
	// expects.
	hdr := model[off-16 : off]
	for i := range hdr {
		hdr[i] = 0
	}
	hdr[0] = 2 // LOD count
	copy(model[off:], states)
	// Bytes after the table must not extend a valid window.
	model[off+len(states)] = 0xEE

	got := findBoneStates(model, len(states), 4)
	if !bytes.Equal(got, states) {
		t.Fatalf("findBoneStates = %v, want %v", got, states)
	}
}

func TestFindBoneStatesForwardFallback(t *testing.T) {
	model := make([]byte, 0x3000)
	for i := range model {
		model[i] = 0xEE
	}
	// No header shape anywhere; only the forward pass can hit this.
	states := []byte{1, 0, 3, 2}
	copy(model[0x1800:], states)

	got := findBoneStates(model, len(states), 4)
	if !bytes.Equal(got, states) {
		t.Fatalf("findBoneStates = %v, want %v", got, states)
	}
}

func TestFindBoneStatesMissing(t *testing.T) {
	model := make([]byte, 0x3000)
	for i := range model {
		model[i] = 0xEE
	}
	if got := findBoneStates(model, 4, 4); got != nil {
		t.Fatalf("findBoneStates on garbage = %v, want nil", got)
	}
}

func TestConvertPassthrough(t *testing.T) {
	target := make([]byte, 16)
	binary.LittleEndian.PutUint32(target, Magic)

	out, err := Convert(Params{Data: target})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.Equal(out, target) {
		t.Error("already-converted file was altered")
	}

	rev2 := make([]byte, 16)
	binary.LittleEndian.PutUint32(rev2, MagicRev2)
	var warned bool
	out, err = Convert(Params{Data: rev2, Warnf: func(string, ...any) { warned = true }})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.Equal(out, rev2) {
		t.Error("rev2 file was altered")
	}
	if !warned {
		t.Error("rev2 passthrough did not warn")
	}

	junk := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0}
	warned = false
	out, err = Convert(Params{Data: junk, Warnf: func(string, ...any) { warned = true }})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.Equal(out, junk) || !warned {
		t.Error("unknown leading word must copy through with a warning")
	}

	if _, err := Convert(Params{Data: []byte{1}}); err == nil {
		t.Error("short file accepted")
	}
}

// buildRev4 assembles a two-mesh single-LOD rev4 file. Mesh 0 carries
// position, bone indices and a second texcoord; mesh 1 carries only
// positions.
func buildRev4(t *testing.T) []byte {
	t.Helper()
	var (
		ghSize   = binary.Size(GroupHeader4{})
		lodSize  = binary.Size(LODHeader4{})
		meshSize = binary.Size(MeshHeader4{})
	)

	lodOff := ghSize
	meshOff := lodOff + lodSize
	dataOff := meshOff + 2*meshSize

	m0 := MeshHeader4{
		Flags:         0x1 | 0x1000 | FlagUV2,
		VertCacheSize: 24, // 12 pos + 4 bones + 8 texcoord2
		VertCount:     3,
		IndexCount:    3,
		VertBoneCount: 3,
	}
	m1 := MeshHeader4{
		Flags:         0x1,
		VertCacheSize: 12,
		VertCount:     2,
		IndexCount:    3,
		VertBoneCount: 1,
	}

	m0.IndexOffset = int64(dataOff)
	m1.IndexOffset = m0.IndexOffset + m0.IndexCount*2
	m0.VertOffset = m1.IndexOffset + m1.IndexCount*2
	m0.VertBufferSize = int64(m0.VertCount) * int64(m0.VertCacheSize)
	m1.VertOffset = m0.VertOffset + m0.VertBufferSize
	m1.VertBufferSize = int64(m1.VertCount) * int64(m1.VertCacheSize)

	total := int(m1.VertOffset + m1.VertBufferSize)
	buf := make([]byte, total)

	put := func(off int, v any) {
		if _, err := binary.Encode(buf[off:], binary.LittleEndian, v); err != nil {
			t.Fatalf("encode %T: %v", v, err)
		}
	}
	put(0, &GroupHeader4{LODCount: 1, LODMap: 1, LODOffset: int64(lodOff)})
	put(lodOff, &LODHeader4{MeshCount: 2, MeshOffset: int64(meshOff)})
	put(meshOff, &m0)
	put(meshOff+meshSize, &m1)

	put(int(m0.IndexOffset), &[3]uint16{0, 1, 2})
	put(int(m1.IndexOffset), &[3]uint16{0, 1, 0})

	// Distinct byte per vertex position, bone indices 0..2 on mesh 0.
	for v := 0; v < int(m0.VertCount); v++ {
		off := int(m0.VertOffset) + v*int(m0.VertCacheSize)
		for i := 0; i < 24; i++ {
			buf[off+i] = byte(0x10*v + i)
		}
		buf[off+12] = byte(v) // first weight bone
		buf[off+13] = 0
		buf[off+14] = 0
		buf[off+15] = 0
	}
	for v := 0; v < int(m1.VertCount); v++ {
		off := int(m1.VertOffset) + v*int(m1.VertCacheSize)
		for i := 0; i < 12; i++ {
			buf[off+i] = byte(0xA0 + 0x10*v + i)
		}
	}
	return buf
}

func TestConvertRev4(t *testing.T) {
	src := buildRev4(t)

	var warnings []string
	out, err := Convert(Params{
		Data:  src,
		Warnf: func(f string, a ...any) { warnings = append(warnings, fmt.Sprintf(f, a...)) },
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	r := studio.NewReader(out)
	var hdr GroupHeader1
	if err := r.Struct(0, &hdr); err != nil {
		t.Fatalf("output header: %v", err)
	}

	if hdr.ID != Magic || hdr.Version != Version {
		t.Fatalf("header id/version = %#x/%d", hdr.ID, hdr.Version)
	}
	if hdr.DataSize != int32(len(out)) {
		t.Errorf("DataSize = %d, want %d", hdr.DataSize, len(out))
	}
	if hdr.LODCount != 1 || hdr.MeshCount != 2 {
		t.Fatalf("lod/mesh counts = %d/%d", hdr.LODCount, hdr.MeshCount)
	}
	if hdr.LegacyWeightCount != 5 {
		t.Errorf("LegacyWeightCount = %d, want total vertices 5", hdr.LegacyWeightCount)
	}
	if hdr.IndexCount != 6 {
		t.Errorf("IndexCount = %d, want 6", hdr.IndexCount)
	}
	if hdr.StripCount != 2 {
		t.Errorf("StripCount = %d, want 2", hdr.StripCount)
	}
	// 3 verts restrided to 16 bytes plus 2 verts at 12.
	if hdr.VertBufferSize != 3*16+2*12 {
		t.Errorf("VertBufferSize = %d, want %d", hdr.VertBufferSize, 3*16+2*12)
	}

	// No model file to search: the highest referenced bone index (2)
	// forces the sequential fallback.
	if hdr.BoneStateCount != 3 {
		t.Fatalf("BoneStateCount = %d, want 3", hdr.BoneStateCount)
	}
	states, err := r.Bytes(int(hdr.BoneStateOffset), 3)
	if err != nil {
		t.Fatalf("bone states: %v", err)
	}
	if !bytes.Equal(states, []byte{0, 1, 2}) {
		t.Errorf("bone states = %v, want sequential", states)
	}
	if len(warnings) == 0 {
		t.Error("sequential fallback produced no warning")
	}

	meshSize := binary.Size(MeshHeader1{})
	var mh0, mh1 MeshHeader1
	if err := r.Struct(int(hdr.MeshOffset), &mh0); err != nil {
		t.Fatalf("mesh 0: %v", err)
	}
	if err := r.Struct(int(hdr.MeshOffset)+meshSize, &mh1); err != nil {
		t.Fatalf("mesh 1: %v", err)
	}

	if mh0.Flags&FlagUV2 != 0 {
		t.Error("mesh 0 kept the second texcoord flag")
	}
	if mh0.VertCacheSize != 16 {
		t.Errorf("mesh 0 stride = %d, want 16", mh0.VertCacheSize)
	}
	if mh1.VertCacheSize != 12 {
		t.Errorf("mesh 1 stride = %d, want 12", mh1.VertCacheSize)
	}
	if mh1.VertOffset != 3*16 {
		t.Errorf("mesh 1 vert offset = %d, want %d", mh1.VertOffset, 3*16)
	}
	if mh1.IndexOffset != 3 {
		t.Errorf("mesh 1 index offset = %d indices, want 3", mh1.IndexOffset)
	}
	if mh0.LegacyWeightOffset != 0 || mh0.LegacyWeightCount != 3 {
		t.Errorf("mesh 0 legacy weights = %d+%d", mh0.LegacyWeightOffset, mh0.LegacyWeightCount)
	}
	if mh1.LegacyWeightOffset != 3 || mh1.LegacyWeightCount != 2 {
		t.Errorf("mesh 1 legacy weights = %d+%d", mh1.LegacyWeightOffset, mh1.LegacyWeightCount)
	}
	if mh0.StripCount != 1 || mh1.StripCount != 1 || mh1.StripOffset != 1 {
		t.Errorf("strip wiring = %d/%d and %d/%d", mh0.StripOffset, mh0.StripCount, mh1.StripOffset, mh1.StripCount)
	}

	// Restriding keeps position and bone bytes, drops the texcoord
	// tail.
	verts, err := r.Bytes(int(hdr.VertOffset), 16)
	if err != nil {
		t.Fatalf("vertices: %v", err)
	}
	srcVert := src[findMesh0VertOffset(t, src) : findMesh0VertOffset(t, src)+16]
	if !bytes.Equal(verts, srcVert) {
		t.Error("restrided vertex does not match source prefix")
	}

	var lod LODHeader1
	if err := r.Struct(int(hdr.LODOffset), &lod); err != nil {
		t.Fatalf("lod: %v", err)
	}
	if lod.MeshIndex != 0 || lod.MeshCount != 2 {
		t.Errorf("lod = %d+%d, want 0+2", lod.MeshIndex, lod.MeshCount)
	}

	var strip StripHeader
	if err := r.Struct(int(hdr.StripOffset), &strip); err != nil {
		t.Fatalf("strip: %v", err)
	}
	if strip.NumIndices != 3 || strip.NumVerts != 3 || strip.NumBones != 3 || strip.Flags != StripIsTriList {
		t.Errorf("strip 0 = %+v", strip)
	}

	// Legacy weights: full weight on the first bone, per vertex.
	w, err := r.Bytes(int(hdr.LegacyWeightOffset), 16)
	if err != nil {
		t.Fatalf("legacy weights: %v", err)
	}
	var weights [4]float32
	if _, err := binary.Decode(w, binary.LittleEndian, &weights); err != nil {
		t.Fatal(err)
	}
	if weights != [4]float32{1, 0, 0, 0} {
		t.Errorf("legacy weight = %v", weights)
	}
}

// findMesh0VertOffset re-reads mesh 0's vertex offset from the rev4
// headers instead of duplicating the layout arithmetic.
func findMesh0VertOffset(t *testing.T, src []byte) int {
	t.Helper()
	r := studio.NewReader(src)
	var gh GroupHeader4
	if err := r.Struct(0, &gh); err != nil {
		t.Fatal(err)
	}
	var lh LODHeader4
	if err := r.Struct(int(gh.LODOffset), &lh); err != nil {
		t.Fatal(err)
	}
	var mh MeshHeader4
	if err := r.Struct(int(lh.MeshOffset), &mh); err != nil {
		t.Fatal(err)
	}
	return int(mh.VertOffset)
}

func TestRecoverBoneStatesFromModel(t *testing.T) {
	model := make([]byte, 0x3000)
	for i := range model {
		model[i] = 0xEE
	}
	states := []byte{2, 0, 1}
	off := 0x2000
	hdr := model[off-16 : off]
	for i := range hdr {
		hdr[i] = 0
	}
	hdr[0] = 1
	copy(model[off:], states)
	model[off+len(states)] = 0xEE

	p := Params{Model: model, BoneCount: 3, BoneStateCount: 3}
	got := p.recoverBoneStates(0)
	if !bytes.Equal(got, states) {
		t.Errorf("recoverBoneStates = %v, want %v", got, states)
	}
}

func TestRecoverBoneStatesHeaderOffsetTier(t *testing.T) {
	// Too small for the pattern search floor, but the header offset
	// points at a valid table.
	model := make([]byte, 0x200)
	for i := range model {
		model[i] = 0xEE
	}
	states := []byte{1, 2, 0}
	copy(model[0x100:], states)

	p := Params{Model: model, BoneCount: 3, BoneStateCount: 3, BoneStateOffset: 0x100}
	got := p.recoverBoneStates(0)
	if !bytes.Equal(got, states) {
		t.Errorf("recoverBoneStates = %v, want %v", got, states)
	}
}
