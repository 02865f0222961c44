package vg

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

// Params carries one vertex group file plus the model-side context the
// rev4 path needs to rebuild the bone state change table.
type Params struct {
	// Data is the raw vertex group file.
	Data []byte

	// Model is the source model file. The rev4 path searches it for
	// the embedded bone state change table.
	Model []byte

	// BoneCount, BoneStateCount and BoneStateOffset come from the
	// source model header. BoneStateOffset may be zero.
	BoneCount       int
	BoneStateCount  int
	BoneStateOffset int

	// Warnf receives non-fatal irregularities. Nil discards them.
	Warnf func(format string, args ...any)
}

func (p Params) warnf(format string, args ...any) {
	if p.Warnf != nil {
		p.Warnf(format, args...)
	}
}

// Convert transcodes one vertex group file to rev1. Files already in
// rev1 pass through untouched. rev2 files and files with an
// unrecognized leading word also pass through, with a warning; a byte
// copy the runtime rejects beats dropping the geometry on the floor.
func Convert(p Params) ([]byte, error) {
	if len(p.Data) < 4 {
		return nil, errors.Errorf("vg: %d byte file is no vertex group", len(p.Data))
	}
	magic := binary.LittleEndian.Uint32(p.Data)
	switch magic {
	case Magic:
		return p.Data, nil
	case MagicRev2:
		p.warnf("rev2 vertex group is not convertible here, passing through")
		return p.Data, nil
	}

	// rev4 has no magic. Its first bytes are small LOD bookkeeping
	// values, which is the only shape check available.
	var gh GroupHeader4
	if err := studio.NewReader(p.Data).Struct(0, &gh); err == nil &&
		gh.LODCount >= 1 && gh.LODCount <= 8 && gh.LODMap != 0 {
		return convertRev4(p, gh)
	}

	p.warnf("unknown vertex group leading word %#08x, passing through", magic)
	return p.Data, nil
}

// rev4Mesh is one source mesh plus its precomputed target layout.
type rev4Mesh struct {
	MeshHeader4
	flags  uint64 // target flags
	stride int    // target per-vertex stride
}

func convertRev4(p Params, gh GroupHeader4) ([]byte, error) {
	src := studio.NewReader(p.Data)

	var (
		lodSize4  = binary.Size(LODHeader4{})
		meshSize4 = binary.Size(MeshHeader4{})
		hdrSize   = binary.Size(GroupHeader1{})
		meshSize  = binary.Size(MeshHeader1{})
		lodSize   = binary.Size(LODHeader1{})
		stripSize = binary.Size(StripHeader{})
	)

	// Measurement pass: walk every LOD and mesh once to size the
	// output sections and find the highest bone index any vertex
	// references, for the sequential bone state fallback.
	var (
		meshes       []rev4Mesh
		lodMeshCount = make([]int, gh.LODCount)

		totalVerts      int
		totalVertBytes  int
		totalIndexBytes int
		totalWeightSize int
		totalStrips     int
		maxBone         uint8
	)
	for lod := 0; lod < int(gh.LODCount); lod++ {
		var lh LODHeader4
		if err := src.Struct(int(gh.LODOffset)+lod*lodSize4, &lh); err != nil {
			return nil, errors.Wrapf(err, "vg: lod %d", lod)
		}
		lodMeshCount[lod] = int(lh.MeshCount)
		for mi := 0; mi < int(lh.MeshCount); mi++ {
			var mh MeshHeader4
			if err := src.Struct(int(lh.MeshOffset)+mi*meshSize4, &mh); err != nil {
				return nil, errors.Wrapf(err, "vg: lod %d mesh %d", lod, mi)
			}
			m := rev4Mesh{MeshHeader4: mh, flags: TargetFlags(mh.Flags)}
			m.stride = VertexSize(m.flags)
			meshes = append(meshes, m)

			totalVerts += int(mh.VertCount)
			totalVertBytes += m.stride * int(mh.VertCount)
			totalIndexBytes += int(mh.IndexCount) * 2
			totalWeightSize += int(mh.ExtraBoneWeightSize)
			if mh.Flags != 0 && mh.VertCount > 0 {
				totalStrips++
			}

			if mh.Flags&FlagBoneIndices != 0 && mh.VertCount > 0 && mh.VertCacheSize >= 16 {
				verts, err := src.Bytes(int(mh.VertOffset), int(mh.VertCount)*int(mh.VertCacheSize))
				if err != nil {
					return nil, errors.Wrapf(err, "vg: lod %d mesh %d vertices", lod, mi)
				}
				for v := 0; v < int(mh.VertCount); v++ {
					for _, b := range verts[v*int(mh.VertCacheSize)+12 : v*int(mh.VertCacheSize)+16] {
						if b > maxBone {
							maxBone = b
						}
					}
				}
			}
		}
	}

	states := p.recoverBoneStates(maxBone)

	// One filler record per mesh of a single LOD. The counts match
	// across LODs in every known asset.
	unknownCount := len(meshes) / int(gh.LODCount)

	capacity := hdrSize + len(states) + len(meshes)*meshSize +
		totalIndexBytes + 16 + totalVertBytes + 16 + totalWeightSize + 16 +
		unknownCount*unkEntrySize + int(gh.LODCount)*lodSize +
		totalVerts*16 + totalStrips*stripSize + 4096
	out := arena.New(capacity)

	hdr := GroupHeader1{
		ID:       Magic,
		Version:  Version,
		LODCount: int64(gh.LODCount),
	}
	if _, err := out.Reserve(hdrSize); err != nil {
		return nil, err
	}

	hdr.BoneStateOffset = int64(out.Pos())
	hdr.BoneStateCount = int64(len(states))
	if _, err := out.WriteBytes(states); err != nil {
		return nil, err
	}

	hdr.MeshCount = int64(len(meshes))
	meshBase, err := out.Reserve(len(meshes) * meshSize)
	if err != nil {
		return nil, err
	}
	hdr.MeshOffset = int64(meshBase)

	if err := out.Align(16); err != nil {
		return nil, err
	}
	hdr.IndexOffset = int64(out.Pos())
	for i, m := range meshes {
		if m.IndexCount <= 0 {
			continue
		}
		b, err := src.Bytes(int(m.IndexOffset), int(m.IndexCount)*2)
		if err != nil {
			return nil, errors.Wrapf(err, "vg: mesh %d indices", i)
		}
		if _, err := out.WriteBytes(b); err != nil {
			return nil, err
		}
	}

	if err := out.Align(16); err != nil {
		return nil, err
	}
	hdr.VertOffset = int64(out.Pos())
	for i, m := range meshes {
		if m.VertCount == 0 {
			continue
		}
		srcStride := int(m.VertCacheSize)
		if m.stride == srcStride {
			b, err := src.Bytes(int(m.VertOffset), int(m.VertBufferSize))
			if err != nil {
				return nil, errors.Wrapf(err, "vg: mesh %d vertices", i)
			}
			if _, err := out.WriteBytes(b); err != nil {
				return nil, err
			}
			continue
		}
		if m.stride > srcStride {
			return nil, errors.Errorf("vg: mesh %d target stride %d exceeds stored stride %d", i, m.stride, srcStride)
		}
		// Strides differ, re-pack vertex by vertex. The dropped
		// tail bytes are the fields the target layout excludes.
		b, err := src.Bytes(int(m.VertOffset), int(m.VertCount)*srcStride)
		if err != nil {
			return nil, errors.Wrapf(err, "vg: mesh %d vertices", i)
		}
		for v := 0; v < int(m.VertCount); v++ {
			if _, err := out.WriteBytes(b[v*srcStride : v*srcStride+m.stride]); err != nil {
				return nil, err
			}
		}
	}

	if err := out.Align(16); err != nil {
		return nil, err
	}
	hdr.ExtraBoneWeightOffset = int64(out.Pos())
	for i, m := range meshes {
		if m.ExtraBoneWeightSize <= 0 {
			continue
		}
		b, err := src.Bytes(int(m.ExtraBoneWeightOffset), int(m.ExtraBoneWeightSize))
		if err != nil {
			return nil, errors.Wrapf(err, "vg: mesh %d extra weights", i)
		}
		if _, err := out.WriteBytes(b); err != nil {
			return nil, err
		}
	}

	hdr.UnknownOffset = int64(out.Pos())
	hdr.UnknownCount = int64(unknownCount)
	if _, err := out.Reserve(unknownCount * unkEntrySize); err != nil {
		return nil, err
	}

	lodBase, err := out.Reserve(int(gh.LODCount) * lodSize)
	if err != nil {
		return nil, err
	}
	hdr.LODOffset = int64(lodBase)

	// A placeholder weight table the target reader indexes per vertex.
	// Full weight on the first bone; real multi-bone weighting is not
	// reconstructable on this path.
	hdr.LegacyWeightOffset = int64(out.Pos())
	hdr.LegacyWeightCount = int64(totalVerts)
	flat := [4]float32{1, 0, 0, 0}
	for v := 0; v < totalVerts; v++ {
		if _, err := out.WriteStruct(&flat); err != nil {
			return nil, err
		}
	}

	hdr.StripOffset = int64(out.Pos())
	hdr.StripCount = int64(totalStrips)
	for _, m := range meshes {
		if m.Flags == 0 || m.VertCount == 0 {
			continue
		}
		strip := StripHeader{
			NumIndices: int32(m.IndexCount),
			NumVerts:   int32(m.VertCount),
			NumBones:   int16(m.VertBoneCount),
			Flags:      StripIsTriList,
		}
		if _, err := out.WriteStruct(&strip); err != nil {
			return nil, err
		}
	}

	// Backfill pass: now that every section base is fixed, revisit the
	// mesh and LOD headers with running offsets into those sections.
	var (
		idxBytes, vertBytes, weightBytes int
		legacyIdx, stripIdx              int
		meshIdx                          int
	)
	for lod := 0; lod < int(gh.LODCount); lod++ {
		ld := LODHeader1{
			MeshIndex: uint16(meshIdx),
			MeshCount: uint16(lodMeshCount[lod]),
		}
		if err := out.PatchStruct(lodBase+lod*lodSize, &ld); err != nil {
			return nil, err
		}
		for mi := 0; mi < lodMeshCount[lod]; mi++ {
			m := meshes[meshIdx]
			mh := MeshHeader1{
				Flags:                 m.flags,
				VertOffset:            uint32(vertBytes),
				VertCacheSize:         uint32(m.stride),
				VertCount:             m.VertCount,
				ExtraBoneWeightOffset: int32(weightBytes),
				ExtraBoneWeightSize:   int32(m.ExtraBoneWeightSize),
				IndexOffset:           int32(idxBytes / 2),
				IndexCount:            int32(m.IndexCount),
				LegacyWeightOffset:    int32(legacyIdx),
				LegacyWeightCount:     int32(m.VertCount),
			}
			if m.Flags != 0 && m.VertCount > 0 {
				mh.StripOffset = int32(stripIdx)
				mh.StripCount = 1
				stripIdx++
			}
			if err := out.PatchStruct(meshBase+meshIdx*meshSize, &mh); err != nil {
				return nil, err
			}

			idxBytes += int(m.IndexCount) * 2
			vertBytes += m.stride * int(m.VertCount)
			weightBytes += int(m.ExtraBoneWeightSize)
			legacyIdx += int(m.VertCount)

			hdr.IndexCount += m.IndexCount
			hdr.VertBufferSize += int64(m.stride) * int64(m.VertCount)
			hdr.ExtraBoneWeightSize += m.ExtraBoneWeightSize
			meshIdx++
		}
	}

	hdr.DataSize = int32(out.Pos())
	if err := out.PatchStruct(0, &hdr); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// recoverBoneStates rebuilds the bone state change table for a rev4
// conversion. Pattern search over the model file is tried first; it is
// more reliable than the header offset, which often points at stale
// data. A failed search falls back to the header offset if its bytes
// validate, and finally to a sequential identity mapping covering the
// highest bone index seen in any vertex.
func (p Params) recoverBoneStates(maxBone uint8) []byte {
	if p.BoneStateCount > 0 && len(p.Model) > 0 {
		if w := findBoneStates(p.Model, p.BoneStateCount, p.BoneCount); w != nil {
			return append([]byte(nil), w...)
		}
		if p.BoneStateOffset > 0 && p.BoneStateOffset+p.BoneStateCount <= len(p.Model) {
			w := p.Model[p.BoneStateOffset : p.BoneStateOffset+p.BoneStateCount]
			if validStates(w, p.BoneCount) {
				return append([]byte(nil), w...)
			}
			p.warnf("bone state table at header offset %#x fails validation", p.BoneStateOffset)
		}
	}
	if maxBone == 0 {
		return nil
	}
	p.warnf("no bone state table recovered, mapping %d hardware slots sequentially", int(maxBone)+1)
	states := make([]byte, int(maxBone)+1)
	for i := range states {
		states[i] = byte(i)
	}
	return states
}
