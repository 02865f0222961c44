// Package vg rebuilds vertex group files, the companion geometry
// containers holding per-LOD mesh headers, index/vertex buffers, extra
// bone weights and strip records. Newer sources use the headerless rev4
// layout and are transcoded to the magic'd rev1 layout the version 54
// runtime reads; already-converted and unconvertible inputs pass
// through byte for byte.
package vg

// Magic is the rev1 file identifier, ASCII "0tVG" read little-endian.
const Magic = 0x47567430

// MagicRev2 leads the intermediate rev2 lineage ("GVt0" on disk). Those
// files are passed through unconverted.
const MagicRev2 = 0x30745647

// Version is the rev1 format version this package emits.
const Version = 1

// FlagBoneIndices marks vertices carrying four hardware bone index
// bytes directly after the 12 byte position.
const FlagBoneIndices = 0x1000

// FlagUV2 marks a second texcoord block. rev1 has no field for it, so
// the bit and its 8 bytes per vertex are dropped on conversion.
const FlagUV2 = uint64(0x200000000)

// vertexFields maps each mesh layout flag bit to the byte width it adds
// to the per-vertex stride.
var vertexFields = []struct {
	bit  uint64
	size int
}{
	{0x1, 12}, // position
	{0x2, 8},
	{0x10, 4},
	{0x200, 4},
	{0x1000, 4}, // bone indices
	{0x2000, 8}, // bone weights
	{0x4000, 4},
	{0x2000000, 8},
}

// VertexSize returns the per-vertex stride a rev1 reader derives from a
// mesh's layout flags.
func VertexSize(flags uint64) int {
	size := 0
	for _, f := range vertexFields {
		if flags&f.bit != 0 {
			size += f.size
		}
	}
	return size
}

// TargetFlags strips the layout bits rev1 has no field for.
func TargetFlags(flags uint64) uint64 {
	return flags &^ FlagUV2
}

// GroupHeader4 leads a rev4 file. The layout carries no magic; callers
// detect it by shape, see looksLikeRev4.
type GroupHeader4 struct {
	LODIndex   uint8
	LODCount   uint8
	GroupIndex uint8
	LODMap     uint8 // bit per LOD present in this group
	_          uint32
	LODOffset  int64 // from file start
}

// LODHeader4 describes one level of detail in a rev4 file.
type LODHeader4 struct {
	MeshIndex   uint16
	MeshCount   uint16
	SwitchPoint float32
	MeshOffset  int64 // from file start
}

// MeshHeader4 describes one drawable mesh in a rev4 file. Buffer
// offsets are from the file start.
type MeshHeader4 struct {
	Flags                 uint64
	VertCacheSize         uint32 // per-vertex stride as stored
	VertCount             uint32
	IndexOffset           int64
	IndexCount            int64
	VertOffset            int64
	VertBufferSize        int64
	ExtraBoneWeightOffset int64
	ExtraBoneWeightSize   int64
	VertBoneCount         int32
	_                     int32
}

// GroupHeader1 leads a rev1 file. All offsets are from the file start;
// counts pair with the offset above them.
type GroupHeader1 struct {
	ID       int32 // Magic
	Version  int32
	Unused   int32
	DataSize int32 // total file size

	BoneStateOffset       int64
	BoneStateCount        int64
	MeshOffset            int64
	MeshCount             int64
	IndexOffset           int64
	IndexCount            int64
	VertOffset            int64
	VertBufferSize        int64 // bytes, not vertices
	ExtraBoneWeightOffset int64
	ExtraBoneWeightSize   int64
	UnknownOffset         int64
	UnknownCount          int64
	LODOffset             int64
	LODCount              int64
	LegacyWeightOffset    int64
	LegacyWeightCount     int64
	StripOffset           int64
	StripCount            int64
}

// MeshHeader1 describes one mesh in a rev1 file. Buffer offsets are
// relative to their section, in the section's element size.
type MeshHeader1 struct {
	Flags                 uint64
	VertOffset            uint32 // bytes into the vertex buffer
	VertCacheSize         uint32
	VertCount             uint32
	_                     int32
	ExtraBoneWeightOffset int32
	ExtraBoneWeightSize   int32
	IndexOffset           int32 // in indices, not bytes
	IndexCount            int32
	LegacyWeightOffset    int32 // in 16 byte records
	LegacyWeightCount     int32
	StripOffset           int32 // index into the strip array
	StripCount            int32
	_                     [4]int32
}

// LODHeader1 describes one level of detail in a rev1 file.
type LODHeader1 struct {
	MeshIndex   uint16
	MeshCount   uint16
	SwitchPoint float32
}

// unkEntrySize is the width of the zero-filled filler records the rev1
// reader expects between the weight buffer and the LOD headers.
const unkEntrySize = 0x30

// StripHeader describes one primitive run. Conversion emits a single
// triangle-list strip per mesh with geometry.
type StripHeader struct {
	NumIndices          int32
	IndexOffset         int32
	NumVerts            int32
	VertOffset          int32
	NumBones            int16
	Flags               uint8
	NumBoneStateChanges int32
	BoneStateChanges    int32
	NumTopologyIndices  int32
	TopologyOffset      int32
}

// StripIsTriList is the only strip flag conversion emits.
const StripIsTriList = 0x01
