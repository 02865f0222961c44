package studio

// Source layouts for subversion 19.1. The header widens section offsets
// back to int32 (FixOffset32 still normalizes the 0xFFFF sentinel), but
// record-relative string offsets stay uint16. Bones keep the split
// name/data shape of v16; the linear bone table regains scale and
// alignment arrays.

// StudioHdr191 is the source header. The inline name is truncated to 32
// characters, so converters derive the full model name from the input
// filename instead.
type StudioHdr191 struct {
	Flags    int32
	Checksum int32

	Name [33]byte
	Pad  [3]byte

	HullMin       Vector3
	HullMax       Vector3
	ViewBBMin     Vector3
	ViewBBMax     Vector3
	IllumPosition Vector3

	Mass         float32
	Contents     int32
	FadeDistance float32

	ActivityListVersion int32

	SurfacePropIndex int32

	BoneCount     int32
	BoneHdrIndex  int32
	BoneDataIndex int32

	LinearBoneIndex int32

	BoneStateCount  int32
	BoneStateOffset int32

	NumHitboxSets  int32
	HitboxSetIndex int32

	NumLocalSeq   int32
	LocalSeqIndex int32

	NumBodyParts  int32
	BodyPartIndex int32

	NumLocalAttachments  int32
	LocalAttachmentIndex int32

	BoneTableByNameIndex int32

	NumLocalPoseParameters int32
	LocalPoseParamIndex    int32

	NumIKChains  int32
	IKChainIndex int32

	NumTextures  int32
	TextureIndex int32

	NumSkinRef      int32
	NumSkinFamilies int32
	SkinIndex       int32

	NumLocalNodes       int32
	NumSrcBoneTransform int32

	UIPanelCount  int32
	UIPanelOffset int32

	BVHOffset int32
}

// BoneData191 is the transform half of a v19.1 bone record. Unlike v16
// it carries no inline pose; transforms live only in the linear bone
// table.
type BoneData191 struct {
	Parent int32
	Flags  int32

	ProcType       uint8
	CollisionIndex uint8
	ProcIndex      uint16
}

// LinearBone191 heads the source structure-of-arrays bone table,
// including the scale and alignment arrays the v16 table lacks. Index
// fields are relative to the struct itself.
type LinearBone191 struct {
	NumBones int32

	FlagsIndex      int32
	ParentIndex     int32
	PosIndex        int32
	QuatIndex       int32
	RotIndex        int32
	ScaleIndex      int32
	PoseToBoneIndex int32
	QAlignmentIndex int32
}

// AnimDesc191 has no embedded frame data; animation payloads live in
// external sequence assets referenced by GUID.
type AnimDesc191 struct {
	AnimDataAsset uint64

	SzNameIndex uint16
	Pad         uint16

	FPS   float32
	Flags int32

	NumFrames int32

	NumIKRules  uint16
	IKRuleIndex uint16

	SectionIndex uint16
	Pad2         uint16

	SectionFrames      int32
	SectionStallFrames int32
}

// CollHeader191 is the 40 byte source collision header. Unlike v16
// there is no surface property indirection; the three data offsets are
// relative to the collision model struct.
type CollHeader191 struct {
	BVHFlags    int32
	Origin      Vector3
	DecodeScale float32

	VertsOfs    int32
	LeafDataOfs int32
	NodesOfs    int32

	Unused [2]int32
}
