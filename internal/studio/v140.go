package studio

// Source layouts for subversions 14, 14.1 and 15. This generation still
// mirrors the target schema closely: int32 offsets, record-relative
// string indices, full-width bone records. Most section records reuse
// the target layouts directly; only the types below diverge.

// StudioHdr140 is the source header for subversions 14 and 15.
type StudioHdr140 struct {
	ID       int32
	Version  int32
	Checksum int32

	SzNameIndex int32
	Name        [64]byte

	Length int32

	EyePosition   Vector3
	IllumPosition Vector3
	HullMin       Vector3
	HullMax       Vector3
	ViewBBMin     Vector3
	ViewBBMax     Vector3

	Flags int32

	NumBones            int32
	BoneIndex           int32
	NumBoneControllers  int32
	BoneControllerIndex int32

	NumHitboxSets  int32
	HitboxSetIndex int32

	NumLocalAnim   int32
	LocalAnimIndex int32
	NumLocalSeq    int32
	LocalSeqIndex  int32

	ActivityListVersion int32
	EventsIndexed       int32

	NumTextures        int32
	TextureIndex       int32
	NumCDTextures      int32
	CDTextureIndex     int32
	NumSkinRef         int32
	NumSkinFamilies    int32
	SkinIndex          int32
	MaterialTypesIndex int32

	NumBodyParts  int32
	BodyPartIndex int32

	NumLocalAttachments  int32
	LocalAttachmentIndex int32

	NumLocalNodes      int32
	LocalNodeIndex     int32
	LocalNodeNameIndex int32

	NumIKChains  int32
	IKChainIndex int32

	UIPanelCount  int32
	UIPanelOffset int32

	NumLocalPoseParameters int32
	LocalPoseParamIndex    int32

	SurfacePropIndex int32

	KeyValueIndex int32
	KeyValueSize  int32

	NumIncludeModels  int32
	IncludeModelIndex int32

	BoneTableByNameIndex int32

	NumSrcBoneTransform   int32
	SrcBoneTransformIndex int32

	SourceFilenameOffset int32

	LinearBoneIndex int32

	Mass     float32
	Contents int32

	PhyOffset int32
	PhySize   int32
	VTXSize   int32
	VVDSize   int32
	VVCSize   int32
	VVWSize   int32

	BVHOffset int32

	DefaultFadeDist           float32
	FlVertAnimFixedPointScale float32

	Unused [8]int32
}

// Model140 splits the mesh count into three fields; only the total is
// meaningful for conversion. It also grows a third UV channel index.
type Model140 struct {
	Name [64]byte

	Type           int32
	BoundingRadius float32

	NumMeshes int32
	UnkV14    int32
	Unk1V14   int32
	MeshIndex int32

	NumVertices   int32
	VertexIndex   int32
	TangentsIndex int32

	NumAttachments  int32
	AttachmentIndex int32

	ColorIndex int32
	UV2Index   int32
	UV3Index   int32

	Unused [4]int32
}

// Mesh140 narrows the material reference to uint16.
type Mesh140 struct {
	Material uint16
	Pad      uint16

	ModelIndex int32

	NumVertices  int32
	VertexOffset int32

	MeshID int32
	Center Vector3

	VertexLodData [9]int32

	Unused [8]int32
}

// Bodypart150 appends two fields to the shared bodypart record;
// subversion 15 differs from 14 only here.
type Bodypart150 struct {
	SzNameIndex int32
	NumModels   int32
	Base        int32
	ModelIndex  int32

	Unk10      int32
	MeshOffset int32
}

// TextureDir is a cdtexture entry: a single string reference.
type TextureDir struct {
	SzNameIndex int32
}
