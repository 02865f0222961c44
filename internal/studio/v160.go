package studio

// Source layouts for subversions 16 through 19. These schemas use a
// compact header: section offsets are uint16 with 0xFFFF meaning absent
// (see FixOffset), strings are offset-relative to their owning record,
// and bones are split into a name half and a data half.

// StudioHdr160 is the compact source header.
type StudioHdr160 struct {
	Flags    int32
	Checksum int32

	NameOffset        uint16
	SurfacePropOffset uint16

	HullMin       Vector3
	HullMax       Vector3
	ViewBBMin     Vector3
	ViewBBMax     Vector3
	IllumPosition Vector3

	Mass         float32
	Contents     int32
	FadeDistance float32

	BoneCount        uint16
	BoneHdrOffset    uint16
	BoneDataOffset   uint16
	LinearBoneOffset uint16

	BoneStateCount  uint16
	BoneStateOffset uint16

	NumLocalAttachments   uint16
	LocalAttachmentOffset uint16

	NumHitboxSets   uint16
	HitboxSetOffset uint16

	BoneTableByNameOffset uint16

	NumLocalSeq    uint16
	LocalSeqOffset uint16

	NumBodyParts   uint16
	BodyPartOffset uint16

	NumLocalPoseParameters uint16
	LocalPoseParamOffset   uint16

	NumIKChains   uint16
	IKChainOffset uint16

	NumTextures   uint16
	TextureOffset uint16

	NumSkinRef      uint16
	NumSkinFamilies uint16
	SkinOffset      uint16

	UIPanelCount  uint16
	UIPanelOffset uint16

	Pad uint16

	BVHOffset int32
}

// BoneHdr160 is the name half of a split bone record. String offsets
// are relative to this struct.
type BoneHdr160 struct {
	Contents          int32
	SzNameIndex       uint16
	SurfacePropIdx    uint16
	SurfacePropLookup int16
	PhysicsBone       int16
}

// BoneData160 is the transform half of a split bone record.
type BoneData160 struct {
	Parent int32
	Flags  int32

	ProcType       uint8
	CollisionIndex uint8
	ProcIndex      uint16

	Pos        Vector3
	Quat       Quaternion
	Rot        RadianEuler
	Scale      Vector3
	PoseToBone Matrix3x4
	QAlignment Quaternion
}

// LinearBone160 heads the source structure-of-arrays bone table. It has
// no scale or alignment arrays; those live inline in BoneData160.
type LinearBone160 struct {
	NumBones int32

	FlagsIndex      int32
	ParentIndex     int32
	PosIndex        int32
	QuatIndex       int32
	RotIndex        int32
	PoseToBoneIndex int32
}

// HitboxSet160 groups hitboxes; the name offset is relative to this
// struct.
type HitboxSet160 struct {
	SzNameIndex uint16
	NumHitboxes uint16
	HitboxIndex uint16
	Pad         uint16
}

// Hitbox160 is the compact hitbox record.
type Hitbox160 struct {
	Bone  uint16
	Group uint16

	BBMin Vector3
	BBMax Vector3

	SzHitboxNameIndex  uint16
	HitDataGroupOffset uint16
}

// Attachment160 binds a named transform to a bone.
type Attachment160 struct {
	SzNameIndex uint16
	LocalBone   uint16
	Flags       int32
	Local       Matrix3x4
}

// Bodypart160 indexes the models of one body part.
type Bodypart160 struct {
	SzNameIndex uint16
	Pad         uint16
	NumModels   int32
	Base        int32
	ModelIndex  int32
}

// Model160 is the compact model record; the name is an offset-relative
// string, and meshes follow at MeshIndex.
type Model160 struct {
	NameOffset     uint16
	MeshCountTotal uint16
	MeshIndex      uint16
	Unk            uint16
}

// Mesh160 is the compact mesh record.
type Mesh160 struct {
	Material uint16
	Unk      uint16
	MeshID   int32
	Center   Vector3
}

// SeqDesc160 is the source sequence descriptor shared by subversions
// 16-19. Subversions 16 and 17 store it at a 112 byte stride; 18 and 19
// append four bytes, so readers must step by the stride, not the struct
// size.
type SeqDesc160 struct {
	SzLabelIndex        uint16
	SzActivityNameIndex uint16

	Flags int32

	Activity  uint16
	ActWeight uint16

	NumEvents  uint16
	EventIndex uint16

	BBMin Vector3
	BBMax Vector3

	NumBlends      int32
	AnimIndexIndex uint16
	MovementIndex  uint16

	GroupSize  [2]uint8
	ParamIndex [2]uint8
	ParamStart [2]float32
	ParamEnd   [2]float32

	FadeInTime  float32
	FadeOutTime float32

	LocalEntryNode uint16
	LocalExitNode  uint16

	NumIKRules           uint8
	NumAutoLayers        uint8
	NumIKLocks           uint8
	NumActivityModifiers uint8

	IKResetMask int32

	CyclePoseIndex uint16

	AutoLayerIndex        uint16
	WeightListIndex       uint16
	PoseKeyIndex          uint16
	IKLockIndex           uint16
	ActivityModifierIndex uint16

	KeyValueIndex uint16

	Unused [10]byte
}

// Sequence descriptor strides per subversion.
const (
	SeqDescStride16 = 112 // subversions 16, 17
	SeqDescStride18 = 116 // subversions 18, 19
)

// AnimDesc160 is the source animation descriptor. AnimIndex points at
// embedded run-length frame data when nonzero.
type AnimDesc160 struct {
	SzNameIndex uint16
	Pad         uint16

	FPS   float32
	Flags int32

	NumFrames int32

	NumIKRules  uint16
	IKRuleIndex uint16

	AnimIndex uint16

	SectionIndex uint16

	SectionFrames      int32
	SectionStallFrames int32
}

// IKRule160 is the compact IK rule with uint16 data offsets.
type IKRule160 struct {
	Type  int32
	Chain int32
	Bone  int32
	Slot  int32

	Height float32
	Radius float32
	Floor  float32

	Pos Vector3
	Q   Quaternion

	CompressedIKError IKError

	CompressedIKErrorIndex uint16
	IKErrorIndex           uint16
	IStart                 int32

	Start float32
	Peak  float32
	Tail  float32
	End   float32

	Contact float32
	Drop    float32
	Top     float32

	SzAttachmentIndex uint16
	Pad               uint16

	EndHeight float32
}

// Event160 is the compact event record; options live in a string table
// rather than inline.
type Event160 struct {
	Cycle        float32
	Event        int32
	Type         int32
	UnkC         int32
	OptionsIndex uint16
	SzEventIndex uint16
}

// AutoLayer160 prefixes the target layout with an asset GUID.
type AutoLayer160 struct {
	AssetSequence uint64
	ISequence     int16
	IPose         int16
	Flags         int32
	Start         float32
	Peak          float32
	Tail          float32
	End           float32
}

// IKLock160 is the compact IK lock.
type IKLock160 struct {
	Chain         uint16
	Flags         uint16
	PosWeight     float32
	LocalQWeight  float32
}

// ActivityModifier160 is stored packed at a 3 byte stride.
type ActivityModifier160 struct {
	SzNameIndex uint16
	Negate      uint8
}

// IKChain160 names a chain; links follow at LinkIndex.
type IKChain160 struct {
	SzNameIndex uint16
	LinkType    uint16
	NumLinks    uint16
	LinkIndex   uint16
	Unk10       float32
}

// IKLink160 is one bone of a source chain.
type IKLink160 struct {
	Bone    uint16
	Pad     uint16
	KneeDir Vector3
}

// PoseParam160 describes a blend axis.
type PoseParam160 struct {
	SzNameIndex uint16
	Flags       uint16
	Start       float32
	End         float32
	Loop        float32
}

// DSurfacePropertyData160 is one entry of the property data table the
// v14-v19 collision blocks interpose between surface records and real
// property ids.
type DSurfacePropertyData160 struct {
	SurfacePropId1 uint8
	SurfacePropId2 uint8
	Flags          uint16
}

// CollHeader160 is the 40 byte source collision header. The first
// header additionally anchors the shared surface property table.
type CollHeader160 struct {
	Unk          int32
	BVHNodeIndex int32
	VertIndex    int32
	BVHLeafIndex int32
	Origin       Vector3
	Scale        float32

	SurfacePropArrayCount int32
	SurfacePropDataIndex  int32
}
