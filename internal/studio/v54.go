package studio

// Target layouts: studio version 54, subversion 10. This is the schema
// the converters emit, matching what the Season 2/3 runtime loads.

// StudioHdr is the target file header. Section index fields hold
// absolute file offsets; name-index fields hold offsets resolved by the
// string table at flush time.
type StudioHdr struct {
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

	ProcBoneCount       int32
	ProcBoneTableOffset int32
	LinearProcBoneOffset int32

	Mins Vector3
	Maxs Vector3

	Mass     float32
	Contents int32

	PhyOffset int32
	VTXOffset int32
	VVDOffset int32
	VVCOffset int32
	VVWOffset int32
	PhySize   int32
	VTXSize   int32
	VVDSize   int32
	VVCSize   int32
	VVWSize   int32

	BVHOffset int32

	UnkStringOffset int32

	DefaultFadeDist           float32
	FlVertAnimFixedPointScale float32

	Unused [8]int32
}

// Bone is the per-bone record. Controllers are unused and written as -1.
type Bone struct {
	SzNameIndex    int32
	Parent         int32
	BoneController [6]int32

	Pos        Vector3
	Quat       Quaternion
	Rot        RadianEuler
	Scale      Vector3
	PoseToBone Matrix3x4
	QAlignment Quaternion

	Flags     int32
	ProcType  int32
	ProcIndex int32

	PhysicsBone       int32
	SurfacePropIdx    int32
	Contents          int32
	SurfacePropLookup int32
	CollisionIndex    int32

	Unused [7]int32
}

// JiggleBone carries the simulation parameters of a procedural jiggle
// bone. Converters copy it through byte for byte; the layout is shared
// with every source schema.
type JiggleBone struct {
	Flags int32
	Bone  int32

	Length float32
	TipMass float32

	YawStiffness   float32
	YawDamping     float32
	PitchStiffness float32
	PitchDamping   float32
	AlongStiffness float32
	AlongDamping   float32

	AngleLimit float32

	MinYaw      float32
	MaxYaw      float32
	YawFriction float32
	YawBounce   float32

	MinPitch      float32
	MaxPitch      float32
	PitchFriction float32
	PitchBounce   float32

	BaseMass         float32
	BaseStiffness    float32
	BaseDamping      float32
	BaseMinLeft      float32
	BaseMaxLeft      float32
	BaseLeftFriction float32
	BaseMinUp        float32
	BaseMaxUp        float32
	BaseUpFriction   float32
	BaseMinForward   float32
	BaseMaxForward   float32
	BaseForwardFriction float32
}

// HitboxSet groups hitboxes under a named set.
type HitboxSet struct {
	SzNameIndex int32
	NumHitboxes int32
	HitboxIndex int32
}

// Hitbox is an oriented box bound to one bone.
type Hitbox struct {
	Bone  int32
	Group int32

	BBMin Vector3
	BBMax Vector3

	SzHitboxNameIndex  int32
	HitDataGroupOffset int32

	Unused [6]int32
}

// Attachment binds a named transform to a bone.
type Attachment struct {
	SzNameIndex int32
	Flags       int32
	LocalBone   int32
	LocalMatrix Matrix3x4
}

// Bodypart indexes a group of interchangeable models.
type Bodypart struct {
	SzNameIndex int32
	NumModels   int32
	Base        int32
	ModelIndex  int32
}

// Model carries an inline name plus mesh references. Vertex fields are
// zero for converted models; geometry lives in the companion vertex
// group file.
type Model struct {
	Name [64]byte

	Type           int32
	BoundingRadius float32

	NumMeshes int32
	MeshIndex int32

	NumVertices   int32
	VertexIndex   int32
	TangentsIndex int32

	NumAttachments  int32
	AttachmentIndex int32

	DeprecatedNumEyeballs  int32
	DeprecatedEyeballIndex int32

	ColorIndex int32
	UV2Index   int32

	Unused [4]int32
}

// Mesh references a material and its vertex span in the vertex group.
type Mesh struct {
	Material   int32
	ModelIndex int32

	NumVertices  int32
	VertexOffset int32

	MeshID int32
	Center Vector3

	VertexLodData [9]int32

	Unused [8]int32
}

// Texture names a material; the GUID keeps the original asset binding.
type Texture struct {
	SzNameIndex int32
	TextureGUID uint64
	Unused      [4]int32
}

// SeqDesc is the target sequence descriptor. Data index fields are
// relative to the descriptor itself.
type SeqDesc struct {
	BasePtr int32

	SzLabelIndex        int32
	SzActivityNameIndex int32

	Flags int32

	Activity  int32
	ActWeight int32

	NumEvents  int32
	EventIndex int32

	BBMin Vector3
	BBMax Vector3

	NumBlends      int32
	AnimIndexIndex int32
	MovementIndex  int32

	GroupSize  [2]int32
	ParamIndex [2]int32
	ParamStart [2]float32
	ParamEnd   [2]float32
	ParamParent int32

	FadeInTime  float32
	FadeOutTime float32

	LocalEntryNode int32
	LocalExitNode  int32
	NodeFlags      int32

	EntryPhase float32
	ExitPhase  float32

	LastFrame float32
	NextSeq   int32
	Pose      int32

	NumIKRules int32

	NumAutoLayers  int32
	AutoLayerIndex int32

	WeightListIndex int32
	PoseKeyIndex    int32

	NumIKLocks  int32
	IKLockIndex int32

	KeyValueIndex int32
	KeyValueSize  int32

	CyclePoseIndex int32

	ActivityModifierIndex int32
	NumActivityModifiers  int32

	IKResetMask int32

	Unused [6]int32
}

// AnimDesc is the target animation descriptor.
type AnimDesc struct {
	BasePtr     int32
	SzNameIndex int32

	FPS   float32
	Flags int32

	NumFrames    int32
	NumMovements int32
	MovementIndex int32

	CompressedIKErrorIndex int32

	AnimIndex int32

	NumIKRules  int32
	IKRuleIndex int32

	SectionIndex  int32
	SectionFrames int32

	Unused [8]int32
}

// IKError holds per-channel compression scales for an IK rule.
type IKError struct {
	Scale         [6]float32
	SectionFrames int32
}

// IKRule is the target per-animation IK constraint.
type IKRule struct {
	Index int32

	Type  int32
	Chain int32
	Bone  int32
	Slot  int32

	Height float32
	Radius float32
	Floor  float32

	Pos Vector3
	Q   Quaternion

	CompressedIKError      IKError
	CompressedIKErrorIndex int32
	IStart                 int32
	IKErrorIndex           int32

	Start float32
	Peak  float32
	Tail  float32
	End   float32

	Contact float32
	Drop    float32
	Top     float32

	SzAttachmentIndex int32

	EndHeight float32

	Unused [8]int32
}

// AnimSection points at one frame window of animation data.
type AnimSection struct {
	AnimIndex int32
}

// AutoLayer blends a second sequence over the owning one.
type AutoLayer struct {
	ISequence int16
	IPose     int16
	Flags     int32
	Start     float32
	Peak      float32
	Tail      float32
	End       float32
}

// Event fires a named action at a cycle point. Options are inline.
type Event struct {
	Cycle        float32
	Event        int32
	Type         int32
	Options      [64]byte
	SzEventIndex int32
}

// IKLock pins a chain during a sequence.
type IKLock struct {
	Chain          int32
	FlPosWeight    float32
	FlLocalQWeight float32
	Flags          int32
	Unused         [4]int32
}

// ActivityModifier tags a sequence's activity.
type ActivityModifier struct {
	SzNameIndex int32
	Negate      uint8
	Pad         [3]byte
}

// IKChain names a chain of links ending at a foot or hand.
type IKChain struct {
	SzNameIndex int32
	LinkType    int32
	NumLinks    int32
	LinkIndex   int32
	Unk         float32
}

// IKLink is one bone in a chain.
type IKLink struct {
	Bone    int32
	KneeDir Vector3
	Unused  Vector3
}

// PoseParamDesc describes a blend axis.
type PoseParamDesc struct {
	SzNameIndex int32
	Flags       int32
	Start       float32
	End         float32
	Loop        float32
}

// LinearBone heads the structure-of-arrays bone table. Index fields are
// relative to the struct itself; the target layout has no alignment
// array.
type LinearBone struct {
	NumBones int32

	FlagsIndex      int32
	ParentIndex     int32
	PosIndex        int32
	QuatIndex       int32
	RotIndex        int32
	PoseToBoneIndex int32
}

// SrcBoneTransform records a pre/post transform pair from the source
// rig.
type SrcBoneTransform struct {
	SzNameIndex   int32
	PreTransform  Matrix3x4
	PostTransform Matrix3x4
}

// RUIHeader points at one UI panel mesh. The mesh index is relative to
// this header.
type RUIHeader struct {
	RuiMeshIndex int32
	Unused       [3]int32
}

// RUIMesh heads a UI panel mesh. Data index fields are relative to the
// end of this struct; the name string sits between the struct and the
// parent table.
type RUIMesh struct {
	NumParents  int16
	NumVertices int16
	NumFaces    int16
	Unk         int16

	ParentIndex  int32
	VertMapIndex int32
	UnkIndex     int32
	VertexIndex  int32
	FaceDataIndex int32
}

// RUIVertMap pairs a vertex with the face it belongs to.
type RUIVertMap struct {
	VertIndex int16
	FaceIndex int16
}

// RUIFourthVert completes a quad from a triangle pair.
type RUIFourthVert struct {
	Pos Vector3
}

// RUIVert is a panel-space vertex.
type RUIVert struct {
	Pos    Vector3
	Parent int16
	Pad    int16
}

// RUIMeshFace carries per-face bounds and UV data.
type RUIMeshFace struct {
	Data [8]float32
}

// CollModel heads the collision block. Index fields are relative to
// this struct.
type CollModel struct {
	SurfacePropsIndex int32
	ContentMasksIndex int32
	SurfaceNamesIndex int32
	HeaderCount       int32
}

// CollHeader is the target per-solid collision header.
type CollHeader struct {
	Unk          int32
	BVHNodeIndex int32
	VertIndex    int32
	BVHLeafIndex int32
	Origin       Vector3
	Scale        float32
}

// DSurfaceProperty maps collision primitives to surface properties.
type DSurfaceProperty struct {
	Unk            uint16
	SurfacePropId  uint8
	SurfacePropId1 uint8
	Flags          uint32
}
