// Package studio defines the on-disk layouts of the studio model
// container across the supported schema generations, plus the shared
// constants the converters need. All records are packed little-endian.
package studio

// File identity of a converted model. The id reads "IDST" on disk.
const (
	IDStudioHeader = 0x54534449 // 'TSDI'
	TargetVersion  = 54
)

// LengthPlaceholder marks the header length field until the final size is
// known.
const LengthPlaceholder = 0x0badf00d

// PhyOffsetExternal is the sentinel meaning physics data lives in a
// companion .phy file rather than inline.
const PhyOffsetExternal = -123456

// Header flags cleared on conversion; the target runtime predates them.
const (
	FlagAmbientBoost       = 0x10000
	FlagSubdivisionSurface = 0x80000
	FlagUsesUV2            = 0x2000000
)

// BoneUsedByBoneMerge is stripped from per-bone flags.
const BoneUsedByBoneMerge = 0x00040000

// ProcJiggle is the only procedural bone type the target format keeps.
// Other types (axis/quat interp, aim, twist) are cleared.
const ProcJiggle = 5

// AnimAllZeros marks a placeholder animation with no per-bone data.
const AnimAllZeros = 0x20

// NoActivity is the widened form of the uint16 "no activity" sentinel.
const NoActivity = -1

// Material shader type byte written per texture for static props.
const ShaderRigidGeneric = 0x3 // RGDP

// DefaultKeyValues is written into every converted model.
const DefaultKeyValues = "mdlkeyvalue{prop_data{base \"\"}}\n"

// FixOffset normalizes the compact-header "no data" sentinel: newer
// schemas store 0xFFFF in a uint16 slot to mean absent, which must read
// as offset 0, never 65535.
func FixOffset(v uint16) int {
	if v == 0xFFFF {
		return 0
	}
	return int(v)
}

// FixOffset32 applies the same normalization to offsets already widened
// to 32 bits.
func FixOffset32(v int32) int {
	if v == 0xFFFF {
		return 0
	}
	return int(v)
}

// AnimFlagSize is the byte size of the per-bone nibble flag array that
// prefixes run-length animation data, padded to an even count.
func AnimFlagSize(numBones int) int {
	return ((4*numBones+7)/8 + 1) &^ 1
}

// AlignUp2 rounds a byte count up to an even value.
func AlignUp2(n int) int {
	return (n + 1) &^ 1
}
