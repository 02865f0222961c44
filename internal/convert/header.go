package convert

import "rmdlconv/internal/studio"

// Header flags the target runtime no longer understands.
const droppedFlags = studio.FlagAmbientBoost | studio.FlagSubdivisionSurface | studio.FlagUsesUV2

// buildHeader160 seeds the target header from a compact v16-v19 source
// header. Section counts and offsets are filled in as the sections are
// transcoded.
func (c *converter) buildHeader160(src *studio.StudioHdr160) {
	c.hdr = studio.StudioHdr{
		ID:       studio.IDStudioHeader,
		Version:  studio.TargetVersion,
		Checksum: src.Checksum,
		Length:   studio.LengthPlaceholder,

		IllumPosition: src.IllumPosition,
		HullMin:       src.HullMin,
		HullMax:       src.HullMax,
		ViewBBMin:     src.ViewBBMin,
		ViewBBMax:     src.ViewBBMax,
		Mins:          src.HullMin,
		Maxs:          src.HullMax,

		Flags: src.Flags &^ droppedFlags,

		Mass:     src.Mass,
		Contents: src.Contents,

		NumCDTextures:    1,
		NumIncludeModels: -1,

		// Geometry and physics live in companion files.
		PhyOffset: studio.PhyOffsetExternal,

		DefaultFadeDist:           src.FadeDistance,
		FlVertAnimFixedPointScale: 1.0,
	}
}

// buildHeader191 extends the v16 seeding with the fields subversion
// 19.1 carries that the compact header lacks.
func (c *converter) buildHeader191(src *studio.StudioHdr191) {
	c.hdr = studio.StudioHdr{
		ID:       studio.IDStudioHeader,
		Version:  studio.TargetVersion,
		Checksum: src.Checksum,
		Length:   studio.LengthPlaceholder,

		IllumPosition: src.IllumPosition,
		HullMin:       src.HullMin,
		HullMax:       src.HullMax,
		ViewBBMin:     src.ViewBBMin,
		ViewBBMax:     src.ViewBBMax,
		Mins:          src.HullMin,
		Maxs:          src.HullMax,

		Flags: src.Flags &^ droppedFlags,

		Mass:     src.Mass,
		Contents: src.Contents,

		ActivityListVersion: src.ActivityListVersion,
		NumLocalNodes:       src.NumLocalNodes,
		NumSrcBoneTransform: src.NumSrcBoneTransform,

		NumCDTextures:    1,
		NumIncludeModels: -1,

		PhyOffset: studio.PhyOffsetExternal,

		DefaultFadeDist:           src.FadeDistance,
		FlVertAnimFixedPointScale: 1.0,
	}
}

// buildHeader140 seeds from a v14/v15 header, which is already close to
// the target shape and passes most fields through.
func (c *converter) buildHeader140(src *studio.StudioHdr140) {
	c.hdr = studio.StudioHdr{
		ID:       studio.IDStudioHeader,
		Version:  studio.TargetVersion,
		Checksum: src.Checksum,
		Length:   studio.LengthPlaceholder,

		EyePosition:   src.EyePosition,
		IllumPosition: src.IllumPosition,
		HullMin:       src.HullMin,
		HullMax:       src.HullMax,
		ViewBBMin:     src.ViewBBMin,
		ViewBBMax:     src.ViewBBMax,
		Mins:          src.HullMin,
		Maxs:          src.HullMax,

		Flags: src.Flags &^ droppedFlags,

		Mass:     src.Mass,
		Contents: src.Contents,

		NumBoneControllers:  src.NumBoneControllers,
		NumCDTextures:       src.NumCDTextures,
		NumLocalNodes:       src.NumLocalNodes,
		NumIncludeModels:    src.NumIncludeModels,
		ActivityListVersion: src.ActivityListVersion,
		EventsIndexed:       src.EventsIndexed,

		KeyValueSize: src.KeyValueSize,

		NumSrcBoneTransform: src.NumSrcBoneTransform,

		PhyOffset: src.PhyOffset,
		PhySize:   src.PhySize,
		VTXSize:   src.VTXSize,
		VVDSize:   src.VVDSize,
		VVCSize:   src.VVCSize,
		VVWSize:   src.VVWSize,

		DefaultFadeDist:           src.DefaultFadeDist,
		FlVertAnimFixedPointScale: src.FlVertAnimFixedPointScale,
	}
}
