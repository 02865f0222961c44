package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/collision"
	"rmdlconv/internal/studio"
)

// convert160 rebuilds a compact-header source file, subversions 16
// through 19. Sections are written strictly in the order the target
// runtime walks them; the string table and collision block close the
// file.
func (c *converter) convert160(name string) error {
	var src studio.StudioHdr160
	if err := c.src.Struct(0, &src); err != nil {
		return errors.Wrap(err, "source header")
	}
	c.buildHeader160(&src)
	c.boneStateCount = int(src.BoneStateCount)
	c.boneStateOffset = studio.FixOffset(src.BoneStateOffset)

	if _, err := c.out.Reserve(binary.Size(studio.StudioHdr{})); err != nil {
		return err
	}

	c.writeModelName(name)

	surfaceProp, err := c.src.CString(studio.FixOffset(src.SurfacePropOffset))
	if err != nil {
		return errors.Wrap(err, "surfaceprop")
	}
	c.hdrSlot("SurfacePropIndex", surfaceProp)
	c.hdrSlot("UnkStringOffset", "")

	if err := c.convertBones160(int(src.BoneCount), studio.FixOffset(src.BoneHdrOffset), studio.FixOffset(src.BoneDataOffset), studio.FixOffset(src.LinearBoneOffset)); err != nil {
		return errors.Wrap(err, "bones")
	}
	if err := c.convertAttachments160(int(src.NumLocalAttachments), studio.FixOffset(src.LocalAttachmentOffset)); err != nil {
		return errors.Wrap(err, "attachments")
	}
	if err := c.convertHitboxes160(int(src.NumHitboxSets), studio.FixOffset(src.HitboxSetOffset)); err != nil {
		return errors.Wrap(err, "hitboxes")
	}
	if err := c.copyBoneTableByName(studio.FixOffset(src.BoneTableByNameOffset), int(src.BoneCount)); err != nil {
		return errors.Wrap(err, "bone table by name")
	}
	if err := c.convertSequences160(int(src.NumLocalSeq), studio.FixOffset(src.LocalSeqOffset)); err != nil {
		return errors.Wrap(err, "sequences")
	}
	if err := c.convertBodyParts160(int(src.NumBodyParts), studio.FixOffset(src.BodyPartOffset)); err != nil {
		return errors.Wrap(err, "bodyparts")
	}
	if err := c.convertPoseParams160(int(src.NumLocalPoseParameters), studio.FixOffset(src.LocalPoseParamOffset)); err != nil {
		return errors.Wrap(err, "poseparams")
	}
	if err := c.convertIKChains160(int(src.NumIKChains), studio.FixOffset(src.IKChainOffset)); err != nil {
		return errors.Wrap(err, "ikchains")
	}
	if err := c.convertTextures16(int(src.NumTextures), studio.FixOffset(src.TextureOffset)); err != nil {
		return errors.Wrap(err, "textures")
	}
	if err := c.convertSkins(int(src.NumSkinRef), int(src.NumSkinFamilies), studio.FixOffset(src.SkinOffset)); err != nil {
		return errors.Wrap(err, "skins")
	}
	if err := c.convertUIPanels(int(src.UIPanelCount), studio.FixOffset(src.UIPanelOffset)); err != nil {
		return errors.Wrap(err, "ui panels")
	}
	if err := c.writeKeyValues(); err != nil {
		return err
	}
	if err := c.convertLinearBones160(studio.FixOffset(src.LinearBoneOffset)); err != nil {
		return errors.Wrap(err, "linear bones")
	}

	if err := c.flushNames(); err != nil {
		return err
	}
	if err := c.out.Align(64); err != nil {
		return err
	}
	if err := c.convertCollision(studio.FixOffset32(src.BVHOffset), collision.Copy160); err != nil {
		return errors.Wrap(err, "collision")
	}
	return c.stampLength()
}

// convertCollision relocates the collision block when the source
// carries a plausible one. Runs after the header has been patched into
// place, so the offset lands via a direct patch.
func (c *converter) convertCollision(srcOff int, copyFn func(collision.Params) error) error {
	if srcOff <= 0 {
		return nil
	}
	n, err := collision.HeaderCount(c.src, srcOff)
	if err != nil {
		return err
	}
	if n <= 0 || n >= 100 {
		c.warnf("collision", "implausible solid count %d, dropping collision block", n)
		return nil
	}
	if err := c.patchHdrInt32("BVHOffset", int32(c.out.Pos())); err != nil {
		return err
	}
	return copyFn(collision.Params{
		Out: c.out,
		Src: c.src,
		Off: srcOff,
		Warnf: func(format string, args ...any) {
			c.warnf("collision", format, args...)
		},
	})
}
