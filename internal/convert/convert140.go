package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/collision"
	"rmdlconv/internal/studio"
)

// convert140 rebuilds a subversion 14, 14.1 or 15 source file. This
// generation still names the model inside its own string data, so the
// header name comes from the file rather than the input path.
func (c *converter) convert140(name string, is150 bool) error {
	var src studio.StudioHdr140
	if err := c.src.Struct(0, &src); err != nil {
		return errors.Wrap(err, "source header")
	}
	c.buildHeader140(&src)

	if _, err := c.out.Reserve(binary.Size(studio.StudioHdr{})); err != nil {
		return err
	}

	if err := c.copySourceFilename(&src); err != nil {
		return err
	}

	if srcName, err := c.src.CString(int(src.SzNameIndex)); err == nil && srcName != "" {
		name = srcName
	}
	c.writeModelName(name)

	surfaceProp, err := c.src.CString(int(src.SurfacePropIndex))
	if err != nil {
		return errors.Wrap(err, "surfaceprop")
	}
	c.hdrSlot("SurfacePropIndex", surfaceProp)
	c.hdrSlot("UnkStringOffset", "")

	if err := c.convertBones140(int(src.NumBones), int(src.BoneIndex)); err != nil {
		return errors.Wrap(err, "bones")
	}
	if err := c.convertAttachments140(int(src.NumLocalAttachments), int(src.LocalAttachmentIndex)); err != nil {
		return errors.Wrap(err, "attachments")
	}
	if err := c.convertHitboxes140(int(src.NumHitboxSets), int(src.HitboxSetIndex)); err != nil {
		return errors.Wrap(err, "hitboxes")
	}
	if err := c.copyBoneTableByName(int(src.BoneTableByNameIndex), int(src.NumBones)); err != nil {
		return errors.Wrap(err, "bone table by name")
	}
	if err := c.convertSequences140(int(src.NumLocalSeq), int(src.LocalSeqIndex)); err != nil {
		return errors.Wrap(err, "sequences")
	}
	if err := c.convertBodyParts140(int(src.NumBodyParts), int(src.BodyPartIndex), is150); err != nil {
		return errors.Wrap(err, "bodyparts")
	}
	if err := c.convertPoseParams140(int(src.NumLocalPoseParameters), int(src.LocalPoseParamIndex)); err != nil {
		return errors.Wrap(err, "poseparams")
	}
	if err := c.convertIKChains140(int(src.NumIKChains), int(src.IKChainIndex)); err != nil {
		return errors.Wrap(err, "ikchains")
	}
	if err := c.convertUIPanels(int(src.UIPanelCount), int(src.UIPanelOffset)); err != nil {
		return errors.Wrap(err, "ui panels")
	}
	if err := c.convertTextures140(int(src.NumTextures), int(src.TextureIndex), int(src.NumCDTextures), int(src.CDTextureIndex), int(src.MaterialTypesIndex)); err != nil {
		return errors.Wrap(err, "textures")
	}
	if err := c.convertSkins(int(src.NumSkinRef), int(src.NumSkinFamilies), int(src.SkinIndex)); err != nil {
		return errors.Wrap(err, "skins")
	}
	if err := c.writeKeyValues(); err != nil {
		return err
	}
	if err := c.convertSrcBoneTransforms(int(src.NumSrcBoneTransform), int(src.SrcBoneTransformIndex)); err != nil {
		return errors.Wrap(err, "srcbonetransforms")
	}
	if err := c.convertLinearBones140(int(src.LinearBoneIndex)); err != nil {
		return errors.Wrap(err, "linear bones")
	}

	if err := c.flushNames(); err != nil {
		return err
	}
	if err := c.out.Align(64); err != nil {
		return err
	}
	if err := c.convertCollision(int(src.BVHOffset), collision.Copy120); err != nil {
		return errors.Wrap(err, "collision")
	}
	return c.stampLength()
}
