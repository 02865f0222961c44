package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/collision"
	"rmdlconv/internal/studio"
)

// convert191 rebuilds a subversion 19.1 source file. The header is
// widened back to int32 offsets but the section records keep the v16
// compact shapes, so most transcoders are shared; bones and sequences
// differ enough to need their own.
func (c *converter) convert191(name string) error {
	var src studio.StudioHdr191
	if err := c.src.Struct(0, &src); err != nil {
		return errors.Wrap(err, "source header")
	}
	c.buildHeader191(&src)
	c.boneStateCount = int(src.BoneStateCount)
	c.boneStateOffset = int(src.BoneStateOffset)

	if _, err := c.out.Reserve(binary.Size(studio.StudioHdr{})); err != nil {
		return err
	}

	c.writeModelName(name)

	surfaceProp, err := c.src.CString(studio.FixOffset32(src.SurfacePropIndex))
	if err != nil {
		return errors.Wrap(err, "surfaceprop")
	}
	c.hdrSlot("SurfacePropIndex", surfaceProp)
	c.hdrSlot("UnkStringOffset", "")

	if err := c.convertBones191(int(src.BoneCount), studio.FixOffset32(src.BoneHdrIndex), studio.FixOffset32(src.BoneDataIndex), studio.FixOffset32(src.LinearBoneIndex)); err != nil {
		return errors.Wrap(err, "bones")
	}
	if err := c.convertAttachments160(int(src.NumLocalAttachments), studio.FixOffset32(src.LocalAttachmentIndex)); err != nil {
		return errors.Wrap(err, "attachments")
	}
	if err := c.convertHitboxes160(int(src.NumHitboxSets), studio.FixOffset32(src.HitboxSetIndex)); err != nil {
		return errors.Wrap(err, "hitboxes")
	}
	if err := c.copyBoneTableByName(studio.FixOffset32(src.BoneTableByNameIndex), int(src.BoneCount)); err != nil {
		return errors.Wrap(err, "bone table by name")
	}
	if err := c.convertSequences191(int(src.NumLocalSeq), studio.FixOffset32(src.LocalSeqIndex)); err != nil {
		return errors.Wrap(err, "sequences")
	}
	if err := c.convertBodyParts160(int(src.NumBodyParts), studio.FixOffset32(src.BodyPartIndex)); err != nil {
		return errors.Wrap(err, "bodyparts")
	}
	if err := c.convertPoseParams160(int(src.NumLocalPoseParameters), studio.FixOffset32(src.LocalPoseParamIndex)); err != nil {
		return errors.Wrap(err, "poseparams")
	}
	if err := c.convertIKChains160(int(src.NumIKChains), studio.FixOffset32(src.IKChainIndex)); err != nil {
		return errors.Wrap(err, "ikchains")
	}
	if err := c.convertTextures16(int(src.NumTextures), studio.FixOffset32(src.TextureIndex)); err != nil {
		return errors.Wrap(err, "textures")
	}
	if err := c.convertSkins(int(src.NumSkinRef), int(src.NumSkinFamilies), studio.FixOffset32(src.SkinIndex)); err != nil {
		return errors.Wrap(err, "skins")
	}
	if err := c.convertUIPanels(int(src.UIPanelCount), studio.FixOffset32(src.UIPanelOffset)); err != nil {
		return errors.Wrap(err, "ui panels")
	}
	if err := c.writeKeyValues(); err != nil {
		return err
	}
	if err := c.convertLinearBones191(studio.FixOffset32(src.LinearBoneIndex)); err != nil {
		return errors.Wrap(err, "linear bones")
	}

	if err := c.flushNames(); err != nil {
		return err
	}
	if err := c.out.Align(64); err != nil {
		return err
	}
	if err := c.convertCollision(studio.FixOffset32(src.BVHOffset), collision.Copy191); err != nil {
		return errors.Wrap(err, "collision")
	}
	return c.stampLength()
}
