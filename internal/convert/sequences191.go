package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/studio"
)

// writeAnims191 converts the animation block of one v19.1 sequence.
// This generation stores frame payloads in external sequence assets, so
// every descriptor gets a zeroed flag array; a nonzero asset GUID is
// reported because its data cannot be recovered from the model alone.
func (c *converter) writeAnims191(srcSeqAddr int, ss *studio.SeqDesc160, seqBase int, sd *studio.SeqDesc, label string) error {
	numAnims := int(ss.GroupSize[0]) * int(ss.GroupSize[1])
	if numAnims < 1 {
		numAnims = 1
	}

	if err := c.out.Align(4); err != nil {
		return err
	}
	sd.AnimIndexIndex = int32(c.out.Pos() - seqBase)
	slotBase, err := c.out.Reserve(numAnims * 4)
	if err != nil {
		return err
	}

	srcIndexOff := studio.FixOffset(ss.AnimIndexIndex)

	for j := 0; j < numAnims; j++ {
		var srcOff uint16
		if srcIndexOff > 0 {
			if srcOff, err = c.src.Uint16(srcSeqAddr + srcIndexOff + j*2); err != nil {
				return errors.Wrapf(err, "anim index %d", j)
			}
		}

		if err := c.out.Align(4); err != nil {
			return err
		}
		animBase, err := c.out.Reserve(binary.Size(studio.AnimDesc{}))
		if err != nil {
			return err
		}
		if err := c.out.PatchInt32(slotBase+j*4, int32(animBase-seqBase)); err != nil {
			return err
		}

		var ad studio.AnimDesc
		name := label

		if srcOff == 0 {
			ad.FPS = 30
			ad.Flags = studio.AnimAllZeros
			ad.NumFrames = 1
		} else {
			srcAnimAddr := srcSeqAddr + int(srcOff)
			var sa studio.AnimDesc191
			if err := c.src.Struct(srcAnimAddr, &sa); err != nil {
				return errors.Wrapf(err, "anim %d", j)
			}
			if sa.AnimDataAsset != 0 {
				c.warnf("anim", "anim %d references external sequence asset %#x, frame data unavailable", j, sa.AnimDataAsset)
			}
			if nameOff := studio.FixOffset(sa.SzNameIndex); nameOff > 0 {
				if name, err = c.src.CString(srcAnimAddr + nameOff); err != nil {
					return errors.Wrapf(err, "anim %d name", j)
				}
			}
			ad.FPS = sa.FPS
			ad.Flags = sa.Flags
			ad.NumFrames = sa.NumFrames

			sa160 := studio.AnimDesc160{
				NumIKRules:  sa.NumIKRules,
				IKRuleIndex: sa.IKRuleIndex,
			}
			if err := c.writeIKRules160(srcAnimAddr, &sa160, animBase, &ad); err != nil {
				return errors.Wrapf(err, "anim %d", j)
			}
			if err := c.writeEmptyFrameData(animBase, &ad); err != nil {
				return err
			}
			if err := c.copySections160(srcAnimAddr, sa.SectionIndex, sa.SectionFrames, sa.SectionStallFrames, sa.NumFrames, animBase, &ad); err != nil {
				return errors.Wrapf(err, "anim %d sections", j)
			}
		}

		if err := c.out.Align(2); err != nil {
			return err
		}
		if err := c.out.PatchStruct(animBase, &ad); err != nil {
			return err
		}
		c.addName(animBase, ad, "SzNameIndex", name)
	}
	return nil
}

func (c *converter) convertSequences191(count, off int) error {
	return c.writeSequences(count, off, sequenceLayout{
		stride: studio.SeqDescStride18,
		anims:  c.writeAnims191,
	})
}
