package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/studio"
)

// animWriter emits the animation block of one sequence: the index
// array plus every descriptor and its frame data. Implementations fill
// sd.AnimIndexIndex and append to the arena only.
type animWriter func(srcSeqAddr int, ss *studio.SeqDesc160, seqBase int, sd *studio.SeqDesc, label string) error

type sequenceLayout struct {
	stride int
	anims  animWriter

	// The v19.1 schema dropped IK locks and activity modifiers from
	// sequence payloads; their counts must not survive either.
	keepLockMods bool
}

// writeSequences transcodes the local sequence array: all descriptors
// first so the runtime can stride over them, then per-sequence payloads
// with every data index patched relative to its owning descriptor.
func (c *converter) writeSequences(count, off int, layout sequenceLayout) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumLocalSeq = int32(count)

	srcSeqs := make([]studio.SeqDesc160, count)
	labels := make([]string, count)
	seqs := make([]studio.SeqDesc, count)
	seqBases := make([]int, count)

	for i := 0; i < count; i++ {
		srcAddr := off + i*layout.stride
		ss := &srcSeqs[i]
		if err := c.src.Struct(srcAddr, ss); err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}
		label, err := c.src.CString(srcAddr + studio.FixOffset(ss.SzLabelIndex))
		if err != nil {
			return errors.Wrapf(err, "sequence %d label", i)
		}
		actName, err := c.src.CString(srcAddr + studio.FixOffset(ss.SzActivityNameIndex))
		if err != nil {
			return errors.Wrapf(err, "sequence %d activity", i)
		}
		labels[i] = label

		sd := &seqs[i]
		*sd = studio.SeqDesc{
			Flags:     ss.Flags,
			Activity:  int32(ss.Activity),
			ActWeight: int32(ss.ActWeight),
			NumEvents: int32(ss.NumEvents),
			BBMin:     ss.BBMin,
			BBMax:     ss.BBMax,
			NumBlends: ss.NumBlends,
			GroupSize: [2]int32{int32(ss.GroupSize[0]), int32(ss.GroupSize[1])},
			ParamIndex: [2]int32{
				int32(ss.ParamIndex[0]),
				int32(ss.ParamIndex[1]),
			},
			ParamStart:           ss.ParamStart,
			ParamEnd:             ss.ParamEnd,
			FadeInTime:           ss.FadeInTime,
			FadeOutTime:          ss.FadeOutTime,
			LocalEntryNode:       int32(ss.LocalEntryNode),
			LocalExitNode:        int32(ss.LocalExitNode),
			NumIKRules:           int32(ss.NumIKRules),
			NumAutoLayers:        int32(ss.NumAutoLayers),
			NumIKLocks:           int32(ss.NumIKLocks),
			NumActivityModifiers: int32(ss.NumActivityModifiers),
			IKResetMask:          ss.IKResetMask,
			CyclePoseIndex:       int32(ss.CyclePoseIndex),
		}
		if ss.Activity == 0xFFFF {
			sd.Activity = studio.NoActivity
		}
		if !layout.keepLockMods {
			sd.NumIKLocks = 0
			sd.NumActivityModifiers = 0
		}

		base, err := c.out.WriteStruct(sd)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.LocalSeqIndex = int32(base)
		}
		seqBases[i] = base
		c.addName(base, *sd, "SzLabelIndex", label)
		c.addName(base, *sd, "SzActivityNameIndex", actName)
	}

	for i := 0; i < count; i++ {
		srcAddr := off + i*layout.stride
		ss := &srcSeqs[i]
		sd := &seqs[i]

		if err := layout.anims(srcAddr, ss, seqBases[i], sd, labels[i]); err != nil {
			return errors.Wrapf(err, "sequence %d animations", i)
		}
		if err := c.writeSequenceTails(srcAddr, ss, seqBases[i], sd, layout.keepLockMods); err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}
		if err := c.out.PatchStruct(seqBases[i], sd); err != nil {
			return err
		}
	}
	return nil
}

// writeSequenceTails emits the per-sequence payloads that follow the
// animation block.
func (c *converter) writeSequenceTails(srcAddr int, ss *studio.SeqDesc160, seqBase int, sd *studio.SeqDesc, keepLockMods bool) error {
	if ss.NumAutoLayers > 0 && studio.FixOffset(ss.AutoLayerIndex) > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.AutoLayerIndex = int32(c.out.Pos() - seqBase)
		srcLayers := srcAddr + studio.FixOffset(ss.AutoLayerIndex)
		size := binary.Size(studio.AutoLayer160{})
		for k := 0; k < int(ss.NumAutoLayers); k++ {
			var al studio.AutoLayer160
			if err := c.src.Struct(srcLayers+k*size, &al); err != nil {
				return errors.Wrapf(err, "autolayer %d", k)
			}
			out := studio.AutoLayer{
				ISequence: al.ISequence,
				IPose:     al.IPose,
				Flags:     al.Flags,
				Start:     al.Start,
				Peak:      al.Peak,
				Tail:      al.Tail,
				End:       al.End,
			}
			if _, err := c.out.WriteStruct(&out); err != nil {
				return err
			}
		}
	}

	if ss.NumEvents > 0 && studio.FixOffset(ss.EventIndex) > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.EventIndex = int32(c.out.Pos() - seqBase)
		srcEvents := srcAddr + studio.FixOffset(ss.EventIndex)
		size := binary.Size(studio.Event160{})
		for k := 0; k < int(ss.NumEvents); k++ {
			evAddr := srcEvents + k*size
			var ev studio.Event160
			if err := c.src.Struct(evAddr, &ev); err != nil {
				return errors.Wrapf(err, "event %d", k)
			}
			options, err := c.src.CString(evAddr + studio.FixOffset(ev.OptionsIndex))
			if err != nil {
				return errors.Wrapf(err, "event %d options", k)
			}
			name, err := c.src.CString(evAddr + studio.FixOffset(ev.SzEventIndex))
			if err != nil {
				return errors.Wrapf(err, "event %d name", k)
			}
			out := studio.Event{
				Cycle: ev.Cycle,
				Event: ev.Event,
				Type:  ev.Type,
			}
			copy(out.Options[:len(out.Options)-1], options)
			base, err := c.out.WriteStruct(&out)
			if err != nil {
				return err
			}
			c.addName(base, out, "SzEventIndex", name)
		}
	}

	if studio.FixOffset(ss.WeightListIndex) > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.WeightListIndex = int32(c.out.Pos() - seqBase)
		raw, err := c.src.Bytes(srcAddr+studio.FixOffset(ss.WeightListIndex), int(c.hdr.NumBones)*4)
		if err != nil {
			return errors.Wrap(err, "weight list")
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
	}

	if studio.FixOffset(ss.PoseKeyIndex) > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.PoseKeyIndex = int32(c.out.Pos() - seqBase)
		n := int(ss.GroupSize[0]) + int(ss.GroupSize[1])
		raw, err := c.src.Bytes(srcAddr+studio.FixOffset(ss.PoseKeyIndex), n*4)
		if err != nil {
			return errors.Wrap(err, "pose keys")
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
	}

	if keepLockMods {
		if ss.NumIKLocks > 0 && studio.FixOffset(ss.IKLockIndex) > 0 {
			if err := c.out.Align(4); err != nil {
				return err
			}
			sd.IKLockIndex = int32(c.out.Pos() - seqBase)
			srcLocks := srcAddr + studio.FixOffset(ss.IKLockIndex)
			size := binary.Size(studio.IKLock160{})
			for k := 0; k < int(ss.NumIKLocks); k++ {
				var lk studio.IKLock160
				if err := c.src.Struct(srcLocks+k*size, &lk); err != nil {
					return errors.Wrapf(err, "iklock %d", k)
				}
				out := studio.IKLock{
					Chain:          int32(lk.Chain),
					FlPosWeight:    lk.PosWeight,
					FlLocalQWeight: lk.LocalQWeight,
					Flags:          int32(lk.Flags),
				}
				if _, err := c.out.WriteStruct(&out); err != nil {
					return err
				}
			}
		}

		if ss.NumActivityModifiers > 0 && studio.FixOffset(ss.ActivityModifierIndex) > 0 {
			if err := c.out.Align(4); err != nil {
				return err
			}
			sd.ActivityModifierIndex = int32(c.out.Pos() - seqBase)
			srcMods := srcAddr + studio.FixOffset(ss.ActivityModifierIndex)
			size := binary.Size(studio.ActivityModifier160{})
			for k := 0; k < int(ss.NumActivityModifiers); k++ {
				modAddr := srcMods + k*size
				var am studio.ActivityModifier160
				if err := c.src.Struct(modAddr, &am); err != nil {
					return errors.Wrapf(err, "activity modifier %d", k)
				}
				name, err := c.src.CString(modAddr + studio.FixOffset(am.SzNameIndex))
				if err != nil {
					return errors.Wrapf(err, "activity modifier %d name", k)
				}
				out := studio.ActivityModifier{Negate: am.Negate}
				base, err := c.out.WriteStruct(&out)
				if err != nil {
					return err
				}
				c.addName(base, out, "SzNameIndex", name)
			}
		}
	}
	return c.out.Align(4)
}

// writeAnims160 converts the animation block of one v16-v19 sequence.
// Frame data is embedded run-length records; each per-bone run states
// its own size, which is validated before copying.
func (c *converter) writeAnims160(srcSeqAddr int, ss *studio.SeqDesc160, seqBase int, sd *studio.SeqDesc, label string) error {
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
			var sa studio.AnimDesc160
			if err := c.src.Struct(srcAnimAddr, &sa); err != nil {
				return errors.Wrapf(err, "anim %d", j)
			}
			if nameOff := studio.FixOffset(sa.SzNameIndex); nameOff > 0 {
				if name, err = c.src.CString(srcAnimAddr + nameOff); err != nil {
					return errors.Wrapf(err, "anim %d name", j)
				}
			}
			ad.FPS = sa.FPS
			ad.Flags = sa.Flags
			ad.NumFrames = sa.NumFrames

			if err := c.writeIKRules160(srcAnimAddr, &sa, animBase, &ad); err != nil {
				return errors.Wrapf(err, "anim %d", j)
			}
			if sa.AnimIndex > 0 {
				if err := c.copyFrameData160(srcAnimAddr+int(sa.AnimIndex), animBase, &ad); err != nil {
					return errors.Wrapf(err, "anim %d", j)
				}
			} else {
				if err := c.writeEmptyFrameData(animBase, &ad); err != nil {
					return err
				}
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

func (c *converter) writeIKRules160(srcAnimAddr int, sa *studio.AnimDesc160, animBase int, ad *studio.AnimDesc) error {
	ruleOff := studio.FixOffset(sa.IKRuleIndex)
	if sa.NumIKRules == 0 || ruleOff == 0 {
		return nil
	}
	ad.NumIKRules = int32(sa.NumIKRules)
	ad.IKRuleIndex = int32(c.out.Pos() - animBase)

	size := binary.Size(studio.IKRule160{})
	for k := 0; k < int(sa.NumIKRules); k++ {
		ruleAddr := srcAnimAddr + ruleOff + k*size
		var r studio.IKRule160
		if err := c.src.Struct(ruleAddr, &r); err != nil {
			return errors.Wrapf(err, "ikrule %d", k)
		}
		attachment, err := c.src.CString(ruleAddr + studio.FixOffset(r.SzAttachmentIndex))
		if err != nil {
			return errors.Wrapf(err, "ikrule %d attachment", k)
		}
		out := studio.IKRule{
			Type:   r.Type,
			Chain:  r.Chain,
			Bone:   r.Bone,
			Slot:   r.Slot,
			Height: r.Height,
			Radius: r.Radius,
			Floor:  r.Floor,
			Pos:    r.Pos,
			Q:      r.Q,

			CompressedIKError:      r.CompressedIKError,
			CompressedIKErrorIndex: int32(studio.FixOffset(r.CompressedIKErrorIndex)),
			IStart:                 r.IStart,
			IKErrorIndex:           int32(studio.FixOffset(r.IKErrorIndex)),

			Start: r.Start,
			Peak:  r.Peak,
			Tail:  r.Tail,
			End:   r.End,

			Contact: r.Contact,
			Drop:    r.Drop,
			Top:     r.Top,

			EndHeight: r.EndHeight,
		}
		base, err := c.out.WriteStruct(&out)
		if err != nil {
			return err
		}
		c.addName(base, out, "SzAttachmentIndex", attachment)
	}
	return nil
}

// copyFrameData160 relocates embedded run-length frame data. The flag
// array nibbles say which bones carry runs; a run whose stated size is
// implausible is dropped with a warning rather than poisoning the copy.
func (c *converter) copyFrameData160(srcData, animBase int, ad *studio.AnimDesc) error {
	if err := c.out.Align(4); err != nil {
		return err
	}
	ad.AnimIndex = int32(c.out.Pos() - animBase)

	boneCount := int(c.hdr.NumBones)
	flagSize := studio.AnimFlagSize(boneCount)
	flags, err := c.src.Bytes(srcData, flagSize)
	if err != nil {
		return errors.Wrap(err, "frame flags")
	}
	if _, err := c.out.WriteBytes(flags); err != nil {
		return err
	}

	pRead := srcData + flagSize
	for bone := 0; bone < boneCount; bone++ {
		nib := (flags[bone/2] >> (4 * (bone % 2))) & 0xF
		if nib&0x7 == 0 {
			continue
		}
		size, err := c.src.Uint16(pRead)
		if err != nil {
			return errors.Wrapf(err, "bone %d run", bone)
		}
		if size == 0 || size >= 4096 {
			c.warnf("anim", "bone %d frame run size %d out of range, run dropped", bone, size)
			continue
		}
		raw, err := c.src.Bytes(pRead, int(size))
		if err != nil {
			return errors.Wrapf(err, "bone %d run", bone)
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
		pRead += int(size)
	}
	return nil
}

// writeEmptyFrameData reserves a zeroed flag array for animations with
// no embedded frame payload.
func (c *converter) writeEmptyFrameData(animBase int, ad *studio.AnimDesc) error {
	if err := c.out.Align(4); err != nil {
		return err
	}
	ad.AnimIndex = int32(c.out.Pos() - animBase)
	_, err := c.out.Reserve(studio.AnimFlagSize(int(c.hdr.NumBones)))
	return err
}

func (c *converter) copySections160(srcAnimAddr int, sectionIndex uint16, sectionFrames, stallFrames, numFrames int32, animBase int, ad *studio.AnimDesc) error {
	secOff := studio.FixOffset(sectionIndex)
	if secOff == 0 || sectionFrames <= 0 {
		return nil
	}
	if err := c.out.Align(2); err != nil {
		return err
	}
	ad.SectionIndex = int32(c.out.Pos() - animBase)
	ad.SectionFrames = sectionFrames

	numSections := int((numFrames-stallFrames-1)/sectionFrames) + 2
	raw, err := c.src.Bytes(srcAnimAddr+secOff, numSections*4)
	if err != nil {
		return err
	}
	_, err = c.out.WriteBytes(raw)
	return err
}

func (c *converter) convertSequences160(count, off int) error {
	stride := studio.SeqDescStride16
	if c.sub >= 18 {
		stride = studio.SeqDescStride18
	}
	return c.writeSequences(count, off, sequenceLayout{
		stride:       stride,
		anims:        c.writeAnims160,
		keepLockMods: true,
	})
}
