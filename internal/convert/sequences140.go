package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/studio"
)

// convertSequences140 relocates the local sequence array. Descriptors
// already match the target layout, so each one copies through verbatim
// and only the per-sequence payload indices get rebuilt. In this
// generation the blend count is the sum of the group sizes, not their
// product.
func (c *converter) convertSequences140(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumLocalSeq = int32(count)

	seqSize := binary.Size(studio.SeqDesc{})
	srcSeqs := make([]studio.SeqDesc, count)
	labels := make([]string, count)
	seqBases := make([]int, count)

	for i := 0; i < count; i++ {
		srcAddr := off + i*seqSize
		ss := &srcSeqs[i]
		if err := c.src.Struct(srcAddr, ss); err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}
		label, err := c.src.CString(srcAddr + int(ss.SzLabelIndex))
		if err != nil {
			return errors.Wrapf(err, "sequence %d label", i)
		}
		actName, err := c.src.CString(srcAddr + int(ss.SzActivityNameIndex))
		if err != nil {
			return errors.Wrapf(err, "sequence %d activity", i)
		}
		labels[i] = label

		sd := *ss
		sd.SzLabelIndex = 0
		sd.SzActivityNameIndex = 0
		base, err := c.out.WriteStruct(&sd)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.LocalSeqIndex = int32(base)
		}
		seqBases[i] = base
		c.addName(base, sd, "SzLabelIndex", label)
		c.addName(base, sd, "SzActivityNameIndex", actName)
	}

	for i := 0; i < count; i++ {
		srcAddr := off + i*seqSize
		ss := &srcSeqs[i]
		sd := *ss
		sd.SzLabelIndex = 0
		sd.SzActivityNameIndex = 0

		if err := c.writeAnims140(srcAddr, ss, seqBases[i], &sd, labels[i]); err != nil {
			return errors.Wrapf(err, "sequence %d animations", i)
		}
		if err := c.writeSequenceTails140(srcAddr, ss, seqBases[i], &sd); err != nil {
			return errors.Wrapf(err, "sequence %d", i)
		}
		if err := c.out.PatchStruct(seqBases[i], &sd); err != nil {
			return err
		}
	}
	return c.out.Align(4)
}

// writeAnims140 rebuilds the blend group index array and relocates
// every animation descriptor with its embedded frame data.
func (c *converter) writeAnims140(srcSeqAddr int, ss *studio.SeqDesc, seqBase int, sd *studio.SeqDesc, label string) error {
	numAnims := int(ss.GroupSize[0]) + int(ss.GroupSize[1])
	if numAnims == 0 || ss.AnimIndexIndex == 0 {
		sd.AnimIndexIndex = 0
		return nil
	}

	slotBase, err := c.out.Reserve(numAnims * 4)
	if err != nil {
		return err
	}
	sd.AnimIndexIndex = int32(slotBase - seqBase)

	animDescSize := binary.Size(studio.AnimDesc{})
	for j := 0; j < numAnims; j++ {
		srcGroup, err := c.src.Int32(srcSeqAddr + int(ss.AnimIndexIndex) + j*4)
		if err != nil {
			return errors.Wrapf(err, "anim index %d", j)
		}
		srcAnimAddr := srcSeqAddr + int(srcGroup)

		var sa studio.AnimDesc
		if err := c.src.Struct(srcAnimAddr, &sa); err != nil {
			return errors.Wrapf(err, "anim %d", j)
		}
		name := label
		if sa.SzNameIndex > 0 {
			if name, err = c.src.CString(srcAnimAddr + int(sa.SzNameIndex)); err != nil {
				return errors.Wrapf(err, "anim %d name", j)
			}
		}

		animBase, err := c.out.Reserve(animDescSize)
		if err != nil {
			return err
		}
		if err := c.out.PatchInt32(slotBase+j*4, int32(animBase-seqBase)); err != nil {
			return err
		}

		ad := studio.AnimDesc{
			BasePtr:   sa.BasePtr,
			FPS:       sa.FPS,
			Flags:     sa.Flags,
			NumFrames: sa.NumFrames,
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
		if err := c.out.PatchStruct(animBase, &ad); err != nil {
			return err
		}
		c.addName(animBase, ad, "SzNameIndex", name)
	}
	return nil
}

// writeSequenceTails140 relocates the payloads the verbatim descriptor
// copy still points at in the source file.
func (c *converter) writeSequenceTails140(srcAddr int, ss *studio.SeqDesc, seqBase int, sd *studio.SeqDesc) error {
	if ss.NumAutoLayers > 0 && ss.AutoLayerIndex > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.AutoLayerIndex = int32(c.out.Pos() - seqBase)
		size := binary.Size(studio.AutoLayer{})
		raw, err := c.src.Bytes(srcAddr+int(ss.AutoLayerIndex), int(ss.NumAutoLayers)*size)
		if err != nil {
			return errors.Wrap(err, "autolayers")
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
	} else {
		sd.AutoLayerIndex = 0
	}

	if ss.NumEvents > 0 && ss.EventIndex > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.EventIndex = int32(c.out.Pos() - seqBase)
		size := binary.Size(studio.Event{})
		for k := 0; k < int(ss.NumEvents); k++ {
			evAddr := srcAddr + int(ss.EventIndex) + k*size
			var ev studio.Event
			if err := c.src.Struct(evAddr, &ev); err != nil {
				return errors.Wrapf(err, "event %d", k)
			}
			name, err := c.src.CString(evAddr + int(ev.SzEventIndex))
			if err != nil {
				return errors.Wrapf(err, "event %d name", k)
			}
			ev.SzEventIndex = 0
			base, err := c.out.WriteStruct(&ev)
			if err != nil {
				return err
			}
			c.addName(base, ev, "SzEventIndex", name)
		}
	} else {
		sd.EventIndex = 0
	}

	if ss.WeightListIndex > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.WeightListIndex = int32(c.out.Pos() - seqBase)
		raw, err := c.src.Bytes(srcAddr+int(ss.WeightListIndex), int(c.hdr.NumBones)*4)
		if err != nil {
			return errors.Wrap(err, "weight list")
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
	}

	if ss.PoseKeyIndex > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.PoseKeyIndex = int32(c.out.Pos() - seqBase)
		n := int(ss.GroupSize[0]) + int(ss.GroupSize[1])
		raw, err := c.src.Bytes(srcAddr+int(ss.PoseKeyIndex), n*4)
		if err != nil {
			return errors.Wrap(err, "pose keys")
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
	}

	if ss.NumIKLocks > 0 && ss.IKLockIndex > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.IKLockIndex = int32(c.out.Pos() - seqBase)
		size := binary.Size(studio.IKLock{})
		raw, err := c.src.Bytes(srcAddr+int(ss.IKLockIndex), int(ss.NumIKLocks)*size)
		if err != nil {
			return errors.Wrap(err, "iklocks")
		}
		if _, err := c.out.WriteBytes(raw); err != nil {
			return err
		}
	} else {
		sd.IKLockIndex = 0
	}

	if ss.NumActivityModifiers > 0 && ss.ActivityModifierIndex > 0 {
		if err := c.out.Align(4); err != nil {
			return err
		}
		sd.ActivityModifierIndex = int32(c.out.Pos() - seqBase)
		size := binary.Size(studio.ActivityModifier{})
		for k := 0; k < int(ss.NumActivityModifiers); k++ {
			modAddr := srcAddr + int(ss.ActivityModifierIndex) + k*size
			var am studio.ActivityModifier
			if err := c.src.Struct(modAddr, &am); err != nil {
				return errors.Wrapf(err, "activity modifier %d", k)
			}
			name, err := c.src.CString(modAddr + int(am.SzNameIndex))
			if err != nil {
				return errors.Wrapf(err, "activity modifier %d name", k)
			}
			am.SzNameIndex = 0
			base, err := c.out.WriteStruct(&am)
			if err != nil {
				return err
			}
			c.addName(base, am, "SzNameIndex", name)
		}
	} else {
		sd.ActivityModifierIndex = 0
	}

	// Sequence keyvalues are not carried; the model-level block
	// covers prop data.
	sd.KeyValueIndex = 0
	sd.KeyValueSize = 0

	return c.out.Align(4)
}
