package convert

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"rmdlconv/internal/studio"
)

// linearArray copies one structure-of-arrays block and returns its
// offset relative to lbBase. Each block starts 4-aligned.
func (c *converter) linearArray(lbBase, srcOff, byteLen int) (int32, error) {
	if err := c.out.Align(4); err != nil {
		return 0, err
	}
	raw, err := c.src.Bytes(srcOff, byteLen)
	if err != nil {
		return 0, err
	}
	pos, err := c.out.WriteBytes(raw)
	if err != nil {
		return 0, err
	}
	return int32(pos - lbBase), nil
}

// convertLinearBones160 rebuilds the flat bone table. Per-bone flags go
// through the same translation as the bone records; the delta-rig
// identity quaternion is restored on the root bone.
func (c *converter) convertLinearBones160(off int) error {
	n := int(c.hdr.NumBones)
	if off == 0 || n <= 1 {
		return nil
	}
	var lb studio.LinearBone160
	if err := c.src.Struct(off, &lb); err != nil {
		return errors.Wrap(err, "linear bone table")
	}
	return c.writeLinearBones(off, linearSource{
		numBones:        int(lb.NumBones),
		flagsIndex:      int(lb.FlagsIndex),
		parentIndex:     int(lb.ParentIndex),
		posIndex:        int(lb.PosIndex),
		quatIndex:       int(lb.QuatIndex),
		rotIndex:        int(lb.RotIndex),
		poseToBoneIndex: int(lb.PoseToBoneIndex),
		translateFlags:  true,
	})
}

// convertLinearBones191 copies the wider v19.1 table; the scale and
// alignment arrays it carries have no slot in the target layout and are
// dropped. Flags pass through untranslated, matching what this
// generation's tools already emit.
func (c *converter) convertLinearBones191(off int) error {
	n := int(c.hdr.NumBones)
	if off == 0 || n <= 1 {
		return nil
	}
	var lb studio.LinearBone191
	if err := c.src.Struct(off, &lb); err != nil {
		return errors.Wrap(err, "linear bone table")
	}
	return c.writeLinearBones(off, linearSource{
		numBones:        int(lb.NumBones),
		flagsIndex:      int(lb.FlagsIndex),
		parentIndex:     int(lb.ParentIndex),
		posIndex:        int(lb.PosIndex),
		quatIndex:       int(lb.QuatIndex),
		rotIndex:        int(lb.RotIndex),
		poseToBoneIndex: int(lb.PoseToBoneIndex),
	})
}

type linearSource struct {
	numBones int

	flagsIndex      int
	parentIndex     int
	posIndex        int
	quatIndex       int
	rotIndex        int
	poseToBoneIndex int

	translateFlags bool
}

func (c *converter) writeLinearBones(off int, src linearSource) error {
	n := src.numBones
	if n != int(c.hdr.NumBones) {
		c.warnf("linearbone", "table counts %d bones, model has %d; section skipped", n, c.hdr.NumBones)
		return nil
	}

	lbBase, err := c.out.Reserve(binary.Size(studio.LinearBone{}))
	if err != nil {
		return err
	}
	out := studio.LinearBone{NumBones: int32(n)}

	if src.translateFlags {
		if err := c.out.Align(4); err != nil {
			return err
		}
		flagsPos := c.out.Pos()
		for i := 0; i < n; i++ {
			f, err := c.src.Int32(off + src.flagsIndex + i*4)
			if err != nil {
				return errors.Wrap(err, "linear bone flags")
			}
			if _, err := c.out.WriteStruct(f &^ studio.BoneUsedByBoneMerge); err != nil {
				return err
			}
		}
		out.FlagsIndex = int32(flagsPos - lbBase)
	} else {
		if out.FlagsIndex, err = c.linearArray(lbBase, off+src.flagsIndex, n*4); err != nil {
			return errors.Wrap(err, "linear bone flags")
		}
	}

	if out.ParentIndex, err = c.linearArray(lbBase, off+src.parentIndex, n*4); err != nil {
		return errors.Wrap(err, "linear bone parents")
	}
	if out.PosIndex, err = c.linearArray(lbBase, off+src.posIndex, n*12); err != nil {
		return errors.Wrap(err, "linear bone positions")
	}

	quatPos, err := c.linearArray(lbBase, off+src.quatIndex, n*16)
	if err != nil {
		return errors.Wrap(err, "linear bone quats")
	}
	out.QuatIndex = quatPos
	// Delta rigs store a zeroed root quaternion that the target
	// runtime rejects.
	if len(c.boneNames) > 0 && strings.Contains(c.boneNames[0], "delta") {
		if err := c.out.PatchStruct(lbBase+int(quatPos), &studio.DeltaQuat); err != nil {
			return err
		}
	}

	if out.RotIndex, err = c.linearArray(lbBase, off+src.rotIndex, n*12); err != nil {
		return errors.Wrap(err, "linear bone rotations")
	}
	if out.PoseToBoneIndex, err = c.linearArray(lbBase, off+src.poseToBoneIndex, n*48); err != nil {
		return errors.Wrap(err, "linear bone pose matrices")
	}

	c.hdr.LinearBoneIndex = int32(lbBase)
	if err := c.out.PatchStruct(lbBase, &out); err != nil {
		return err
	}
	return c.out.Align(4)
}
