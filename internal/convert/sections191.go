package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/studio"
)

// readBonePose191 samples the pose of bone i from the structure-of-
// arrays table, which in this generation is the only place transforms
// live. Without a usable table every bone gets an identity pose.
func (c *converter) readBonePose191(b *studio.Bone, linOff, i int, lb *studio.LinearBone191) error {
	if lb == nil {
		b.Quat = studio.IdentityQuat
		b.Scale = studio.Vector3{X: 1, Y: 1, Z: 1}
		b.PoseToBone = studio.IdentityMatrix3x4()
		b.QAlignment = studio.IdentityQuat
		return nil
	}
	if err := c.src.Struct(linOff+int(lb.PosIndex)+i*12, &b.Pos); err != nil {
		return err
	}
	if err := c.src.Struct(linOff+int(lb.QuatIndex)+i*16, &b.Quat); err != nil {
		return err
	}
	if err := c.src.Struct(linOff+int(lb.RotIndex)+i*12, &b.Rot); err != nil {
		return err
	}
	if err := c.src.Struct(linOff+int(lb.ScaleIndex)+i*12, &b.Scale); err != nil {
		return err
	}
	if err := c.src.Struct(linOff+int(lb.PoseToBoneIndex)+i*48, &b.PoseToBone); err != nil {
		return err
	}
	return c.src.Struct(linOff+int(lb.QAlignmentIndex)+i*16, &b.QAlignment)
}

// convertBones191 widens the v19.1 bone records, whose data half is
// stripped down to parentage and procedural info.
func (c *converter) convertBones191(count, hdrOff, dataOff, linOff int) error {
	c.hdr.NumBones = int32(count)
	if count == 0 {
		return nil
	}

	var lb *studio.LinearBone191
	if linOff > 0 {
		lb = new(studio.LinearBone191)
		if err := c.src.Struct(linOff, lb); err != nil {
			return errors.Wrap(err, "linear bone table")
		}
		if int(lb.NumBones) != count {
			lb = nil
		}
	}
	if lb == nil {
		c.warnf("bones", "no usable linear bone table, writing identity poses")
	}

	hdrSize := binary.Size(studio.BoneHdr160{})
	dataSize := binary.Size(studio.BoneData191{})

	recs := make([]boneRecord, count)
	for i := range recs {
		srcHdrAddr := hdrOff + i*hdrSize
		srcDataAddr := dataOff + i*dataSize

		var bh studio.BoneHdr160
		if err := c.src.Struct(srcHdrAddr, &bh); err != nil {
			return errors.Wrapf(err, "bone %d header", i)
		}
		var bd studio.BoneData191
		if err := c.src.Struct(srcDataAddr, &bd); err != nil {
			return errors.Wrapf(err, "bone %d data", i)
		}
		if err := c.fillBoneCommon(&recs[i], srcHdrAddr, &bh, bd.Parent, bd.Flags, bd.ProcType, bd.ProcIndex, bd.CollisionIndex, srcDataAddr, i); err != nil {
			return err
		}
		if err := c.readBonePose191(&recs[i].bone, linOff, i, lb); err != nil {
			return errors.Wrapf(err, "bone %d pose", i)
		}
	}
	return c.writeBoneRecords(recs)
}
