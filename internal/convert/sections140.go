package convert

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

// The subversion 14/15 schemas keep the target record layouts for most
// sections; these transcoders mostly relocate records and re-intern
// their strings instead of widening fields.

// copySourceFilename carries over the source filename block that sits
// between the header and the bone array.
func (c *converter) copySourceFilename(src *studio.StudioHdr140) error {
	if src.SourceFilenameOffset == 0 || src.BoneIndex <= src.SourceFilenameOffset {
		return nil
	}
	size := int(src.BoneIndex - src.SourceFilenameOffset)
	raw, err := c.src.Bytes(int(src.SourceFilenameOffset), size)
	if err != nil {
		return errors.Wrap(err, "source filename block")
	}
	pos, err := c.out.WriteBytes(raw)
	if err != nil {
		return err
	}
	c.hdr.SourceFilenameOffset = int32(pos)
	return nil
}

// convertBones140 relocates the full-width bone records. Only the
// string slots and procedural bone wiring need attention; transforms
// copy through.
func (c *converter) convertBones140(count, off int) error {
	c.hdr.NumBones = int32(count)
	if count == 0 || off == 0 {
		return nil
	}

	size := binary.Size(studio.Bone{})
	recs := make([]boneRecord, count)
	for i := range recs {
		srcAddr := off + i*size
		b := &recs[i].bone
		if err := c.src.Struct(srcAddr, b); err != nil {
			return errors.Wrapf(err, "bone %d", i)
		}
		name, err := c.src.CString(srcAddr + int(b.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "bone %d name", i)
		}
		surfaceProp, err := c.src.CString(srcAddr + int(b.SurfacePropIdx))
		if err != nil {
			return errors.Wrapf(err, "bone %d surfaceprop", i)
		}
		recs[i].name = name
		recs[i].surfaceProp = surfaceProp

		b.Flags &^= studio.BoneUsedByBoneMerge
		for k := range b.BoneController {
			b.BoneController[k] = -1
		}
		switch {
		case b.ProcType == studio.ProcJiggle:
			recs[i].jiggleSrc = srcAddr + int(b.ProcIndex)
		case b.ProcType > 0:
			b.ProcType = 0
			b.ProcIndex = 0
		}
	}
	return c.writeBoneRecords(recs)
}

func (c *converter) convertAttachments140(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumLocalAttachments = int32(count)
	size := binary.Size(studio.Attachment{})
	for i := 0; i < count; i++ {
		srcAddr := off + i*size
		var a studio.Attachment
		if err := c.src.Struct(srcAddr, &a); err != nil {
			return errors.Wrapf(err, "attachment %d", i)
		}
		name, err := c.src.CString(srcAddr + int(a.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "attachment %d name", i)
		}
		base, err := c.out.WriteStruct(&a)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.LocalAttachmentIndex = int32(base)
		}
		c.addName(base, a, "SzNameIndex", name)
	}
	return c.out.Align(4)
}

func (c *converter) convertHitboxes140(numSets, off int) error {
	if numSets == 0 || off == 0 {
		return nil
	}
	c.hdr.NumHitboxSets = int32(numSets)

	setSize := binary.Size(studio.HitboxSet{})
	hbSize := binary.Size(studio.Hitbox{})

	srcSets := make([]studio.HitboxSet, numSets)
	setBases := make([]int, numSets)
	for i := 0; i < numSets; i++ {
		srcAddr := off + i*setSize
		if err := c.src.Struct(srcAddr, &srcSets[i]); err != nil {
			return errors.Wrapf(err, "hitbox set %d", i)
		}
		name, err := c.src.CString(srcAddr + int(srcSets[i].SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "hitbox set %d name", i)
		}
		set := studio.HitboxSet{NumHitboxes: srcSets[i].NumHitboxes}
		base, err := c.out.WriteStruct(&set)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.HitboxSetIndex = int32(base)
		}
		setBases[i] = base
		c.addName(base, set, "SzNameIndex", name)
	}

	for i := 0; i < numSets; i++ {
		slot := setBases[i] + arena.FieldOffset(studio.HitboxSet{}, "HitboxIndex")
		if err := c.out.PatchInt32(slot, int32(c.out.Pos()-setBases[i])); err != nil {
			return err
		}
		srcHitboxes := off + i*setSize + int(srcSets[i].HitboxIndex)
		for h := 0; h < int(srcSets[i].NumHitboxes); h++ {
			srcAddr := srcHitboxes + h*hbSize
			var hb studio.Hitbox
			if err := c.src.Struct(srcAddr, &hb); err != nil {
				return errors.Wrapf(err, "hitbox %d/%d", i, h)
			}
			name, err := c.src.CString(srcAddr + int(hb.SzHitboxNameIndex))
			if err != nil {
				return errors.Wrapf(err, "hitbox %d/%d name", i, h)
			}
			hitDataGroup, err := c.src.CString(srcAddr + int(hb.HitDataGroupOffset))
			if err != nil {
				return errors.Wrapf(err, "hitbox %d/%d hit data group", i, h)
			}
			hb.SzHitboxNameIndex = 0
			hb.HitDataGroupOffset = 0
			base, err := c.out.WriteStruct(&hb)
			if err != nil {
				return err
			}
			c.addName(base, hb, "SzHitboxNameIndex", name)
			c.addName(base, hb, "HitDataGroupOffset", hitDataGroup)
		}
	}
	return c.out.Align(4)
}

func (c *converter) convertPoseParams140(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumLocalPoseParameters = int32(count)
	size := binary.Size(studio.PoseParamDesc{})
	for i := 0; i < count; i++ {
		srcAddr := off + i*size
		var p studio.PoseParamDesc
		if err := c.src.Struct(srcAddr, &p); err != nil {
			return errors.Wrapf(err, "poseparam %d", i)
		}
		name, err := c.src.CString(srcAddr + int(p.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "poseparam %d name", i)
		}
		base, err := c.out.WriteStruct(&p)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.LocalPoseParamIndex = int32(base)
		}
		c.addName(base, p, "SzNameIndex", name)
	}
	return nil
}

func (c *converter) convertIKChains140(count, off int) error {
	c.hdr.NumIKChains = int32(count)
	c.hdr.IKChainIndex = int32(c.out.Pos())
	if count == 0 || off == 0 {
		return nil
	}

	chainSize := binary.Size(studio.IKChain{})
	linkSize := binary.Size(studio.IKLink{})

	srcChains := make([]studio.IKChain, count)
	linksSoFar := 0
	for i := 0; i < count; i++ {
		srcAddr := off + i*chainSize
		if err := c.src.Struct(srcAddr, &srcChains[i]); err != nil {
			return errors.Wrapf(err, "ikchain %d", i)
		}
		name, err := c.src.CString(srcAddr + int(srcChains[i].SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "ikchain %d name", i)
		}
		chain := srcChains[i]
		chain.SzNameIndex = 0
		chain.LinkIndex = int32(linkSize*linksSoFar + chainSize*(count-i))
		linksSoFar += int(chain.NumLinks)

		base, err := c.out.WriteStruct(&chain)
		if err != nil {
			return err
		}
		c.addName(base, chain, "SzNameIndex", name)
	}

	for i := 0; i < count; i++ {
		srcLinks := off + i*chainSize + int(srcChains[i].LinkIndex)
		for k := 0; k < int(srcChains[i].NumLinks); k++ {
			var link studio.IKLink
			if err := c.src.Struct(srcLinks+k*linkSize, &link); err != nil {
				return errors.Wrapf(err, "ikchain %d link %d", i, k)
			}
			if _, err := c.out.WriteStruct(&link); err != nil {
				return err
			}
		}
	}
	return c.out.Align(4)
}

// convertTextures140 relocates the name-based material records this
// generation still carries, plus the shader type bytes and the
// cdtexture directory.
func (c *converter) convertTextures140(numTextures, texOff, numCD, cdOff, matTypesOff int) error {
	c.hdr.NumTextures = int32(numTextures)
	size := binary.Size(studio.Texture{})
	for i := 0; i < numTextures; i++ {
		srcAddr := texOff + i*size
		var t studio.Texture
		if err := c.src.Struct(srcAddr, &t); err != nil {
			return errors.Wrapf(err, "texture %d", i)
		}
		name, err := c.src.CString(srcAddr + int(t.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "texture %d name", i)
		}
		t.SzNameIndex = 0
		base, err := c.out.WriteStruct(&t)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.TextureIndex = int32(base)
		}
		c.addName(base, t, "SzNameIndex", name)
	}

	if matTypesOff > 0 && numTextures > 0 {
		raw, err := c.src.Bytes(matTypesOff, numTextures)
		if err != nil {
			return errors.Wrap(err, "material types")
		}
		pos, err := c.out.WriteBytes(raw)
		if err != nil {
			return err
		}
		c.hdr.MaterialTypesIndex = int32(pos)
		if err := c.out.Align(4); err != nil {
			return err
		}
	}

	// The cdtexture directory entries hold file-absolute string
	// offsets.
	c.hdr.CDTextureIndex = int32(c.out.Pos())
	for i := 0; i < numCD; i++ {
		dirOff, err := c.src.Int32(cdOff + i*4)
		if err != nil {
			return errors.Wrapf(err, "cdtexture %d", i)
		}
		name, err := c.src.CString(int(dirOff))
		if err != nil {
			return errors.Wrapf(err, "cdtexture %d name", i)
		}
		slot, err := c.out.Reserve(4)
		if err != nil {
			return err
		}
		c.names.Add(0, slot, name)
	}
	return nil
}

func (c *converter) convertSrcBoneTransforms(count, off int) error {
	c.hdr.SrcBoneTransformIndex = int32(c.out.Pos())
	if count == 0 || off == 0 {
		return nil
	}
	size := binary.Size(studio.SrcBoneTransform{})
	for i := 0; i < count; i++ {
		srcAddr := off + i*size
		var t studio.SrcBoneTransform
		if err := c.src.Struct(srcAddr, &t); err != nil {
			return errors.Wrapf(err, "srcbonetransform %d", i)
		}
		name, err := c.src.CString(srcAddr + int(t.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "srcbonetransform %d name", i)
		}
		t.SzNameIndex = 0
		base, err := c.out.WriteStruct(&t)
		if err != nil {
			return err
		}
		c.addName(base, t, "SzNameIndex", name)
	}
	return c.out.Align(4)
}

// convertLinearBones140 carries over the already target-shaped flat
// bone table.
func (c *converter) convertLinearBones140(off int) error {
	if off == 0 || int(c.hdr.NumBones) <= 1 {
		return nil
	}
	var lb studio.LinearBone
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

// convertBodyParts140 relocates the bodypart/model/mesh triplet. The
// model record splits its mesh count three ways and grows a third UV
// channel; the mesh narrows its material reference. Subversion 15 only
// widens the bodypart record itself.
func (c *converter) convertBodyParts140(count, off int, is150 bool) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumBodyParts = int32(count)

	srcBpSize := binary.Size(studio.Bodypart{})
	if is150 {
		srcBpSize = binary.Size(studio.Bodypart150{})
	}
	srcModelSize := binary.Size(studio.Model140{})
	srcMeshSize := binary.Size(studio.Mesh140{})

	srcBps := make([]studio.Bodypart, count)
	bpBases := make([]int, count)
	for i := 0; i < count; i++ {
		srcAddr := off + i*srcBpSize
		// The common fields lead both record widths.
		if err := c.src.Struct(srcAddr, &srcBps[i]); err != nil {
			return errors.Wrapf(err, "bodypart %d", i)
		}
		name, err := c.src.CString(srcAddr + int(srcBps[i].SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "bodypart %d name", i)
		}
		bp := studio.Bodypart{
			NumModels: srcBps[i].NumModels,
			Base:      srcBps[i].Base,
		}
		base, err := c.out.WriteStruct(&bp)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.BodyPartIndex = int32(base)
		}
		bpBases[i] = base
		c.addName(base, bp, "SzNameIndex", name)
	}

	for i := 0; i < count; i++ {
		slot := bpBases[i] + arena.FieldOffset(studio.Bodypart{}, "ModelIndex")
		if err := c.out.PatchInt32(slot, int32(c.out.Pos()-bpBases[i])); err != nil {
			return err
		}

		srcBpAddr := off + i*srcBpSize
		numModels := int(srcBps[i].NumModels)
		srcModels := make([]studio.Model140, numModels)
		srcModelAddrs := make([]int, numModels)
		modelBases := make([]int, numModels)

		for m := 0; m < numModels; m++ {
			srcAddr := srcBpAddr + int(srcBps[i].ModelIndex) + m*srcModelSize
			srcModelAddrs[m] = srcAddr
			if err := c.src.Struct(srcAddr, &srcModels[m]); err != nil {
				return errors.Wrapf(err, "bodypart %d model %d", i, m)
			}
			sm := &srcModels[m]
			model := studio.Model{
				Name:           sm.Name,
				Type:           sm.Type,
				BoundingRadius: sm.BoundingRadius,
				NumMeshes:      sm.NumMeshes,
				NumVertices:    sm.NumVertices,
				VertexIndex:    sm.VertexIndex,
				TangentsIndex:  sm.TangentsIndex,
				NumAttachments:  sm.NumAttachments,
				AttachmentIndex: sm.AttachmentIndex,
				ColorIndex:     sm.ColorIndex,
				UV2Index:       sm.UV2Index,
			}
			base, err := c.out.WriteStruct(&model)
			if err != nil {
				return err
			}
			modelBases[m] = base
		}

		for m := 0; m < numModels; m++ {
			slot := modelBases[m] + arena.FieldOffset(studio.Model{}, "MeshIndex")
			if err := c.out.PatchInt32(slot, int32(c.out.Pos()-modelBases[m])); err != nil {
				return err
			}
			srcMeshAddr := srcModelAddrs[m] + int(srcModels[m].MeshIndex)
			for k := 0; k < int(srcModels[m].NumMeshes); k++ {
				var sm studio.Mesh140
				if err := c.src.Struct(srcMeshAddr+k*srcMeshSize, &sm); err != nil {
					return errors.Wrapf(err, "bodypart %d model %d mesh %d", i, m, k)
				}
				meshBase := c.out.Pos()
				mesh := studio.Mesh{
					Material:      int32(sm.Material),
					ModelIndex:    int32(modelBases[m] - meshBase),
					NumVertices:   sm.NumVertices,
					VertexOffset:  sm.VertexOffset,
					MeshID:        sm.MeshID,
					Center:        sm.Center,
					VertexLodData: sm.VertexLodData,
				}
				if _, err := c.out.WriteStruct(&mesh); err != nil {
					return err
				}
			}
		}
	}
	return c.out.Align(4)
}
