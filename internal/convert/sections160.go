package convert

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

// boneRecord is one widened bone plus the source address of its jiggle
// payload, zero when the bone carries none.
type boneRecord struct {
	bone        studio.Bone
	name        string
	surfaceProp string
	jiggleSrc   int
}

// readBonePose160 samples the pose of bone i. The linear bone table is
// preferred when it agrees with the bone count; scale and alignment
// only exist inline in this generation.
func (c *converter) readBonePose160(b *studio.Bone, bd *studio.BoneData160, linOff, i int, lb *studio.LinearBone160) error {
	b.Scale = bd.Scale
	b.QAlignment = bd.QAlignment
	if lb == nil {
		b.Pos = bd.Pos
		b.Quat = bd.Quat
		b.Rot = bd.Rot
		b.PoseToBone = bd.PoseToBone
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
	return c.src.Struct(linOff+int(lb.PoseToBoneIndex)+i*48, &b.PoseToBone)
}

// convertBones160 widens the split name/data bone records of the v16+
// schemas.
func (c *converter) convertBones160(count, hdrOff, dataOff, linOff int) error {
	c.hdr.NumBones = int32(count)
	if count == 0 {
		return nil
	}

	var lb *studio.LinearBone160
	if linOff > 0 {
		lb = new(studio.LinearBone160)
		if err := c.src.Struct(linOff, lb); err != nil {
			return errors.Wrap(err, "linear bone table")
		}
		if int(lb.NumBones) != count {
			lb = nil
		}
	}

	hdrSize := binary.Size(studio.BoneHdr160{})
	dataSize := binary.Size(studio.BoneData160{})

	recs := make([]boneRecord, count)
	for i := range recs {
		srcHdrAddr := hdrOff + i*hdrSize
		srcDataAddr := dataOff + i*dataSize

		var bh studio.BoneHdr160
		if err := c.src.Struct(srcHdrAddr, &bh); err != nil {
			return errors.Wrapf(err, "bone %d header", i)
		}
		var bd studio.BoneData160
		if err := c.src.Struct(srcDataAddr, &bd); err != nil {
			return errors.Wrapf(err, "bone %d data", i)
		}
		if err := c.fillBoneCommon(&recs[i], srcHdrAddr, &bh, bd.Parent, bd.Flags, bd.ProcType, bd.ProcIndex, bd.CollisionIndex, srcDataAddr, i); err != nil {
			return err
		}
		if err := c.readBonePose160(&recs[i].bone, &bd, linOff, i, lb); err != nil {
			return errors.Wrapf(err, "bone %d pose", i)
		}
	}
	return c.writeBoneRecords(recs)
}

// fillBoneCommon widens the fields shared by the v16 and v19.1 bone
// records.
func (c *converter) fillBoneCommon(rec *boneRecord, srcHdrAddr int, bh *studio.BoneHdr160, parent, flags int32, procType uint8, procIndex uint16, collisionIndex uint8, srcDataAddr, i int) error {
	name, err := c.src.CString(srcHdrAddr + studio.FixOffset(bh.SzNameIndex))
	if err != nil {
		return errors.Wrapf(err, "bone %d name", i)
	}
	surfaceProp, err := c.src.CString(srcHdrAddr + studio.FixOffset(bh.SurfacePropIdx))
	if err != nil {
		return errors.Wrapf(err, "bone %d surfaceprop", i)
	}
	rec.name = name
	rec.surfaceProp = surfaceProp

	b := &rec.bone
	b.Parent = parent
	b.Flags = flags &^ studio.BoneUsedByBoneMerge
	b.ProcType = int32(procType)
	b.ProcIndex = int32(procIndex)
	b.PhysicsBone = int32(bh.PhysicsBone)
	b.Contents = bh.Contents
	b.SurfacePropLookup = int32(bh.SurfacePropLookup)
	b.CollisionIndex = int32(collisionIndex)
	if collisionIndex == 0xFF {
		b.CollisionIndex = -1
	}
	for k := range b.BoneController {
		b.BoneController[k] = -1
	}

	switch {
	case procType == studio.ProcJiggle:
		rec.jiggleSrc = srcDataAddr + studio.FixOffset(procIndex)
	case procType > 0:
		// Interp, aim and twist bones have no target equivalent.
		b.ProcType = 0
		b.ProcIndex = 0
	}
	return nil
}

// writeBoneRecords emits the bone array, jiggle payloads and the
// procedural bone lookup tables.
func (c *converter) writeBoneRecords(recs []boneRecord) error {
	count := len(recs)
	bases := make([]int, count)
	c.boneNames = make([]string, count)

	for i := range recs {
		base, err := c.out.WriteStruct(&recs[i].bone)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.BoneIndex = int32(base)
		}
		bases[i] = base
		c.boneNames[i] = recs[i].name
		c.addName(base, recs[i].bone, "SzNameIndex", recs[i].name)
		c.addName(base, recs[i].bone, "SurfacePropIdx", recs[i].surfaceProp)
	}
	if err := c.out.Align(4); err != nil {
		return err
	}

	// Jiggle payloads copy through byte for byte; the lookup tables
	// are keyed by the bone id stored inside each payload.
	jiggleSize := binary.Size(studio.JiggleBone{})
	order := make(map[uint8]uint8)
	for i := range recs {
		if recs[i].jiggleSrc == 0 {
			continue
		}
		raw, err := c.src.Bytes(recs[i].jiggleSrc, jiggleSize)
		if err != nil {
			return errors.Wrapf(err, "jiggle bone %d", i)
		}
		pos, err := c.out.WriteBytes(raw)
		if err != nil {
			return err
		}
		slot := bases[i] + arena.FieldOffset(studio.Bone{}, "ProcIndex")
		if err := c.out.PatchInt32(slot, int32(pos-bases[i])); err != nil {
			return err
		}
		boneID := raw[4]
		if _, ok := order[boneID]; !ok {
			order[boneID] = uint8(len(order))
		}
	}
	if err := c.out.Align(4); err != nil {
		return err
	}
	if len(order) == 0 {
		return nil
	}

	ids := make([]uint8, 0, len(order))
	for id := range order {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	c.hdr.ProcBoneCount = int32(len(order))
	c.hdr.ProcBoneTableOffset = int32(c.out.Pos())
	if _, err := c.out.WriteBytes(ids); err != nil {
		return err
	}

	c.hdr.LinearProcBoneOffset = int32(c.out.Pos())
	linear := make([]byte, count)
	for i := range linear {
		if k, ok := order[uint8(i)]; ok {
			linear[i] = k
		} else {
			linear[i] = 0xFF
		}
	}
	if _, err := c.out.WriteBytes(linear); err != nil {
		return err
	}
	return c.out.Align(4)
}

// convertHitboxes160 writes all set headers first, then each set's
// hitboxes, with the data index patched relative to the owning set.
func (c *converter) convertHitboxes160(numSets, off int) error {
	if numSets == 0 || off == 0 {
		return nil
	}
	c.hdr.NumHitboxSets = int32(numSets)

	setSize := binary.Size(studio.HitboxSet160{})
	hbSize := binary.Size(studio.Hitbox160{})

	srcSets := make([]studio.HitboxSet160, numSets)
	setBases := make([]int, numSets)

	for i := 0; i < numSets; i++ {
		srcAddr := off + i*setSize
		if err := c.src.Struct(srcAddr, &srcSets[i]); err != nil {
			return errors.Wrapf(err, "hitbox set %d", i)
		}
		name, err := c.src.CString(srcAddr + studio.FixOffset(srcSets[i].SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "hitbox set %d name", i)
		}
		hs := studio.HitboxSet{NumHitboxes: int32(srcSets[i].NumHitboxes)}
		base, err := c.out.WriteStruct(&hs)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.HitboxSetIndex = int32(base)
		}
		setBases[i] = base
		c.addName(base, hs, "SzNameIndex", name)
	}

	for i := 0; i < numSets; i++ {
		dataPos := c.out.Pos()
		slot := setBases[i] + arena.FieldOffset(studio.HitboxSet{}, "HitboxIndex")
		if err := c.out.PatchInt32(slot, int32(dataPos-setBases[i])); err != nil {
			return err
		}
		srcSetAddr := off + i*setSize
		srcDataAddr := srcSetAddr + studio.FixOffset(srcSets[i].HitboxIndex)
		for h := 0; h < int(srcSets[i].NumHitboxes); h++ {
			srcAddr := srcDataAddr + h*hbSize
			var hb studio.Hitbox160
			if err := c.src.Struct(srcAddr, &hb); err != nil {
				return errors.Wrapf(err, "hitbox %d/%d", i, h)
			}
			name, err := c.src.CString(srcAddr + studio.FixOffset(hb.SzHitboxNameIndex))
			if err != nil {
				return errors.Wrapf(err, "hitbox %d/%d name", i, h)
			}
			hitDataGroup, err := c.src.CString(srcAddr + studio.FixOffset(hb.HitDataGroupOffset))
			if err != nil {
				return errors.Wrapf(err, "hitbox %d/%d hit data group", i, h)
			}
			out := studio.Hitbox{
				Bone:  int32(hb.Bone),
				Group: int32(hb.Group),
				BBMin: hb.BBMin,
				BBMax: hb.BBMax,
			}
			base, err := c.out.WriteStruct(&out)
			if err != nil {
				return err
			}
			c.addName(base, out, "SzHitboxNameIndex", name)
			c.addName(base, out, "HitDataGroupOffset", hitDataGroup)
		}
	}
	return c.out.Align(4)
}

func (c *converter) convertAttachments160(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumLocalAttachments = int32(count)
	size := binary.Size(studio.Attachment160{})
	for i := 0; i < count; i++ {
		srcAddr := off + i*size
		var a studio.Attachment160
		if err := c.src.Struct(srcAddr, &a); err != nil {
			return errors.Wrapf(err, "attachment %d", i)
		}
		name, err := c.src.CString(srcAddr + studio.FixOffset(a.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "attachment %d name", i)
		}
		out := studio.Attachment{
			Flags:       a.Flags,
			LocalBone:   int32(a.LocalBone),
			LocalMatrix: a.Local,
		}
		base, err := c.out.WriteStruct(&out)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.LocalAttachmentIndex = int32(base)
		}
		c.addName(base, out, "SzNameIndex", name)
	}
	return c.out.Align(4)
}

// convertTextures16 rebuilds material records from the bare GUID array
// the v16+ schemas store. Real material names are gone, so every slot
// points at the shared placeholder and keeps its GUID binding.
func (c *converter) convertTextures16(count, off int) error {
	c.hdr.NumTextures = int32(count)
	for i := 0; i < count; i++ {
		guid, err := c.src.Uint64(off + i*8)
		if err != nil {
			return errors.Wrapf(err, "texture %d", i)
		}
		t := studio.Texture{TextureGUID: guid}
		base, err := c.out.WriteStruct(&t)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.TextureIndex = int32(base)
		}
		c.addName(base, t, "SzNameIndex", "dev/empty")
	}

	if count > 0 {
		pos, err := c.out.WriteBytes(bytes.Repeat([]byte{studio.ShaderRigidGeneric}, count))
		if err != nil {
			return err
		}
		c.hdr.MaterialTypesIndex = int32(pos)
		if err := c.out.Align(4); err != nil {
			return err
		}
	}

	// One empty cdtexture entry; the slot resolves against the file
	// start like the header's own strings.
	slot, err := c.out.Reserve(4)
	if err != nil {
		return err
	}
	c.hdr.CDTextureIndex = int32(slot)
	c.hdr.NumCDTextures = 1
	c.names.Add(0, slot, "")
	return nil
}

// convertSkins copies the skin table verbatim and rebuilds the family
// name slots. Source names that are missing or garbage fall back to a
// generated label so every family stays addressable.
func (c *converter) convertSkins(numSkinRef, numFamilies, off int) error {
	if numSkinRef == 0 || numFamilies == 0 || off == 0 {
		return nil
	}
	c.hdr.NumSkinRef = int32(numSkinRef)
	c.hdr.NumSkinFamilies = int32(numFamilies)

	tableLen := numSkinRef * numFamilies * 2
	raw, err := c.src.Bytes(off, tableLen)
	if err != nil {
		return errors.Wrap(err, "skin table")
	}
	pos, err := c.out.WriteBytes(raw)
	if err != nil {
		return err
	}
	c.hdr.SkinIndex = int32(pos)
	if err := c.out.Align(4); err != nil {
		return err
	}

	// Name offsets sit as uint16s right after the table and resolve
	// against the file start, like the header's own strings.
	for i := 0; i < numFamilies-1; i++ {
		name := fmt.Sprintf("skin%d", i+1)
		srcOff, err := c.src.Uint16(off + tableLen + i*2)
		if err == nil && srcOff > 0 {
			if s, err := c.src.CString(studio.FixOffset(srcOff)); err == nil && s != "" && len(s) < 256 {
				name = s
			}
		}
		slot, err := c.out.Reserve(4)
		if err != nil {
			return err
		}
		c.names.Add(0, slot, name)
	}
	return c.out.Align(4)
}

// convertIKChains160 records the chain section offset even for zero
// chains; the loader dereferences it unconditionally.
func (c *converter) convertIKChains160(count, off int) error {
	c.hdr.NumIKChains = int32(count)
	c.hdr.IKChainIndex = int32(c.out.Pos())
	if count == 0 || off == 0 {
		return nil
	}

	srcChainSize := binary.Size(studio.IKChain160{})
	srcLinkSize := binary.Size(studio.IKLink160{})
	chainSize := binary.Size(studio.IKChain{})
	linkSize := binary.Size(studio.IKLink{})

	srcChains := make([]studio.IKChain160, count)
	linksSoFar := 0
	for i := 0; i < count; i++ {
		srcAddr := off + i*srcChainSize
		if err := c.src.Struct(srcAddr, &srcChains[i]); err != nil {
			return errors.Wrapf(err, "ikchain %d", i)
		}
		name, err := c.src.CString(srcAddr + studio.FixOffset(srcChains[i].SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "ikchain %d name", i)
		}
		ch := studio.IKChain{
			LinkType:  int32(srcChains[i].LinkType),
			NumLinks:  int32(srcChains[i].NumLinks),
			LinkIndex: int32(linkSize*linksSoFar + chainSize*(count-i)),
			Unk:       srcChains[i].Unk10,
		}
		base, err := c.out.WriteStruct(&ch)
		if err != nil {
			return err
		}
		c.addName(base, ch, "SzNameIndex", name)
		linksSoFar += int(srcChains[i].NumLinks)
	}

	for i := 0; i < count; i++ {
		srcChainAddr := off + i*srcChainSize
		srcLinkAddr := srcChainAddr + studio.FixOffset(srcChains[i].LinkIndex)
		for k := 0; k < int(srcChains[i].NumLinks); k++ {
			var l studio.IKLink160
			if err := c.src.Struct(srcLinkAddr+k*srcLinkSize, &l); err != nil {
				return errors.Wrapf(err, "ikchain %d link %d", i, k)
			}
			out := studio.IKLink{Bone: int32(l.Bone), KneeDir: l.KneeDir}
			if _, err := c.out.WriteStruct(&out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *converter) convertPoseParams160(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumLocalPoseParameters = int32(count)
	size := binary.Size(studio.PoseParam160{})
	for i := 0; i < count; i++ {
		srcAddr := off + i*size
		var p studio.PoseParam160
		if err := c.src.Struct(srcAddr, &p); err != nil {
			return errors.Wrapf(err, "poseparam %d", i)
		}
		name, err := c.src.CString(srcAddr + studio.FixOffset(p.SzNameIndex))
		if err != nil {
			return errors.Wrapf(err, "poseparam %d name", i)
		}
		out := studio.PoseParamDesc{
			Flags: int32(p.Flags),
			Start: p.Start,
			End:   p.End,
			Loop:  p.Loop,
		}
		base, err := c.out.WriteStruct(&out)
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.LocalPoseParamIndex = int32(base)
		}
		c.addName(base, out, "SzNameIndex", name)
	}
	return nil
}

// convertBodyParts160 widens the compact bodypart/model/mesh triplet.
// Vertex counts stay zero; geometry lives in the companion vertex group
// file.
func (c *converter) convertBodyParts160(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.NumBodyParts = int32(count)

	srcBpSize := binary.Size(studio.Bodypart160{})
	srcModelSize := binary.Size(studio.Model160{})
	srcMeshSize := binary.Size(studio.Mesh160{})

	srcBps := make([]studio.Bodypart160, count)
	bpBases := make([]int, count)
	for i := 0; i < count; i++ {
		srcAddr := off + i*srcBpSize
		if err := c.src.Struct(srcAddr, &srcBps[i]); err != nil {
			return errors.Wrapf(err, "bodypart %d", i)
		}
		name, err := c.src.CString(srcAddr + studio.FixOffset(srcBps[i].SzNameIndex))
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
		modelsPos := c.out.Pos()
		slot := bpBases[i] + arena.FieldOffset(studio.Bodypart{}, "ModelIndex")
		if err := c.out.PatchInt32(slot, int32(modelsPos-bpBases[i])); err != nil {
			return err
		}

		srcBpAddr := off + i*srcBpSize
		numModels := int(srcBps[i].NumModels)
		srcModels := make([]studio.Model160, numModels)
		srcModelAddrs := make([]int, numModels)
		modelBases := make([]int, numModels)

		for m := 0; m < numModels; m++ {
			srcAddr := srcBpAddr + int(srcBps[i].ModelIndex) + m*srcModelSize
			srcModelAddrs[m] = srcAddr
			if err := c.src.Struct(srcAddr, &srcModels[m]); err != nil {
				return errors.Wrapf(err, "bodypart %d model %d", i, m)
			}
			name, err := c.src.CString(srcAddr + studio.FixOffset(srcModels[m].NameOffset))
			if err != nil {
				return errors.Wrapf(err, "bodypart %d model %d name", i, m)
			}
			var model studio.Model
			copy(model.Name[:len(model.Name)-1], name)
			model.NumMeshes = int32(srcModels[m].MeshCountTotal)
			base, err := c.out.WriteStruct(&model)
			if err != nil {
				return err
			}
			modelBases[m] = base
		}

		for m := 0; m < numModels; m++ {
			meshPos := c.out.Pos()
			slot := modelBases[m] + arena.FieldOffset(studio.Model{}, "MeshIndex")
			if err := c.out.PatchInt32(slot, int32(meshPos-modelBases[m])); err != nil {
				return err
			}
			srcMeshAddr := srcModelAddrs[m] + studio.FixOffset(srcModels[m].MeshIndex)
			for k := 0; k < int(srcModels[m].MeshCountTotal); k++ {
				var sm studio.Mesh160
				if err := c.src.Struct(srcMeshAddr+k*srcMeshSize, &sm); err != nil {
					return errors.Wrapf(err, "bodypart %d model %d mesh %d", i, m, k)
				}
				meshBase := c.out.Pos()
				mesh := studio.Mesh{
					Material:   int32(sm.Material),
					ModelIndex: int32(modelBases[m] - meshBase),
					MeshID:     sm.MeshID,
					Center:     sm.Center,
				}
				if _, err := c.out.WriteStruct(&mesh); err != nil {
					return err
				}
			}
		}
	}
	return c.out.Align(4)
}

// convertUIPanels relocates the panel mesh blobs. Every data index
// inside a mesh is relative to the end of its own struct, so the blob
// between the struct and the last face copies through unchanged; only
// the header's mesh pointer is rewritten.
func (c *converter) convertUIPanels(count, off int) error {
	if count == 0 || off == 0 {
		return nil
	}
	c.hdr.UIPanelCount = int32(count)

	panelHdrSize := binary.Size(studio.RUIHeader{})
	meshSize := binary.Size(studio.RUIMesh{})

	hdrBases := make([]int, count)
	for i := 0; i < count; i++ {
		base, err := c.out.WriteStruct(&studio.RUIHeader{})
		if err != nil {
			return err
		}
		if i == 0 {
			c.hdr.UIPanelOffset = int32(base)
		}
		hdrBases[i] = base
	}
	if err := c.out.Align(16); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		srcHdrAddr := off + i*panelHdrSize
		srcMeshOff, err := c.src.Int32(srcHdrAddr)
		if err != nil {
			return errors.Wrapf(err, "ui panel %d", i)
		}
		srcMeshAddr := srcHdrAddr + int(srcMeshOff)
		var m studio.RUIMesh
		if err := c.src.Struct(srcMeshAddr, &m); err != nil {
			return errors.Wrapf(err, "ui panel %d mesh", i)
		}
		meshBase, err := c.out.WriteStruct(&m)
		if err != nil {
			return err
		}
		if err := c.out.PatchInt32(hdrBases[i], int32(meshBase-hdrBases[i])); err != nil {
			return err
		}
		span := int(m.FaceDataIndex) + int(m.NumFaces)*binary.Size(studio.RUIMeshFace{})
		blob, err := c.src.Bytes(srcMeshAddr+meshSize, span)
		if err != nil {
			return errors.Wrapf(err, "ui panel %d data", i)
		}
		if _, err := c.out.WriteBytes(blob); err != nil {
			return err
		}
	}
	return c.out.Align(4)
}
