// Package collision relocates the BVH collision block of a studio
// model into the target layout. The source block stores no explicit
// buffer sizes, so every span is inferred from the deltas between
// neighboring offsets; the last node buffer falls back to the file
// boundary, clamped to a sane ceiling.
package collision

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

// maxNodeSpill caps the inferred size of the final node buffer when
// only the end of file bounds it.
const maxNodeSpill = 1024 * 1024

// Params carries the shared inputs of every schema variant.
type Params struct {
	Out *arena.Arena
	Src *studio.Reader

	// Off is the offset of the collision block in the source file.
	Off int

	// Warnf reports degraded copies without aborting.
	Warnf func(format string, args ...any)
}

// HeaderCount reads the solid count of the block at off, for the
// validity check callers run before converting.
func HeaderCount(src *studio.Reader, off int) (int, error) {
	var cm studio.CollModel
	if err := src.Struct(off, &cm); err != nil {
		return 0, errors.Wrap(err, "collision model")
	}
	return int(cm.HeaderCount), nil
}

// solid is the schema-neutral view of one collision header.
type solid struct {
	unk    int32
	origin studio.Vector3
	scale  float32

	verts int32
	leafs int32
	nodes int32
}

// propFix describes the surface property data table of the v14-v19
// block; nil means ids are already direct.
type propFix struct {
	dataIndex  int
	arrayCount int
}

// Copy120 converts the v14-v16 block. Those schemas share one header
// layout whose surface property ids go through an extra data-table
// indirection that the target resolves away.
func Copy120(p Params) error {
	var cm studio.CollModel
	if err := p.Src.Struct(p.Off, &cm); err != nil {
		return errors.Wrap(err, "collision model")
	}

	hdrSize := binary.Size(studio.CollHeader160{})
	solids := make([]solid, cm.HeaderCount)
	var namesEnd int32
	var fix *propFix

	for i := range solids {
		var h studio.CollHeader160
		if err := p.Src.Struct(p.Off+binary.Size(cm)+i*hdrSize, &h); err != nil {
			return errors.Wrapf(err, "collision header %d", i)
		}
		solids[i] = solid{
			unk:    h.Unk,
			origin: h.Origin,
			scale:  h.Scale,
			verts:  h.VertIndex,
			leafs:  h.BVHLeafIndex,
			nodes:  h.BVHNodeIndex,
		}
		if i == 0 {
			namesEnd = h.SurfacePropDataIndex
			fix = &propFix{
				dataIndex:  int(h.SurfacePropDataIndex),
				arrayCount: int(h.SurfacePropArrayCount),
			}
		}
	}
	return p.relocate(cm, solids, namesEnd, fix)
}

// Copy160 converts the v16-v19 block, which shares the v14 layout.
func Copy160(p Params) error {
	return Copy120(p)
}

// Copy191 converts the v19.1 block: same buffers, a reordered 40 byte
// header and no surface property indirection.
func Copy191(p Params) error {
	var cm studio.CollModel
	if err := p.Src.Struct(p.Off, &cm); err != nil {
		return errors.Wrap(err, "collision model")
	}

	hdrSize := binary.Size(studio.CollHeader191{})
	solids := make([]solid, cm.HeaderCount)
	var namesEnd int32

	for i := range solids {
		var h studio.CollHeader191
		if err := p.Src.Struct(p.Off+binary.Size(cm)+i*hdrSize, &h); err != nil {
			return errors.Wrapf(err, "collision header %d", i)
		}
		solids[i] = solid{
			unk:    h.BVHFlags,
			origin: h.Origin,
			scale:  h.DecodeScale,
			verts:  h.VertsOfs,
			leafs:  h.LeafDataOfs,
			nodes:  h.NodesOfs,
		}
		if i == 0 {
			namesEnd = h.VertsOfs
		}
	}
	return p.relocate(cm, solids, namesEnd, nil)
}

func (p Params) relocate(srcCM studio.CollModel, solids []solid, namesEnd int32, fix *propFix) error {
	newBase, err := p.Out.Reserve(binary.Size(studio.CollModel{}))
	if err != nil {
		return err
	}
	cm := studio.CollModel{HeaderCount: srcCM.HeaderCount}

	outHdrSize := binary.Size(studio.CollHeader{})
	hdrBase, err := p.Out.Reserve(len(solids) * outHdrSize)
	if err != nil {
		return err
	}
	outHeaders := make([]studio.CollHeader, len(solids))
	for i, s := range solids {
		outHeaders[i] = studio.CollHeader{Unk: s.unk, Origin: s.origin, Scale: s.scale}
	}

	// The three shared buffers sit between the headers and the first
	// solid's vertex data.
	surfacePropsSize := int(srcCM.ContentMasksIndex - srcCM.SurfacePropsIndex)
	contentMasksSize := int(srcCM.SurfaceNamesIndex - srcCM.ContentMasksIndex)
	surfaceNamesSize := int(namesEnd - srcCM.SurfaceNamesIndex)

	if cm.SurfacePropsIndex, err = p.copyBuffer(newBase, int(srcCM.SurfacePropsIndex), surfacePropsSize); err != nil {
		return errors.Wrap(err, "surface props")
	}
	if cm.ContentMasksIndex, err = p.copyBuffer(newBase, int(srcCM.ContentMasksIndex), contentMasksSize); err != nil {
		return errors.Wrap(err, "content masks")
	}
	if cm.SurfaceNamesIndex, err = p.copyBuffer(newBase, int(srcCM.SurfaceNamesIndex), surfaceNamesSize); err != nil {
		return errors.Wrap(err, "surface names")
	}

	if fix != nil {
		if err := p.resolveSurfaceProps(newBase+int(cm.SurfacePropsIndex), int(srcCM.SurfacePropsIndex), surfacePropsSize, fix); err != nil {
			return err
		}
	}

	for i := range solids {
		s := &solids[i]

		vertSize := int(s.leafs - s.verts)
		if err := p.Out.Align(64); err != nil {
			return err
		}
		if outHeaders[i].VertIndex, err = p.copyBuffer(newBase, int(s.verts), vertSize); err != nil {
			return errors.Wrapf(err, "solid %d verts", i)
		}

		var leafSize int
		if i != len(solids)-1 {
			leafSize = int(solids[i+1].verts - s.leafs)
		} else {
			leafSize = int(solids[0].nodes - s.leafs)
		}
		if err := p.Out.Align(64); err != nil {
			return err
		}
		if outHeaders[i].BVHLeafIndex, err = p.copyBuffer(newBase, int(s.leafs), leafSize); err != nil {
			return errors.Wrapf(err, "solid %d leaves", i)
		}
	}

	// Nodes sit contiguously after every solid's vertices and leaves.
	// Only the end of file bounds the last buffer.
	for i := range solids {
		s := &solids[i]

		var nodeSize int
		if i != len(solids)-1 {
			nodeSize = int(solids[i+1].nodes - s.nodes)
		} else {
			nodeSize = p.Src.Len() - p.Off - int(s.nodes)
			if nodeSize > maxNodeSpill {
				p.Warnf("last solid node buffer unbounded, clamped to %d bytes", maxNodeSpill)
				nodeSize = maxNodeSpill
			}
		}
		if err := p.Out.Align(64); err != nil {
			return err
		}
		if outHeaders[i].BVHNodeIndex, err = p.copyBuffer(newBase, int(s.nodes), nodeSize); err != nil {
			return errors.Wrapf(err, "solid %d nodes", i)
		}
	}

	for i := range outHeaders {
		if err := p.Out.PatchStruct(hdrBase+i*outHdrSize, &outHeaders[i]); err != nil {
			return err
		}
	}
	return p.Out.PatchStruct(newBase, &cm)
}

// copyBuffer relocates one source span and returns its offset relative
// to the new collision model struct.
func (p Params) copyBuffer(newBase, srcOff, size int) (int32, error) {
	if size < 0 {
		return 0, errors.Errorf("negative buffer size %d", size)
	}
	raw, err := p.Src.Bytes(p.Off+srcOff, size)
	if err != nil {
		return 0, err
	}
	pos, err := p.Out.WriteBytes(raw)
	if err != nil {
		return 0, err
	}
	return int32(pos - newBase), nil
}

// resolveSurfaceProps rewrites the id of every copied surface property
// record through the source's property data table. Every record in the
// array is rewritten, not just the first table's worth; missing entries
// break climbing surfaces on converted models.
func (p Params) resolveSurfaceProps(outPropsBase, srcPropsOff, propsSize int, fix *propFix) error {
	propSize := binary.Size(studio.DSurfaceProperty{})
	dataSize := binary.Size(studio.DSurfacePropertyData160{})
	count := propsSize / propSize

	for i := 0; i < count; i++ {
		var prop studio.DSurfaceProperty
		if err := p.Src.Struct(p.Off+srcPropsOff+i*propSize, &prop); err != nil {
			return errors.Wrapf(err, "surface prop %d", i)
		}
		dataAddr := p.Off + fix.dataIndex + fix.arrayCount*int(prop.SurfacePropId)*dataSize
		var data studio.DSurfacePropertyData160
		if err := p.Src.Struct(dataAddr, &data); err != nil {
			return errors.Wrapf(err, "surface prop data %d", i)
		}
		prop.SurfacePropId = data.SurfacePropId1
		if err := p.Out.PatchStruct(outPropsBase+i*propSize, &prop); err != nil {
			return err
		}
	}
	return nil
}
