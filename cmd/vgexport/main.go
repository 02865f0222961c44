// Command vgexport writes the geometry of a converted vertex group as
// a glTF document, one glTF mesh per contained mesh, for eyeballing
// conversions in any model viewer. Only positions and indices are
// exported.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"rmdlconv/internal/studio"
	"rmdlconv/internal/vg"
)

func main() {
	output := flag.String("output", "", "Output .gltf path (default: input with .gltf)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: vgexport [-output file.gltf] model.vg")
		os.Exit(1)
	}
	inPath := flag.Arg(0)

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	doc, meshCount, err := export(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, ".vg") + ".gltf"
	}
	if err := gltf.Save(doc, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d meshes: %s\n", meshCount, outPath)
}

func export(data []byte) (*gltf.Document, int, error) {
	r := studio.NewReader(data)

	var hdr vg.GroupHeader1
	if err := r.Struct(0, &hdr); err != nil {
		return nil, 0, err
	}
	if hdr.ID != vg.Magic || hdr.Version != vg.Version {
		return nil, 0, fmt.Errorf("not a converted vertex group (id %#x version %d)", hdr.ID, hdr.Version)
	}

	doc := gltf.NewDocument()
	meshSize := binary.Size(vg.MeshHeader1{})
	exported := 0

	for i := 0; i < int(hdr.MeshCount); i++ {
		var mh vg.MeshHeader1
		if err := r.Struct(int(hdr.MeshOffset)+i*meshSize, &mh); err != nil {
			return nil, 0, err
		}
		// Position is the first vertex field; meshes without one have
		// nothing worth plotting.
		if mh.Flags&0x1 == 0 || mh.VertCount == 0 || mh.IndexCount == 0 {
			continue
		}

		stride := int(mh.VertCacheSize)
		verts, err := r.Bytes(int(hdr.VertOffset)+int(mh.VertOffset), int(mh.VertCount)*stride)
		if err != nil {
			return nil, 0, fmt.Errorf("mesh %d vertices: %w", i, err)
		}
		positions := make([][3]float32, mh.VertCount)
		for v := range positions {
			p := verts[v*stride:]
			positions[v] = [3]float32{
				floatAt(p, 0),
				floatAt(p, 4),
				floatAt(p, 8),
			}
		}

		idxBytes, err := r.Bytes(int(hdr.IndexOffset)+int(mh.IndexOffset)*2, int(mh.IndexCount)*2)
		if err != nil {
			return nil, 0, fmt.Errorf("mesh %d indices: %w", i, err)
		}
		indices := make([]uint16, mh.IndexCount)
		for v := range indices {
			indices[v] = binary.LittleEndian.Uint16(idxBytes[v*2:])
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: fmt.Sprintf("mesh_%d", i),
			Primitives: []*gltf.Primitive{{
				Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
				Attributes: map[string]uint32{
					"POSITION": modeler.WritePosition(doc, positions),
				},
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: fmt.Sprintf("mesh_%d", i),
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
		exported++
	}
	return doc, exported, nil
}

func floatAt(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}
