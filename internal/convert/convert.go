// Package convert rebuilds studio model files from the legacy schema
// generations into version 54 subversion 10. Each source generation has
// its own section transcoders; they share one output arena, one string
// table and one target header that is patched into place once every
// section has been written.
package convert

import (
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

// ErrUnsupportedVersion marks source schemas this converter recognizes
// but cannot rebuild. Callers should report and move on to the next
// file rather than abort a batch.
var ErrUnsupportedVersion = errors.New("convert: unsupported source version")

// Warning records a non-fatal irregularity hit while converting one
// file. The conversion still produced output, but the named section was
// degraded or partially skipped.
type Warning struct {
	Section string
	Message string
}

// Result is the outcome of one successful conversion.
type Result struct {
	// Data is the finished version 54 file.
	Data []byte

	// Warnings lists every degraded section, in the order hit.
	Warnings []Warning

	// Checksum is the model checksum carried into the output header.
	// Companion physics files embed it.
	Checksum int32

	// BoneCount, BoneStateCount and BoneStateOffset describe the
	// source skeleton for companion vertex group conversion. The
	// state fields are zero for sources that keep no such table.
	BoneCount       int
	BoneStateCount  int
	BoneStateOffset int
}

// Options selects the source schema and names the model.
type Options struct {
	// Version is the source schema tag as the game names it, for
	// example "10", "13.1", "16" or "19.1".
	Version string

	// Name is the model path used for the output header, typically
	// the input path relative to the conversion root.
	Name string

	// Logger receives per-section progress and warnings. Nil uses
	// the package default.
	Logger *log.Logger
}

type generation int

const (
	genLegacy generation = iota // subversions 8-13.1, not convertible
	gen140
	gen150
	gen160
	gen191
)

// versionTags maps schema tags to generations. Tags 16 through 19 share
// one generation and differ only in sequence stride and RLE handling,
// which the transcoder keys off the numeric subversion.
var versionTags = map[string]struct {
	gen generation
	sub int
}{
	"8":    {genLegacy, 8},
	"10":   {genLegacy, 10},
	"12":   {genLegacy, 12},
	"12.1": {genLegacy, 12},
	"12.2": {genLegacy, 12},
	"12.3": {genLegacy, 12},
	"12.4": {genLegacy, 12},
	"12.5": {genLegacy, 12},
	"13":   {genLegacy, 13},
	"13.1": {genLegacy, 13},
	"14":   {gen140, 14},
	"14.1": {gen140, 14},
	"15":   {gen150, 15},
	"16":   {gen160, 16},
	"17":   {gen160, 17},
	"18":   {gen160, 18},
	"19":   {gen160, 19},
	"19.1": {gen191, 19},
}

// Convert rebuilds data, a studio model in the schema named by
// opts.Version, into a version 54 file.
func Convert(data []byte, opts Options) (*Result, error) {
	tag, ok := versionTags[opts.Version]
	if !ok {
		return nil, errors.Errorf("convert: unknown source version %q", opts.Version)
	}
	if tag.gen == genLegacy {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "subversion %s", opts.Version)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &converter{
		src:   studio.NewReader(data),
		out:   arena.New(arena.DefaultCapacity),
		names: arena.NewStringTable(),
		sub:   tag.sub,
		log:   logger.With("model", opts.Name),
	}

	var err error
	switch tag.gen {
	case gen140, gen150:
		err = c.convert140(opts.Name, tag.gen == gen150)
	case gen160:
		err = c.convert160(opts.Name)
	case gen191:
		err = c.convert191(opts.Name)
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Data:            c.out.Bytes(),
		Warnings:        c.warnings,
		Checksum:        c.hdr.Checksum,
		BoneCount:       int(c.hdr.NumBones),
		BoneStateCount:  c.boneStateCount,
		BoneStateOffset: c.boneStateOffset,
	}, nil
}

// PatchPhySize writes the size of a converted companion physics file
// back into an already finished version 54 file.
func PatchPhySize(rmdl []byte, size int32) error {
	off := arena.FieldOffset(studio.StudioHdr{}, "PhySize")
	if off+4 > len(rmdl) {
		return errors.New("convert: file too short for physics size patch")
	}
	a := arena.Wrap(rmdl)
	return a.PatchInt32(off, size)
}
