package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"rmdlconv/internal/arena"
	"rmdlconv/internal/studio"
)

// converter holds the working state for one file. Sections write into
// the arena strictly forward; the header value accumulates offsets and
// is patched over its reserved span right before the string table
// flushes.
type converter struct {
	src   *studio.Reader
	out   *arena.Arena
	names *arena.StringTable
	hdr   studio.StudioHdr
	sub   int
	log   *log.Logger

	warnings  []Warning
	boneNames []string

	// Source bone state table location, kept for companion vertex
	// group conversion. Only the external-geometry generation sets it.
	boneStateCount  int
	boneStateOffset int
}

func (c *converter) warnf(section, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.warnings = append(c.warnings, Warning{Section: section, Message: msg})
	c.log.Warn(msg, "section", section)
}

// addName interns text for the int32 string field named field of the
// record v written at base.
func (c *converter) addName(base int, v any, field, text string) {
	c.names.Add(base, base+arena.FieldOffset(v, field), text)
}

// hdrSlot registers a header string field. Header string offsets are
// absolute, so the record base is the file start.
func (c *converter) hdrSlot(field, text string) {
	c.names.Add(0, arena.FieldOffset(c.hdr, field), text)
}

// normalizeModelName rewrites an input path into the canonical header
// name: forward slashes, an "mdl/" prefix and an ".rmdl" extension.
func normalizeModelName(name string) string {
	name = filepath.ToSlash(name)
	name = strings.TrimSuffix(name, ".rmdl")
	name = strings.TrimSuffix(name, ".mdl")
	if !strings.HasPrefix(name, "mdl/") {
		name = "mdl/" + name
	}
	return name + ".rmdl"
}

// writeModelName fills the inline header name and interns the full
// path. The inline copy truncates silently; the game reads the string
// table copy.
func (c *converter) writeModelName(name string) {
	name = normalizeModelName(name)
	copy(c.hdr.Name[:len(c.hdr.Name)-1], name)
	c.hdrSlot("SzNameIndex", name)
}

// writeKeyValues emits the fixed prop_data block every converted model
// carries.
func (c *converter) writeKeyValues() error {
	pos, err := c.out.WriteString(studio.DefaultKeyValues)
	if err != nil {
		return err
	}
	c.hdr.KeyValueIndex = int32(pos)
	c.hdr.KeyValueSize = int32(studio.AlignUp2(len(studio.DefaultKeyValues) + 1))
	return c.out.Align(4)
}

// copyBoneTableByName copies the sorted-by-name bone index table.
func (c *converter) copyBoneTableByName(srcOff, count int) error {
	if srcOff <= 0 || count == 0 {
		return nil
	}
	b, err := c.src.Bytes(srcOff, count)
	if err != nil {
		return err
	}
	pos, err := c.out.WriteBytes(b)
	if err != nil {
		return err
	}
	c.hdr.BoneTableByNameIndex = int32(pos)
	return c.out.Align(4)
}

// flushNames patches the header over its reserved span, then flushes
// the string table. The order matters: string slots inside the header
// are resolved by the flush, so the struct patch must land first.
func (c *converter) flushNames() error {
	if err := c.out.PatchStruct(0, &c.hdr); err != nil {
		return err
	}
	return c.names.Flush(c.out)
}

// stampLength replaces the length placeholder with the final byte
// count. Called last, after the collision block.
func (c *converter) stampLength() error {
	return c.patchHdrInt32("Length", int32(c.out.Pos()))
}

// patchHdrInt32 updates one header field after flushNames has run.
func (c *converter) patchHdrInt32(field string, v int32) error {
	return c.out.PatchInt32(arena.FieldOffset(c.hdr, field), v)
}
